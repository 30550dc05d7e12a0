package model

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

type Status string

const (
	StatusRegistered Status = "registered"
	StatusRunning    Status = "running"
	StatusStopped    Status = "stopped"
	StatusFailed     Status = "failed"
	StatusUnknown    Status = "unknown"
)

// Valid reports whether s is one of the known catalog statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusRegistered, StatusRunning, StatusStopped, StatusFailed, StatusUnknown:
		return true
	}
	return false
}

// ServiceDefinition is the desired shape of a workload. It is replaced
// as a whole on update, never merged.
type ServiceDefinition struct {
	Image        string            `json:"image" yaml:"image"`
	Replicas     int               `json:"replicas" yaml:"replicas"`
	Ports        []string          `json:"ports" yaml:"ports"`
	Env          map[string]string `json:"env" yaml:"env"`
	Constraints  []string          `json:"constraints" yaml:"constraints"`
	Labels       map[string]string `json:"labels" yaml:"labels"`
	Networks     []string          `json:"networks" yaml:"networks"`
	Mounts       []string          `json:"mounts" yaml:"mounts"`
	Command      string            `json:"command,omitempty" yaml:"command,omitempty"`
	BuildContext string            `json:"build_context,omitempty" yaml:"build_context,omitempty"`
}

// UnmarshalJSON defaults Replicas to 1 when the document leaves it out.
func (d *ServiceDefinition) UnmarshalJSON(b []byte) error {
	type plain ServiceDefinition
	p := plain{Replicas: 1}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*d = ServiceDefinition(p)
	return nil
}

// Clone returns a copy that shares no maps or slices with d.
func (d ServiceDefinition) Clone() ServiceDefinition {
	d.Ports = slices.Clone(d.Ports)
	d.Env = maps.Clone(d.Env)
	d.Constraints = slices.Clone(d.Constraints)
	d.Labels = maps.Clone(d.Labels)
	d.Networks = slices.Clone(d.Networks)
	d.Mounts = slices.Clone(d.Mounts)
	return d
}

func (d ServiceDefinition) Validate() error {
	if strings.TrimSpace(d.Image) == "" {
		return fmt.Errorf("%w: image is required", ErrInvalidDefinition)
	}
	if d.Replicas < 0 {
		return fmt.Errorf("%w: replicas must be >= 0", ErrInvalidDefinition)
	}
	return nil
}

// CatalogEntry is the desired state of one named service plus its last
// known status in the cluster.
type CatalogEntry struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Definition  ServiceDefinition `json:"definition"`
	Status      Status            `json:"status"`
	ClusterID   string            `json:"cluster_id,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ObservedService is a read-only projection of a swarm service.
// RunningReplicas may lag Replicas while a rollout converges.
type ObservedService struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Image             string    `json:"image"`
	Replicas          int       `json:"replicas"`
	RunningReplicas   int       `json:"running_replicas"`
	CompletedReplicas int       `json:"completed_replicas"`
	Ports             []string  `json:"ports"`
	CreatedAt         time.Time `json:"created_at"`
}
