package model

type NodeState string

const (
	NodeStateUnknown      NodeState = "unknown"
	NodeStateDown         NodeState = "down"
	NodeStateReady        NodeState = "ready"
	NodeStateDisconnected NodeState = "disconnected"
)

type NodeAvailability string

const (
	NodeAvailabilityActive NodeAvailability = "active"
	NodeAvailabilityPause  NodeAvailability = "pause"
	NodeAvailabilityDrain  NodeAvailability = "drain"
)

type NodeRole string

const (
	NodeRoleManager NodeRole = "manager"
	NodeRoleWorker  NodeRole = "worker"
)

// NodeResources is the capacity a node reports, in human units.
type NodeResources struct {
	CPUs     float64 `json:"cpus"`
	MemoryMB float64 `json:"memory_mb"`
	GPUs     int64   `json:"gpus"`
}

// ObservedNode is a read-only projection of a swarm node.
type ObservedNode struct {
	ID            string            `json:"id"`
	Hostname      string            `json:"hostname"`
	Role          NodeRole          `json:"role"`
	State         NodeState         `json:"status"`
	Availability  NodeAvailability  `json:"availability"`
	Addr          string            `json:"addr"`
	PlatformOS    string            `json:"platform_os"`
	PlatformArch  string            `json:"platform_arch"`
	EngineVersion string            `json:"engine_version"`
	Labels        map[string]string `json:"labels"`
	Resources     NodeResources     `json:"resources"`
}
