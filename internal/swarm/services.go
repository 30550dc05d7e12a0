package swarm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/swarm"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/falmar/swarmkeeper/internal/model"
	"github.com/rs/zerolog/log"
)

// ListServices fails only when the service list itself cannot be fetched;
// task count failures for a single service degrade to zero.
func (c *Client) ListServices(ctx context.Context) ([]model.ObservedService, error) {
	services, err := c.api.ServiceList(ctx, types.ServiceListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", classify(err))
	}

	observed := make([]model.ObservedService, 0, len(services))
	for _, svc := range services {
		o := toObservedService(svc)

		running, completed, err := c.countTasks(ctx, svc.ID)
		if err != nil {
			log.Warn().Err(err).Str("service", o.Name).Msg("failed to count service tasks")
		}
		o.RunningReplicas = running
		o.CompletedReplicas = completed

		observed = append(observed, o)
	}

	return observed, nil
}

func (c *Client) countTasks(ctx context.Context, serviceID string) (running int, completed int, err error) {
	tasks, err := c.api.TaskList(ctx, types.TaskListOptions{
		Filters: filters.NewArgs(filters.Arg("service", serviceID)),
	})
	if err != nil {
		return 0, 0, err
	}

	for _, t := range tasks {
		switch {
		case t.DesiredState == swarm.TaskStateRunning && t.Status.State == swarm.TaskStateRunning:
			running++
		case t.Status.State == swarm.TaskStateComplete:
			completed++
		}
	}

	return running, completed, nil
}

func toObservedService(svc swarm.Service) model.ObservedService {
	o := model.ObservedService{
		ID:        svc.ID,
		Name:      svc.Spec.Name,
		Ports:     []string{},
		CreatedAt: svc.CreatedAt,
	}

	if cs := svc.Spec.TaskTemplate.ContainerSpec; cs != nil {
		o.Image = cs.Image
	}

	if r := svc.Spec.Mode.Replicated; r != nil && r.Replicas != nil {
		o.Replicas = int(*r.Replicas)
	}

	for _, p := range svc.Endpoint.Ports {
		if p.PublishedPort == 0 || p.TargetPort == 0 {
			continue
		}
		o.Ports = append(o.Ports, fmt.Sprintf("%d:%d", p.PublishedPort, p.TargetPort))
	}

	return o
}

// DeployService creates the service and returns its cluster ID. It is
// not retried; a name collision surfaces as an error.
func (c *Client) DeployService(ctx context.Context, name string, def model.ServiceDefinition) (string, error) {
	resp, err := c.api.ServiceCreate(ctx, ServiceSpec(name, def), types.ServiceCreateOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to create service: %w", classify(err))
	}

	for _, w := range resp.Warnings {
		log.Warn().Str("service", name).Msg(w)
	}

	return resp.ID, nil
}

// UpdateService replaces the spec of an existing service.
func (c *Client) UpdateService(ctx context.Context, name string, def model.ServiceDefinition) (string, error) {
	svc, err := c.inspect(ctx, name)
	if err != nil {
		return "", err
	}

	resp, err := c.api.ServiceUpdate(ctx, svc.ID, svc.Version, ServiceSpec(name, def), types.ServiceUpdateOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to update service: %w", classify(err))
	}

	for _, w := range resp.Warnings {
		log.Warn().Str("service", name).Msg(w)
	}

	return svc.ID, nil
}

func (c *Client) RemoveService(ctx context.Context, name string) error {
	svc, err := c.inspect(ctx, name)
	if err != nil {
		return err
	}

	if err := c.api.ServiceRemove(ctx, svc.ID); err != nil {
		return fmt.Errorf("failed to remove service: %w", classify(err))
	}

	return nil
}

func (c *Client) ScaleService(ctx context.Context, name string, replicas int) error {
	svc, err := c.inspect(ctx, name)
	if err != nil {
		return err
	}

	if svc.Spec.Mode.Replicated == nil {
		return fmt.Errorf("service %q is not replicated: %w", name, model.ErrOperationFailed)
	}

	n := uint64(replicas)
	svc.Spec.Mode.Replicated.Replicas = &n

	_, err = c.api.ServiceUpdate(ctx, svc.ID, svc.Version, svc.Spec, types.ServiceUpdateOptions{})
	if err != nil {
		return fmt.Errorf("failed to scale service: %w", classify(err))
	}

	return nil
}

// GetServiceLogs returns the combined stdout/stderr tail. Failures are
// returned as text, never as an error.
func (c *Client) GetServiceLogs(ctx context.Context, name string, tail int) string {
	svc, err := c.inspect(ctx, name)
	if err != nil {
		return fmt.Sprintf("Error fetching logs: %v", err)
	}

	rc, err := c.api.ServiceLogs(ctx, svc.ID, types.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       strconv.Itoa(tail),
	})
	if err != nil {
		return fmt.Sprintf("Error fetching logs: %v", err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if cs := svc.Spec.TaskTemplate.ContainerSpec; cs != nil && cs.TTY {
		_, err = io.Copy(&buf, rc)
	} else {
		_, err = stdcopy.StdCopy(&buf, &buf, rc)
	}
	if err != nil {
		return fmt.Sprintf("Error fetching logs: %v", err)
	}

	return buf.String()
}

// GetClusterID returns an empty string when the swarm cannot be queried.
func (c *Client) GetClusterID(ctx context.Context) string {
	info, err := c.api.Info(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("failed to get swarm info")
		return ""
	}

	if info.Swarm.Cluster == nil {
		return ""
	}

	return info.Swarm.Cluster.ID
}

func (c *Client) inspect(ctx context.Context, name string) (swarm.Service, error) {
	svc, _, err := c.api.ServiceInspectWithRaw(ctx, name, types.ServiceInspectOptions{})
	if err != nil {
		return swarm.Service{}, fmt.Errorf("failed to inspect service %q: %w", name, classify(err))
	}

	return svc, nil
}
