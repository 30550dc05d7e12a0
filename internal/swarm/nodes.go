package swarm

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/swarm"
	"github.com/docker/go-units"
	"github.com/falmar/swarmkeeper/internal/model"
)

func (c *Client) ListNodes(ctx context.Context) ([]model.ObservedNode, error) {
	nodes, err := c.api.NodeList(ctx, types.NodeListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", classify(err))
	}

	observed := make([]model.ObservedNode, 0, len(nodes))
	for _, n := range nodes {
		observed = append(observed, toObservedNode(n))
	}

	return observed, nil
}

// GetNode matches idOrHostname against node IDs and hostnames.
func (c *Client) GetNode(ctx context.Context, idOrHostname string) (*model.ObservedNode, error) {
	nodes, err := c.ListNodes(ctx)
	if err != nil {
		return nil, err
	}

	for i := range nodes {
		if nodes[i].ID == idOrHostname || nodes[i].Hostname == idOrHostname {
			return &nodes[i], nil
		}
	}

	return nil, fmt.Errorf("node %q: %w", idOrHostname, model.ErrNotFound)
}

// SetAvailability is a read-modify-write of the node spec.
func (c *Client) SetAvailability(ctx context.Context, nodeID string, availability model.NodeAvailability) error {
	node, _, err := c.api.NodeInspectWithRaw(ctx, nodeID)
	if err != nil {
		return fmt.Errorf("failed to inspect node: %w", classify(err))
	}

	node.Spec.Availability = swarm.NodeAvailability(availability)

	err = c.api.NodeUpdate(ctx, node.ID, node.Version, node.Spec)
	if err != nil {
		return fmt.Errorf("failed to update node availability: %w", classify(err))
	}

	return nil
}

func toObservedNode(n swarm.Node) model.ObservedNode {
	desc := n.Description
	res := desc.Resources

	node := model.ObservedNode{
		ID:            n.ID,
		Hostname:      desc.Hostname,
		Role:          model.NodeRoleWorker,
		State:         model.NodeStateUnknown,
		Availability:  model.NodeAvailabilityActive,
		Addr:          n.Status.Addr,
		PlatformOS:    desc.Platform.OS,
		PlatformArch:  desc.Platform.Architecture,
		EngineVersion: desc.Engine.EngineVersion,
		Labels:        n.Spec.Labels,
		Resources: model.NodeResources{
			CPUs:     float64(res.NanoCPUs) / 1e9,
			MemoryMB: float64(res.MemoryBytes) / units.MiB,
			GPUs:     countGPUs(res.GenericResources),
		},
	}

	if n.Spec.Role != "" {
		node.Role = model.NodeRole(n.Spec.Role)
	}
	if n.Status.State != "" {
		node.State = model.NodeState(n.Status.State)
	}
	if n.Spec.Availability != "" {
		node.Availability = model.NodeAvailability(n.Spec.Availability)
	}
	if node.Labels == nil {
		node.Labels = map[string]string{}
	}

	return node
}

func countGPUs(resources []swarm.GenericResource) int64 {
	for _, r := range resources {
		if r.DiscreteResourceSpec == nil {
			continue
		}
		if strings.EqualFold(r.DiscreteResourceSpec.Kind, "GPU") {
			return r.DiscreteResourceSpec.Value
		}
	}

	return 0
}
