package manager

import (
	"context"
	"fmt"

	"github.com/falmar/swarmkeeper/internal/model"
	"github.com/falmar/swarmkeeper/internal/observability"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func (svc *Service) ListNodes(ctx context.Context) ([]model.ObservedNode, error) {
	return svc.cluster.ListNodes(ctx)
}

func (svc *Service) GetNode(ctx context.Context, idOrHostname string) (*model.ObservedNode, error) {
	return svc.cluster.GetNode(ctx, idOrHostname)
}

func (svc *Service) Drain(ctx context.Context, nodeID string) error {
	return svc.setAvailability(ctx, "drain", nodeID, model.NodeAvailabilityDrain)
}

func (svc *Service) Activate(ctx context.Context, nodeID string) error {
	return svc.setAvailability(ctx, "activate", nodeID, model.NodeAvailabilityActive)
}

func (svc *Service) setAvailability(ctx context.Context, op, nodeID string, availability model.NodeAvailability) error {
	err := svc.cluster.SetAvailability(ctx, nodeID, availability)
	observability.RecordClusterOp(op, err)
	if err != nil {
		return fmt.Errorf("failed to set node %s %s: %w", nodeID, availability, err)
	}

	log.Info().Str("node_id", nodeID).Str("availability", string(availability)).Msg("node availability changed")

	return nil
}

// Health queries nodes, services and the cluster id concurrently. Any
// failed query is reported in Errors and marks the cluster degraded.
func (svc *Service) Health(ctx context.Context) model.ClusterHealth {
	var (
		nodes    []model.ObservedNode
		services []model.ObservedService
		nodesErr error
		svcErr   error
		id       string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		nodes, nodesErr = svc.cluster.ListNodes(gctx)
		return nil
	})
	g.Go(func() error {
		services, svcErr = svc.cluster.ListServices(gctx)
		return nil
	})
	g.Go(func() error {
		id = svc.cluster.GetClusterID(gctx)
		return nil
	})
	_ = g.Wait()

	health := model.ClusterHealth{
		Status:       model.HealthHealthy,
		ClusterID:    id,
		NodeCount:    len(nodes),
		ServiceCount: len(services),
		Nodes:        nodes,
		Errors:       []string{},
	}
	if health.Nodes == nil {
		health.Nodes = []model.ObservedNode{}
	}

	if nodesErr != nil {
		health.Errors = append(health.Errors, fmt.Sprintf("Failed to list nodes: %v", nodesErr))
	}
	if svcErr != nil {
		health.Errors = append(health.Errors, fmt.Sprintf("Failed to list services: %v", svcErr))
	}
	if len(health.Errors) > 0 {
		health.Status = model.HealthDegraded
	}

	return health
}
