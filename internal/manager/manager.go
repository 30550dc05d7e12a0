package manager

import (
	"context"
	"fmt"

	"github.com/falmar/swarmkeeper/internal/builder"
	"github.com/falmar/swarmkeeper/internal/catalog"
	"github.com/falmar/swarmkeeper/internal/events"
	"github.com/falmar/swarmkeeper/internal/model"
	"github.com/falmar/swarmkeeper/internal/observability"
	"github.com/rs/zerolog/log"
)

const MaxReplicas = 100

// Cluster is what the executor drives; *swarm.Client satisfies it.
type Cluster interface {
	ListNodes(ctx context.Context) ([]model.ObservedNode, error)
	GetNode(ctx context.Context, idOrHostname string) (*model.ObservedNode, error)
	SetAvailability(ctx context.Context, nodeID string, availability model.NodeAvailability) error

	ListServices(ctx context.Context) ([]model.ObservedService, error)
	DeployService(ctx context.Context, name string, def model.ServiceDefinition) (string, error)
	UpdateService(ctx context.Context, name string, def model.ServiceDefinition) (string, error)
	RemoveService(ctx context.Context, name string) error
	ScaleService(ctx context.Context, name string, replicas int) error
	GetServiceLogs(ctx context.Context, name string, tail int) string
	GetClusterID(ctx context.Context) string
}

// Builder is satisfied by *builder.Pipeline.
type Builder interface {
	Build(ctx context.Context, buildContext, image, platform string) builder.Result
}

type Config struct {
	Cluster Cluster
	Store   catalog.Store
	Builder Builder
	Jobs    *builder.Jobs
	// Notifier is optional.
	Notifier events.Notifier
}

// Service sequences catalog status writes around cluster calls. Concurrent
// operations on the same name are not serialized; the cluster's own name
// uniqueness is the only guard.
type Service struct {
	cluster  Cluster
	store    catalog.Store
	builder  Builder
	jobs     *builder.Jobs
	notifier events.Notifier
}

func New(cfg *Config) *Service {
	svc := &Service{
		cluster:  cfg.Cluster,
		store:    cfg.Store,
		builder:  cfg.Builder,
		jobs:     cfg.Jobs,
		notifier: cfg.Notifier,
	}
	if svc.jobs == nil {
		svc.jobs = builder.NewJobs()
	}
	return svc
}

// Deploy creates the cluster service for a catalog entry. The entry is
// marked running with the new id, or failed when the cluster refuses.
func (svc *Service) Deploy(ctx context.Context, name string) (string, error) {
	entry, err := svc.store.Get(ctx, name)
	if err != nil {
		return "", err
	}

	id, err := svc.cluster.DeployService(ctx, name, entry.Definition)
	observability.RecordClusterOp("deploy", err)
	if err != nil {
		svc.setStatus(ctx, entry, model.StatusFailed, entry.ClusterID)
		return "", fmt.Errorf("deploy failed: %w", err)
	}

	if err := svc.setStatus(ctx, entry, model.StatusRunning, id); err != nil {
		return id, err
	}

	log.Info().Str("service", name).Str("swarm_id", id).Msg("service deployed")

	return id, nil
}

// Redeploy pushes the current catalog definition onto the existing
// cluster service.
func (svc *Service) Redeploy(ctx context.Context, name string) (string, error) {
	entry, err := svc.store.Get(ctx, name)
	if err != nil {
		return "", err
	}

	id, err := svc.cluster.UpdateService(ctx, name, entry.Definition)
	observability.RecordClusterOp("update", err)
	if err != nil {
		svc.setStatus(ctx, entry, model.StatusFailed, entry.ClusterID)
		return "", fmt.Errorf("update failed: %w", err)
	}

	if err := svc.setStatus(ctx, entry, model.StatusRunning, id); err != nil {
		return id, err
	}

	log.Info().Str("service", name).Str("swarm_id", id).Msg("service updated")

	return id, nil
}

// Stop removes the cluster service and marks the entry stopped. The
// catalog entry itself is kept.
func (svc *Service) Stop(ctx context.Context, name string) error {
	entry, err := svc.store.Get(ctx, name)
	if err != nil {
		return err
	}

	err = svc.cluster.RemoveService(ctx, name)
	observability.RecordClusterOp("remove", err)
	if err != nil {
		return fmt.Errorf("stop failed: %w", err)
	}

	return svc.setStatus(ctx, entry, model.StatusStopped, "")
}

// Scale changes the live replica count only; the catalog definition keeps
// its own count.
func (svc *Service) Scale(ctx context.Context, name string, replicas int) error {
	if replicas < 0 || replicas > MaxReplicas {
		return fmt.Errorf("%w: replicas must be between 0 and %d", model.ErrInvalidDefinition, MaxReplicas)
	}

	err := svc.cluster.ScaleService(ctx, name, replicas)
	observability.RecordClusterOp("scale", err)
	if err != nil {
		return fmt.Errorf("scale failed: %w", err)
	}

	return nil
}

func (svc *Service) Logs(ctx context.Context, name string, tail int) string {
	if tail <= 0 {
		tail = 100
	}
	return svc.cluster.GetServiceLogs(ctx, name, tail)
}

func (svc *Service) LiveServices(ctx context.Context) ([]model.ObservedService, error) {
	return svc.cluster.ListServices(ctx)
}

func (svc *Service) setStatus(ctx context.Context, entry *model.CatalogEntry, status model.Status, clusterID string) error {
	if err := svc.store.SetStatus(ctx, entry.Name, status, clusterID); err != nil {
		log.Error().Err(err).Str("service", entry.Name).Str("status", string(status)).Msg("failed to write service status")
		return err
	}

	if svc.notifier != nil && entry.Status != status {
		svc.notifier.StatusChanged(ctx, events.StatusChange{
			Name:      entry.Name,
			From:      entry.Status,
			To:        status,
			ClusterID: clusterID,
		})
	}

	return nil
}
