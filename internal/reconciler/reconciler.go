package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/falmar/swarmkeeper/internal/events"
	"github.com/falmar/swarmkeeper/internal/model"
	"github.com/falmar/swarmkeeper/internal/observability"
	"github.com/rs/zerolog/log"
)

const DefaultInterval = 30 * time.Second

type Observer interface {
	ListServices(ctx context.Context) ([]model.ObservedService, error)
}

type Store interface {
	List(ctx context.Context) ([]model.CatalogEntry, error)
	SetStatus(ctx context.Context, name string, status model.Status, clusterID string) error
}

type Config struct {
	Observer Observer
	Store    Store
	// Notifier is optional.
	Notifier events.Notifier
	Interval time.Duration
}

// Reconciler keeps catalog statuses in line with what the cluster runs.
// It only reads the cluster and only writes status and cluster id.
type Reconciler struct {
	observer Observer
	store    Store
	notifier events.Notifier
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg *Config) *Reconciler {
	r := &Reconciler{
		observer: cfg.Observer,
		store:    cfg.Store,
		notifier: cfg.Notifier,
		interval: cfg.Interval,
	}
	if r.interval <= 0 {
		r.interval = DefaultInterval
	}
	return r
}

// Start runs a cycle right away and then one per interval until ctx is
// cancelled or Stop is called. Calling Start twice is a no-op.
func (r *Reconciler) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done

	log.Info().Dur("interval", r.interval).Msg("reconciler started")

	go r.loop(ctx, done)
}

// Stop cancels the loop and blocks until the in-flight cycle has returned.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done

	log.Info().Msg("reconciler stopped")
}

func (r *Reconciler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		r.safeCycle(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(r.interval):
		}
	}
}

func (r *Reconciler) safeCycle(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			observability.RecordReconcileCycle("error")
			log.Error().Interface("panic", p).Msg("reconcile cycle panicked")
		}
	}()

	if ctx.Err() != nil {
		return
	}

	changed, err := r.Cycle(ctx)
	switch {
	case err == nil:
		observability.RecordReconcileCycle("ok")
		if changed > 0 {
			log.Info().Int("changed", changed).Msg("reconcile cycle updated catalog")
		}
	case errors.Is(err, context.Canceled):
	case errors.Is(err, model.ErrClusterUnreachable):
		observability.RecordReconcileCycle("unreachable")
		log.Warn().Err(err).Msg("cluster unreachable, skipping reconcile cycle")
	default:
		observability.RecordReconcileCycle("error")
		log.Error().Err(err).Msg("reconcile cycle failed")
	}
}

// Cycle runs a single reconciliation pass and returns the number of
// catalog entries it wrote. If the cluster cannot be listed nothing is
// written.
func (r *Reconciler) Cycle(ctx context.Context) (int, error) {
	observed, err := r.observer.ListServices(ctx)
	if err != nil {
		return 0, err
	}

	entries, err := r.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list catalog: %w", err)
	}

	byName := make(map[string]model.ObservedService, len(observed))
	for _, svc := range observed {
		byName[svc.Name] = svc
	}

	changed := 0
	for _, entry := range entries {
		var live *model.ObservedService
		if svc, ok := byName[entry.Name]; ok {
			live = &svc
		}

		status, clusterID, ok := Evaluate(entry, live)
		if !ok {
			continue
		}

		if err := r.store.SetStatus(ctx, entry.Name, status, clusterID); err != nil {
			log.Error().Err(err).Str("service", entry.Name).Msg("failed to write reconciled status")
			continue
		}
		changed++

		if status != entry.Status {
			observability.RecordCorrection(string(status))
			log.Info().
				Str("service", entry.Name).
				Str("from", string(entry.Status)).
				Str("to", string(status)).
				Msg("service status corrected")

			if r.notifier != nil {
				r.notifier.StatusChanged(ctx, events.StatusChange{
					Name:      entry.Name,
					From:      entry.Status,
					To:        status,
					ClusterID: clusterID,
				})
			}
		}
	}

	return changed, nil
}

// Evaluate applies the status policy to one entry. live is nil when the
// cluster has no service with the entry's name. ok is false when the entry
// needs no write.
func Evaluate(entry model.CatalogEntry, live *model.ObservedService) (status model.Status, clusterID string, ok bool) {
	if live == nil {
		if entry.Status == model.StatusRunning {
			return model.StatusStopped, "", true
		}
		return entry.Status, entry.ClusterID, false
	}

	switch {
	case live.RunningReplicas > 0:
		status = model.StatusRunning
	case live.CompletedReplicas > 0:
		status = model.StatusStopped
	default:
		status = model.StatusFailed
	}

	if status == entry.Status && live.ID == entry.ClusterID {
		return status, live.ID, false
	}

	return status, live.ID, true
}
