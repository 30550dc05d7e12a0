package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/falmar/swarmkeeper/internal/queue"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Notifier receives catalog status transitions. Implementations must not
// block the caller for long and never fail it.
type Notifier interface {
	StatusChanged(ctx context.Context, change StatusChange)
}

// TextNotifier sends a human readable line, e.g. *slack.Notifier.
type TextNotifier interface {
	Notify(ctx context.Context, text string) error
}

type Config struct {
	Queue queue.Queue
	Text  TextNotifier
	// Timeout bounds each sink call.
	Timeout time.Duration
}

// Publisher fans status changes out to the configured sinks. A nil sink is
// skipped; sink failures are logged.
type Publisher struct {
	queue   queue.Queue
	text    TextNotifier
	timeout time.Duration
}

var _ Notifier = (*Publisher)(nil)

func NewPublisher(cfg *Config) *Publisher {
	p := &Publisher{
		queue:   cfg.Queue,
		text:    cfg.Text,
		timeout: cfg.Timeout,
	}
	if p.timeout <= 0 {
		p.timeout = 5 * time.Second
	}
	return p
}

func (p *Publisher) StatusChanged(ctx context.Context, change StatusChange) {
	if change.Time.IsZero() {
		change.Time = time.Now().UTC()
	}

	logger := log.With().Str("service", change.Name).Str("from", string(change.From)).Str("to", string(change.To)).Logger()

	if p.queue != nil {
		if err := p.push(ctx, change); err != nil {
			logger.Warn().Err(err).Msg("failed to push status event")
		}
	}

	if p.text != nil {
		cctx, cancel := context.WithTimeout(ctx, p.timeout)
		err := p.text.Notify(cctx, Text(change))
		cancel()
		if err != nil {
			logger.Warn().Err(err).Msg("failed to send status notification")
		}
	}
}

func (p *Publisher) push(ctx context.Context, change StatusChange) error {
	data, err := json.Marshal(change)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.queue.Push(ctx, &queue.Event{
		ID:   uuid.NewString(),
		Name: StatusChangedEvent,
		Data: data,
	}, 0)
}

func Text(change StatusChange) string {
	s := fmt.Sprintf("service %s: %s -> %s", change.Name, change.From, change.To)
	if change.ClusterID != "" {
		s += fmt.Sprintf(" (%s)", change.ClusterID)
	}
	return s
}

// Decode reads a StatusChange back from a queued event.
func Decode(e *queue.Event) (StatusChange, error) {
	var change StatusChange
	if e.Name != StatusChangedEvent {
		return change, fmt.Errorf("unexpected event %q", e.Name)
	}
	if err := json.Unmarshal(e.Data, &change); err != nil {
		return change, fmt.Errorf("invalid %s payload: %w", e.Name, err)
	}
	return change, nil
}
