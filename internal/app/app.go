// Package app builds the long-lived components shared by the CLI commands
// from a loaded config.
package app

import (
	"context"
	"fmt"
	"net/url"
	"time"

	dockerregistry "github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/falmar/swarmkeeper/internal/builder"
	"github.com/falmar/swarmkeeper/internal/catalog"
	"github.com/falmar/swarmkeeper/internal/config"
	"github.com/falmar/swarmkeeper/internal/events"
	"github.com/falmar/swarmkeeper/internal/manager"
	"github.com/falmar/swarmkeeper/internal/queue"
	"github.com/falmar/swarmkeeper/internal/slack"
	"github.com/falmar/swarmkeeper/internal/swarm"
	"github.com/rs/zerolog/log"
)

// Catalog is a store that owns resources.
type Catalog interface {
	catalog.Store
	Close() error
}

type memoryCatalog struct {
	*catalog.MemoryStore
}

func (memoryCatalog) Close() error { return nil }

func OpenCatalog(cfg *config.Config) (Catalog, error) {
	if cfg.Database.Memory {
		log.Warn().Msg("using in-memory catalog, entries are lost on exit")
		return memoryCatalog{catalog.NewMemoryStore()}, nil
	}

	return catalog.OpenSQLStore(cfg.Database.Path)
}

// Docker is one docker connection plus the cluster client built on it.
type Docker struct {
	Engine  *client.Client
	Cluster *swarm.Client
}

func DialDocker(cfg *config.Config) (*Docker, error) {
	dockerd, err := swarm.Dial(&swarm.Config{Host: cfg.Docker.Host})
	if err != nil {
		return nil, err
	}

	return &Docker{
		Engine:  dockerd,
		Cluster: swarm.New(dockerd),
	}, nil
}

func (d *Docker) Close() error {
	return d.Cluster.Close()
}

func NewPipeline(cfg *config.Config, engine builder.Engine) *builder.Pipeline {
	auth := dockerregistry.AuthConfig{
		Username: cfg.Registry.Username,
		Password: cfg.Registry.Password,
	}
	if u, err := url.Parse(cfg.Registry.URL); err == nil {
		auth.ServerAddress = u.Host
	}

	return builder.NewPipeline(engine, &builder.Config{
		ProjectsDir:  cfg.Projects.Dir,
		RegistryAuth: auth,
	})
}

// NewQueue returns nil when no queue is configured.
func NewQueue(ctx context.Context, cfg *config.Config) (queue.Queue, error) {
	if cfg.SQS.QueueURL == "" {
		return nil, nil
	}

	client, err := queue.NewSQSClient(ctx, &queue.ClientConfig{
		Region:          cfg.SQS.Region,
		AccessKeyID:     cfg.SQS.AccessKeyID,
		SecretAccessKey: cfg.SQS.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}

	return queue.NewSQSQueue(&queue.SQSConfig{
		QueueURL:          cfg.SQS.QueueURL,
		Client:            client,
		PollInterval:      10 * time.Second,
		VisibilityTimeout: 30 * time.Second,
	}), nil
}

// NewPublisher wires whichever notification sinks are configured. A queue
// that cannot be set up is logged and skipped.
func NewPublisher(ctx context.Context, cfg *config.Config) *events.Publisher {
	pcfg := &events.Config{}

	q, err := NewQueue(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("status events will not be queued")
	} else if q != nil {
		pcfg.Queue = q
	}

	if cfg.Slack.Token != "" && cfg.Slack.Channel != "" {
		pcfg.Text = slack.NewNotifier(&slack.Config{
			Token:   cfg.Slack.Token,
			Channel: cfg.Slack.Channel,
		})
	}

	return events.NewPublisher(pcfg)
}

// NewManager wires the executor over an open catalog and docker
// connection.
func NewManager(cfg *config.Config, store catalog.Store, docker *Docker, notifier events.Notifier) *manager.Service {
	return manager.New(&manager.Config{
		Cluster:  docker.Cluster,
		Store:    store,
		Builder:  NewPipeline(cfg, docker.Engine),
		Jobs:     builder.NewJobs(),
		Notifier: notifier,
	})
}

// SeedCatalog registers the definitions found in the definitions dir.
func SeedCatalog(ctx context.Context, cfg *config.Config, store catalog.Store) error {
	defs, err := catalog.LoadDefinitionsDir(cfg.Definitions.Dir)
	if err != nil {
		return fmt.Errorf("failed to load definitions: %w", err)
	}

	created, err := catalog.Register(ctx, store, defs)
	if err != nil {
		return err
	}
	if len(created) > 0 {
		log.Info().Strs("services", created).Msg("registered service definitions")
	}

	return nil
}
