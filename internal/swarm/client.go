package swarm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/swarm"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/falmar/swarmkeeper/internal/model"
)

// API is the subset of the docker engine client used to drive the swarm.
// *client.Client satisfies it.
type API interface {
	Info(ctx context.Context) (types.Info, error)

	NodeList(ctx context.Context, options types.NodeListOptions) ([]swarm.Node, error)
	NodeInspectWithRaw(ctx context.Context, nodeID string) (swarm.Node, []byte, error)
	NodeUpdate(ctx context.Context, nodeID string, version swarm.Version, node swarm.NodeSpec) error

	ServiceList(ctx context.Context, options types.ServiceListOptions) ([]swarm.Service, error)
	ServiceInspectWithRaw(ctx context.Context, serviceID string, options types.ServiceInspectOptions) (swarm.Service, []byte, error)
	ServiceCreate(ctx context.Context, service swarm.ServiceSpec, options types.ServiceCreateOptions) (types.ServiceCreateResponse, error)
	ServiceUpdate(ctx context.Context, serviceID string, version swarm.Version, service swarm.ServiceSpec, options types.ServiceUpdateOptions) (types.ServiceUpdateResponse, error)
	ServiceRemove(ctx context.Context, serviceID string) error
	ServiceLogs(ctx context.Context, serviceID string, options types.ContainerLogsOptions) (io.ReadCloser, error)

	TaskList(ctx context.Context, options types.TaskListOptions) ([]swarm.Task, error)

	Close() error
}

var _ API = (*client.Client)(nil)

type Config struct {
	// Host is the docker daemon address, e.g. unix:///var/run/docker.sock
	Host string
}

// Client translates between the swarm API and the domain model. It holds
// a single docker connection that is safe for concurrent use; call Close
// once on shutdown.
type Client struct {
	api API
}

// Dial opens the docker connection shared by the cluster client and the
// image builder.
func Dial(cfg *Config) (*client.Client, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if cfg != nil && cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	} else {
		opts = append(opts, client.FromEnv)
	}

	dockerd, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	return dockerd, nil
}

func New(api API) *Client {
	return &Client{api: api}
}

func (c *Client) Close() error {
	return c.api.Close()
}

// classify tags a docker error with the matching domain sentinel.
func classify(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errdefs.IsNotFound(err):
		return fmt.Errorf("%w: %w", model.ErrNotFound, err)
	case client.IsErrConnectionFailed(err), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", model.ErrClusterUnreachable, err)
	default:
		return fmt.Errorf("%w: %w", model.ErrOperationFailed, err)
	}
}
