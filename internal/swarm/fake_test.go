package swarm

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/swarm"
	"github.com/docker/docker/errdefs"
)

type fakeAPI struct {
	info    types.Info
	infoErr error

	nodes       []swarm.Node
	nodesErr    error
	nodeUpdates []swarm.NodeSpec
	updateErr   error

	services    []swarm.Service
	servicesErr error
	tasks       map[string][]swarm.Task
	tasksErr    map[string]error

	created       []swarm.ServiceSpec
	createErr     error
	updated       []swarm.ServiceSpec
	removed       []string
	logs          string
	serviceLogErr error
}

var _ API = (*fakeAPI)(nil)

func notFound(what string) error {
	return errdefs.NotFound(errors.New(what + " not found"))
}

func (f *fakeAPI) Info(ctx context.Context) (types.Info, error) {
	return f.info, f.infoErr
}

func (f *fakeAPI) NodeList(ctx context.Context, options types.NodeListOptions) ([]swarm.Node, error) {
	return f.nodes, f.nodesErr
}

func (f *fakeAPI) NodeInspectWithRaw(ctx context.Context, nodeID string) (swarm.Node, []byte, error) {
	for _, n := range f.nodes {
		if n.ID == nodeID {
			return n, nil, nil
		}
	}
	return swarm.Node{}, nil, notFound("node")
}

func (f *fakeAPI) NodeUpdate(ctx context.Context, nodeID string, version swarm.Version, node swarm.NodeSpec) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.nodeUpdates = append(f.nodeUpdates, node)
	return nil
}

func (f *fakeAPI) ServiceList(ctx context.Context, options types.ServiceListOptions) ([]swarm.Service, error) {
	return f.services, f.servicesErr
}

func (f *fakeAPI) ServiceInspectWithRaw(ctx context.Context, serviceID string, options types.ServiceInspectOptions) (swarm.Service, []byte, error) {
	for _, s := range f.services {
		if s.ID == serviceID || s.Spec.Name == serviceID {
			return s, nil, nil
		}
	}
	return swarm.Service{}, nil, notFound("service")
}

func (f *fakeAPI) ServiceCreate(ctx context.Context, service swarm.ServiceSpec, options types.ServiceCreateOptions) (types.ServiceCreateResponse, error) {
	if f.createErr != nil {
		return types.ServiceCreateResponse{}, f.createErr
	}
	f.created = append(f.created, service)
	return types.ServiceCreateResponse{ID: "svc-" + service.Name}, nil
}

func (f *fakeAPI) ServiceUpdate(ctx context.Context, serviceID string, version swarm.Version, service swarm.ServiceSpec, options types.ServiceUpdateOptions) (types.ServiceUpdateResponse, error) {
	f.updated = append(f.updated, service)
	return types.ServiceUpdateResponse{}, nil
}

func (f *fakeAPI) ServiceRemove(ctx context.Context, serviceID string) error {
	f.removed = append(f.removed, serviceID)
	return nil
}

func (f *fakeAPI) ServiceLogs(ctx context.Context, serviceID string, options types.ContainerLogsOptions) (io.ReadCloser, error) {
	if f.serviceLogErr != nil {
		return nil, f.serviceLogErr
	}
	return io.NopCloser(strings.NewReader(f.logs)), nil
}

func (f *fakeAPI) TaskList(ctx context.Context, options types.TaskListOptions) ([]swarm.Task, error) {
	id := options.Filters.Get("service")[0]
	if err := f.tasksErr[id]; err != nil {
		return nil, err
	}
	return f.tasks[id], nil
}

func (f *fakeAPI) Close() error {
	return nil
}
