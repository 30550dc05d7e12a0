package manager

import (
	"context"
	"fmt"
	"sync"

	"github.com/falmar/swarmkeeper/internal/builder"
	"github.com/falmar/swarmkeeper/internal/events"
	"github.com/falmar/swarmkeeper/internal/model"
)

type fakeCluster struct {
	mu sync.Mutex

	nodes    []model.ObservedNode
	nodesErr error
	availErr error
	avail    map[string]model.NodeAvailability

	services    []model.ObservedService
	servicesErr error
	deployID    string
	deployErr   error
	updateErr   error
	removeErr   error
	scaleErr    error
	clusterID   string

	deployed []string
	removed  []string
	scaled   map[string]int
}

func (f *fakeCluster) ListNodes(ctx context.Context) ([]model.ObservedNode, error) {
	return f.nodes, f.nodesErr
}

func (f *fakeCluster) GetNode(ctx context.Context, idOrHostname string) (*model.ObservedNode, error) {
	for i := range f.nodes {
		if f.nodes[i].ID == idOrHostname || f.nodes[i].Hostname == idOrHostname {
			return &f.nodes[i], nil
		}
	}
	return nil, fmt.Errorf("node %q: %w", idOrHostname, model.ErrNotFound)
}

func (f *fakeCluster) SetAvailability(ctx context.Context, nodeID string, availability model.NodeAvailability) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.availErr != nil {
		return f.availErr
	}
	if f.avail == nil {
		f.avail = map[string]model.NodeAvailability{}
	}
	f.avail[nodeID] = availability
	return nil
}

func (f *fakeCluster) ListServices(ctx context.Context) ([]model.ObservedService, error) {
	return f.services, f.servicesErr
}

func (f *fakeCluster) DeployService(ctx context.Context, name string, def model.ServiceDefinition) (string, error) {
	if f.deployErr != nil {
		return "", f.deployErr
	}
	f.deployed = append(f.deployed, name)
	return f.deployID, nil
}

func (f *fakeCluster) UpdateService(ctx context.Context, name string, def model.ServiceDefinition) (string, error) {
	if f.updateErr != nil {
		return "", f.updateErr
	}
	return f.deployID, nil
}

func (f *fakeCluster) RemoveService(ctx context.Context, name string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, name)
	return nil
}

func (f *fakeCluster) ScaleService(ctx context.Context, name string, replicas int) error {
	if f.scaleErr != nil {
		return f.scaleErr
	}
	if f.scaled == nil {
		f.scaled = map[string]int{}
	}
	f.scaled[name] = replicas
	return nil
}

func (f *fakeCluster) GetServiceLogs(ctx context.Context, name string, tail int) string {
	return fmt.Sprintf("%s tail=%d", name, tail)
}

func (f *fakeCluster) GetClusterID(ctx context.Context) string {
	return f.clusterID
}

type fakeBuilder struct {
	result builder.Result
	calls  []string
}

func (f *fakeBuilder) Build(ctx context.Context, buildContext, image, platform string) builder.Result {
	f.calls = append(f.calls, buildContext+"|"+image+"|"+platform)
	return f.result
}

type recordingNotifier struct {
	changes []events.StatusChange
}

func (n *recordingNotifier) StatusChanged(ctx context.Context, change events.StatusChange) {
	n.changes = append(n.changes, change)
}
