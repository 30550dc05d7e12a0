package api

import (
	"context"
	"fmt"

	"github.com/falmar/swarmkeeper/internal/builder"
	"github.com/falmar/swarmkeeper/internal/model"
	"github.com/falmar/swarmkeeper/internal/registry"
)

type fakeCluster struct {
	nodes     []model.ObservedNode
	nodesErr  error
	availErr  error
	services  []model.ObservedService
	svcErr    error
	deployErr error
	removeErr error
	scaleErr  error
	scaled    map[string]int
}

func (f *fakeCluster) ListNodes(ctx context.Context) ([]model.ObservedNode, error) {
	return f.nodes, f.nodesErr
}

func (f *fakeCluster) GetNode(ctx context.Context, id string) (*model.ObservedNode, error) {
	for i := range f.nodes {
		if f.nodes[i].ID == id || f.nodes[i].Hostname == id {
			return &f.nodes[i], nil
		}
	}
	return nil, fmt.Errorf("node %q: %w", id, model.ErrNotFound)
}

func (f *fakeCluster) SetAvailability(ctx context.Context, nodeID string, availability model.NodeAvailability) error {
	return f.availErr
}

func (f *fakeCluster) ListServices(ctx context.Context) ([]model.ObservedService, error) {
	return f.services, f.svcErr
}

func (f *fakeCluster) DeployService(ctx context.Context, name string, def model.ServiceDefinition) (string, error) {
	if f.deployErr != nil {
		return "", f.deployErr
	}
	return "svc-" + name, nil
}

func (f *fakeCluster) UpdateService(ctx context.Context, name string, def model.ServiceDefinition) (string, error) {
	return "svc-" + name, nil
}

func (f *fakeCluster) RemoveService(ctx context.Context, name string) error {
	return f.removeErr
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
	return fmt.Sprintf("logs of %s (%d)", name, tail)
}

func (f *fakeCluster) GetClusterID(ctx context.Context) string {
	return "swarm-1"
}

type fakeBuilder struct {
	result builder.Result
}

func (f *fakeBuilder) Build(ctx context.Context, buildContext, image, platform string) builder.Result {
	return f.result
}

type fakeRegistry struct {
	deleted []string
}

func (f *fakeRegistry) ListRepositories(ctx context.Context) []string {
	return []string{"web"}
}

func (f *fakeRegistry) ListTags(ctx context.Context, repository string) []string {
	return []string{"v1"}
}

func (f *fakeRegistry) GetTag(ctx context.Context, repository, tag string) (*registry.TagDetail, error) {
	if tag != "v1" {
		return nil, fmt.Errorf("tag %s: %w", tag, model.ErrNotFound)
	}
	return &registry.TagDetail{Tag: tag, Digest: "sha256:abc"}, nil
}

func (f *fakeRegistry) DeleteTag(ctx context.Context, repository, tag string) error {
	f.deleted = append(f.deleted, repository+":"+tag)
	return nil
}
