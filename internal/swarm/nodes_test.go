package swarm

import (
	"context"
	"errors"
	"testing"

	"github.com/docker/docker/api/types/swarm"
	"github.com/falmar/swarmkeeper/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNodes() []swarm.Node {
	manager := swarm.Node{ID: "n1"}
	manager.Spec.Role = swarm.NodeRoleManager
	manager.Spec.Availability = swarm.NodeAvailabilityActive
	manager.Spec.Labels = map[string]string{"zone": "a"}
	manager.Status.State = swarm.NodeStateReady
	manager.Status.Addr = "10.0.0.1"
	manager.Description.Hostname = "alpha"
	manager.Description.Platform.OS = "linux"
	manager.Description.Platform.Architecture = "x86_64"
	manager.Description.Engine.EngineVersion = "24.0.2"
	manager.Description.Resources.NanoCPUs = 4_000_000_000
	manager.Description.Resources.MemoryBytes = 8 * 1024 * 1024 * 1024
	manager.Description.Resources.GenericResources = []swarm.GenericResource{
		{NamedResourceSpec: &swarm.NamedGenericResource{Kind: "SSD", Value: "ssd0"}},
		{DiscreteResourceSpec: &swarm.DiscreteGenericResource{Kind: "GPU", Value: 2}},
	}

	// a worker with most fields missing
	bare := swarm.Node{ID: "n2"}
	bare.Description.Hostname = "beta"

	return []swarm.Node{manager, bare}
}

func TestListNodes(t *testing.T) {
	c := New(&fakeAPI{nodes: testNodes()})

	nodes, err := c.ListNodes(context.Background())
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	n := nodes[0]
	assert.Equal(t, "alpha", n.Hostname)
	assert.Equal(t, model.NodeRoleManager, n.Role)
	assert.Equal(t, model.NodeStateReady, n.State)
	assert.Equal(t, model.NodeAvailabilityActive, n.Availability)
	assert.Equal(t, "10.0.0.1", n.Addr)
	assert.Equal(t, 4.0, n.Resources.CPUs)
	assert.Equal(t, 8192.0, n.Resources.MemoryMB)
	assert.Equal(t, int64(2), n.Resources.GPUs)
	assert.Equal(t, "a", n.Labels["zone"])

	bare := nodes[1]
	assert.Equal(t, model.NodeRoleWorker, bare.Role)
	assert.Equal(t, model.NodeStateUnknown, bare.State)
	assert.Equal(t, model.NodeAvailabilityActive, bare.Availability)
	assert.Zero(t, bare.Resources.CPUs)
	assert.Zero(t, bare.Resources.GPUs)
	assert.NotNil(t, bare.Labels)
}

func TestListNodesUnreachable(t *testing.T) {
	c := New(&fakeAPI{nodesErr: errors.New("boom")})

	_, err := c.ListNodes(context.Background())
	assert.ErrorIs(t, err, model.ErrOperationFailed)
}

func TestGetNode(t *testing.T) {
	c := New(&fakeAPI{nodes: testNodes()})
	ctx := context.Background()

	byID, err := c.GetNode(ctx, "n2")
	require.NoError(t, err)
	assert.Equal(t, "beta", byID.Hostname)

	byHost, err := c.GetNode(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "n1", byHost.ID)

	_, err = c.GetNode(ctx, "alp")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSetAvailability(t *testing.T) {
	api := &fakeAPI{nodes: testNodes()}
	c := New(api)

	require.NoError(t, c.SetAvailability(context.Background(), "n1", model.NodeAvailabilityDrain))
	require.Len(t, api.nodeUpdates, 1)
	assert.Equal(t, swarm.NodeAvailabilityDrain, api.nodeUpdates[0].Availability)
	assert.Equal(t, swarm.NodeRoleManager, api.nodeUpdates[0].Role)
}

func TestSetAvailabilityMissingNode(t *testing.T) {
	api := &fakeAPI{nodes: testNodes()}
	c := New(api)

	err := c.SetAvailability(context.Background(), "nope", model.NodeAvailabilityActive)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Empty(t, api.nodeUpdates)
}

func TestSetAvailabilityUpdateError(t *testing.T) {
	api := &fakeAPI{nodes: testNodes(), updateErr: errors.New("rpc error")}
	c := New(api)

	err := c.SetAvailability(context.Background(), "n1", model.NodeAvailabilityDrain)
	assert.ErrorIs(t, err, model.ErrOperationFailed)
}
