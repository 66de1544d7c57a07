package adapters

import (
	"context"
	"testing"

	"github.com/kubescape/funcrunner/core/domain"
	"gotest.tools/v3/assert"
)

func TestMockEngine_Lifecycle(t *testing.T) {
	ctx := context.TODO()
	m := NewMockEngine("out")
	id, err := m.CreateContainer(ctx, domain.CreateRequest{Image: "docker.io/library/hello-world:latest"})
	assert.NilError(t, err)
	assert.NilError(t, m.StartContainer(ctx, id))
	logs, err := m.FetchLogs(ctx, id)
	assert.NilError(t, err)
	assert.Equal(t, "out", string(logs))
	assert.DeepEqual(t, []domain.EngineOp{domain.OpCreate, domain.OpStart, domain.OpLogs}, m.Ops())
}

func TestMockEngine_Failures(t *testing.T) {
	m := NewMockEngine("")
	m.Failures[domain.OpStart] = &domain.EngineError{Op: domain.OpStart, Status: 500}
	err := m.StartContainer(context.TODO(), "mock-container")
	assert.ErrorContains(t, err, "engine start failed")
}
