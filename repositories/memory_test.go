package repositories

import (
	"context"
	"testing"

	"github.com/kubescape/funcrunner/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestMemoryStore_GetFunction(t *testing.T) {
	functions := map[string]domain.FunctionSpec{
		"echo": {Image: "hello-world"},
	}
	m := NewMemoryStorage(functions)
	ctx := context.TODO()
	got, err := m.GetFunction(ctx, "echo")
	assert.NoError(t, err)
	assert.Equal(t, "hello-world", got.Image)
	_, err = m.GetFunction(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUnknownFunction)
	// the store keeps its own copy
	functions["late"] = domain.FunctionSpec{Image: "alpine"}
	_, err = m.GetFunction(ctx, "late")
	assert.ErrorIs(t, err, domain.ErrUnknownFunction)
}

func TestMemoryStore_ListFunctions(t *testing.T) {
	m := NewMemoryStorage(map[string]domain.FunctionSpec{
		"echo":  {Image: "hello-world"},
		"alpha": {Image: "alpine"},
	})
	got, err := m.ListFunctions(context.TODO())
	assert.NoError(t, err)
	assert.Equal(t, []string{"alpha", "echo"}, got)
}
