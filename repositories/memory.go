package repositories

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/kubescape/funcrunner/core/domain"
	"github.com/kubescape/funcrunner/core/ports"
	"go.opentelemetry.io/otel"
)

// MemoryStore implements FunctionRepository with the function map read from the configuration
type MemoryStore struct {
	functions map[string]domain.FunctionSpec
}

var _ ports.FunctionRepository = (*MemoryStore)(nil)

// NewMemoryStorage initializes the MemoryStore with a copy of functions
func NewMemoryStorage(functions map[string]domain.FunctionSpec) *MemoryStore {
	return &MemoryStore{
		functions: maps.Clone(functions),
	}
}

// GetFunction returns the configuration of function name
func (m *MemoryStore) GetFunction(ctx context.Context, name string) (domain.FunctionSpec, error) {
	_, span := otel.Tracer("").Start(ctx, "MemoryStore.GetFunction")
	defer span.End()

	if value, ok := m.functions[name]; ok {
		return value, nil
	}
	return domain.FunctionSpec{}, fmt.Errorf("%w: %s", domain.ErrUnknownFunction, name)
}

// ListFunctions returns the configured function names, sorted
func (m *MemoryStore) ListFunctions(ctx context.Context) ([]string, error) {
	_, span := otel.Tracer("").Start(ctx, "MemoryStore.ListFunctions")
	defer span.End()

	return slices.Sorted(maps.Keys(m.functions)), nil
}
