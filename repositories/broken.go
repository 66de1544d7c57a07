package repositories

import (
	"context"

	"github.com/kubescape/funcrunner/core/domain"
	"github.com/kubescape/funcrunner/core/ports"
)

// BrokenStore implements FunctionRepository and fails every call, to be used for tests
type BrokenStore struct{}

var _ ports.FunctionRepository = (*BrokenStore)(nil)

func NewBrokenStorage() *BrokenStore {
	return &BrokenStore{}
}

func (b BrokenStore) GetFunction(context.Context, string) (domain.FunctionSpec, error) {
	return domain.FunctionSpec{}, domain.ErrMockError
}

func (b BrokenStore) ListFunctions(context.Context) ([]string, error) {
	return nil, domain.ErrMockError
}
