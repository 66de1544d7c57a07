package ports

import (
	"context"

	"github.com/kubescape/funcrunner/core/domain"
)

// FunctionRepository is the port implemented by adapters to be used in InvocationService to look up configured functions
type FunctionRepository interface {
	GetFunction(ctx context.Context, name string) (domain.FunctionSpec, error)
	ListFunctions(ctx context.Context) ([]string, error)
}
