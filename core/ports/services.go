package ports

import (
	"context"

	"github.com/kubescape/funcrunner/core/domain"
)

// InvocationService is the port implemented by the business component InvocationService
type InvocationService interface {
	Describe(ctx context.Context, name string, remote bool) (domain.FunctionDescription, error)
	Functions(ctx context.Context) ([]string, error)
	Known(ctx context.Context, name string) error
	Invoke(ctx context.Context, name string, input []byte) ([]byte, error)
	PullImages(ctx context.Context) error
	Ready(ctx context.Context) bool
}
