package ports

import (
	"context"

	"github.com/docker/docker/api/types"
	"github.com/kubescape/funcrunner/core/domain"
)

// ContainerEngine is the port implemented by adapters to be used in InvocationService to drive containers
// each method issues a single request and never retries
type ContainerEngine interface {
	CreateContainer(ctx context.Context, req domain.CreateRequest) (string, error)
	DeleteContainer(ctx context.Context, id string) error
	FetchLogs(ctx context.Context, id string) ([]byte, error)
	Ping(ctx context.Context) error
	PullImage(ctx context.Context, req domain.PullRequest, registryAuth string) error
	StartContainer(ctx context.Context, id string) error
	Version(ctx context.Context) (types.Version, error)
	WaitContainer(ctx context.Context, id string) (domain.ContainerExit, error)
	WriteStdin(ctx context.Context, id string, input []byte) error
}

// AuthResolver is the port implemented by adapters to be used in InvocationService to attach registry credentials
type AuthResolver interface {
	RegistryAuth(ref domain.ImageReference) (string, error)
	Resolve(ref domain.ImageReference) (domain.Credential, bool)
}

// RegistryInspector is the port implemented by adapters to be used in InvocationService to look up images in their registry
type RegistryInspector interface {
	Inspect(ctx context.Context, ref domain.ImageReference) (domain.RemoteImage, error)
}
