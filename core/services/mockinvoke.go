package services

import (
	"context"
	"fmt"

	"github.com/kubescape/funcrunner/core/domain"
	"github.com/kubescape/funcrunner/core/ports"
)

// MockInvocationService echoes its input when happy, the function "missing" is never known
type MockInvocationService struct {
	happy bool
}

var _ ports.InvocationService = (*MockInvocationService)(nil)

func NewMockInvocationService(happy bool) *MockInvocationService {
	return &MockInvocationService{happy: happy}
}

func (m MockInvocationService) known(name string) error {
	if name == "missing" {
		return fmt.Errorf("%w: %s", domain.ErrUnknownFunction, name)
	}
	return nil
}

func (m MockInvocationService) Describe(_ context.Context, name string, _ bool) (domain.FunctionDescription, error) {
	if err := m.known(name); err != nil {
		return domain.FunctionDescription{}, err
	}
	if !m.happy {
		return domain.FunctionDescription{}, domain.ErrMockError
	}
	return domain.FunctionDescription{
		Name:      name,
		Image:     "hello-world",
		Reference: domain.ImageReference{Domain: "docker.io", Name: "library/hello-world", Tag: "latest"},
		Familiar:  "hello-world:latest",
	}, nil
}

func (m MockInvocationService) Functions(context.Context) ([]string, error) {
	if m.happy {
		return []string{"echo"}, nil
	}
	return nil, domain.ErrMockError
}

func (m MockInvocationService) Known(_ context.Context, name string) error {
	return m.known(name)
}

func (m MockInvocationService) Invoke(_ context.Context, name string, input []byte) ([]byte, error) {
	if err := m.known(name); err != nil {
		return nil, err
	}
	if !m.happy {
		return nil, domain.ErrMockError
	}
	return append([]byte(name+":"), input...), nil
}

func (m MockInvocationService) PullImages(context.Context) error {
	if m.happy {
		return nil
	}
	return domain.ErrMockError
}

func (m MockInvocationService) Ready(context.Context) bool {
	return m.happy
}
