package adapters

import (
	"context"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/kubescape/funcrunner/core/domain"
	"github.com/kubescape/funcrunner/core/ports"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
)

// MockEngine implements a mocked ContainerEngine to be used for tests,
// it records every call and fails the ops listed in Failures
type MockEngine struct {
	Logs       []byte
	Exit       domain.ContainerExit
	Failures   map[domain.EngineOp]error
	Panics     map[domain.EngineOp]bool
	APIVersion string

	mu      sync.Mutex
	ops     []domain.EngineOp
	creates []domain.CreateRequest
	pulls   []domain.PullRequest
	auths   []string
	stdin   []byte
	blockOn domain.EngineOp
}

var _ ports.ContainerEngine = (*MockEngine)(nil)

// NewMockEngine initializes the MockEngine with the output its containers produce
func NewMockEngine(logs string) *MockEngine {
	logger.L().Info("NewMockEngine")
	return &MockEngine{
		Logs:       []byte(logs),
		Failures:   map[domain.EngineOp]error{},
		Panics:     map[domain.EngineOp]bool{},
		APIVersion: "1.43",
	}
}

// BlockOn makes op wait for its context to be done
func (m *MockEngine) BlockOn(op domain.EngineOp) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockOn = op
}

// Ops returns the recorded calls
func (m *MockEngine) Ops() []domain.EngineOp {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.EngineOp(nil), m.ops...)
}

// Creates returns the recorded create requests
func (m *MockEngine) Creates() []domain.CreateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CreateRequest(nil), m.creates...)
}

// Pulls returns the recorded pull requests with their registry auth
func (m *MockEngine) Pulls() ([]domain.PullRequest, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.PullRequest(nil), m.pulls...), append([]string(nil), m.auths...)
}

// Stdin returns the bytes written to the container
func (m *MockEngine) Stdin() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stdin
}

func (m *MockEngine) call(ctx context.Context, op domain.EngineOp) error {
	m.mu.Lock()
	m.ops = append(m.ops, op)
	err := m.Failures[op]
	panics := m.Panics[op]
	block := m.blockOn == op
	m.mu.Unlock()
	logger.L().Debug("MockEngine."+string(op), helpers.Error(err))
	if panics {
		panic("mock engine " + string(op))
	}
	if block {
		<-ctx.Done()
		return &domain.TransportError{Op: op, Err: ctx.Err()}
	}
	return err
}

// CreateContainer returns a static id
func (m *MockEngine) CreateContainer(ctx context.Context, req domain.CreateRequest) (string, error) {
	m.mu.Lock()
	m.creates = append(m.creates, req)
	m.mu.Unlock()
	if err := m.call(ctx, domain.OpCreate); err != nil {
		return "", err
	}
	return "mock-container", nil
}

// DeleteContainer records the call
func (m *MockEngine) DeleteContainer(ctx context.Context, _ string) error {
	return m.call(ctx, domain.OpDelete)
}

// FetchLogs returns Logs
func (m *MockEngine) FetchLogs(ctx context.Context, _ string) ([]byte, error) {
	if err := m.call(ctx, domain.OpLogs); err != nil {
		return nil, err
	}
	return m.Logs, nil
}

// Ping records the call
func (m *MockEngine) Ping(ctx context.Context) error {
	return m.call(ctx, domain.OpPing)
}

// PullImage records the request
func (m *MockEngine) PullImage(ctx context.Context, req domain.PullRequest, registryAuth string) error {
	if err := m.call(ctx, domain.OpPull); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pulls = append(m.pulls, req)
	m.auths = append(m.auths, registryAuth)
	return nil
}

// StartContainer records the call
func (m *MockEngine) StartContainer(ctx context.Context, _ string) error {
	return m.call(ctx, domain.OpStart)
}

// Version returns APIVersion
func (m *MockEngine) Version(ctx context.Context) (types.Version, error) {
	if err := m.call(ctx, domain.OpVersion); err != nil {
		return types.Version{}, err
	}
	return types.Version{Version: "mock", APIVersion: m.APIVersion}, nil
}

// WaitContainer returns Exit
func (m *MockEngine) WaitContainer(ctx context.Context, _ string) (domain.ContainerExit, error) {
	if err := m.call(ctx, domain.OpWait); err != nil {
		return domain.ContainerExit{}, err
	}
	return m.Exit, nil
}

// WriteStdin records input
func (m *MockEngine) WriteStdin(ctx context.Context, _ string, input []byte) error {
	if err := m.call(ctx, domain.OpStdin); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stdin = input
	return nil
}
