package services

import (
	"context"
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/kubescape/funcrunner/core/domain"
	"github.com/kubescape/funcrunner/core/ports"
	"github.com/kubescape/funcrunner/internal/tools"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// defaultDeleteTimeout bounds container deletion when no state timeout is configured
const defaultDeleteTimeout = time.Minute

// InvocationService implements InvocationService from ports, this is the business component
// business logic should be independent of implementations
type InvocationService struct {
	auth         ports.AuthResolver
	engine       ports.ContainerEngine
	functions    ports.FunctionRepository
	inspector    ports.RegistryInspector
	stateTimeout time.Duration
}

var _ ports.InvocationService = (*InvocationService)(nil)

// NewInvocationService initializes the InvocationService with all injected dependencies,
// a zero stateTimeout lets every lifecycle step block as long as the engine does
func NewInvocationService(engine ports.ContainerEngine, auth ports.AuthResolver, functions ports.FunctionRepository, inspector ports.RegistryInspector, stateTimeout time.Duration) *InvocationService {
	return &InvocationService{
		auth:         auth,
		engine:       engine,
		functions:    functions,
		inspector:    inspector,
		stateTimeout: stateTimeout,
	}
}

// invocation tracks the lifecycle of the container backing one call
type invocation struct {
	id        string
	function  string
	container string
	state     domain.InvocationState
}

func (i *invocation) transition(ctx context.Context, next domain.InvocationState) error {
	if !i.state.CanTransition(next) {
		return fmt.Errorf("invalid invocation transition %s -> %s", i.state, next)
	}
	logger.L().Ctx(ctx).Debug("invocation state",
		helpers.String("invocationID", i.id),
		helpers.String("function", i.function),
		helpers.String("containerID", i.container),
		helpers.String("from", i.state.String()),
		helpers.String("to", next.String()))
	i.state = next
	return nil
}

func (i *invocation) fail(ctx context.Context, err error) {
	logger.L().Ctx(ctx).Error("invocation failed",
		helpers.Error(err),
		helpers.String("invocationID", i.id),
		helpers.String("function", i.function),
		helpers.String("containerID", i.container),
		helpers.String("state", i.state.String()))
	if !i.state.Terminal() {
		i.state = domain.Failed
	}
}

// step runs one lifecycle operation under the state deadline and moves to next on success
func (s *InvocationService) step(ctx context.Context, inv *invocation, next domain.InvocationState, op func(context.Context) error) error {
	if s.stateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.stateTimeout)
		defer cancel()
	}
	if err := op(ctx); err != nil {
		inv.fail(ctx, err)
		return err
	}
	return inv.transition(ctx, next)
}

// Invoke runs the function name in a fresh container and returns its standard output.
// Once the container is created it is deleted on every exit path.
// The first failing step gives the returned error, a deletion failure is appended to it.
func (s *InvocationService) Invoke(ctx context.Context, name string, input []byte) (output []byte, err error) {
	ctx, span := otel.Tracer("").Start(ctx, "InvocationService.Invoke")
	defer span.End()
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	fn, err := s.functions.GetFunction(ctx, name)
	if err != nil {
		return nil, err
	}
	ref, err := domain.NormalizeImage(fn.Image)
	if err != nil {
		return nil, fmt.Errorf("function %s: %w", name, err)
	}

	inv := &invocation{id: uuid.NewString(), function: name}
	ctx = context.WithValue(ctx, domain.InvocationIDKey{}, inv.id)
	ctx = context.WithValue(ctx, domain.FunctionKey{}, name)
	withStdin := len(input) > 0

	err = s.step(ctx, inv, domain.Created, func(ctx context.Context) error {
		id, err := s.engine.CreateContainer(ctx, domain.CreateRequest{
			Name:  tools.ContainerName(name, inv.id),
			Image: ref.String(),
			Stdin: withStdin,
		})
		inv.container = id
		return err
	})
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			inv.fail(ctx, fmt.Errorf("panic: %v", r))
			_ = s.deleteContainer(ctx, inv)
			panic(r)
		}
		if deleteErr := s.deleteContainer(ctx, inv); deleteErr != nil {
			if err == nil {
				output, err = nil, deleteErr
				return
			}
			err = multierror.Append(err, deleteErr)
		}
	}()

	if err := s.step(ctx, inv, domain.Started, func(ctx context.Context) error {
		return s.engine.StartContainer(ctx, inv.container)
	}); err != nil {
		return nil, err
	}

	if withStdin {
		if err := s.step(ctx, inv, domain.StdinWritten, func(ctx context.Context) error {
			return s.engine.WriteStdin(ctx, inv.container, input)
		}); err != nil {
			return nil, err
		}
	}

	if err := s.step(ctx, inv, domain.Waited, func(ctx context.Context) error {
		exit, err := s.engine.WaitContainer(ctx, inv.container)
		if err == nil && (exit.StatusCode != 0 || exit.Error != "") {
			logger.L().Ctx(ctx).Warning("function exited with an error",
				helpers.String("function", name),
				helpers.String("containerID", inv.container),
				helpers.Int("statusCode", int(exit.StatusCode)),
				helpers.String("error", exit.Error))
		}
		return err
	}); err != nil {
		return nil, err
	}

	var logs []byte
	if err := s.step(ctx, inv, domain.LogsFetched, func(ctx context.Context) error {
		var err error
		logs, err = s.engine.FetchLogs(ctx, inv.container)
		return err
	}); err != nil {
		return nil, err
	}

	return logs, nil
}

// deleteContainer removes the invocation container, it outlives the caller's cancellation
func (s *InvocationService) deleteContainer(ctx context.Context, inv *invocation) error {
	timeout := s.stateTimeout
	if timeout <= 0 {
		timeout = defaultDeleteTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := s.engine.DeleteContainer(ctx, inv.container); err != nil {
		logger.L().Ctx(ctx).Error("failed to delete container",
			helpers.Error(err),
			helpers.String("invocationID", inv.id),
			helpers.String("containerID", inv.container))
		inv.fail(ctx, err)
		return err
	}
	if inv.state == domain.Failed {
		logger.L().Debug("container deleted after failure",
			helpers.String("invocationID", inv.id),
			helpers.String("containerID", inv.container))
		return nil
	}
	return inv.transition(ctx, domain.Deleted)
}

// PullImages pulls the image of every configured function, each distinct image once.
// The first failure is returned and the remaining images are not pulled.
func (s *InvocationService) PullImages(ctx context.Context) error {
	ctx, span := otel.Tracer("").Start(ctx, "InvocationService.PullImages")
	defer span.End()

	names, err := s.functions.ListFunctions(ctx)
	if err != nil {
		return err
	}
	pulled := mapset.NewThreadUnsafeSet[string]()
	for _, name := range names {
		fn, err := s.functions.GetFunction(ctx, name)
		if err != nil {
			return err
		}
		ref, err := domain.NormalizeImage(fn.Image)
		if err != nil {
			return fmt.Errorf("function %s: %w", name, err)
		}
		if pulled.Contains(ref.String()) {
			continue
		}
		req, err := ref.PullRequest()
		if err != nil {
			return fmt.Errorf("function %s: %w", name, err)
		}
		auth, err := s.auth.RegistryAuth(ref)
		if err != nil {
			return fmt.Errorf("function %s: %w", name, err)
		}
		if err := s.engine.PullImage(ctx, req, auth); err != nil {
			return fmt.Errorf("function %s: %w", name, err)
		}
		pulled.Add(ref.String())
		logger.L().Info("image pulled",
			helpers.String("function", name),
			helpers.String("image", ref.String()))
	}
	return nil
}

// Describe reports how the image of function name resolves, and optionally what its registry serves
func (s *InvocationService) Describe(ctx context.Context, name string, remote bool) (domain.FunctionDescription, error) {
	ctx, span := otel.Tracer("").Start(ctx, "InvocationService.Describe")
	defer span.End()

	fn, err := s.functions.GetFunction(ctx, name)
	if err != nil {
		return domain.FunctionDescription{}, err
	}
	ref, err := domain.NormalizeImage(fn.Image)
	if err != nil {
		return domain.FunctionDescription{}, fmt.Errorf("function %s: %w", name, err)
	}
	_, hasCredentials := s.auth.Resolve(ref)
	description := domain.FunctionDescription{
		Name:           name,
		Image:          fn.Image,
		Reference:      ref,
		Familiar:       tools.FamiliarReference(ref.String()),
		HasCredentials: hasCredentials,
	}
	if remote && s.inspector != nil {
		remoteImage, err := s.inspector.Inspect(ctx, ref)
		if err != nil {
			return domain.FunctionDescription{}, err
		}
		description.Remote = &remoteImage
	}
	return description, nil
}

// Known returns ErrUnknownFunction when name is not configured
func (s *InvocationService) Known(ctx context.Context, name string) error {
	_, err := s.functions.GetFunction(ctx, name)
	return err
}

// Functions returns the configured function names
func (s *InvocationService) Functions(ctx context.Context) ([]string, error) {
	return s.functions.ListFunctions(ctx)
}

// Ready reports whether the engine answers
func (s *InvocationService) Ready(ctx context.Context) bool {
	return s.engine.Ping(ctx) == nil
}
