package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/kubescape/funcrunner/core/domain"
	"github.com/kubescape/funcrunner/core/ports"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"go.opentelemetry.io/otel"
)

const (
	registryAuthHeader      = "X-Registry-Auth"
	multiplexedStreamType   = "application/vnd.docker.multiplexed-stream"
	stdcopyHeaderLength     = 8
	maxStdcopyStreamType    = byte(stdcopy.Systemerr)
	attachStreamUpgradeName = "tcp"
)

// DockerEngineAdapter implements ContainerEngine over the Docker Engine HTTP API
type DockerEngineAdapter struct {
	baseURL string
	client  *http.Client
}

var _ ports.ContainerEngine = (*DockerEngineAdapter)(nil)

// NewDockerEngineAdapter initializes the DockerEngineAdapter with the engine base URL and the client dialing it
func NewDockerEngineAdapter(baseURL string, client *http.Client) *DockerEngineAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &DockerEngineAdapter{
		baseURL: baseURL,
		client:  client,
	}
}

// createContainerBody is the subset of the engine container config we send
type createContainerBody struct {
	Image       string
	Cmd         []string
	AttachStdin bool
	OpenStdin   bool
	StdinOnce   bool
	Tty         bool
}

type engineResponse struct {
	status int
	header http.Header
	body   []byte
}

// do issues a single request and reads the whole response body,
// the body is kept on status mismatch so it can be reported
func (d *DockerEngineAdapter) do(ctx context.Context, op domain.EngineOp, method, path string, query url.Values, header http.Header, body io.Reader, expected int) (engineResponse, error) {
	u := d.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return engineResponse{}, &domain.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return engineResponse{}, &domain.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return engineResponse{}, &domain.TransportError{Op: op, Err: err}
	}
	r := engineResponse{status: resp.StatusCode, header: resp.Header, body: b}
	if resp.StatusCode != expected {
		return r, &domain.EngineError{Op: op, Status: resp.StatusCode, Body: b}
	}
	return r, nil
}

func containerPath(id string, suffix string) string {
	return "/containers/" + url.PathEscape(id) + suffix
}

// PullImage pulls an image, attaching the registry auth header when one is given
func (d *DockerEngineAdapter) PullImage(ctx context.Context, req domain.PullRequest, registryAuth string) error {
	ctx, span := otel.Tracer("").Start(ctx, "DockerEngineAdapter.PullImage")
	defer span.End()

	query := url.Values{}
	query.Set("fromImage", req.FromImage)
	query.Set("tag", req.Tag)
	header := http.Header{}
	if registryAuth != "" {
		header.Set(registryAuthHeader, registryAuth)
	}
	logger.L().Debug("pulling image",
		helpers.String("fromImage", req.FromImage),
		helpers.String("tag", req.Tag),
		helpers.String("auth", strconv.FormatBool(registryAuth != "")))
	resp, err := d.do(ctx, domain.OpPull, http.MethodPost, "/images/create", query, header, nil, http.StatusOK)
	if err != nil {
		return err
	}
	// the engine answers 200 before pulling and reports failures inside the progress stream
	return pullStreamError(resp)
}

func pullStreamError(resp engineResponse) error {
	dec := json.NewDecoder(bytes.NewReader(resp.body))
	for {
		var msg jsonmessage.JSONMessage
		if err := dec.Decode(&msg); err != nil {
			// end of stream, or not a progress stream at all
			return nil
		}
		if msg.Error != nil {
			return &domain.EngineError{Op: domain.OpPull, Status: resp.status, Body: []byte(msg.Error.Message)}
		}
	}
}

// CreateContainer creates a container and returns its id
func (d *DockerEngineAdapter) CreateContainer(ctx context.Context, req domain.CreateRequest) (string, error) {
	ctx, span := otel.Tracer("").Start(ctx, "DockerEngineAdapter.CreateContainer")
	defer span.End()

	body, err := json.Marshal(createContainerBody{
		Image:       req.Image,
		Cmd:         req.Cmd,
		AttachStdin: req.Stdin,
		OpenStdin:   req.Stdin,
		StdinOnce:   req.Stdin,
		Tty:         false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal container create body: %w", err)
	}
	query := url.Values{}
	if req.Name != "" {
		query.Set("name", req.Name)
	}
	resp, err := d.do(ctx, domain.OpCreate, http.MethodPost, "/containers/create", query, nil, bytes.NewReader(body), http.StatusCreated)
	if err != nil {
		return "", err
	}
	var created container.CreateResponse
	if err := json.Unmarshal(resp.body, &created); err != nil {
		return "", fmt.Errorf("%w: container create: %v", domain.ErrMalformedResponse, err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("%w: container create: missing Id in %q", domain.ErrMalformedResponse, string(resp.body))
	}
	for _, w := range created.Warnings {
		logger.L().Ctx(ctx).Warning("engine warning", helpers.String("containerID", created.ID), helpers.String("warning", w))
	}
	return created.ID, nil
}

// StartContainer starts a created container
func (d *DockerEngineAdapter) StartContainer(ctx context.Context, id string) error {
	ctx, span := otel.Tracer("").Start(ctx, "DockerEngineAdapter.StartContainer")
	defer span.End()

	_, err := d.do(ctx, domain.OpStart, http.MethodPost, containerPath(id, "/start"), nil, nil, nil, http.StatusNoContent)
	return err
}

// WriteStdin attaches to the container input stream, writes input and closes the stream
func (d *DockerEngineAdapter) WriteStdin(ctx context.Context, id string, input []byte) error {
	ctx, span := otel.Tracer("").Start(ctx, "DockerEngineAdapter.WriteStdin")
	defer span.End()

	query := url.Values{}
	query.Set("stream", "1")
	query.Set("stdin", "1")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+containerPath(id, "/attach")+"?"+query.Encode(), nil)
	if err != nil {
		return &domain.TransportError{Op: domain.OpStdin, Err: err}
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", attachStreamUpgradeName)
	resp, err := d.client.Do(req)
	if err != nil {
		return &domain.TransportError{Op: domain.OpStdin, Err: err}
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return &domain.EngineError{Op: domain.OpStdin, Status: resp.StatusCode, Body: b}
	}
	stream, ok := resp.Body.(io.ReadWriteCloser)
	if !ok {
		resp.Body.Close()
		return &domain.EngineError{Op: domain.OpStdin, Status: resp.StatusCode, Body: []byte("attach stream is not writable")}
	}
	defer stream.Close()
	if _, err := stream.Write(input); err != nil {
		return &domain.EngineError{Op: domain.OpStdin, Status: resp.StatusCode, Body: []byte(err.Error())}
	}
	logger.L().Debug("stdin written", helpers.String("containerID", id), helpers.Int("bytes", len(input)))
	return nil
}

// WaitContainer blocks until the container stops
func (d *DockerEngineAdapter) WaitContainer(ctx context.Context, id string) (domain.ContainerExit, error) {
	ctx, span := otel.Tracer("").Start(ctx, "DockerEngineAdapter.WaitContainer")
	defer span.End()

	resp, err := d.do(ctx, domain.OpWait, http.MethodPost, containerPath(id, "/wait"), nil, nil, nil, http.StatusOK)
	if err != nil {
		return domain.ContainerExit{}, err
	}
	var waited container.WaitResponse
	if err := json.Unmarshal(resp.body, &waited); err != nil {
		return domain.ContainerExit{}, fmt.Errorf("%w: container wait: %v", domain.ErrMalformedResponse, err)
	}
	exit := domain.ContainerExit{StatusCode: waited.StatusCode}
	if waited.Error != nil {
		exit.Error = waited.Error.Message
	}
	return exit, nil
}

// FetchLogs returns the container standard output
func (d *DockerEngineAdapter) FetchLogs(ctx context.Context, id string) ([]byte, error) {
	ctx, span := otel.Tracer("").Start(ctx, "DockerEngineAdapter.FetchLogs")
	defer span.End()

	query := url.Values{}
	query.Set("stdout", "true")
	resp, err := d.do(ctx, domain.OpLogs, http.MethodGet, containerPath(id, "/logs"), query, nil, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	if resp.header.Get("Content-Type") != multiplexedStreamType && !looksMultiplexed(resp.body) {
		return resp.body, nil
	}
	var out bytes.Buffer
	if _, err := stdcopy.StdCopy(&out, &out, bytes.NewReader(resp.body)); err != nil {
		logger.L().Ctx(ctx).Warning("cannot demultiplex logs, returning raw output", helpers.String("containerID", id), helpers.Error(err))
		return resp.body, nil
	}
	return out.Bytes(), nil
}

// looksMultiplexed checks for a stdcopy frame header: stream type, three zero bytes, big endian size
func looksMultiplexed(b []byte) bool {
	if len(b) < stdcopyHeaderLength {
		return false
	}
	return b[0] <= maxStdcopyStreamType && b[1] == 0 && b[2] == 0 && b[3] == 0
}

// DeleteContainer removes a container
func (d *DockerEngineAdapter) DeleteContainer(ctx context.Context, id string) error {
	ctx, span := otel.Tracer("").Start(ctx, "DockerEngineAdapter.DeleteContainer")
	defer span.End()

	_, err := d.do(ctx, domain.OpDelete, http.MethodDelete, containerPath(id, ""), nil, nil, nil, http.StatusNoContent)
	return err
}

// Ping checks the engine answers
func (d *DockerEngineAdapter) Ping(ctx context.Context) error {
	_, err := d.do(ctx, domain.OpPing, http.MethodGet, "/_ping", nil, nil, nil, http.StatusOK)
	return err
}

// Version returns the engine version information
func (d *DockerEngineAdapter) Version(ctx context.Context) (types.Version, error) {
	resp, err := d.do(ctx, domain.OpVersion, http.MethodGet, "/version", nil, nil, nil, http.StatusOK)
	if err != nil {
		return types.Version{}, err
	}
	var v types.Version
	if err := json.Unmarshal(resp.body, &v); err != nil {
		return types.Version{}, fmt.Errorf("%w: version: %v", domain.ErrMalformedResponse, err)
	}
	return v, nil
}
