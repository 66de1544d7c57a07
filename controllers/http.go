package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gammazero/workerpool"
	"github.com/gin-gonic/gin"
	"github.com/kubescape/funcrunner/core/domain"
	"github.com/kubescape/funcrunner/core/ports"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"schneider.vip/problem"
)

// HTTPController maps InvocationService ports to gin handlers that can be mapped to paths and methods
// this mapping is usually done in main()
type HTTPController struct {
	invocationService ports.InvocationService
	workerPool        *workerpool.WorkerPool
}

// NewHTTPController initializes the HTTPController struct with the injected invocationService,
// at most concurrency invocations run at the same time
func NewHTTPController(invocationService ports.InvocationService, concurrency int) *HTTPController {
	return &HTTPController{
		invocationService: invocationService,
		workerPool:        workerpool.New(concurrency),
	}
}

// Alive returns 200
func (h HTTPController) Alive(c *gin.Context) {
	problem.Of(http.StatusOK).WriteTo(c.Writer)
}

// Ready calls invocationService.Ready
func (h HTTPController) Ready(c *gin.Context) {
	if !h.invocationService.Ready(c.Request.Context()) {
		problem.Of(http.StatusServiceUnavailable).WriteTo(c.Writer)
		return
	}

	problem.Of(http.StatusOK).WriteTo(c.Writer)
}

// Invoke reads the request body as the function input and calls invocationService.Invoke,
// the call is queued on the worker pool
func (h HTTPController) Invoke(c *gin.Context) {
	ctx := c.Request.Context()
	name := c.Param("name")
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("function", name))

	if err := h.invocationService.Known(ctx, name); err != nil {
		h.writeError(c, name, err)
		return
	}

	var input []byte
	if c.Request.Body != nil {
		var err error
		input, err = io.ReadAll(c.Request.Body)
		if err != nil {
			logger.L().Ctx(ctx).Error("handler error", helpers.Error(err), helpers.String("function", name))
			problem.Of(http.StatusBadRequest).WriteTo(c.Writer)
			return
		}
	}

	var output []byte
	var err error
	h.workerPool.SubmitWait(func() {
		output, err = h.invocationService.Invoke(ctx, name, input)
	})
	if err != nil {
		h.writeError(c, name, err)
		return
	}

	c.Data(http.StatusOK, "application/octet-stream", output)
}

// writeError maps an invocation error to its response, unknown functions are a 404 problem
func (h HTTPController) writeError(c *gin.Context, name string, err error) {
	if errors.Is(err, domain.ErrUnknownFunction) {
		problem.Of(http.StatusNotFound).Append(problem.Detailf("Function=%s", name)).WriteTo(c.Writer)
		return
	}
	logger.L().Ctx(c.Request.Context()).Error("service error", helpers.Error(err), helpers.String("function", name))
	c.String(http.StatusInternalServerError, "Failed to call function: %s", err.Error())
}

// Describe calls invocationService.Describe, the remote query parameter asks for a registry lookup
func (h HTTPController) Describe(c *gin.Context) {
	ctx := c.Request.Context()
	name := c.Param("name")
	remote, _ := strconv.ParseBool(c.Query("remote"))

	description, err := h.invocationService.Describe(ctx, name, remote)
	if errors.Is(err, domain.ErrUnknownFunction) {
		problem.Of(http.StatusNotFound).Append(problem.Detailf("Function=%s", name)).WriteTo(c.Writer)
		return
	}
	if err != nil {
		logger.L().Ctx(ctx).Error("service error", helpers.Error(err), helpers.String("function", name))
		problem.Of(http.StatusInternalServerError).Append(problem.Detailf("Function=%s", name)).WriteTo(c.Writer)
		return
	}

	c.JSON(http.StatusOK, description)
}

// Functions lists the configured function names
func (h HTTPController) Functions(c *gin.Context) {
	names, err := h.invocationService.Functions(c.Request.Context())
	if err != nil {
		logger.L().Ctx(c.Request.Context()).Error("service error", helpers.Error(err))
		problem.Of(http.StatusInternalServerError).WriteTo(c.Writer)
		return
	}

	c.JSON(http.StatusOK, gin.H{"functions": names})
}

// Shutdown waits for the queued invocations to finish
func (h HTTPController) Shutdown() {
	logger.L().Info("purging invocation queue", helpers.String("remaining jobs", strconv.Itoa(h.workerPool.WaitingQueueSize())))
	h.workerPool.StopWait()
}
