package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kubescape/funcrunner/adapters"
	v1 "github.com/kubescape/funcrunner/adapters/v1"
	"github.com/kubescape/funcrunner/controllers"
	"github.com/kubescape/funcrunner/core/domain"
	"github.com/kubescape/funcrunner/core/ports"
	"github.com/kubescape/funcrunner/core/services"
	"github.com/kubescape/funcrunner/internal/tools"
	"github.com/kubescape/funcrunner/repositories"
	"gotest.tools/v3/assert"
)

func TestInvoke(t *testing.T) {
	tests := []struct {
		name         string
		function     string
		body         string
		expectedCode int
		expectedBody string
		engineFail   domain.EngineOp
	}{
		{
			"configured function returns the container output",
			"echo",
			"",
			200,
			"Hello from Docker!\n",
			"",
		},
		{
			"input is written to the container",
			"echo",
			"hi",
			200,
			"Hello from Docker!\n",
			"",
		},
		{
			"unknown function",
			"missing",
			"",
			404,
			"{\"detail\":\"Function=missing\",\"status\":404,\"title\":\"Not Found\"}",
			"",
		},
		{
			"engine failure",
			"echo",
			"",
			500,
			"Failed to call function: engine create failed: {\"message\":\"stub create failure\"} (500)",
			domain.OpCreate,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			stub := tools.NewStubEngine("Hello from Docker!\n")
			defer stub.Close()
			if test.engineFail != "" {
				stub.Fail(test.engineFail, http.StatusInternalServerError)
			}
			functions := repositories.NewMemoryStorage(map[string]domain.FunctionSpec{"echo": {Image: "hello-world"}})
			auth := v1.NewRegistryAuthResolver(domain.NewCredentialStore(nil))
			service := services.NewInvocationService(v1.NewDockerEngineAdapter(stub.URL(), stub.Client()), auth, functions, nil, time.Minute)
			controller := controllers.NewHTTPController(service, 2)

			router := setupRouter(controller)

			req, _ := http.NewRequest("GET", "/v1/liveness", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Assert(t, w.Code == 200)

			req, _ = http.NewRequest("GET", "/v1/readiness", nil)
			w = httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Assert(t, w.Code == 200)

			req, _ = http.NewRequest("POST", "/functions/"+test.function, strings.NewReader(test.body))
			w = httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Assert(t, test.expectedCode == w.Code, w.Code)
			assert.Assert(t, test.expectedBody == w.Body.String(), w.Body.String())
			if test.body != "" {
				assert.Equal(t, test.body, string(stub.Stdin()))
			}

			controller.Shutdown()
		})
	}
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name              string
		invocationService ports.InvocationService
		expectedCode      int
	}{
		{"engine answers", services.NewInvocationService(adapters.NewMockEngine(""), nil, repositories.NewBrokenStorage(), nil, 0), 200},
		{"engine down", services.NewMockInvocationService(false), 503},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			controller := controllers.NewHTTPController(test.invocationService, 1)
			defer controller.Shutdown()
			router := setupRouter(controller)
			req, _ := http.NewRequest("GET", "/v1/readiness", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Assert(t, test.expectedCode == w.Code, w.Code)
		})
	}
}
