package main

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	v1 "github.com/kubescape/funcrunner/adapters/v1"
	"github.com/kubescape/funcrunner/config"
	"github.com/kubescape/funcrunner/controllers"
	"github.com/kubescape/funcrunner/core/services"
	"github.com/kubescape/funcrunner/internal/tools"
	"github.com/kubescape/funcrunner/repositories"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func main() {
	ctx := context.Background()

	configDir := "."
	if envPath := os.Getenv("CONFIG_DIR"); envPath != "" {
		configDir = envPath
	}

	c, err := config.LoadConfig(configDir)
	if err != nil {
		logger.L().Ctx(ctx).Fatal("load config error", helpers.Error(err))
	}

	credentials, err := repositories.LoadCredentialsFromFile(c.DockerConfig)
	if err != nil {
		logger.L().Ctx(ctx).Fatal("failed to load registry credentials", helpers.Error(err))
	}

	// to enable otel, set OTEL_COLLECTOR_SVC=otel-collector:4317
	if otelHost, present := os.LookupEnv("OTEL_COLLECTOR_SVC"); present {
		ctx = logger.InitOtel("funcrunner",
			os.Getenv("RELEASE"),
			"",
			"",
			url.URL{Host: otelHost})
		defer logger.ShutdownOtel(ctx)
	}

	// modify context to listen to interrupt signals from the OS.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	baseURL, client, err := v1.NewEngineTransport(c.DockerHost)
	if err != nil {
		logger.L().Ctx(ctx).Fatal("engine transport error", helpers.Error(err))
	}
	engine := v1.NewDockerEngineAdapter(baseURL, client)
	if err := services.WaitForEngine(ctx, engine, 5, time.Second); err != nil {
		logger.L().Ctx(ctx).Fatal("container engine error", helpers.Error(err), helpers.String("dockerHost", c.DockerHost))
	}

	auth := v1.NewRegistryAuthResolver(credentials)
	inspector := v1.NewRegistryInspectorAdapter(auth, c.InspectCacheTTL)
	defer inspector.Close()
	functions := repositories.NewMemoryStorage(c.Functions)
	service := services.NewInvocationService(engine, auth, functions, inspector, c.StateTimeout)

	if c.PullOnStartup {
		if err := service.PullImages(ctx); err != nil {
			logger.L().Ctx(ctx).Fatal("failed to pull function images", helpers.Error(err))
		}
	}

	controller := controllers.NewHTTPController(service, c.InvocationConcurrency)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    c.ListenHost,
		Handler: setupRouter(controller),
	}

	// Initializing the server in a goroutine so that
	// it won't block the graceful shutdown handling below
	go func() {
		logger.L().Info("starting server",
			helpers.String("listenHost", c.ListenHost),
			helpers.String("dockerAPIClient", tools.PackageVersion("github.com/docker/docker")))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.L().Ctx(ctx).Fatal("router error", helpers.Error(err))
		}
	}()

	// Listen for the interrupt signal.
	<-ctx.Done()

	// Restore default behavior on the interrupt signal and notify user of shutdown.
	stop()
	logger.L().Info("shutting down gracefully")

	// modify context to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.L().Ctx(ctx).Fatal("server forced to shutdown", helpers.Error(err))
	}

	// Purging the controller worker queue
	controller.Shutdown()

	logger.L().Info("funcrunner exiting")
}

// setupRouter maps the controller handlers to their paths
func setupRouter(controller *controllers.HTTPController) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/v1/liveness", controller.Alive)
	router.GET("/v1/readiness", controller.Ready)

	group := router.Group("/functions")
	{
		group.Use(otelgin.Middleware("funcrunner-svc"))
		group.GET("", controller.Functions)
		group.GET("/:name", controller.Invoke)
		group.POST("/:name", controller.Invoke)
		group.GET("/:name/describe", controller.Describe)
	}
	return router
}
