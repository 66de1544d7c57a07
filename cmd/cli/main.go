package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	v1 "github.com/kubescape/funcrunner/adapters/v1"
	"github.com/kubescape/funcrunner/config"
	"github.com/kubescape/funcrunner/core/domain"
	"github.com/kubescape/funcrunner/core/services"
	"github.com/kubescape/funcrunner/repositories"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
)

// adHocFunction names the function built from -image
const adHocFunction = "adhoc"

func main() {
	// Define command line flags
	var (
		imageTag   = flag.String("image", "", "Image to run as an ad-hoc function (e.g., hello-world)")
		configDir  = flag.String("config", "", "Directory holding config.yml")
		function   = flag.String("function", "", "Configured function to invoke")
		inputPath  = flag.String("input", "", "File passed to the function on stdin, - reads our own stdin")
		dockerHost = flag.String("docker-host", "unix:///var/run/docker.sock", "Container engine address, overridden by -config")
		timeout    = flag.Duration("timeout", 5*time.Minute, "Per-step timeout")
		pull       = flag.Bool("pull", true, "Pull the image before invoking")
		describe   = flag.Bool("describe", false, "Describe the function image instead of invoking it")
		remote     = flag.Bool("remote", false, "With -describe, query the registry for the image manifest")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		fmt.Println("funcrunner CLI - run a function once in a fresh container")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  funcrunner -image <image> [options]")
		fmt.Println("  funcrunner -config <dir> -function <name> [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  funcrunner -image hello-world")
		fmt.Println("  echo hi | funcrunner -image ghcr.io/team/echo:v1 -input -")
		fmt.Println("  funcrunner -config . -function echo -describe -remote")
		return
	}

	t, err := resolveTarget(*imageTag, *configDir, *function, *dockerHost, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Use -help for usage information")
		os.Exit(1)
	}

	input, err := readInput(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to read input: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	credentials, err := repositories.LoadCredentialsFromFile(t.dockerConfig)
	if err != nil {
		logger.L().Ctx(ctx).Fatal("failed to load registry credentials", helpers.Error(err))
	}
	baseURL, client, err := v1.NewEngineTransport(t.dockerHost)
	if err != nil {
		logger.L().Ctx(ctx).Fatal("engine transport error", helpers.Error(err))
	}
	engine := v1.NewDockerEngineAdapter(baseURL, client)
	auth := v1.NewRegistryAuthResolver(credentials)
	inspector := v1.NewRegistryInspectorAdapter(auth, 0)
	defer inspector.Close()
	service := services.NewInvocationService(engine, auth, repositories.NewMemoryStorage(t.functions), inspector, t.stateTimeout)

	if *describe {
		description, err := service.Describe(ctx, t.name, *remote)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Describe failed: %v\n", err)
			os.Exit(1)
		}
		out, _ := json.MarshalIndent(description, "", "  ")
		fmt.Println(string(out))
		return
	}

	if err := services.WaitForEngine(ctx, engine, 1, time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Container engine unavailable: %v\n", err)
		os.Exit(1)
	}

	if *pull {
		// only the invoked function is pulled
		single := services.NewInvocationService(engine, auth, repositories.NewMemoryStorage(map[string]domain.FunctionSpec{t.name: t.functions[t.name]}), nil, t.stateTimeout)
		if err := single.PullImages(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Pull failed: %v\n", err)
			os.Exit(1)
		}
	}

	startTime := time.Now()
	output, err := service.Invoke(ctx, t.name, input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to call function: %v\n", err)
		os.Exit(1)
	}
	_, _ = os.Stdout.Write(output)
	logger.L().Debug("function completed", helpers.String("function", t.name), helpers.String("duration", time.Since(startTime).String()))
}

// target is the function the CLI runs and the engine it runs on
type target struct {
	functions    map[string]domain.FunctionSpec
	name         string
	dockerHost   string
	dockerConfig string
	stateTimeout time.Duration
}

// resolveTarget builds the function table from either -image or -config and -function
func resolveTarget(imageTag, configDir, function, dockerHost string, timeout time.Duration) (target, error) {
	switch {
	case imageTag != "" && configDir != "":
		return target{}, fmt.Errorf("-image and -config are mutually exclusive")
	case imageTag != "":
		if _, err := domain.NormalizeImage(imageTag); err != nil {
			return target{}, err
		}
		return target{
			functions:    map[string]domain.FunctionSpec{adHocFunction: {Image: imageTag}},
			name:         adHocFunction,
			dockerHost:   dockerHost,
			dockerConfig: repositories.DefaultDockerConfigPath(),
			stateTimeout: timeout,
		}, nil
	case configDir != "":
		if function == "" {
			return target{}, fmt.Errorf("-function is required with -config")
		}
		c, err := config.LoadConfig(configDir)
		if err != nil {
			return target{}, err
		}
		if _, ok := c.Functions[function]; !ok {
			return target{}, fmt.Errorf("%w: %s", domain.ErrUnknownFunction, function)
		}
		return target{
			functions:    c.Functions,
			name:         function,
			dockerHost:   c.DockerHost,
			dockerConfig: c.DockerConfig,
			stateTimeout: c.StateTimeout,
		}, nil
	default:
		return target{}, fmt.Errorf("either -image or -config is required")
	}
}

func readInput(path string) ([]byte, error) {
	switch path {
	case "":
		return nil, nil
	case "-":
		return io.ReadAll(os.Stdin)
	default:
		return os.ReadFile(path)
	}
}
