package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/eapache/go-resiliency/retrier"
	"github.com/kubescape/funcrunner/core/ports"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
)

// MinAPIVersion is the oldest engine API exposing every endpoint funcrunner calls
const MinAPIVersion = "1.37"

// WaitForEngine pings the engine with exponential backoff until it answers,
// then checks that its API version is at least MinAPIVersion
func WaitForEngine(ctx context.Context, engine ports.ContainerEngine, attempts int, backoff time.Duration) error {
	r := retrier.New(retrier.ExponentialBackoff(attempts, backoff), nil)
	err := r.Run(func() error {
		err := engine.Ping(ctx)
		if err != nil {
			logger.L().Ctx(ctx).Warning("container engine not ready", helpers.Error(err))
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("container engine unreachable: %w", err)
	}

	v, err := engine.Version(ctx)
	if err != nil {
		return err
	}
	return checkAPIVersion(v.APIVersion)
}

func checkAPIVersion(apiVersion string) error {
	current, err := semver.NewVersion(apiVersion)
	if err != nil {
		return fmt.Errorf("cannot parse engine API version %q: %w", apiVersion, err)
	}
	constraint, err := semver.NewConstraint(">= " + MinAPIVersion)
	if err != nil {
		return err
	}
	if !constraint.Check(current) {
		return fmt.Errorf("engine API version %s is older than %s", apiVersion, MinAPIVersion)
	}
	logger.L().Info("container engine ready", helpers.String("apiVersion", apiVersion))
	return nil
}
