package config

import (
	"fmt"
	"net"
	"time"

	"github.com/kubescape/funcrunner/core/domain"
	"github.com/kubescape/funcrunner/repositories"
	"github.com/spf13/viper"
)

// SupportedVersion is the only configuration format version understood
const SupportedVersion = 1

type Config struct {
	Version               int                            `mapstructure:"version"`
	DockerHost            string                         `mapstructure:"dockerHost"`
	ListenHost            string                         `mapstructure:"listenHost"`
	Functions             map[string]domain.FunctionSpec `mapstructure:"functions"`
	DockerConfig          string                         `mapstructure:"dockerConfig"`
	InvocationConcurrency int                            `mapstructure:"invocationConcurrency"`
	StateTimeout          time.Duration                  `mapstructure:"stateTimeout"`
	PullOnStartup         bool                           `mapstructure:"pullOnStartup"`
	InspectCacheTTL       time.Duration                  `mapstructure:"inspectCacheTTL"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	viper.SetDefault("version", SupportedVersion)
	viper.SetDefault("dockerHost", "unix:///var/run/docker.sock")
	viper.SetDefault("listenHost", "127.0.0.1:8080")
	viper.SetDefault("dockerConfig", repositories.DefaultDockerConfigPath())
	viper.SetDefault("invocationConcurrency", 4)
	viper.SetDefault("stateTimeout", 5*time.Minute)
	viper.SetDefault("pullOnStartup", true)
	viper.SetDefault("inspectCacheTTL", 5*time.Minute)

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}
	err = config.Validate()
	return
}

// Validate checks the values viper cannot
func (c Config) Validate() error {
	if c.Version != SupportedVersion {
		return fmt.Errorf("unsupported config version %d", c.Version)
	}
	if _, _, err := net.SplitHostPort(c.ListenHost); err != nil {
		return fmt.Errorf("invalid listenHost %q: %w", c.ListenHost, err)
	}
	if c.InvocationConcurrency < 1 {
		return fmt.Errorf("invocationConcurrency must be positive, got %d", c.InvocationConcurrency)
	}
	for name, function := range c.Functions {
		if _, err := domain.NormalizeImage(function.Image); err != nil {
			return fmt.Errorf("function %s: %w", name, err)
		}
	}
	return nil
}
