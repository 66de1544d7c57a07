package config

import (
	"testing"
	"time"

	"github.com/kubescape/funcrunner/core/domain"
	"github.com/spf13/viper"
	"gotest.tools/v3/assert"
)

func TestLoadConfig(t *testing.T) {
	viper.Reset()
	c, err := LoadConfig("testdata")
	assert.Assert(t, err == nil, err)
	assert.Equal(t, c.Version, 1)
	assert.Equal(t, c.DockerHost, "tcp://127.0.0.1:2375")
	assert.Equal(t, c.ListenHost, "0.0.0.0:9090")
	assert.Equal(t, c.StateTimeout, 30*time.Second)
	assert.Equal(t, c.InvocationConcurrency, 4)
	assert.Equal(t, c.InspectCacheTTL, 5*time.Minute)
	assert.Assert(t, c.PullOnStartup)
	assert.DeepEqual(t, c.Functions, map[string]domain.FunctionSpec{
		"echo":    {Image: "hello-world"},
		"private": {Image: "ghcr.io/team/app:v1"},
	})
}

func TestLoadConfigNotFound(t *testing.T) {
	viper.Reset()
	_, err := LoadConfig("testdataInvalid")
	assert.Assert(t, err != nil)
}

func TestLoadConfigUnsupportedVersion(t *testing.T) {
	viper.Reset()
	_, err := LoadConfig("testdataInvalidVersion")
	assert.ErrorContains(t, err, "unsupported config version 2")
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		Version:               1,
		ListenHost:            "127.0.0.1:8080",
		InvocationConcurrency: 1,
		Functions:             map[string]domain.FunctionSpec{"echo": {Image: "hello-world"}},
	}
	assert.NilError(t, valid.Validate())

	badHost := valid
	badHost.ListenHost = "localhost"
	assert.ErrorContains(t, badHost.Validate(), "invalid listenHost")

	badConcurrency := valid
	badConcurrency.InvocationConcurrency = 0
	assert.ErrorContains(t, badConcurrency.Validate(), "invocationConcurrency")

	badImage := valid
	badImage.Functions = map[string]domain.FunctionSpec{"empty": {}}
	assert.ErrorIs(t, badImage.Validate(), domain.ErrInvalidReference)
}
