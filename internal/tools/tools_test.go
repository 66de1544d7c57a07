package tools

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackageVersion(t *testing.T) {
	assert.True(t, PackageVersion("github.com/docker/docker") == "unknown") // only works on compiled binaries
}

func TestContainerName(t *testing.T) {
	tests := []struct {
		function string
		want     string
	}{
		{
			function: "echo",
			want:     "funcrunner-echo-1234",
		},
		{
			function: "resize image/png",
			want:     "funcrunner-resize-image-png-1234",
		},
		{
			function: "trailing/",
			want:     "funcrunner-trailing-1234",
		},
		{
			function: strings.Repeat("a", 100),
			want:     "funcrunner-" + strings.Repeat("a", 52) + "-1234",
		},
	}
	for _, tt := range tests {
		t.Run(tt.function, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainerName(tt.function, "1234"))
		})
	}
}

func TestFamiliarReference(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want string
	}{
		{
			name: "official image",
			ref:  "docker.io/library/hello-world:latest",
			want: "hello-world:latest",
		},
		{
			name: "docker hub user image",
			ref:  "docker.io/bitnami/redis:7",
			want: "bitnami/redis:7",
		},
		{
			name: "other registry",
			ref:  "ghcr.io/library/hello-world:alpine",
			want: "ghcr.io/library/hello-world:alpine",
		},
		{
			name: "unparsable digest is kept as is",
			ref:  "ghcr.io/library/hello-world:alpine@1234",
			want: "ghcr.io/library/hello-world:alpine@1234",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equalf(t, tt.want, FamiliarReference(tt.ref), "FamiliarReference(%v)", tt.ref)
		})
	}
}
