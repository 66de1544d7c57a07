package v1

import (
	"encoding/base64"
	"testing"

	"github.com/kinbiko/jsonassert"
	"github.com/kubescape/funcrunner/core/domain"
	"github.com/stretchr/testify/assert"
	"k8s.io/utils/ptr"
)

func testStore() domain.CredentialStore {
	return domain.NewCredentialStore(map[string]domain.Credential{
		"ghcr.io": {Username: "123", Password: "123"},
	})
}

func TestRegistryAuthResolver_Resolve(t *testing.T) {
	r := NewRegistryAuthResolver(testStore())
	tests := []struct {
		name   string
		ref    domain.ImageReference
		want   domain.Credential
		wantOK bool
	}{
		{
			name:   "registered domain",
			ref:    domain.ImageReference{Domain: "ghcr.io", Name: "library/hello-world", Tag: "alpine"},
			want:   domain.Credential{Username: "123", Password: "123"},
			wantOK: true,
		},
		{
			name:   "registered domain with digest",
			ref:    domain.ImageReference{Domain: "ghcr.io", Name: "other/app", Tag: "v1", Digest: ptr.To("1234")},
			want:   domain.Credential{Username: "123", Password: "123"},
			wantOK: true,
		},
		{
			name: "unregistered domain",
			ref:  domain.ImageReference{Domain: "docker.io", Name: "library/hello-world", Tag: "latest"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.ref)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistryAuthResolver_RegistryAuth(t *testing.T) {
	r := NewRegistryAuthResolver(testStore())

	auth, err := r.RegistryAuth(domain.ImageReference{Domain: "docker.io", Name: "library/hello-world", Tag: "latest"})
	assert.NoError(t, err)
	assert.Empty(t, auth)

	auth, err = r.RegistryAuth(domain.ImageReference{Domain: "ghcr.io", Name: "library/hello-world", Tag: "alpine"})
	assert.NoError(t, err)
	decoded, err := base64.URLEncoding.DecodeString(auth)
	assert.NoError(t, err)
	ja := jsonassert.New(t)
	ja.Assertf(string(decoded), `{"username":"123","password":"123"}`)
}
