package v1

import (
	"fmt"

	"github.com/docker/docker/api/types/registry"
	"github.com/kubescape/funcrunner/core/domain"
	"github.com/kubescape/funcrunner/core/ports"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
)

// RegistryAuthResolver implements AuthResolver on top of an immutable CredentialStore
type RegistryAuthResolver struct {
	store domain.CredentialStore
}

var _ ports.AuthResolver = (*RegistryAuthResolver)(nil)

// NewRegistryAuthResolver initializes the RegistryAuthResolver with the injected store
func NewRegistryAuthResolver(store domain.CredentialStore) *RegistryAuthResolver {
	return &RegistryAuthResolver{store: store}
}

// Resolve looks the credential up by registry domain, tag and digest are ignored
func (r *RegistryAuthResolver) Resolve(ref domain.ImageReference) (domain.Credential, bool) {
	return r.store.Lookup(ref.Domain)
}

// RegistryAuth returns the X-Registry-Auth header value for ref,
// an empty string means the pull is anonymous
func (r *RegistryAuthResolver) RegistryAuth(ref domain.ImageReference) (string, error) {
	cred, ok := r.Resolve(ref)
	if !ok {
		return "", nil
	}
	logger.L().Debug("providing registry auth",
		helpers.String("domain", ref.Domain),
		helpers.String("image", ref.Repository()))
	auth, err := registry.EncodeAuthConfig(registry.AuthConfig{
		Username: cred.Username,
		Password: cred.Password,
	})
	if err != nil {
		return "", fmt.Errorf("encode registry auth for %s: %w", ref.Domain, err)
	}
	return auth, nil
}
