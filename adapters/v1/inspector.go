package v1

import (
	"context"
	"fmt"
	"time"

	"github.com/akyoto/cache"
	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/kubescape/funcrunner/core/domain"
	"github.com/kubescape/funcrunner/core/ports"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/opencontainers/go-digest"
	"go.opentelemetry.io/otel"
)

// RegistryInspectorAdapter implements RegistryInspector with go-containerregistry,
// answers are cached for ttl
type RegistryInspectorAdapter struct {
	auth    ports.AuthResolver
	cache   *cache.Cache
	ttl     time.Duration
	options []remote.Option
}

var _ ports.RegistryInspector = (*RegistryInspectorAdapter)(nil)

// NewRegistryInspectorAdapter initializes the RegistryInspectorAdapter
func NewRegistryInspectorAdapter(auth ports.AuthResolver, ttl time.Duration, options ...remote.Option) *RegistryInspectorAdapter {
	return &RegistryInspectorAdapter{
		auth:    auth,
		cache:   cache.New(time.Minute),
		ttl:     ttl,
		options: options,
	}
}

// Close stops the cache cleaner
func (r *RegistryInspectorAdapter) Close() {
	r.cache.Close()
}

// Inspect fetches the manifest descriptor of ref from its registry
func (r *RegistryInspectorAdapter) Inspect(ctx context.Context, ref domain.ImageReference) (domain.RemoteImage, error) {
	ctx, span := otel.Tracer("").Start(ctx, "RegistryInspectorAdapter.Inspect")
	defer span.End()

	key := ref.String()
	if r.ttl > 0 {
		if cached, ok := r.cache.Get(key); ok {
			return cached.(domain.RemoteImage), nil
		}
	}

	nameRef, err := remoteReference(ref)
	if err != nil {
		return domain.RemoteImage{}, err
	}

	var authenticator authn.Authenticator = authn.Anonymous
	if cred, ok := r.auth.Resolve(ref); ok {
		authenticator = &authn.Basic{Username: cred.Username, Password: cred.Password}
	}
	options := append([]remote.Option{remote.WithAuth(authenticator), remote.WithContext(ctx)}, r.options...)

	logger.L().Debug("inspecting image", helpers.String("reference", nameRef.String()))
	desc, err := remote.Head(nameRef, options...)
	if err != nil {
		return domain.RemoteImage{}, fmt.Errorf("failed to inspect image %s: %w", nameRef.String(), err)
	}
	remoteImage := domain.RemoteImage{
		Digest:    desc.Digest.String(),
		MediaType: string(desc.MediaType),
		Size:      desc.Size,
	}
	if r.ttl > 0 {
		r.cache.Set(key, remoteImage, r.ttl)
	}
	return remoteImage, nil
}

// remoteReference converts ref to a go-containerregistry reference,
// a digest takes precedence over the tag
func remoteReference(ref domain.ImageReference) (name.Reference, error) {
	if ref.HasDigest() {
		d, err := digest.Parse(*ref.Digest)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidReference, *ref.Digest, err)
		}
		r, err := name.NewDigest(ref.Repository() + "@" + d.String())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidReference, err)
		}
		return r, nil
	}
	r, err := name.NewTag(ref.Repository() + ":" + ref.Tag)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidReference, err)
	}
	return r, nil
}
