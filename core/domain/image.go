package domain

import (
	"fmt"
	"net/url"
	"strings"

	"k8s.io/utils/ptr"
)

const (
	DefaultRegistryDomain = "docker.io"
	DefaultTag            = "latest"
	officialImagePrefix   = "library/"
)

// ImageReference is the canonical form of a user supplied image string
type ImageReference struct {
	Domain string  `json:"domain"`
	Name   string  `json:"name"`
	Tag    string  `json:"tag"`
	Digest *string `json:"digest,omitempty"`
}

// PullRequest contains the query parameters of an image pull
type PullRequest struct {
	FromImage string
	Tag       string
}

// NormalizeImage parses a free-form image string into an ImageReference.
// Precedence is left to right: digest (last @), then tag (last :), then
// the Docker Hub short forms, then URL parsing for the domain and name.
func NormalizeImage(raw string) (ImageReference, error) {
	if raw == "" {
		return ImageReference{}, fmt.Errorf("%w: image tag cannot be empty", ErrInvalidReference)
	}
	remaining := raw

	var digest *string
	if i := strings.LastIndex(remaining, "@"); i >= 0 {
		digest = ptr.To(remaining[i+1:])
		remaining = remaining[:i]
	}

	tag := DefaultTag
	if i := strings.LastIndex(remaining, ":"); i >= 0 {
		tag = remaining[i+1:]
		remaining = remaining[:i]
	}

	// "hello-world" -> "library/hello-world" -> "docker.io/library/hello-world"
	if strings.Count(remaining, "/") == 0 {
		remaining = officialImagePrefix + remaining
	}
	if strings.Count(remaining, "/") == 1 {
		remaining = DefaultRegistryDomain + "/" + remaining
	}

	if !strings.HasPrefix(remaining, "http://") && !strings.HasPrefix(remaining, "https://") {
		remaining = "https://" + remaining
	}

	u, err := url.Parse(remaining)
	if err != nil {
		return ImageReference{}, fmt.Errorf("%w: %s: %v", ErrInvalidReference, raw, err)
	}
	domain := u.Hostname()
	if domain == "" {
		domain = DefaultRegistryDomain
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" {
		return ImageReference{}, fmt.Errorf("%w: empty image name", ErrInvalidReference)
	}
	if strings.HasPrefix(name, "/") {
		return ImageReference{}, fmt.Errorf("%w: image name %q starts with /", ErrInvalidReference, name)
	}

	return ImageReference{
		Domain: domain,
		Name:   name,
		Tag:    tag,
		Digest: digest,
	}, nil
}

// Repository returns domain/name
func (r ImageReference) Repository() string {
	return r.Domain + "/" + r.Name
}

// HasDigest reports whether the reference was pinned with an @digest segment
func (r ImageReference) HasDigest() bool {
	return r.Digest != nil
}

// String renders the reference the way the engine accepts it in a create request
func (r ImageReference) String() string {
	s := r.Repository() + ":" + r.Tag
	if r.HasDigest() {
		s += "@" + ptr.Deref(r.Digest, "")
	}
	return s
}

// PullRequest converts the reference to the parameters of an image pull.
// Digest pinned pulls are not supported yet.
func (r ImageReference) PullRequest() (PullRequest, error) {
	if r.HasDigest() {
		return PullRequest{}, fmt.Errorf("%w: image digest %s cannot be converted to a pull request", ErrUnsupportedConversion, ptr.Deref(r.Digest, ""))
	}
	return PullRequest{
		FromImage: r.Repository(),
		Tag:       r.Tag,
	}, nil
}

// RemoteImage describes an image manifest as seen by its registry
type RemoteImage struct {
	Digest    string `json:"digest"`
	MediaType string `json:"mediaType"`
	Size      int64  `json:"size"`
}
