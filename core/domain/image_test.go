package domain

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"k8s.io/utils/ptr"
)

func TestNormalizeImage(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    ImageReference
		wantErr error
	}{
		{
			name: "registry, tag and digest",
			raw:  "ghcr.io/library/hello-world:alpine@1234",
			want: ImageReference{Domain: "ghcr.io", Name: "library/hello-world", Tag: "alpine", Digest: ptr.To("1234")},
		},
		{
			name: "registry and tag",
			raw:  "ghcr.io/library/hello-world:alpine",
			want: ImageReference{Domain: "ghcr.io", Name: "library/hello-world", Tag: "alpine"},
		},
		{
			name: "registry only",
			raw:  "ghcr.io/library/hello-world",
			want: ImageReference{Domain: "ghcr.io", Name: "library/hello-world", Tag: "latest"},
		},
		{
			name: "docker hub user repository",
			raw:  "library/hello-world",
			want: ImageReference{Domain: "docker.io", Name: "library/hello-world", Tag: "latest"},
		},
		{
			name: "official image",
			raw:  "hello-world",
			want: ImageReference{Domain: "docker.io", Name: "library/hello-world", Tag: "latest"},
		},
		{
			name: "official image with tag",
			raw:  "alpine:3.20",
			want: ImageReference{Domain: "docker.io", Name: "library/alpine", Tag: "3.20"},
		},
		{
			name: "sha256 digest keeps its algorithm",
			raw:  "quay.io/org/app@sha256:e2e16842c9b54d985bf1ef9242a313f36b856181f188de21313820e177002501",
			want: ImageReference{Domain: "quay.io", Name: "org/app", Tag: "latest", Digest: ptr.To("sha256:e2e16842c9b54d985bf1ef9242a313f36b856181f188de21313820e177002501")},
		},
		{
			name: "explicit scheme is kept",
			raw:  "http://registry.local/team/app:v1",
			want: ImageReference{Domain: "registry.local", Name: "team/app", Tag: "v1"},
		},
		{
			name: "only the rightmost @ is a digest",
			raw:  "ghcr.io/a@b/c@d",
			want: ImageReference{Domain: "ghcr.io", Name: "a@b/c", Tag: "latest", Digest: ptr.To("d")},
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: ErrInvalidReference,
		},
		{
			name:    "name starting with a slash",
			raw:     "ghcr.io//app",
			wantErr: ErrInvalidReference,
		},
		{
			name:    "invalid escape",
			raw:     "ghcr.io/%zz/app",
			wantErr: ErrInvalidReference,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeImage(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("NormalizeImage(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestNormalizeImage_BareNames(t *testing.T) {
	for _, s := range []string{"a", "busybox", "hello-world", "nginx_1", "x.y"} {
		got, err := NormalizeImage(s)
		assert.NoError(t, err)
		assert.Equal(t, ImageReference{Domain: "docker.io", Name: "library/" + s, Tag: "latest"}, got)
	}
}

func TestNormalizeImage_UserRepositories(t *testing.T) {
	for _, s := range []string{"a/b", "bitnami/redis", "my-org/my.app"} {
		got, err := NormalizeImage(s)
		assert.NoError(t, err)
		assert.Equal(t, "docker.io", got.Domain)
		assert.Equal(t, s, got.Name)
	}
}

func TestImageReference_PullRequest(t *testing.T) {
	for _, raw := range []string{"hello-world", "bitnami/redis:7", "ghcr.io/library/hello-world:alpine"} {
		ref, err := NormalizeImage(raw)
		assert.NoError(t, err)
		req, err := ref.PullRequest()
		assert.NoError(t, err)
		assert.Equal(t, ref.Domain+"/"+ref.Name, req.FromImage)
		assert.Equal(t, ref.Tag, req.Tag)
	}

	ref, err := NormalizeImage("ghcr.io/library/hello-world:alpine@1234")
	assert.NoError(t, err)
	_, err = ref.PullRequest()
	assert.True(t, errors.Is(err, ErrUnsupportedConversion))
}

func TestImageReference_String(t *testing.T) {
	ref := ImageReference{Domain: "ghcr.io", Name: "library/hello-world", Tag: "alpine"}
	assert.Equal(t, "ghcr.io/library/hello-world:alpine", ref.String())
	ref.Digest = ptr.To("sha256:abcd")
	assert.Equal(t, "ghcr.io/library/hello-world:alpine@sha256:abcd", ref.String())
}
