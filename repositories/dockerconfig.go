package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/kubescape/funcrunner/core/domain"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
)

// dockerConfigFile is the on-disk shape of the registry login file
type dockerConfigFile struct {
	Auths map[string]dockerConfigAuth `json:"auths"`
}

type dockerConfigAuth struct {
	Auth string `json:"auth"`
}

// DefaultDockerConfigPath returns $DOCKER_CONFIG/config.json, or ~/.docker/config.json
func DefaultDockerConfigPath() string {
	if dir := os.Getenv("DOCKER_CONFIG"); dir != "" {
		return filepath.Join(dir, "config.json")
	}
	return filepath.Join(xdg.Home, ".docker", "config.json")
}

// ReadCredentials decodes a registry login file into a CredentialStore
func ReadCredentials(r io.Reader) (domain.CredentialStore, error) {
	var file dockerConfigFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return domain.CredentialStore{}, fmt.Errorf("%w: %v", domain.ErrCredentialDecode, err)
	}
	auths := make(map[string]domain.Credential, len(file.Auths))
	for registry, entry := range file.Auths {
		cred, err := domain.DecodeCredential(entry.Auth)
		if err != nil {
			return domain.CredentialStore{}, fmt.Errorf("registry %s: %w", registry, err)
		}
		auths[registry] = cred
	}
	return domain.NewCredentialStore(auths), nil
}

// LoadCredentialsFromFile reads the registry login file at path,
// a missing file yields an empty store
func LoadCredentialsFromFile(path string) (domain.CredentialStore, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.L().Info("no registry login file, pulling anonymously", helpers.String("path", path))
		return domain.NewCredentialStore(nil), nil
	}
	if err != nil {
		return domain.CredentialStore{}, fmt.Errorf("failed to open registry login file: %w", err)
	}
	defer f.Close()
	store, err := ReadCredentials(f)
	if err != nil {
		return domain.CredentialStore{}, fmt.Errorf("failed to read registry login file %s: %w", path, err)
	}
	logger.L().Info("registry credentials loaded", helpers.String("path", path), helpers.Int("registries", store.Len()))
	return store, nil
}
