package domain

import (
	"encoding/base64"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"
)

// Credential is a username/password pair for one registry
type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// DecodeCredential decodes a registry login "auth" entry, the base64 form of "user:pass"
func DecodeCredential(auth string) (Credential, error) {
	decoded, err := base64.StdEncoding.DecodeString(auth)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrCredentialDecode, err)
	}
	if !utf8.Valid(decoded) {
		return Credential{}, fmt.Errorf("%w: registry auth token is not valid UTF-8", ErrCredentialDecode)
	}
	username, password, found := strings.Cut(string(decoded), ":")
	if !found {
		return Credential{}, fmt.Errorf("%w: no : delimiter in username/password registry auth token", ErrCredentialDecode)
	}
	return Credential{
		Username: username,
		Password: password,
	}, nil
}

// CredentialStore maps registry domains to their credentials.
// It is built once at startup and never modified afterwards.
type CredentialStore struct {
	auths map[string]Credential
}

// NewCredentialStore copies auths into a new store
func NewCredentialStore(auths map[string]Credential) CredentialStore {
	return CredentialStore{auths: maps.Clone(auths)}
}

// Lookup returns the credential registered for domain
func (s CredentialStore) Lookup(domain string) (Credential, bool) {
	c, ok := s.auths[domain]
	return c, ok
}

// Domains returns the registered domains, sorted
func (s CredentialStore) Domains() []string {
	return slices.Sorted(maps.Keys(s.auths))
}

// Len returns the number of registered domains
func (s CredentialStore) Len() int {
	return len(s.auths)
}
