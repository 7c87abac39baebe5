// Package manufacturer authenticates the tooling that registers products.
// Consumers never authenticate; only writes need an identity.
package manufacturer

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	dErrors "foodtrust/pkg/domain-errors"
)

// CredentialStore holds manufacturer credentials as bcrypt hashes. The set is
// loaded from configuration at startup; rotating a secret is a config change
// and a restart, which fits the small, static population of manufacturers.
type CredentialStore struct {
	hashes map[string]string
}

// NewCredentialStore builds a store from manufacturer id -> bcrypt hash pairs.
func NewCredentialStore(hashes map[string]string) *CredentialStore {
	if hashes == nil {
		hashes = make(map[string]string)
	}
	return &CredentialStore{hashes: hashes}
}

// Verify checks a manufacturer's secret against its stored hash.
//
// Errors: CodeUnauthorized for unknown manufacturers and wrong secrets alike,
// so callers cannot probe which manufacturer IDs exist.
func (s *CredentialStore) Verify(manufacturerID, secret string) error {
	hash, ok := s.hashes[manufacturerID]
	if !ok {
		// Burn comparable time against a throwaway hash to keep unknown-id
		// and wrong-secret responses indistinguishable.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B4wZL5Z5Z5Z5Z5Z5Z5Z5Z5Z5Z5Z."), []byte(secret))
		return dErrors.New(dErrors.CodeUnauthorized, "invalid manufacturer credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid manufacturer credentials")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "credential check failed")
	}
	return nil
}

// HashSecret creates a bcrypt hash for provisioning tooling.
func HashSecret(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "secret too long")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash secret")
	}
	return string(hashed), nil
}
