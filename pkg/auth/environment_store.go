package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements Store using environment variables. It is
// read-only and serves as the last-resort fallback in the manager chain.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve gets the API key from the environment
func (e *EnvironmentStore) Retrieve(name string) (*Credential, error) {
	apiKey := os.Getenv("CELVEST_API_KEY")
	if apiKey == "" {
		return nil, ErrCredentialsNotFound
	}

	// Environment variables carry no profile name
	if name == "" {
		name = "default"
	}

	return &Credential{
		Name:         name,
		APIKey:       apiKey,
		LastModified: time.Now(),
	}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if an environment API key is set
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv("CELVEST_API_KEY") != ""
}
