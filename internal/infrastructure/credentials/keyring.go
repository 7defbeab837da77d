package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

const serviceName = "shai-mongo"

// ErrNotFound is returned when no credential is stored for a key.
var ErrNotFound = errors.New("credential not found")

// KeyringStore keeps API keys in the OS keyring, falling back to an
// encrypted file under the shai-mongo home directory.
type KeyringStore struct {
	ring keyring.Keyring
}

// Open returns a keyring-backed SecretStore. fileDir hosts the file backend.
func Open(fileDir string) (*KeyringStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt("shai-mongo-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &KeyringStore{ring: ring}, nil
}

// New wraps an already opened keyring.
func New(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

// Get implements ports.SecretStore.
func (k *KeyringStore) Get(key string) (string, error) {
	item, err := k.ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set implements ports.SecretStore.
func (k *KeyringStore) Set(key, value string) error {
	if err := k.ring.Set(keyring.Item{Key: key, Data: []byte(value)}); err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// APIKeyName is the keyring entry holding a provider's API key.
func APIKeyName(provider domain.ProviderName) string {
	return string(provider) + "-api-key"
}

// Resolver finds API keys in env vars first and the secret store second.
type Resolver struct {
	Secrets ports.SecretStore
}

// APIKey returns the credential for def, or "" when none is configured.
func (r Resolver) APIKey(def domain.ProviderDefinition) string {
	for _, env := range def.APIKeyEnv {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	if r.Secrets == nil {
		return ""
	}
	v, err := r.Secrets.Get(APIKeyName(def.Name))
	if err != nil {
		return ""
	}
	return v
}

var _ ports.SecretStore = (*KeyringStore)(nil)
