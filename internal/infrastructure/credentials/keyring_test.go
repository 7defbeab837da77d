package credentials

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/shai-mongo/internal/domain"
)

func TestKeyringStoreRoundTrip(t *testing.T) {
	store := New(keyring.NewArrayKeyring(nil))

	_, err := store.Get("openai-api-key")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set("openai-api-key", "sk-test"))
	v, err := store.Get("openai-api-key")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", v)
}

func TestResolverPrefersEnvironment(t *testing.T) {
	def, _ := domain.LookupProvider(domain.ProviderOpenAI)
	store := New(keyring.NewArrayKeyring(nil))
	require.NoError(t, store.Set(APIKeyName(domain.ProviderOpenAI), "from-keyring"))
	resolver := Resolver{Secrets: store}

	t.Setenv("MONGOSH_AI_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	assert.Equal(t, "from-keyring", resolver.APIKey(def))

	t.Setenv("OPENAI_API_KEY", "from-fallback-env")
	assert.Equal(t, "from-fallback-env", resolver.APIKey(def))

	t.Setenv("MONGOSH_AI_OPENAI_API_KEY", "from-env")
	assert.Equal(t, "from-env", resolver.APIKey(def))
}

func TestResolverWithoutSecrets(t *testing.T) {
	def, _ := domain.LookupProvider(domain.ProviderMistral)
	t.Setenv("MONGOSH_AI_MISTRAL_API_KEY", "")
	t.Setenv("MISTRAL_API_KEY", "")
	assert.Empty(t, Resolver{}.APIKey(def))
}
