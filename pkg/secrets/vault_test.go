package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVaultServer(t *testing.T, path, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path || r.Header.Get("X-Vault-Token") != "root" {
			http.Error(w, `{"errors":[]}`, http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestApply_Disabled(t *testing.T) {
	result, err := Apply(context.Background(), VaultConfig{})
	require.NoError(t, err)
	assert.Zero(t, result.Loaded)
}

func TestApply_Incomplete(t *testing.T) {
	_, err := Apply(context.Background(), VaultConfig{Enabled: true, Addr: "http://vault"})
	assert.Error(t, err)
}

func TestApply_KVv2(t *testing.T) {
	server := newVaultServer(t, "/v1/secret/data/restaurant-guide",
		`{"data":{"data":{"VAULT_TEST_DB_PASSWORD":"s3cret","VAULT_TEST_REDIS_DB":2}}}`)

	t.Setenv("VAULT_TEST_DB_PASSWORD", "")
	t.Setenv("VAULT_TEST_REDIS_DB", "")

	result, err := Apply(context.Background(), VaultConfig{
		Enabled:   true,
		Addr:      server.URL,
		Token:     "root",
		Mount:     "secret",
		Path:      "restaurant-guide",
		KVVersion: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Loaded)
	assert.Equal(t, "s3cret", os.Getenv("VAULT_TEST_DB_PASSWORD"))
	assert.Equal(t, "2", os.Getenv("VAULT_TEST_REDIS_DB"))
}

func TestApply_KVv1KeepsExistingValues(t *testing.T) {
	server := newVaultServer(t, "/v1/kv/restaurant-guide", `{"data":{"VAULT_TEST_API_KEY":"from-vault"}}`)

	t.Setenv("VAULT_TEST_API_KEY", "from-env")

	result, err := Apply(context.Background(), VaultConfig{
		Enabled:   true,
		Addr:      server.URL,
		Token:     "root",
		Mount:     "kv",
		Path:      "restaurant-guide",
		KVVersion: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "from-env", os.Getenv("VAULT_TEST_API_KEY"))
}

func TestApply_PresetDecidesWhatIsKept(t *testing.T) {
	server := newVaultServer(t, "/v1/secret/data/restaurant-guide",
		`{"data":{"data":{"VAULT_TEST_FROM_FILE":"vault","VAULT_TEST_FROM_SHELL":"vault"}}}`)

	t.Setenv("VAULT_TEST_FROM_FILE", "file")
	t.Setenv("VAULT_TEST_FROM_SHELL", "shell")

	result, err := Apply(context.Background(), VaultConfig{
		Enabled:   true,
		Addr:      server.URL,
		Token:     "root",
		Mount:     "secret",
		Path:      "restaurant-guide",
		KVVersion: 2,
		Preset:    map[string]bool{"VAULT_TEST_FROM_SHELL": true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Loaded)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "vault", os.Getenv("VAULT_TEST_FROM_FILE"))
	assert.Equal(t, "shell", os.Getenv("VAULT_TEST_FROM_SHELL"))
}

func TestEnvironKeys(t *testing.T) {
	t.Setenv("VAULT_TEST_SET", "x")
	t.Setenv("VAULT_TEST_EMPTY", "")

	keys := EnvironKeys()
	assert.True(t, keys["VAULT_TEST_SET"])
	assert.False(t, keys["VAULT_TEST_EMPTY"])
}

func TestApply_ErrorStatus(t *testing.T) {
	server := newVaultServer(t, "/v1/secret/data/restaurant-guide", `{}`)

	_, err := Apply(context.Background(), VaultConfig{
		Enabled: true, Addr: server.URL, Token: "wrong", Mount: "secret", Path: "restaurant-guide", KVVersion: 2,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestSecretURL(t *testing.T) {
	url, err := secretURL("http://vault:8200/", "/secret/", "/app", 2)
	require.NoError(t, err)
	assert.Equal(t, "http://vault:8200/v1/secret/data/app", url)

	_, err = secretURL("", "secret", "app", 2)
	assert.Error(t, err)
}
