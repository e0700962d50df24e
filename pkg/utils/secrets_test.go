package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSecretsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev := SecretsDir
	SecretsDir = dir
	t.Cleanup(func() { SecretsDir = prev })
	return dir
}

func TestReadSecretTrimsWhitespace(t *testing.T) {
	dir := withSecretsDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jwt_secret"), []byte("  s3cret\n"), 0o600))

	v, err := ReadSecret("jwt_secret")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)
}

func TestReadSecretEmptyFile(t *testing.T) {
	dir := withSecretsDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db_password"), []byte("\n"), 0o600))

	_, err := ReadSecret("db_password")
	assert.Error(t, err)
}

func TestReadSecretOrEnv(t *testing.T) {
	withSecretsDir(t)
	t.Setenv("DB_PASSWORD", "from-env")

	_, err := ReadSecretOrEnv("db_password", false)
	assert.Error(t, err)

	v, err := ReadSecretOrEnv("db_password", true)
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)
}
