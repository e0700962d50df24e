// Package utils содержит мелкие общие помощники.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SecretsDir - стандартный путь Docker Secrets.
var SecretsDir = "/run/secrets"

// ReadSecret читает секрет из файла Docker Secrets.
func ReadSecret(secretName string) (string, error) {
	filePath := filepath.Join(SecretsDir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}

// ReadSecretOrEnv reads the secret file and, when allowEnv is set, falls back to
// the upper-cased environment variable (db_password -> DB_PASSWORD).
func ReadSecretOrEnv(secretName string, allowEnv bool) (string, error) {
	secret, err := ReadSecret(secretName)
	if err == nil || !allowEnv {
		return secret, err
	}
	if v := strings.TrimSpace(os.Getenv(strings.ToUpper(secretName))); v != "" {
		return v, nil
	}
	return "", err
}
