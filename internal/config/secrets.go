package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSecretsDir - стандартный путь Docker Secrets.
const DefaultSecretsDir = "/run/secrets"

// ReadSecret читает секрет из файла <dir>/<name>.
func ReadSecret(dir, secretName string) (string, error) {
	filePath := filepath.Join(dir, secretName)
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

// readSecretOrEnv читает секрет из файла, а если файла нет, берёт переменную окружения.
// Второе значение сообщает, откуда пришёл секрет: "file", "env" или "".
func readSecretOrEnv(dir, secretName, envKey string) (string, string) {
	if v, err := ReadSecret(dir, secretName); err == nil {
		return v, "file"
	}
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		return v, "env"
	}
	return "", ""
}
