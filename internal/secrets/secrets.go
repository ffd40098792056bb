// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files and
// from an optional dotenv file.
//
// In the directory each file is one secret: the filename is the key and the
// trimmed contents are the value. Dotenv variables are folded into the same
// key space by lower-casing and replacing underscores with hyphens, so
// OPENAI_API_KEY and a file named openai-api-key are the same secret. Files
// in the directory take precedence.
//
// Known keys: openai-api-key.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// KeyOpenAI is the secret holding the OpenAI-compatible embeddings API key.
const KeyOpenAI = "openai-api-key"

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory is not an error; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("could not read secret", "name", name, "err", err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadWithEnv reads dir like Load and merges in variables from envFile. A
// missing envFile is not an error.
func LoadWithEnv(dir, envFile string) (map[string]string, error) {
	secrets, err := Load(dir)
	if err != nil {
		return nil, err
	}
	if envFile == "" {
		return secrets, nil
	}

	vars, err := godotenv.Read(envFile)
	if err != nil {
		if os.IsNotExist(err) {
			return secrets, nil
		}
		return nil, fmt.Errorf("reading env file %s: %w", envFile, err)
	}
	for k, v := range vars {
		key := EnvKey(k)
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := secrets[key]; !ok {
			secrets[key] = v
		}
	}
	return secrets, nil
}

// EnvKey converts an environment variable name to secret key form.
func EnvKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}
