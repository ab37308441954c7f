package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is loaded on every run when present.
func DefaultEnvFile() string {
	return filepath.Join(Dir(), ".env")
}

// LoadEnvFile loads variables from path into the process environment.
// Variables that are already exported win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ReadEnvFile parses a dotenv file without touching the environment.
func ReadEnvFile(path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("env file path is empty")
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %q: %w", path, err)
	}
	return vars, nil
}

// ProfileFromEnvFile builds a profile from OAI_* variables in a dotenv file.
// Keyring settings found in the file are exported when not already set, so
// the profile can be stored non-interactively.
func ProfileFromEnvFile(path string) (Profile, error) {
	vars, err := ReadEnvFile(path)
	if err != nil {
		return Profile{}, err
	}
	for _, key := range []string{envKeyringBackend, envKeyringPassword, envCredentialsDir} {
		if v, ok := vars[key]; ok && os.Getenv(key) == "" {
			_ = os.Setenv(key, v)
		}
	}
	profile := Profile{
		AccessToken:    strings.TrimSpace(vars[EnvAccessToken]),
		OrganizationID: strings.TrimSpace(vars[EnvOrganizationID]),
		URIBase:        strings.TrimSpace(vars[EnvURIBase]),
		APIType:        strings.TrimSpace(vars[EnvAPIType]),
		APIVersion:     strings.TrimSpace(vars[EnvAPIVersion]),
	}
	if profile.AccessToken == "" {
		return Profile{}, fmt.Errorf("%s not found in %s", EnvAccessToken, path)
	}
	return profile, nil
}
