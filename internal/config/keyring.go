package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "oai"

// Keyring backends selectable with OAI_KEYRING_BACKEND.
const (
	backendAuto   = "auto"
	backendFile   = "file"
	backendSystem = "system"
)

const (
	envKeyringBackend  = "OAI_KEYRING_BACKEND"
	envKeyringPassword = "OAI_KEYRING_PASSWORD"
	envCredentialsDir  = "OAI_CREDENTIALS_DIR"
)

var openKeyring = keyring.Open

var userConfigDir = os.UserConfigDir

var stdinHasTTY = func() bool {
	info, err := os.Stdin.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// SetOpenKeyring replaces the keyring opener and returns a restore func.
// Tests use it to swap in keyring.NewArrayKeyring.
func SetOpenKeyring(fn func(keyring.Config) (keyring.Keyring, error)) func() {
	original := openKeyring
	openKeyring = fn
	return func() { openKeyring = original }
}

// Dir is the oai configuration directory: the user config dir, then
// ~/.config, then the temp dir.
func Dir() string {
	if dir, err := userConfigDir(); err == nil && strings.TrimSpace(dir) != "" {
		return filepath.Join(dir, serviceName)
	}
	if home, err := os.UserHomeDir(); err == nil && strings.TrimSpace(home) != "" {
		return filepath.Join(home, ".config", serviceName)
	}
	return filepath.Join(os.TempDir(), serviceName)
}

func backendMode() string {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(envKeyringBackend))) {
	case backendFile:
		return backendFile
	case backendSystem, "os", "native":
		return backendSystem
	default:
		return backendAuto
	}
}

// keyringConfig selects the backend. "system" uses only native stores.
// "auto" also configures the encrypted file store as a fallback, and uses
// it exclusively on Linux without a D-Bus session, where the secret service
// would hang.
func keyringConfig() keyring.Config {
	cfg := keyring.Config{ServiceName: serviceName}
	mode := backendMode()
	if mode == backendSystem {
		return cfg
	}
	cfg.FileDir = credentialsDir()
	cfg.FilePasswordFunc = filePassword
	if fileOnly(runtime.GOOS, mode, os.Getenv("DBUS_SESSION_BUS_ADDRESS")) {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	}
	return cfg
}

func fileOnly(goos, mode, dbusAddr string) bool {
	switch mode {
	case backendFile:
		return true
	case backendAuto:
		return goos == "linux" && strings.TrimSpace(dbusAddr) == ""
	}
	return false
}

func credentialsDir() string {
	base := strings.TrimSpace(os.Getenv(envCredentialsDir))
	if base == "" {
		base = Dir()
	}
	return filepath.Join(base, "keyring")
}

func filePassword(prompt string) (string, error) {
	if password := os.Getenv(envKeyringPassword); strings.TrimSpace(password) != "" {
		return password, nil
	}
	if !stdinHasTTY() {
		return "", fmt.Errorf("set %s when using file keyring in non-interactive environments", envKeyringPassword)
	}
	return keyring.TerminalPrompt(prompt)
}
