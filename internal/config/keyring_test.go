package config

import (
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyringConfig_Auto(t *testing.T) {
	t.Setenv(envKeyringBackend, "")
	t.Setenv(envCredentialsDir, "")

	cfg := keyringConfig()
	assert.Equal(t, serviceName, cfg.ServiceName)
	assert.NotEmpty(t, cfg.FileDir)
	assert.NotNil(t, cfg.FilePasswordFunc)
}

func TestKeyringConfig_File(t *testing.T) {
	base := t.TempDir()
	t.Setenv(envKeyringBackend, "file")
	t.Setenv(envCredentialsDir, base)

	cfg := keyringConfig()
	assert.Equal(t, []keyring.BackendType{keyring.FileBackend}, cfg.AllowedBackends)
	assert.Equal(t, filepath.Join(base, "keyring"), cfg.FileDir)
}

func TestKeyringConfig_System(t *testing.T) {
	t.Setenv(envKeyringBackend, "native")

	cfg := keyringConfig()
	assert.Empty(t, cfg.FileDir)
	assert.Nil(t, cfg.FilePasswordFunc)
	assert.Empty(t, cfg.AllowedBackends)
}

func TestBackendMode(t *testing.T) {
	for value, want := range map[string]string{
		"":        backendAuto,
		"auto":    backendAuto,
		" FILE ":  backendFile,
		"system":  backendSystem,
		"os":      backendSystem,
		"unknown": backendAuto,
	} {
		t.Setenv(envKeyringBackend, value)
		assert.Equal(t, want, backendMode(), "value %q", value)
	}
}

func TestFileOnly(t *testing.T) {
	tests := []struct {
		name     string
		goos     string
		mode     string
		dbusAddr string
		want     bool
	}{
		{"file mode", "darwin", backendFile, "unix:path=/bus", true},
		{"headless linux", "linux", backendAuto, "", true},
		{"linux desktop", "linux", backendAuto, "unix:path=/run/user/1000/bus", false},
		{"system mode", "linux", backendSystem, "", false},
		{"macOS", "darwin", backendAuto, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fileOnly(tt.goos, tt.mode, tt.dbusAddr))
		})
	}
}

func TestDir(t *testing.T) {
	t.Setenv(envCredentialsDir, "")
	fake := t.TempDir()
	original := userConfigDir
	userConfigDir = func() (string, error) { return fake, nil }
	t.Cleanup(func() { userConfigDir = original })

	assert.Equal(t, filepath.Join(fake, serviceName), Dir())
	assert.Equal(t, filepath.Join(fake, serviceName, "keyring"), credentialsDir())
	assert.Equal(t, filepath.Join(fake, serviceName, ".env"), DefaultEnvFile())
}

func TestFilePassword(t *testing.T) {
	t.Setenv(envKeyringPassword, "env-pass")
	password, err := filePassword("prompt")
	require.NoError(t, err)
	assert.Equal(t, "env-pass", password)

	t.Setenv(envKeyringPassword, "  ")
	original := stdinHasTTY
	stdinHasTTY = func() bool { return false }
	t.Cleanup(func() { stdinHasTTY = original })

	_, err = filePassword("prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), envKeyringPassword)
}
