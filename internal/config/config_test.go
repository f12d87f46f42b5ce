package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultMatchesWellKnownPorts(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 7005, cfg.ControlPort)
	require.Equal(t, 7006, cfg.ServerDataPort)
	require.Equal(t, 8888, cfg.ClientDataPort)
	require.Equal(t, "./files", cfg.FilesDir)
	require.Equal(t, 8192, cfg.ChunkSize)
	require.Equal(t, 3, cfg.LengthFieldWidth)
	require.Equal(t, "10.0.0.5:7005", cfg.ControlAddress("10.0.0.5"))
	require.Equal(t, ":8888", cfg.ClientDataListenAddress())
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, "filesDir: /srv/share\nlengthFieldWidth: 10\nmaxSessions: 4\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "/srv/share", cfg.FilesDir)
	require.Equal(t, 10, cfg.LengthFieldWidth)
	require.Equal(t, 4, cfg.MaxSessions)
	require.Equal(t, DefaultControlPort, cfg.ControlPort, "unset fields keep their defaults")
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"width too small": "lengthFieldWidth: 2\n",
		"width too large": "lengthFieldWidth: 19\n",
		"zero chunk":      "chunkSize: 0\n",
		"bad port":        "controlPort: 70000\n",
		"no sessions":     "maxSessions: 0\n",
		"empty dir":       "filesDir: \"\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
