package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LOGOMOTION_CONFIG", "GEMINI_BASE_URL", "LOGOMOTION_IMAGE_MODEL",
		"LOGOMOTION_VIDEO_MODEL", "LOGOMOTION_POLL_INTERVAL", "LOGOMOTION_OUTPUT_DIR",
		"LOGOMOTION_LOG_FILE", "LOGOMOTION_DEBUG", "LOGOMOTION_UPDATE_REPO",
	} {
		t.Setenv(key, "")
	}
	// godotenv.Load reads ./.env; run from an empty dir
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultImageModel, cfg.ImageModel)
	assert.Equal(t, DefaultVideoModel, cfg.VideoModel)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.False(t, cfg.Debug)
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "logomotion.yaml")
	content := `base_url: http://localhost:9999/v1beta/
image_model: imagen-test
video_model: veo-test
poll_interval: 2s
output_dir: /tmp/videos
debug: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999/v1beta", cfg.BaseURL)
	assert.Equal(t, "imagen-test", cfg.ImageModel)
	assert.Equal(t, "veo-test", cfg.VideoModel)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, "/tmp/videos", cfg.OutputDir)
	assert.True(t, cfg.Debug)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "logomotion.yaml")
	require.NoError(t, os.WriteFile(path, []byte("video_model: from-file\n"), 0o644))

	t.Setenv("LOGOMOTION_CONFIG", path)
	t.Setenv("LOGOMOTION_VIDEO_MODEL", "from-env")
	t.Setenv("LOGOMOTION_POLL_INTERVAL", "500ms")
	t.Setenv("LOGOMOTION_DEBUG", "yes")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.VideoModel)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.True(t, cfg.Debug)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{"missing file", nil, "does-not-exist.yaml"},
		{"bad duration", map[string]string{"LOGOMOTION_POLL_INTERVAL": "soon"}, ""},
		{"bad base url", map[string]string{"GEMINI_BASE_URL": "ftp://example.com"}, ""},
		{"zero interval", map[string]string{"LOGOMOTION_POLL_INTERVAL": "0s"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.file)
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(Default())
	require.NoError(t, err)
	assert.NotNil(t, logger)

	cfg := Default()
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "logomotion.log")
	logger, err = NewLogger(cfg)
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestNewLoggerDebugWritesToFile(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	cfg := Default()
	cfg.Debug = true
	logger, err := NewLogger(cfg)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tmp, DefaultDebugLogFile), cfg.LogFile)
	logger.Debug("debug line")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "debug line")
}
