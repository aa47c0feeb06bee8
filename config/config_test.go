package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "csvplot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
chart:
  renderer: svg
  histogram_bins: 12
session:
  ttl: 5m
logging:
  level: debug
  development: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "svg", cfg.Chart.Renderer)
	assert.Equal(t, 12, cfg.Chart.HistogramBins)
	assert.Equal(t, 5*time.Minute, cfg.GetSessionTTL())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)

	// Untouched keys keep their defaults.
	assert.Equal(t, 900, cfg.Chart.Width)
	assert.Equal(t, 32, cfg.Session.MaxEntries)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CSVPLOT_ADDR", ":7777")
	t.Setenv("CSVPLOT_LOG_LEVEL", "warn")
	t.Setenv("CSVPLOT_RENDERER", "png")
	t.Setenv("CSVPLOT_MAX_UPLOAD_MB", "5")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "png", cfg.Chart.Renderer)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes())
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"syntax":   "server: [",
		"duration": "session:\n  ttl: soon\n",
		"bins":     "chart:\n  histogram_bins: -1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "csvplot.yaml")
	cfg := DefaultConfig()
	cfg.Chart.Colors = []string{"#111111", "#222222"}

	require.NoError(t, cfg.Save(path))
	got, err := Load(path)
	require.NoError(t, err)

	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestDurationFallbacks(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 30*time.Second, cfg.GetReadTimeout())
	assert.Equal(t, 60*time.Second, cfg.GetWriteTimeout())
	assert.Equal(t, 10*time.Second, cfg.GetShutdownTimeout())
	assert.Equal(t, time.Hour, cfg.GetSessionTTL())
	assert.Equal(t, time.Minute, cfg.GetSweepInterval())
	assert.Equal(t, int64(200<<20), cfg.MaxUploadBytes())
}
