package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbordata/arbor/internal/config"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := config.NewConfig()

	assert.Equal(t, config.DefaultParallelThreshold, cfg.ParallelThreshold)
	assert.Equal(t, 0, cfg.WorkerPoolSize)
	assert.Equal(t, config.DefaultPreviewRows, cfg.PreviewRows)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := config.NewConfig()
	cfg.ParallelThreshold = 0
	assert.Error(t, cfg.Validate())

	cfg = config.NewConfig()
	cfg.WorkerPoolSize = -1
	assert.Error(t, cfg.Validate())

	cfg = config.NewConfig()
	cfg.PreviewRows = -5
	assert.Error(t, cfg.Validate())
}

func TestWithDefaultsFillsZeroValues(t *testing.T) {
	cfg := config.Config{WorkerPoolSize: 4}.WithDefaults()

	assert.Equal(t, config.DefaultParallelThreshold, cfg.ParallelThreshold)
	assert.Equal(t, 4, cfg.WorkerPoolSize)
	assert.Equal(t, config.DefaultPreviewRows, cfg.PreviewRows)
}

func TestGlobalConfigRoundTrip(t *testing.T) {
	original := config.GetGlobalConfig()
	defer config.SetGlobalConfig(original)

	cfg := config.NewConfig()
	cfg.ParallelThreshold = 42
	config.SetGlobalConfig(cfg)

	assert.Equal(t, 42, config.GetGlobalConfig().ParallelThreshold)
}

func TestLoadFromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbor.yaml")
	require.NoError(t, os.WriteFile(path,
		[]byte("parallel_threshold: 500\nworker_pool_size: 2\n"), 0o600))

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.ParallelThreshold)
	assert.Equal(t, 2, cfg.WorkerPoolSize)
	// Unset values pick up defaults.
	assert.Equal(t, config.DefaultPreviewRows, cfg.PreviewRows)
}

func TestLoadFromJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbor.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"preview_rows": 25}`), 0o600))

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.PreviewRows)
}

func TestLoadFromFileRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbor.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o600))

	_, err := config.LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ARBOR_PARALLEL_THRESHOLD", "750")
	t.Setenv("ARBOR_PREVIEW_ROWS", "5")

	cfg := config.LoadFromEnv()
	assert.Equal(t, 750, cfg.ParallelThreshold)
	assert.Equal(t, 5, cfg.PreviewRows)
}
