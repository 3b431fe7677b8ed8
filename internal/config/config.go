// Package config holds the runtime settings for expression evaluation
// and data loading.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config is the global configuration for evaluation and rendering.
type Config struct {
	// ParallelThreshold is the minimum row count before filter
	// pipelines split into parallel chunks.
	ParallelThreshold int `json:"parallel_threshold" yaml:"parallel_threshold"`
	// WorkerPoolSize is the number of worker goroutines (0 = CPU count).
	WorkerPoolSize int `json:"worker_pool_size" yaml:"worker_pool_size"`
	// PreviewRows caps the rows shown when a frame is rendered.
	PreviewRows int `json:"preview_rows" yaml:"preview_rows"`
}

var (
	globalConfig Config
	configMutex  sync.RWMutex
)

const (
	DefaultParallelThreshold = 1000
	DefaultPreviewRows       = 10
)

func init() {
	globalConfig = NewConfig()
}

// NewConfig creates a configuration with default values.
func NewConfig() Config {
	return Config{
		ParallelThreshold: DefaultParallelThreshold,
		WorkerPoolSize:    0, // Auto-detect
		PreviewRows:       DefaultPreviewRows,
	}
}

// Validate returns an error if any setting is out of range.
func (c *Config) Validate() error {
	if c.ParallelThreshold <= 0 {
		return fmt.Errorf("ParallelThreshold must be positive, got %d", c.ParallelThreshold)
	}
	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("WorkerPoolSize must be non-negative, got %d", c.WorkerPoolSize)
	}
	if c.PreviewRows <= 0 {
		return fmt.Errorf("PreviewRows must be positive, got %d", c.PreviewRows)
	}
	return nil
}

// WithDefaults fills default values in for zero-valued settings.
func (c Config) WithDefaults() Config {
	defaults := NewConfig()
	if c.ParallelThreshold == 0 {
		c.ParallelThreshold = defaults.ParallelThreshold
	}
	if c.PreviewRows == 0 {
		c.PreviewRows = defaults.PreviewRows
	}
	return c
}

// SetGlobalConfig replaces the global configuration.
func SetGlobalConfig(config Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = config
}

// GetGlobalConfig returns the current global configuration.
func GetGlobalConfig() Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// LoadFromFile loads configuration from a JSON or YAML file.
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		err = json.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config.WithDefaults(), nil
}

// LoadFromEnv loads configuration from ARBOR_* environment variables,
// starting from the defaults.
func LoadFromEnv() Config {
	config := NewConfig()

	if val := os.Getenv("ARBOR_PARALLEL_THRESHOLD"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.ParallelThreshold = parsed
		}
	}
	if val := os.Getenv("ARBOR_WORKER_POOL_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.WorkerPoolSize = parsed
		}
	}
	if val := os.Getenv("ARBOR_PREVIEW_ROWS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.PreviewRows = parsed
		}
	}

	return config
}
