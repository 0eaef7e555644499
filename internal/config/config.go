// Package config holds the server configuration: defaults, file loading
// and validation.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr           = "127.0.0.1:7878"
	DefaultWorkers        = 4
	DefaultDocRoot        = "static"
	DefaultReadBufferSize = 1024
	DefaultSleepDelay     = 5 * time.Second

	minReadBufferSize = 16
)

var ErrInvalid = errors.New("config: invalid configuration")

// Config is the runtime configuration of the server and its pool.
type Config struct {
	Addr           string
	Workers        int
	DocRoot        string
	ReadBufferSize int
	ReadTimeout    time.Duration // 0 disables the read deadline
	SleepDelay     time.Duration
	QueueCapacity  int // 0 means unbounded
	LockOSThread   bool
	LogClaims      bool
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Addr:           DefaultAddr,
		Workers:        DefaultWorkers,
		DocRoot:        DefaultDocRoot,
		ReadBufferSize: DefaultReadBufferSize,
		SleepDelay:     DefaultSleepDelay,
		LogClaims:      true,
	}
}

// FileConfig is the on-disk representation. Durations are Go duration
// strings ("250ms", "5s"); absent fields keep their defaults.
type FileConfig struct {
	Addr           string `yaml:"addr" json:"addr"`
	Workers        int    `yaml:"workers" json:"workers"`
	DocRoot        string `yaml:"doc_root" json:"doc_root"`
	ReadBufferSize int    `yaml:"read_buffer_size" json:"read_buffer_size"`
	ReadTimeout    string `yaml:"read_timeout" json:"read_timeout"`
	SleepDelay     string `yaml:"sleep_delay" json:"sleep_delay"`
	QueueCapacity  int    `yaml:"queue_capacity" json:"queue_capacity"`
	LockOSThread   *bool  `yaml:"lock_os_thread" json:"lock_os_thread"`
	LogClaims      *bool  `yaml:"log_claims" json:"log_claims"`
}

// LoadFile reads a YAML or JSON file and overlays it on Default.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc FileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format: %s", ext)
	}

	return fc.Apply(Default())
}

// Apply overlays the non-zero fields of f on base.
func (f FileConfig) Apply(base Config) (Config, error) {
	cfg := base
	if f.Addr != "" {
		cfg.Addr = f.Addr
	}
	if f.Workers != 0 {
		cfg.Workers = f.Workers
	}
	if f.DocRoot != "" {
		cfg.DocRoot = f.DocRoot
	}
	if f.ReadBufferSize != 0 {
		cfg.ReadBufferSize = f.ReadBufferSize
	}
	if f.ReadTimeout != "" {
		d, err := time.ParseDuration(f.ReadTimeout)
		if err != nil {
			return cfg, fmt.Errorf("invalid read_timeout: %w", err)
		}
		cfg.ReadTimeout = d
	}
	if f.SleepDelay != "" {
		d, err := time.ParseDuration(f.SleepDelay)
		if err != nil {
			return cfg, fmt.Errorf("invalid sleep_delay: %w", err)
		}
		cfg.SleepDelay = d
	}
	if f.QueueCapacity != 0 {
		cfg.QueueCapacity = f.QueueCapacity
	}
	if f.LockOSThread != nil {
		cfg.LockOSThread = *f.LockOSThread
	}
	if f.LogClaims != nil {
		cfg.LogClaims = *f.LogClaims
	}
	return cfg, nil
}

// Validate reports the first invalid field, wrapped in ErrInvalid.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr is empty", ErrInvalid)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, c.Workers)
	case c.ReadBufferSize < minReadBufferSize:
		return fmt.Errorf("%w: read_buffer_size must be at least %d, got %d", ErrInvalid, minReadBufferSize, c.ReadBufferSize)
	case c.ReadTimeout < 0:
		return fmt.Errorf("%w: read_timeout is negative", ErrInvalid)
	case c.SleepDelay < 0:
		return fmt.Errorf("%w: sleep_delay is negative", ErrInvalid)
	case c.QueueCapacity < 0:
		return fmt.Errorf("%w: queue_capacity is negative", ErrInvalid)
	}
	return nil
}
