// Package config loads quill's on-disk configuration (recovery, worker,
// and logging knobs) from a TOML file over top of in-process defaults,
// the same two-step shape the teacher's internal/engine.Engine built
// its Option functions around, generalized from in-process-only
// defaults to a defaults-then-file-overlay.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"

	"github.com/dshills/quill/internal/config/loader"
)

// Default configuration values.
const (
	DefaultRecoveryInterval   = 30 * time.Second
	DefaultRecoveryDir        = ".quill/recovery"
	DefaultWorkerCapacity     = 100
	DefaultRequestTimeout     = 10 * time.Second
	DefaultLogLevel           = "info"
	DefaultLogPath            = ".quill/quill.log"
	DefaultPluginDir          = ".quill/plugins"
	DefaultShutdownDeadline   = 2 * time.Second
	DefaultMaxUndoEntries     = 1000
	DefaultLargeFileThreshold = 1 << 20 // 1 MiB
	DefaultTabWidth           = 4
)

// Config is quill's resolved runtime configuration.
type Config struct {
	Recovery RecoveryConfig `toml:"recovery"`
	Worker   WorkerConfig   `toml:"worker"`
	Log      LogConfig      `toml:"log"`
	Plugin   PluginConfig   `toml:"plugin"`
	Editor   EditorConfig   `toml:"editor"`
}

// RecoveryConfig configures internal/recovery.Manager.
type RecoveryConfig struct {
	Interval time.Duration `toml:"interval"`
	Dir      string        `toml:"dir"`
}

// WorkerConfig configures internal/worker.Handle defaults.
type WorkerConfig struct {
	Capacity         int           `toml:"capacity"`
	RequestTimeout   time.Duration `toml:"request_timeout"`
	ShutdownDeadline time.Duration `toml:"shutdown_deadline"`
}

// LogConfig configures internal/logsink.
type LogConfig struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

// PluginConfig configures internal/worker/pluginhost discovery.
type PluginConfig struct {
	Dir string `toml:"dir"`
}

// EditorConfig configures internal/engine/{buffer,document} defaults.
type EditorConfig struct {
	MaxUndoEntries     int   `toml:"max_undo_entries"`
	LargeFileThreshold int64 `toml:"large_file_threshold"`
	TabWidth           int   `toml:"tab_width"`
}

// Defaults returns a Config populated entirely with the constants above.
func Defaults() Config {
	return Config{
		Recovery: RecoveryConfig{Interval: DefaultRecoveryInterval, Dir: DefaultRecoveryDir},
		Worker: WorkerConfig{
			Capacity:         DefaultWorkerCapacity,
			RequestTimeout:   DefaultRequestTimeout,
			ShutdownDeadline: DefaultShutdownDeadline,
		},
		Log:    LogConfig{Level: DefaultLogLevel, Path: DefaultLogPath},
		Plugin: PluginConfig{Dir: DefaultPluginDir},
		Editor: EditorConfig{
			MaxUndoEntries:     DefaultMaxUndoEntries,
			LargeFileThreshold: DefaultLargeFileThreshold,
			TabWidth:           DefaultTabWidth,
		},
	}
}

// Load reads path (a TOML file) over Defaults(). A missing file is not
// an error: Load returns the defaults unchanged, the same "file doesn't
// exist, not an error" contract as loader.TOMLLoader.LoadFrom.
func Load(path string) (Config, error) {
	cfg := Defaults()

	fs := loader.DefaultFS()
	if _, err := fs.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &ParseError{Path: path, Message: err.Error(), Err: err}
	}

	// The buffer layer rejects a zero (or negative) tab width with
	// ErrInvalidTabWidth; replace it here with the built-in default
	// rather than propagating a value the buffer layer cannot use.
	if cfg.Editor.TabWidth <= 0 {
		logrus.WithField("value", cfg.Editor.TabWidth).Warn("config: tab_width must be positive, using default")
		cfg.Editor.TabWidth = DefaultTabWidth
	}
	return cfg, nil
}
