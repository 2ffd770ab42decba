package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	// Addr is the daemon's own HTTP listen address.
	Addr string `json:"addr" yaml:"addr" toml:"addr"`
	// ModelsDir contains whisper model files (ggml-*.bin).
	ModelsDir string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	// ResourcesDir contains the bundled server binaries and ffmpeg.
	ResourcesDir string `json:"resources_dir" yaml:"resources_dir" toml:"resources_dir"`
	// DevBinDir is an optional extra directory searched for binaries
	// before the well-known locations, useful in development checkouts.
	DevBinDir string `json:"dev_bin_dir" yaml:"dev_bin_dir" toml:"dev_bin_dir"`
	// HistoryDB is the sqlite file for transcription history. Empty
	// disables history.
	HistoryDB string `json:"history_db" yaml:"history_db" toml:"history_db"`
	// HistoryLimit caps retained history entries.
	HistoryLimit int `json:"history_limit" yaml:"history_limit" toml:"history_limit"`

	PortStart int `json:"port_start" yaml:"port_start" toml:"port_start"`
	PortEnd   int `json:"port_end" yaml:"port_end" toml:"port_end"`

	StartupTimeoutSec   int `json:"startup_timeout_sec" yaml:"startup_timeout_sec" toml:"startup_timeout_sec"`
	StopGraceSec        int `json:"stop_grace_sec" yaml:"stop_grace_sec" toml:"stop_grace_sec"`
	HealthIntervalSec   int `json:"health_interval_sec" yaml:"health_interval_sec" toml:"health_interval_sec"`
	InferenceTimeoutSec int `json:"inference_timeout_sec" yaml:"inference_timeout_sec" toml:"inference_timeout_sec"`

	// MaxTranscriptions bounds concurrent POST /api/transcribe requests.
	MaxTranscriptions int `json:"max_transcriptions" yaml:"max_transcriptions" toml:"max_transcriptions"`

	LogLevel     string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFile      string `json:"log_file" yaml:"log_file" toml:"log_file"`
	LogFileMaxMB int    `json:"log_file_max_mb" yaml:"log_file_max_mb" toml:"log_file_max_mb"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
