package config

import (
	"os"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ScanPaths     []string      `toml:"scan_paths"`
	RegistryPath  string        `toml:"registry_path"`
	Workers       int           `toml:"workers"`
	Exclude       Exclude       `toml:"exclude"`
	Watch         Watch         `toml:"watch"`
	Storage       Storage       `toml:"storage"`
	Observability Observability `toml:"observability"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	// RebuildsPerMinute caps how often file events may trigger a full
	// rebuild. Zero disables the cap.
	RebuildsPerMinute float64 `toml:"rebuilds_per_minute"`
}

type Storage struct {
	// Path of the sqlite database holding persisted runs. Empty disables
	// persistence.
	Path string `toml:"path"`
}

type Observability struct {
	// MetricsAddr serves /metrics and /health when set (e.g. ":9090").
	MetricsAddr string `toml:"metrics_addr"`
	// OTLPEndpoint enables trace export over gRPC when set.
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a usable configuration when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if len(cfg.ScanPaths) == 0 {
		cfg.ScanPaths = []string{"."}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{".git", "node_modules", "vendor", "target", "__pycache__"}
	}
}
