// Package config holds runtime configuration for the filing service. Values
// come from an optional YAML file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the top-level service configuration.
type Config struct {
	Oracle  OracleConfig  `yaml:"oracle"`
	Filter  FilterConfig  `yaml:"filter"`
	Parser  ParserConfig  `yaml:"parser"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
}

type OracleConfig struct {
	Provider string        `yaml:"provider"` // gemini | deepseek
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
}

type FilterConfig struct {
	SizeThresholdBytes int `yaml:"size_threshold_bytes"`
	SampleFacts        int `yaml:"sample_facts"`
	MaxFacts           int `yaml:"max_facts"`
	FallbackMaxFacts   int `yaml:"fallback_max_facts"`
	TimeWindowYears    int `yaml:"time_window_years"`
}

type ParserConfig struct {
	ChunkBytes       int `yaml:"chunk_bytes"`
	MaxChunks        int `yaml:"max_chunks"`
	MaxTablesPerItem int `yaml:"max_tables_per_item"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type StorageConfig struct {
	DatabaseURL string `yaml:"database_url"`
	CacheDir    string `yaml:"cache_dir"`
}

// Default returns the configuration used when no file or env overrides exist.
func Default() Config {
	return Config{
		Oracle: OracleConfig{
			Provider: "gemini",
			Model:    "",
			Timeout:  60 * time.Second,
		},
		Filter: FilterConfig{
			SizeThresholdBytes: 100 * 1024,
			SampleFacts:        10,
			MaxFacts:           20,
			FallbackMaxFacts:   10,
			TimeWindowYears:    5,
		},
		Parser: ParserConfig{
			ChunkBytes:       50 * 1024,
			MaxChunks:        6,
			MaxTablesPerItem: 3,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Storage: StorageConfig{
			CacheDir: "cache",
		},
	}
}

// Load reads the YAML file at path (ignored if empty or missing) and applies
// environment overrides on top of defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ORACLE_PROVIDER"); v != "" {
		cfg.Oracle.Provider = v
	}
	if v := os.Getenv("ORACLE_MODEL"); v != "" {
		cfg.Oracle.Model = v
	}
	if v := os.Getenv("ORACLE_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Oracle.Timeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("FILTER_SIZE_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Filter.SizeThresholdBytes = n
		}
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.DatabaseURL = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.Storage.CacheDir = v
	}
}
