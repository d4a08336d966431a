// Package config assembles worker settings from defaults, an optional config
// file, the environment (and an optional .env file), in increasing precedence.
// Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	cenv "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Default values.
const (
	DefaultAddr           = ":8080"
	DefaultModelID        = "Youseff1987/nllb-200-finetuning-20250305"
	DefaultLangMapPath    = "./bcp47_to_flores.json"
	DefaultRuntimeURL     = "http://127.0.0.1:8000"
	DefaultRuntimeTimeout = 120
	DefaultHFEndpoint     = "https://huggingface.co"
	DefaultMaxBodyBytes   = 1 << 20
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultWarmupFanOut   = 10
)

// ConfigEnv names the environment variable holding the config file path.
const ConfigEnv = "NLLBD_CONFIG"

// Config holds runtime parameters for the worker. Zero numeric values for
// MaxNewTokens and NumBeams defer to the runtime's generation defaults.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr" env:"NLLBD_ADDR"`
	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level" env:"NLLBD_LOG_LEVEL"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format" env:"NLLBD_LOG_FORMAT"`

	ModelID         string `json:"model_id" yaml:"model_id" toml:"model_id" env:"MODEL_ID"`
	HFToken         string `json:"hf_token" yaml:"hf_token" toml:"hf_token" env:"HF_TOKEN"`
	HFEndpoint      string `json:"hf_endpoint" yaml:"hf_endpoint" toml:"hf_endpoint" env:"HF_ENDPOINT"`
	CPUOnly         bool   `json:"cpu_only" yaml:"cpu_only" toml:"cpu_only" env:"CPU_ONLY"`
	LangMapPath     string `json:"lang_map_path" yaml:"lang_map_path" toml:"lang_map_path" env:"LANG_MAP_PATH"`
	StrictLanguages bool   `json:"strict_languages" yaml:"strict_languages" toml:"strict_languages" env:"STRICT_LANGUAGES"`
	MaxNewTokens    int    `json:"max_new_tokens" yaml:"max_new_tokens" toml:"max_new_tokens" env:"MAX_NEW_TOKENS"`
	NumBeams        int    `json:"num_beams" yaml:"num_beams" toml:"num_beams" env:"NUM_BEAMS"`

	RuntimeURL            string `json:"runtime_url" yaml:"runtime_url" toml:"runtime_url" env:"RUNTIME_URL"`
	RuntimeAPIKey         string `json:"runtime_api_key" yaml:"runtime_api_key" toml:"runtime_api_key" env:"RUNTIME_API_KEY"`
	RuntimeTimeoutSeconds int    `json:"runtime_timeout_seconds" yaml:"runtime_timeout_seconds" toml:"runtime_timeout_seconds" env:"RUNTIME_TIMEOUT_SECONDS"`

	MaxBodyBytes int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes" env:"NLLBD_MAX_BODY_BYTES"`
	CORSEnabled  bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled" env:"NLLBD_CORS_ENABLED"`
	CORSOrigins  []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins" env:"NLLBD_CORS_ORIGINS" envSeparator:","`
	// JobTimeoutSeconds bounds one /runsync job; 0 leaves only the runtime timeout.
	JobTimeoutSeconds int `json:"job_timeout_seconds" yaml:"job_timeout_seconds" toml:"job_timeout_seconds" env:"NLLBD_JOB_TIMEOUT_SECONDS"`

	// WarmupMaxConcurrency caps the sibling instances one Lambda warmup event
	// may start; 0 disables fan-out.
	WarmupMaxConcurrency int `json:"warmup_max_concurrency" yaml:"warmup_max_concurrency" toml:"warmup_max_concurrency" env:"NLLBD_WARMUP_MAX_CONCURRENCY"`
}

// Defaults returns a Config populated with default values.
func Defaults() Config {
	return Config{
		Addr:                  DefaultAddr,
		LogLevel:              DefaultLogLevel,
		LogFormat:             DefaultLogFormat,
		ModelID:               DefaultModelID,
		HFEndpoint:            DefaultHFEndpoint,
		LangMapPath:           DefaultLangMapPath,
		RuntimeURL:            DefaultRuntimeURL,
		RuntimeTimeoutSeconds: DefaultRuntimeTimeout,
		MaxBodyBytes:          DefaultMaxBodyBytes,
		WarmupMaxConcurrency:  DefaultWarmupFanOut,
	}
}

// Load builds a Config from defaults, the file at path (or $NLLBD_CONFIG when
// path is empty), and the environment. A .env file in the working directory
// is loaded first when present; it never overrides variables already set.
func Load(path string) (Config, error) {
	// .env is optional when variables come from the platform.
	_ = godotenv.Load()
	return load(path, nil)
}

// LoadEnviron is Load with an explicit environment instead of the process one.
// It does not read .env.
func LoadEnviron(path string, environ map[string]string) (Config, error) {
	if environ == nil {
		environ = map[string]string{}
	}
	return load(path, environ)
}

func load(path string, environ map[string]string) (Config, error) {
	cfg := Defaults()
	opts := envOptions(environ)

	if path == "" {
		if environ != nil {
			path = environ[ConfigEnv]
		} else {
			var probe struct {
				Path string `env:"NLLBD_CONFIG"`
			}
			if err := cenv.ParseWithOptions(&probe, opts); err != nil {
				return Config{}, err
			}
			path = probe.Path
		}
	}
	if path = strings.TrimSpace(path); path != "" {
		if err := ReadFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	if err := cenv.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("environment: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envOptions makes every bool accept only a case-insensitive "true" as
// enabled; anything else, including "1", disables.
func envOptions(environ map[string]string) cenv.Options {
	opts := cenv.Options{
		FuncMap: map[reflect.Type]cenv.ParserFunc{
			reflect.TypeOf(false): func(v string) (interface{}, error) {
				return ParseFlag(v), nil
			},
		},
	}
	if environ != nil {
		opts.Environment = environ
	}
	return opts
}

// ParseFlag reports whether v spells "true", ignoring case and surrounding space.
func ParseFlag(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

func (c *Config) normalize() {
	c.Addr = strings.TrimSpace(c.Addr)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.ModelID = strings.TrimSpace(c.ModelID)
	c.HFToken = strings.TrimSpace(c.HFToken)
	c.HFEndpoint = strings.TrimRight(strings.TrimSpace(c.HFEndpoint), "/")
	c.LangMapPath = strings.TrimSpace(c.LangMapPath)
	c.RuntimeURL = strings.TrimRight(strings.TrimSpace(c.RuntimeURL), "/")
	c.RuntimeAPIKey = strings.TrimSpace(c.RuntimeAPIKey)
	origins := c.CORSOrigins[:0]
	for _, o := range c.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.CORSOrigins = origins
}

// RuntimeTimeout returns the per-request runtime timeout.
func (c Config) RuntimeTimeout() time.Duration {
	return time.Duration(c.RuntimeTimeoutSeconds) * time.Second
}

// JobTimeout returns the per-job HTTP timeout, 0 when disabled.
func (c Config) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutSeconds) * time.Second
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	if c.ModelID == "" {
		return errors.New("MODEL_ID must not be empty")
	}
	if c.LangMapPath == "" {
		return errors.New("LANG_MAP_PATH must not be empty")
	}
	if u, err := url.Parse(c.RuntimeURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("RUNTIME_URL must be an absolute URL, got %q", c.RuntimeURL)
	}
	if c.HFEndpoint != "" {
		if u, err := url.Parse(c.HFEndpoint); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("HF_ENDPOINT must be an absolute URL, got %q", c.HFEndpoint)
		}
	}
	if c.RuntimeTimeoutSeconds <= 0 {
		return errors.New("RUNTIME_TIMEOUT_SECONDS must be > 0")
	}
	if c.MaxNewTokens < 0 {
		return errors.New("MAX_NEW_TOKENS must be >= 0")
	}
	if c.NumBeams < 0 {
		return errors.New("NUM_BEAMS must be >= 0")
	}
	if c.JobTimeoutSeconds < 0 {
		return errors.New("NLLBD_JOB_TIMEOUT_SECONDS must be >= 0")
	}
	if c.WarmupMaxConcurrency < 0 {
		return errors.New("NLLBD_WARMUP_MAX_CONCURRENCY must be >= 0")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("NLLBD_MAX_BODY_BYTES must be > 0")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("NLLBD_LOG_LEVEL: %w", err)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("NLLBD_LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	return nil
}
