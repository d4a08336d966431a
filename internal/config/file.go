package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"nllbd/internal/common/fsutil"
)

// ReadFile decodes the file at path onto cfg based on its extension. Keys
// absent from the file leave cfg untouched.
// Supports: .yaml/.yml, .json, .toml
func ReadFile(path string, cfg *Config) error {
	if path == "" {
		return fmt.Errorf("empty config path")
	}
	b, _, err := fsutil.ReadFile(path)
	if err != nil {
		return err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	case ".json":
		return json.Unmarshal(b, cfg)
	case ".toml":
		return toml.Unmarshal(b, cfg)
	default:
		return fmt.Errorf("unsupported config extension: %s", ext)
	}
}

// LoadFile returns Defaults overlaid with the file at path.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	if err := ReadFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
