package config

import (
	"fmt"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"

	"github.com/go-playground/validator/v10"
)

const (
	defaultSourceRoot  = "../src/main/java"
	defaultDestination = "../build/bot.zip"
	defaultLogLevel    = "info"
)

type (
	Config struct {
		SourceRoot  string  `json:"sourceRoot" validate:"required"`
		Destination string  `json:"destination" validate:"required"`
		Log         Log     `json:"log"`
		Publish     Publish `json:"publish"`
	}

	Log struct {
		Level  string `json:"level" validate:"omitempty,oneof=trace debug info warn error"`
		Pretty bool   `json:"pretty"`
	}

	// Publish names a storage service the archive is uploaded to after it is
	// written. An empty Connection disables publishing.
	Publish struct {
		Connection string `json:"connection" validate:"required_with=Path"`
		Path       string `json:"path"`
	}
)

// DefaultAnchor returns the directory holding the running executable. Default
// paths are relative to it.
func DefaultAnchor() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolving executable path: %w", err)
	}

	return filepath.Dir(exe), nil
}

// Defaults returns the configuration used when nothing overrides it, with
// paths resolved against anchor.
func Defaults(anchor string) *Config {
	cfg := &Config{
		SourceRoot:  defaultSourceRoot,
		Destination: defaultDestination,
		Log: Log{
			Level: defaultLogLevel,
		},
	}
	cfg.Resolve(anchor)

	return cfg
}

// Load overlays the YAML file at path onto config. Fields absent from the
// file keep their current values.
func Load(path string, config interface{}) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("config file %s does not exist", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return nil
}

// Resolve makes relative paths absolute against anchor.
func (c *Config) Resolve(anchor string) {
	c.SourceRoot = resolve(anchor, c.SourceRoot)
	c.Destination = resolve(anchor, c.Destination)
}

func Validate(config interface{}) error {
	validate := validator.New()
	return validate.Struct(config)
}

func resolve(anchor string, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(anchor, path)
}
