package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		Root string `yaml:"root"`
	} `yaml:"project"`
	Model struct {
		Manifests []string `yaml:"manifests"` // extra manifest files outside the root
		Sources   bool     `yaml:"sources"`   // extract Go packages under the root
		DB        string   `yaml:"db"`        // snapshot database
	} `yaml:"model"`
	Symbols struct {
		Enabled       bool   `yaml:"enabled"`
		ShadowCopyDir string `yaml:"shadow_copy_dir"`
	} `yaml:"symbols"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Project.Root = "."
	cfg.Model.Sources = true
	cfg.Model.DB = "codemodel.db"
	cfg.Symbols.Enabled = true
	cfg.Log.Level = "info"
	return &cfg
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	}

	// 3. Override with Environment Variables if present
	if root := os.Getenv("CODEMODEL_ROOT"); root != "" {
		cfg.Project.Root = root
	}
	if db := os.Getenv("CODEMODEL_DB"); db != "" {
		cfg.Model.DB = db
	}
	if level := os.Getenv("CODEMODEL_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if dev, err := strconv.ParseBool(os.Getenv("CODEMODEL_LOG_DEVELOPMENT")); err == nil {
		cfg.Log.Development = dev
	}

	return cfg, nil
}
