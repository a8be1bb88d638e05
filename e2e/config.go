package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_BADGER_DIR points the scenario at an existing store directory;
	// empty means a fresh temporary one.
	BadgerDir string `envconfig:"E2E_BADGER_DIR"`
	// E2E_MAX_CONTENT_LENGTH mirrors the engine's content limit.
	MaxContentLength int `envconfig:"E2E_MAX_CONTENT_LENGTH" default:"4096"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
