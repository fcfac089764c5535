package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GridPath string // .hcl file or directory

	LogFormat  string
	LogLevel   string
	StatusPort int

	// Workers, when positive, overrides the workflow block's own setting.
	Workers int
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.GridPath == "" {
		return nil, errors.New("GridPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
