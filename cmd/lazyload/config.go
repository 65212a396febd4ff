package main

import (
	"errors"

	"github.com/vango-dev/lazyload/internal/config"
	lzerrors "github.com/vango-dev/lazyload/internal/errors"
)

// loadConfig reads path when given. Otherwise it looks in the working
// directory and falls back to defaults when there is no config file.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	cfg, err := config.Load(".")
	if errors.Is(err, lzerrors.New("E020")) {
		return config.New(), nil
	}
	return cfg, err
}
