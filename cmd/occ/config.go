package main

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

// fileConfig is the shape of an optional TOML config file passed via --config; no file is
// read when that flag is absent. It is a pure convenience layer: nothing in the compiler
// package reads it directly, only this CLI. A value loaded here is used only where the
// matching flag is left at its default.
type fileConfig struct {
	OutDir   string `toml:"out_dir"`
	LogLevel string `toml:"log_level"`
}

func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
