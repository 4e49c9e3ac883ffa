package main

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// logConfig is the minimal shape of logcfgbt.yaml: logging sinks are an
// out-of-scope collaborator per spec §1, so the runner only reads a
// destination file from it. Level is parsed but not used, and the prefix
// is fixed at "[btrunner] ".
type logConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// loadLogger builds the root *log.Logger the runner hands to every
// engine component. A missing or malformed log config file falls back
// to stderr rather than aborting — logging sink selection is never a
// reason to fail a backtest run.
func loadLogger(path string) *log.Logger {
	var cfg logConfig
	if data, err := os.ReadFile(path); err == nil {
		_ = yaml.Unmarshal(data, &cfg)
	}

	out := os.Stderr
	if cfg.File != "" {
		if f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
			out = f
		}
	}
	return log.New(out, "[btrunner] ", log.LstdFlags)
}
