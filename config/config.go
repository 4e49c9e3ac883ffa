// Package config loads the replay engine's YAML configuration (spec
// §6), using gopkg.in/yaml.v3 — the same dependency the teacher uses
// nowhere directly, but the pack's overall idiom for structured config
// (see DESIGN.md: this is the one ambient concern the teacher itself
// doesn't need, since its config is environment variables, so the
// library choice is grounded on the wider pack rather than the teacher
// file-for-file).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"quantreplay/errs"
)

// Mocker selects which engine flavour owns the run.
type Mocker string

const (
	MockerCTA  Mocker = "cta"
	MockerSEL  Mocker = "sel"
	MockerHFT  Mocker = "hft"
	MockerExec Mocker = "exec"
	MockerUFT  Mocker = "uft"
)

// Env is the top-level `env` config section.
type Env struct {
	Mocker                  Mocker `yaml:"mocker"`
	Slippage                int    `yaml:"slippage"`
	IncrementalBacktestBase string `yaml:"incremental_backtest_base"`
}

// BaseFiles names the metadata source files consumed at startup.
type BaseFiles struct {
	Session   string `yaml:"session"`
	Commodity string `yaml:"commodity"`
	Contract  string `yaml:"contract"`
	Holiday   string `yaml:"holiday"`
}

// Replayer is the top-level `replayer` config section.
type Replayer struct {
	Mode           string    `yaml:"mode"`
	BeginTime      uint64    `yaml:"begin_time"`
	EndTime        uint64    `yaml:"end_time"`
	AlignBySection bool      `yaml:"align_by_section"`
	TickEnabled    bool      `yaml:"tick_enabled"`
	NosimIfNoTrade bool      `yaml:"nosim_if_notrade"`
	AdjustFlag     uint32    `yaml:"adjust_flag"`
	CacheClearDays uint32    `yaml:"cache_clear_days"`
	BaseFiles      BaseFiles `yaml:"basefiles"`
	Fees           string    `yaml:"fees"`
}

// StrategySpec names the strategy module/id/params for one engine flavour.
type StrategySpec struct {
	Name   string                 `yaml:"name"`
	ID     string                 `yaml:"id"`
	Params map[string]interface{} `yaml:"params"`
}

// Task describes a SEL-only scheduled fire.
type Task struct {
	Date   string `yaml:"date"`
	Time   string `yaml:"time"`
	Period string `yaml:"period"`
}

// StrategyModule is the `cta`/`hft`/`sel` config section.
type StrategyModule struct {
	Module   string       `yaml:"module"`
	Strategy StrategySpec `yaml:"strategy"`
	Task     *Task        `yaml:"task,omitempty"`
}

// Config is the parsed top-level configuration (spec §6).
type Config struct {
	Env      Env             `yaml:"env"`
	Replayer Replayer        `yaml:"replayer"`
	CTA      *StrategyModule `yaml:"cta,omitempty"`
	HFT      *StrategyModule `yaml:"hft,omitempty"`
	SEL      *StrategyModule `yaml:"sel,omitempty"`
}

// Load reads and validates a YAML config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.ConfigError{Field: path, Err: err}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &errs.ConfigError{Field: path, Err: err}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Env.Mocker {
	case MockerCTA, MockerSEL, MockerHFT, MockerExec, MockerUFT:
	default:
		return &errs.ConfigError{Field: "env.mocker", Err: &invalidValueError{c.Env.Mocker}}
	}
	if c.Replayer.EndTime != 0 && c.Replayer.EndTime < c.Replayer.BeginTime {
		return &errs.ConfigError{Field: "replayer.end_time", Err: &invalidValueError{"end_time before begin_time"}}
	}
	switch c.Env.Mocker {
	case MockerCTA:
		if c.CTA == nil {
			return &errs.ConfigError{Field: "cta", Err: &invalidValueError{"missing cta section for mocker=cta"}}
		}
	case MockerHFT:
		if c.HFT == nil {
			return &errs.ConfigError{Field: "hft", Err: &invalidValueError{"missing hft section for mocker=hft"}}
		}
	case MockerSEL:
		if c.SEL == nil {
			return &errs.ConfigError{Field: "sel", Err: &invalidValueError{"missing sel section for mocker=sel"}}
		}
		if c.SEL.Task == nil {
			return &errs.ConfigError{Field: "sel.task", Err: &invalidValueError{"sel requires a task schedule"}}
		}
	}
	return nil
}

type invalidValueError struct{ v interface{} }

func (e *invalidValueError) Error() string {
	return fmt.Sprintf("invalid value: %v", e.v)
}
