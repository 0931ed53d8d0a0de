// Package config loads session-level settings that are not the
// (out-of-scope, spec.md §1) public-parameters file: network address,
// statistical security parameter override, filter mode, and worker-pool
// size for the parallel-pipelined mode. It is grounded on the teacher
// ecosystem's pattern of TOML-backed app configuration
// (gopkg.in/dedis/onet.v2/app), using github.com/BurntSushi/toml directly
// since the teacher's own config loader is tied to onet's Roster/group
// format, which the two-party PSU core has no use for.
package config

import (
	"github.com/BurntSushi/toml"

	"github.com/dedis/psu/errs"
)

// FilterMode selects the membership test the PSU protocol uses (spec.md §3).
type FilterMode string

const (
	FilterShuffle FilterMode = "shuffle"
	FilterBloom   FilterMode = "bloom"
	FilterCuckoo  FilterMode = "cuckoo"
)

// Valid reports whether m is one of the three filter modes spec.md
// recognises.
func (m FilterMode) Valid() bool {
	switch m {
	case FilterShuffle, FilterBloom, FilterCuckoo:
		return true
	default:
		return false
	}
}

// Config is the session configuration a driver loads before running the
// protocol.
type Config struct {
	Role     string     `toml:"role"`      // "sender" or "receiver"
	Address  string     `toml:"address"`   // network address to dial or listen on
	Lambda   int        `toml:"lambda"`    // statistical security parameter; default 40
	Filter   FilterMode `toml:"filter"`    // shuffle, bloom, or cuckoo
	Workers  int        `toml:"workers"`   // worker-pool size for parallel-pipelined mode
	LogLevel int        `toml:"log_level"` // onet/log verbosity
}

// Default returns the spec's default configuration (spec.md §3: lambda=40).
func Default() Config {
	return Config{
		Lambda:  40,
		Filter:  FilterShuffle,
		Workers: 1,
	}
}

// Load decodes a TOML config file, filling in defaults for zero fields.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, errs.Wrap(errs.ConfigError, "config.Load", "failed to decode config file", err)
	}
	if !cfg.Filter.Valid() {
		return Config{}, errs.New(errs.ConfigError, "config.Load", "filter_type not in {shuffle, bloom, cuckoo}")
	}
	if cfg.Lambda <= 0 {
		cfg.Lambda = 40
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return cfg, nil
}
