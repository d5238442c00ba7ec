// Package config loads the tracing engine's runtime options from (in
// precedence order, highest wins) EXTRAE_-prefixed environment
// variables, an extrae.toml file in the working directory, then
// built-in defaults.
//
// The TOML layer uses github.com/BurntSushi/toml, the same way
// Mu-L-gvisor and Talismancer-gvisor-ligolo load their runtime config.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Ergus/Extrae-rs/internal/elog"
)

// validCounters is the fixed set of hardware counter names the engine
// recognizes. Anything else is dropped with a warning.
var validCounters = map[string]bool{
	"cycles":                  true,
	"instructions":            true,
	"cache-references":        true,
	"cache-misses":            true,
	"branch-instructions":     true,
	"branch-misses":           true,
	"bus-cycles":              true,
	"stalled-cycles-frontend": true,
	"stalled-cycles-backend":  true,
	"ref-cpu-cycles":          true,
	"page-faults":             true,
	"context-switches":        true,
	"cpu-migrations":          true,
	"page-faults-min":         true,
	"page-faults-maj":         true,
}

// Config is the resolved set of runtime options.
type Config struct {
	// Counters is the configured list of hardware counter names.
	// Unknown names have already been dropped by the time Load
	// returns. Load only resolves the list; the engine does not open
	// or sample these counters itself (hwcounter.Open takes such a
	// list).
	Counters []string

	// AutoMerge controls whether finalize runs the merger and
	// produces Trace.prv. Default true.
	AutoMerge bool

	// LogLevel names the zap level the engine's logger runs at.
	LogLevel string
}

// fileConfig mirrors the [extrae] table in extrae.toml.
type fileConfig struct {
	Extrae struct {
		Counters  []string `toml:"counters"`
		AutoMerge *bool    `toml:"automerge"`
		LogLevel  string   `toml:"log_level"`
	} `toml:"extrae"`
}

// Default returns the built-in configuration: no counters, automerge
// on, info-level logging.
func Default() Config {
	return Config{
		Counters:  nil,
		AutoMerge: true,
		LogLevel:  "info",
	}
}

// Load resolves the configuration from extrae.toml in the current
// working directory (if present) and EXTRAE_-prefixed environment
// variables, falling back to Default for anything unset.
func Load() Config {
	cfg := Default()

	var fc fileConfig
	if _, err := toml.DecodeFile("extrae.toml", &fc); err == nil {
		if len(fc.Extrae.Counters) > 0 {
			cfg.Counters = fc.Extrae.Counters
		}
		if fc.Extrae.AutoMerge != nil {
			cfg.AutoMerge = *fc.Extrae.AutoMerge
		}
		if fc.Extrae.LogLevel != "" {
			cfg.LogLevel = fc.Extrae.LogLevel
		}
	} else if !os.IsNotExist(err) {
		elog.Warnw("ignoring malformed extrae.toml", "error", err)
	}

	if v, ok := os.LookupEnv("EXTRAE_COUNTERS"); ok {
		cfg.Counters = splitNonEmpty(v)
	}
	if v, ok := os.LookupEnv("EXTRAE_AUTOMERGE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AutoMerge = b
		} else {
			elog.Warnw("ignoring malformed EXTRAE_AUTOMERGE", "value", v)
		}
	}
	if v, ok := os.LookupEnv("EXTRAE_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}

	cfg.Counters = filterValidCounters(cfg.Counters)
	return cfg
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// filterValidCounters drops unknown counter names with a warning
// rather than failing configuration load outright.
func filterValidCounters(names []string) []string {
	out := names[:0:0]
	for _, n := range names {
		if validCounters[n] {
			out = append(out, n)
		} else {
			elog.Warnw("unknown hardware counter name, dropping", "counter", n)
		}
	}
	return out
}
