package config

import (
	"os"
	"strconv"

	"loxkit/internal/log"

	"github.com/docker/go-units"
)

// Settings is the merged view of defaults, user config, workspace config
// and environment overrides. Command-line flags are applied on top by the
// CLI layer, so the final precedence is flags > env > workspace > user >
// defaults.
type Settings struct {
	LogLevel        string
	SymbolBoost     float64
	MaxFileSize     int64
	Include         []string
	Exclude         []string
	IndexingEnabled bool
}

// ResolveSettings merges the user config, an optional workspace config and
// the LOXKIT_* environment variables. Either argument may be nil.
func ResolveSettings(user *Config, ws *WorkspaceConfig) Settings {
	if user == nil {
		user = &Config{AutoIndex: true}
	}

	s := Settings{
		LogLevel:        user.LogLevel,
		SymbolBoost:     DefaultSymbolBoost,
		MaxFileSize:     DefaultMaxFileSize,
		IndexingEnabled: user.AutoIndex,
	}

	logger := log.WithComponent("config")

	if user.SymbolBoost != 0 {
		if user.SymbolBoost >= 1.0 && user.SymbolBoost <= 2.0 {
			s.SymbolBoost = user.SymbolBoost
		} else {
			logger.Warn().
				Str("event", "config.boost_invalid").
				Float64("symbol_boost", user.SymbolBoost).
				Msg("symbol_boost outside valid range [1.0, 2.0], using default")
		}
	}

	if user.MaxFileSize != "" {
		if n, err := units.FromHumanSize(user.MaxFileSize); err == nil {
			s.MaxFileSize = n
		} else {
			logger.Warn().
				Str("event", "config.max_file_size_invalid").
				Str("max_file_size", user.MaxFileSize).
				Err(err).
				Msg("invalid max_file_size in user config, using default")
		}
	}

	// Workspace config overrides the user config where it speaks.
	if ws != nil {
		s.IndexingEnabled = ws.IndexingEnabled
		s.Include = ws.Include
		s.Exclude = ws.Exclude
		if ws.MaxFileSize != "" {
			if n, err := units.FromHumanSize(ws.MaxFileSize); err == nil {
				s.MaxFileSize = n
			} else {
				logger.Warn().
					Str("event", "config.max_file_size_invalid").
					Str("max_file_size", ws.MaxFileSize).
					Err(err).
					Msg("invalid max_file_size in workspace config, keeping previous value")
			}
		}
	}

	// Environment overrides both config files.
	if env := os.Getenv("LOXKIT_LOG_LEVEL"); env != "" {
		s.LogLevel = env
	}
	if boostStr := os.Getenv("LOXKIT_SYMBOL_BOOST"); boostStr != "" {
		if boost, err := strconv.ParseFloat(boostStr, 64); err == nil {
			if boost >= 1.0 && boost <= 2.0 {
				s.SymbolBoost = boost
			} else {
				logger.Warn().
					Str("event", "config.boost_invalid").
					Float64("symbol_boost", boost).
					Msg("LOXKIT_SYMBOL_BOOST outside valid range [1.0, 2.0], using default")
			}
		} else {
			logger.Warn().
				Str("event", "config.boost_invalid").
				Str("symbol_boost", boostStr).
				Err(err).
				Msg("invalid LOXKIT_SYMBOL_BOOST value, using default")
		}
	}

	return s
}
