// Package config loads engine configuration from a .env file and the
// process environment. Every field has a working default, so a bare
// environment yields a usable configuration.
package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"understudy/rules"
)

// Config holds all tunables. The scoring bonuses and fallback placeholders
// are configuration rather than literals: they were never tuned against
// real gameplay, so deployments can adjust them without a rebuild.
type Config struct {
	SocketPath  string
	PatternPath string
	JournalPath string // empty disables the session journal

	ModelsEnabled  bool
	TrainingEpochs int
	LearningRate   float64

	CombatBonus float64
	GatherBonus float64
	Fallback    rules.Defaults
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		SocketPath:     "/tmp/understudy.sock",
		PatternPath:    "models/learned_patterns.json",
		JournalPath:    "models/sessions.db",
		ModelsEnabled:  true,
		TrainingEpochs: 100,
		LearningRate:   0.01,
		CombatBonus:    1.5,
		GatherBonus:    1.3,
		Fallback:       rules.StandardDefaults(),
	}
}

// Load reads the .env file if present, applies environment overrides on top
// of the defaults, and clamps the numeric weights to sane ranges.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		// No .env file is the normal case; environment variables still apply.
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg := Default()
	cfg.SocketPath = getEnv("UNDERSTUDY_SOCKET", cfg.SocketPath)
	cfg.PatternPath = getEnv("UNDERSTUDY_PATTERNS", cfg.PatternPath)
	cfg.JournalPath = getEnv("UNDERSTUDY_JOURNAL", cfg.JournalPath)

	cfg.ModelsEnabled = getBool("UNDERSTUDY_MODELS", cfg.ModelsEnabled)
	cfg.TrainingEpochs = getInt("UNDERSTUDY_EPOCHS", cfg.TrainingEpochs)
	cfg.LearningRate = getFloat("UNDERSTUDY_LEARNING_RATE", cfg.LearningRate)

	cfg.CombatBonus = getFloat("UNDERSTUDY_COMBAT_BONUS", cfg.CombatBonus)
	cfg.GatherBonus = getFloat("UNDERSTUDY_GATHER_BONUS", cfg.GatherBonus)

	cfg.Fallback.CombatProbability = getFloat("UNDERSTUDY_FALLBACK_COMBAT_PROB", cfg.Fallback.CombatProbability)
	cfg.Fallback.CombatTiming = getFloat("UNDERSTUDY_FALLBACK_COMBAT_TIMING", cfg.Fallback.CombatTiming)
	cfg.Fallback.GatherProbability = getFloat("UNDERSTUDY_FALLBACK_GATHER_PROB", cfg.Fallback.GatherProbability)
	cfg.Fallback.GatherTiming = getFloat("UNDERSTUDY_FALLBACK_GATHER_TIMING", cfg.Fallback.GatherTiming)
	cfg.Fallback.MoveProbability = getFloat("UNDERSTUDY_FALLBACK_MOVE_PROB", cfg.Fallback.MoveProbability)
	cfg.Fallback.MoveTiming = getFloat("UNDERSTUDY_FALLBACK_MOVE_TIMING", cfg.Fallback.MoveTiming)

	cfg.validate()
	return cfg
}

func (c *Config) validate() {
	if c.TrainingEpochs < 1 {
		c.TrainingEpochs = 1
	}
	if c.LearningRate <= 0 {
		c.LearningRate = 0.01
	}
	// A bonus below 1 would penalize the very category the state calls for.
	if c.CombatBonus < 1 {
		c.CombatBonus = 1
	}
	if c.GatherBonus < 1 {
		c.GatherBonus = 1
	}
	c.Fallback.Validate()
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("bad boolean in environment, using default", "key", key, "value", v)
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("bad integer in environment, using default", "key", key, "value", v)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("bad float in environment, using default", "key", key, "value", v)
		return fallback
	}
	return f
}
