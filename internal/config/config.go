// Package config reads runtime settings from a .env file and the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Garsondee/fincraft/internal/sim"
)

// Config is the resolved runtime configuration.
type Config struct {
	Width          int
	Height         int
	Seed           int64
	TimeView       sim.TimeView
	Speed          float64
	AssetsDir      string
	StorePath      string
	DatabaseURL    string
	ControlAddr    string
	AllowedOrigins []string
	Audio          bool
	StoreTimeout   time.Duration
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Width:          1280,
		Height:         720,
		Seed:           time.Now().UnixNano(),
		TimeView:       sim.View1M,
		Speed:          1,
		AssetsDir:      "assets",
		StorePath:      "fincraft.json",
		ControlAddr:    "127.0.0.1:8090",
		AllowedOrigins: []string{"http://localhost:3000"},
		Audio:          true,
		StoreTimeout:   250 * time.Millisecond,
	}
}

// Load reads files (".env" when none are given) into the environment and
// then resolves Config from it. A missing .env is not an error.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil {
		slog.Info("no .env file loaded, using environment variables", "error", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv resolves Config from getenv, starting from Default.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()
	var err error

	if cfg.Width, err = intVar(getenv, "FINCRAFT_WIDTH", cfg.Width); err != nil {
		return cfg, err
	}
	if cfg.Height, err = intVar(getenv, "FINCRAFT_HEIGHT", cfg.Height); err != nil {
		return cfg, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return cfg, fmt.Errorf("window size must be positive, got %dx%d", cfg.Width, cfg.Height)
	}
	if v := getenv("FINCRAFT_SEED"); v != "" {
		if cfg.Seed, err = strconv.ParseInt(v, 10, 64); err != nil {
			return cfg, fmt.Errorf("FINCRAFT_SEED: %w", err)
		}
	}
	if v := getenv("FINCRAFT_TIME_VIEW"); v != "" {
		cfg.TimeView = sim.TimeView(strings.ToUpper(v))
		if !cfg.TimeView.Valid() {
			return cfg, fmt.Errorf("FINCRAFT_TIME_VIEW: unknown view %q", v)
		}
	}
	if v := getenv("FINCRAFT_SPEED"); v != "" {
		if cfg.Speed, err = strconv.ParseFloat(v, 64); err != nil {
			return cfg, fmt.Errorf("FINCRAFT_SPEED: %w", err)
		}
		if !sim.ValidSpeed(cfg.Speed) {
			return cfg, fmt.Errorf("FINCRAFT_SPEED: %v is not an offered speed", cfg.Speed)
		}
	}
	if v := getenv("FINCRAFT_ASSETS_DIR"); v != "" {
		cfg.AssetsDir = v
	}
	if v, ok := lookup(getenv, "FINCRAFT_STORE_PATH"); ok {
		cfg.StorePath = v
	}
	cfg.DatabaseURL = getenv("DATABASE_URL")
	if v, ok := lookup(getenv, "FINCRAFT_CONTROL_ADDR"); ok {
		cfg.ControlAddr = v
	}
	if v := getenv("FINCRAFT_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := getenv("FINCRAFT_AUDIO"); v != "" {
		if cfg.Audio, err = strconv.ParseBool(v); err != nil {
			return cfg, fmt.Errorf("FINCRAFT_AUDIO: %w", err)
		}
	}
	if v := getenv("FINCRAFT_STORE_TIMEOUT"); v != "" {
		if cfg.StoreTimeout, err = time.ParseDuration(v); err != nil {
			return cfg, fmt.Errorf("FINCRAFT_STORE_TIMEOUT: %w", err)
		}
	}
	return cfg, nil
}

// lookup treats "off" and "-" as an explicit empty value, so a variable can
// disable a feature that has a non-empty default.
func lookup(getenv func(string) string, key string) (string, bool) {
	v := strings.TrimSpace(getenv(key))
	switch v {
	case "":
		return "", false
	case "off", "-":
		return "", true
	}
	return v, true
}

func intVar(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
