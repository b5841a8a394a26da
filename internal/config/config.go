package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/cam-per/kyra/internal/logging"
	"github.com/cam-per/kyra/kyra/screen"
	"github.com/cam-per/kyra/kyra/shp"
)

const (
	GameKyra1 = "kyra1"
	GameKyra2 = "kyra2"
)

// Config holds the tool configuration
type Config struct {
	Game string `env:"KYRA_GAME" default:"kyra1"`
	// AltShapeHeader selects the CD release layout: shapes carry a 2 byte
	// prefix and WSA files a flags word.
	AltShapeHeader bool   `env:"KYRA_ALT_SHAPE_HEADER" default:"false"`
	LogLevel       string `env:"KYRA_LOG_LEVEL" default:"info"`
	// Scale is the display window zoom.
	Scale int `env:"KYRA_SCALE" default:"3"`
	FPS   int `env:"KYRA_FPS" default:"15"`
}

// LoadOptions holds command-line overrides. Zero values keep the
// environment or default value.
type LoadOptions struct {
	Game           string
	AltShapeHeader bool
	LogLevel       string
	Scale          int
	FPS            int
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	return LoadWithOverrides(LoadOptions{})
}

// LoadWithOverrides loads configuration with command-line overrides
func LoadWithOverrides(opts LoadOptions) (*Config, error) {
	config := &Config{
		Game:           getOverrideOrEnv(opts.Game, "KYRA_GAME", GameKyra1),
		AltShapeHeader: getBoolWithDefault("KYRA_ALT_SHAPE_HEADER", false) || opts.AltShapeHeader,
		LogLevel:       getOverrideOrEnv(opts.LogLevel, "KYRA_LOG_LEVEL", "info"),
		Scale:          getIntWithDefault("KYRA_SCALE", 3),
		FPS:            getIntWithDefault("KYRA_FPS", 15),
	}
	if opts.Scale != 0 {
		config.Scale = opts.Scale
	}
	if opts.FPS != 0 {
		config.FPS = opts.FPS
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Game {
	case GameKyra1, GameKyra2:
	default:
		return fmt.Errorf("unknown game: %s", c.Game)
	}
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	if c.Scale < 1 || c.Scale > 8 {
		return fmt.Errorf("scale must be between 1 and 8: %d", c.Scale)
	}
	if c.FPS < 1 || c.FPS > 120 {
		return fmt.Errorf("fps must be between 1 and 120: %d", c.FPS)
	}
	return nil
}

// ShapeFormat is the shape header layout of the configured game.
func (c *Config) ShapeFormat() shp.Format {
	return shp.Format{
		AltHeader:     c.AltShapeHeader,
		VariableTable: c.Game != GameKyra1,
	}
}

// ScreenConfig returns the engine settings for the configured game.
func (c *Config) ScreenConfig(log *logging.Logger, host screen.Host) screen.Config {
	dims := screen.Kyra1Dims
	if c.Game == GameKyra2 {
		dims = screen.Kyra2Dims
	}
	return screen.Config{
		Dims:        dims,
		ShapeFormat: c.ShapeFormat(),
		Logger:      log,
		Host:        host,
	}
}

// Logger returns the default logger set to the configured level.
func (c *Config) Logger() *logging.Logger {
	log := logging.Default()
	log.SetLevelFromString(c.LogLevel)
	return log
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getOverrideOrEnv returns command-line override value, env value, or default
func getOverrideOrEnv(override, envKey, defaultValue string) string {
	if override != "" {
		return override
	}
	return getEnvWithDefault(envKey, defaultValue)
}
