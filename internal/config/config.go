package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/tatianab/ghg-game/internal/logger"
)

// Config holds the game client configuration.
type Config struct {
	SimulatorURL   string        `env:"GHG_SIMULATOR_URL" envDefault:"http://localhost:58000/ghg"`
	FinalYear      int           `env:"GHG_FINAL_YEAR" envDefault:"2020"`
	YearIncrement  int           `env:"GHG_YEAR_INCREMENT" envDefault:"5"`
	RoundTimeout   time.Duration `env:"GHG_ROUND_TIMEOUT" envDefault:"15s"`
	SaveDir        string        `env:"GHG_SAVE_DIR" envDefault:".saves"`
	ResultsDB      string        `env:"GHG_RESULTS_DB" envDefault:"results.db"`
	CertificateDir string        `env:"GHG_CERTIFICATE_DIR" envDefault:"certificates"`
	LogLevel       string        `env:"GHG_LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"GHG_LOG_FORMAT" envDefault:"text"`
	LogFile        string        `env:"GHG_LOG_FILE" envDefault:"game.log"`

	// Used by the headless harness to let Gemini choose knob values.
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
}

// ServerConfig holds the reference simulator configuration.
type ServerConfig struct {
	Port         int     `env:"GHG_PORT" envDefault:"58000"`
	StartYear    int     `env:"GHG_START_YEAR" envDefault:"2000"`
	InitialGHG   float64 `env:"GHG_INITIAL_GHG" envDefault:"1000"`
	FinalYear    int     `env:"GHG_FINAL_YEAR" envDefault:"2020"`
	MaxSessions  int     `env:"GHG_MAX_SESSIONS" envDefault:"1024"`
	GeminiAPIKey string  `env:"GEMINI_API_KEY"`
	GeminiModel  string  `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	LogLevel     string  `env:"GHG_LOG_LEVEL" envDefault:"info"`
	LogFormat    string  `env:"GHG_LOG_FORMAT" envDefault:"json"`
}

// LoadConfig loads the client configuration from the environment and an optional .env file.
func LoadConfig() (*Config, error) {
	// Missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SimulatorURL == "" {
		return fmt.Errorf("GHG_SIMULATOR_URL must not be empty")
	}
	if c.FinalYear <= 0 {
		return fmt.Errorf("GHG_FINAL_YEAR must be positive, got %d", c.FinalYear)
	}
	if c.YearIncrement <= 0 {
		return fmt.Errorf("GHG_YEAR_INCREMENT must be positive, got %d", c.YearIncrement)
	}
	if c.RoundTimeout <= 0 {
		return fmt.Errorf("GHG_ROUND_TIMEOUT must be positive, got %s", c.RoundTimeout)
	}
	return nil
}

// Logger returns the logger settings for the client.
func (c *Config) Logger() logger.Config {
	return logger.Config{Level: c.LogLevel, Format: c.LogFormat, ServiceName: "ghg-game", Version: Version}
}

// LoadServerConfig loads the simulator configuration.
func LoadServerConfig() (*ServerConfig, error) {
	_ = godotenv.Load()

	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("GHG_PORT must be positive, got %d", cfg.Port)
	}
	if cfg.FinalYear <= cfg.StartYear {
		return nil, fmt.Errorf("GHG_FINAL_YEAR (%d) must be after GHG_START_YEAR (%d)", cfg.FinalYear, cfg.StartYear)
	}
	if cfg.MaxSessions <= 0 {
		return nil, fmt.Errorf("GHG_MAX_SESSIONS must be positive, got %d", cfg.MaxSessions)
	}
	return &cfg, nil
}

// Logger returns the logger settings for the simulator.
func (c *ServerConfig) Logger() logger.Config {
	return logger.Config{Level: c.LogLevel, Format: c.LogFormat, ServiceName: "ghg-simserver", Version: Version}
}

// Version is overridden at build time with -ldflags.
var Version = "dev"
