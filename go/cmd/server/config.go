package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mcdev12/trivia/go/internal/trivia"
	"github.com/mcdev12/trivia/go/internal/trivia/orchestrator"
	"gopkg.in/yaml.v3"
)

// GameConfig is the optional YAML file with game tuning
type GameConfig struct {
	Game struct {
		SettlePause            time.Duration `yaml:"settle_pause"`
		DefaultQuestionSeconds int           `yaml:"default_question_seconds"`
		MinQuestionSeconds     int           `yaml:"min_question_seconds"`
		MaxQuestionSeconds     int           `yaml:"max_question_seconds"`
		MinPlayers             int           `yaml:"min_players"`
		MaxAttempts            int           `yaml:"max_attempts"`
		PointsPerCorrect       int           `yaml:"points_per_correct"`
	} `yaml:"game"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// DatabaseConfig holds the postgres connection settings shared by the user
// and snapshot stores
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func databaseConfigFromEnv() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvAsInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		Database: getEnv("DB_NAME", "trivia"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

// dsn renders the key=value form understood by both pgx and lib/pq
func (c DatabaseConfig) dsn() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// defaultGameConfig mirrors orchestrator.DefaultConfig
func defaultGameConfig() *GameConfig {
	defaults := orchestrator.DefaultConfig()

	var cfg GameConfig
	cfg.Game.SettlePause = defaults.SettlePause
	cfg.Game.DefaultQuestionSeconds = defaults.Durations.DefaultSeconds
	cfg.Game.MinQuestionSeconds = defaults.Durations.MinSeconds
	cfg.Game.MaxQuestionSeconds = defaults.Durations.MaxSeconds
	cfg.Game.MinPlayers = defaults.MinPlayers
	cfg.Game.MaxAttempts = defaults.MaxAttempts
	cfg.Game.PointsPerCorrect = defaults.PointsPerCorrect
	return &cfg
}

// loadGameConfig reads the YAML at path over the defaults. An empty path
// returns the defaults.
func loadGameConfig(path string) (*GameConfig, error) {
	config := defaultGameConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func (c *GameConfig) validate() error {
	g := c.Game
	switch {
	case g.SettlePause < 0:
		return fmt.Errorf("settle_pause must not be negative")
	case g.MinQuestionSeconds <= 0:
		return fmt.Errorf("min_question_seconds must be positive")
	case g.MaxQuestionSeconds < g.MinQuestionSeconds:
		return fmt.Errorf("max_question_seconds must be >= min_question_seconds")
	case g.DefaultQuestionSeconds < g.MinQuestionSeconds || g.DefaultQuestionSeconds > g.MaxQuestionSeconds:
		return fmt.Errorf("default_question_seconds must be within [%d, %d]", g.MinQuestionSeconds, g.MaxQuestionSeconds)
	case g.MinPlayers < 1:
		return fmt.Errorf("min_players must be at least 1")
	case g.MaxAttempts < 1:
		return fmt.Errorf("max_attempts must be at least 1")
	case g.PointsPerCorrect < 0:
		return fmt.Errorf("points_per_correct must not be negative")
	}
	return nil
}

// orchestratorConfig converts the file settings into orchestrator rules
func (c *GameConfig) orchestratorConfig() orchestrator.Config {
	cfg := orchestrator.DefaultConfig()
	cfg.SettlePause = c.Game.SettlePause
	cfg.Durations = trivia.DurationPolicy{
		DefaultSeconds: c.Game.DefaultQuestionSeconds,
		MinSeconds:     c.Game.MinQuestionSeconds,
		MaxSeconds:     c.Game.MaxQuestionSeconds,
	}
	cfg.MinPlayers = c.Game.MinPlayers
	cfg.MaxAttempts = c.Game.MaxAttempts
	cfg.PointsPerCorrect = c.Game.PointsPerCorrect
	return cfg
}
