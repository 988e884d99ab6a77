package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server" json:"server"`
	Database DatabaseConfig `mapstructure:"database" json:"database"`
	Upstream UpstreamConfig `mapstructure:"upstream" json:"upstream"`
	Auth     AuthConfig     `mapstructure:"auth" json:"auth"`
	Context  ContextConfig  `mapstructure:"context" json:"context"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host" json:"host"`
	Port        int    `mapstructure:"port" json:"port"`
	CORSOrigins string `mapstructure:"cors_origins" json:"cors_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host" json:"host"`
	Port     int    `mapstructure:"port" json:"port"`
	User     string `mapstructure:"user" json:"user"`
	Password string `mapstructure:"password" json:"password"`
	Database string `mapstructure:"database" json:"database"`
	SSLMode  string `mapstructure:"sslmode" json:"sslmode"`
}

// UpstreamConfig points at the Claude Code API gateway that serves the
// OpenAI-compatible completions endpoint and the summarize endpoint.
type UpstreamConfig struct {
	BaseURL          string        `mapstructure:"base_url" json:"base_url"`
	StreamTimeout    time.Duration `mapstructure:"stream_timeout" json:"stream_timeout"`
	SummarizeTimeout time.Duration `mapstructure:"summarize_timeout" json:"summarize_timeout"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" json:"jwt_secret"`
}

// ContextConfig holds the conversation context-management knobs.
type ContextConfig struct {
	Enabled                      bool   `mapstructure:"enabled" json:"enabled"`
	SummarizationThresholdTokens int    `mapstructure:"summarization_threshold_tokens" json:"summarization_threshold_tokens"`
	RecentMessagesToKeep         int    `mapstructure:"recent_messages_to_keep" json:"recent_messages_to_keep"`
	DefaultModel                 string `mapstructure:"default_model" json:"default_model"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	homeDir, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".claude-platform"))
	}

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file is fine; defaults plus env cover everything.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvOverrides(&cfg)

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.cors_origins", "http://localhost:5173,http://localhost:3000")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "claude")
	viper.SetDefault("database.database", "claude_platform")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("upstream.base_url", "http://localhost:8000")
	viper.SetDefault("upstream.stream_timeout", 5*time.Minute)
	viper.SetDefault("upstream.summarize_timeout", 60*time.Second)

	viper.SetDefault("context.enabled", true)
	viper.SetDefault("context.summarization_threshold_tokens", 8000)
	viper.SetDefault("context.recent_messages_to_keep", 6)
	viper.SetDefault("context.default_model", "claude-haiku-4-5-20251001")
}

func loadEnvOverrides(cfg *Config) {
	if port := os.Getenv("CLAUDE_PLATFORM_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if host := os.Getenv("CLAUDE_PLATFORM_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if origins := os.Getenv("CLAUDE_PLATFORM_CORS_ORIGINS"); origins != "" {
		cfg.Server.CORSOrigins = origins
	}

	if dbHost := os.Getenv("POSTGRES_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort := os.Getenv("POSTGRES_PORT"); dbPort != "" {
		if port, err := strconv.Atoi(dbPort); err == nil {
			cfg.Database.Port = port
		}
	}
	if dbUser := os.Getenv("POSTGRES_USER"); dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPass := os.Getenv("POSTGRES_PASSWORD"); dbPass != "" {
		cfg.Database.Password = dbPass
	}
	if dbName := os.Getenv("POSTGRES_DB"); dbName != "" {
		cfg.Database.Database = dbName
	}

	if upstream := os.Getenv("CLAUDE_CODE_API_URL"); upstream != "" {
		cfg.Upstream.BaseURL = upstream
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
}
