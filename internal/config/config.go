package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/jwalitptl/medtrack-api/internal/repository/postgres"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Stats     StatsConfig     `mapstructure:"stats"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

// StorageConfig selects the snapshot backend. "file" needs no external
// service and is the default for a single-user install.
type StorageConfig struct {
	Backend  string          `mapstructure:"backend"` // file, redis or postgres
	Key      string          `mapstructure:"key"`
	File     FileConfig      `mapstructure:"file"`
	Redis    RedisConfig     `mapstructure:"redis"`
	Database postgres.Config `mapstructure:"database"`
}

type FileConfig struct {
	Dir string `mapstructure:"dir"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type StatsConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeoutSeconds", 30)
	viper.SetDefault("storage.backend", "file")
	viper.SetDefault("storage.key", "medications")
	viper.SetDefault("storage.file.dir", "./data")
	viper.SetDefault("storage.redis.url", "redis://localhost:6379/0")
	viper.SetDefault("storage.database.host", "localhost")
	viper.SetDefault("storage.database.port", 5432)
	viper.SetDefault("storage.database.user", "medtrack")
	viper.SetDefault("storage.database.name", "medtrack")
	viper.SetDefault("storage.database.sslmode", "disable")
	viper.SetDefault("ratelimit.rps", 50)
	viper.SetDefault("ratelimit.burst", 100)
	viper.SetDefault("stats.cache_ttl", 30*time.Second)

	viper.AutomaticEnv()

	// The config file is optional; defaults cover a local install.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
