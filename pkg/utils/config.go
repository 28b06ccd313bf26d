package utils

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Audit    AuditConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Path           string
	MaxConns       int
	AcquireTimeout time.Duration
	BusyTimeout    time.Duration
	Migrate        bool
}

type AuditConfig struct {
	Sinks   []string
	AMQPURL string
	Queue   string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "studio-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("DB_PATH", "data/studio.db")
	viper.SetDefault("DB_MAX_CONNS", 5)
	viper.SetDefault("DB_ACQUIRE_TIMEOUT", "30s")
	viper.SetDefault("DB_BUSY_TIMEOUT", "5s")
	viper.SetDefault("DB_MIGRATE", true)
	viper.SetDefault("AUDIT_SINKS", "log,table")
	viper.SetDefault("AUDIT_QUEUE", "studio.audit")

	// .env is optional, the environment alone is enough
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Path:           viper.GetString("DB_PATH"),
			MaxConns:       viper.GetInt("DB_MAX_CONNS"),
			AcquireTimeout: viper.GetDuration("DB_ACQUIRE_TIMEOUT"),
			BusyTimeout:    viper.GetDuration("DB_BUSY_TIMEOUT"),
			Migrate:        viper.GetBool("DB_MIGRATE"),
		},
		Audit: AuditConfig{
			Sinks:   splitList(viper.GetString("AUDIT_SINKS")),
			AMQPURL: viper.GetString("AMQP_URL"),
			Queue:   viper.GetString("AUDIT_QUEUE"),
		},
	}

	return config, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
