// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port   int
	DBPath string

	// HotelCompany is the operating company every request acts for.
	HotelCompany string
	// ManagerRole authorizes voids with approval-only reason codes.
	ManagerRole string

	NightAuditEnabled bool
	NightAuditHour    int

	// Notifications go to RabbitMQ when AMQPURL is set, to the log otherwise.
	AMQPURL     string
	NotifyQueue string

	// Receivable balances come from Redis when RedisAddr is set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel slog.Level
}

// Load reads .env (when present) and the environment. Environment variables
// win over .env values, which win over the defaults below.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", 8080)
	v.SetDefault("DB_PATH", "folio.db")
	v.SetDefault("HOTEL_COMPANY", "Grand Hotel")
	v.SetDefault("MANAGER_ROLE", "Hospitality Manager")
	v.SetDefault("NIGHT_AUDIT_ENABLED", true)
	v.SetDefault("NIGHT_AUDIT_HOUR", 14)
	v.SetDefault("AMQP_URL", "")
	v.SetDefault("NOTIFY_QUEUE", "folio.notices")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOG_LEVEL", "info")
	v.AutomaticEnv()

	cfg := &Config{
		Port:              v.GetInt("PORT"),
		DBPath:            v.GetString("DB_PATH"),
		HotelCompany:      v.GetString("HOTEL_COMPANY"),
		ManagerRole:       v.GetString("MANAGER_ROLE"),
		NightAuditEnabled: v.GetBool("NIGHT_AUDIT_ENABLED"),
		NightAuditHour:    v.GetInt("NIGHT_AUDIT_HOUR"),
		AMQPURL:           v.GetString("AMQP_URL"),
		NotifyQueue:       v.GetString("NOTIFY_QUEUE"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		RedisDB:           v.GetInt("REDIS_DB"),
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT %d is out of range", cfg.Port)
	}
	if cfg.NightAuditHour < 0 || cfg.NightAuditHour > 23 {
		return nil, fmt.Errorf("NIGHT_AUDIT_HOUR %d must be between 0 and 23", cfg.NightAuditHour)
	}
	if strings.TrimSpace(cfg.HotelCompany) == "" {
		return nil, fmt.Errorf("HOTEL_COMPANY must not be empty")
	}
	level, err := parseLevel(v.GetString("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level
	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}
