package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// DatabaseConfig PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `env:"DB_HOST"     envDefault:"localhost"`
	Port     int    `env:"DB_PORT"     envDefault:"5432"`
	User     string `env:"DB_USER"     envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	Database string `env:"DB_NAME"     envDefault:"sangha"`
	SSLMode  string `env:"DB_SSLMODE"  envDefault:"disable"`
	MaxConns int    `env:"DB_MAX_CONNS" envDefault:"10"`
	MaxIdle  int    `env:"DB_MAX_IDLE"  envDefault:"2"`
}

// DSN returns the lib/pq connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis connection settings.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"       envDefault:"0"`
}

// MQTTConfig broker settings for dashboard broadcasts.
type MQTTConfig struct {
	Enabled  bool   `env:"MQTT_ENABLED"   envDefault:"false"`
	Broker   string `env:"MQTT_BROKER"    envDefault:"tcp://localhost:1883"`
	ClientID string `env:"MQTT_CLIENT_ID" envDefault:"sangha-aggregator"`
	Username string `env:"MQTT_USERNAME"`
	Password string `env:"MQTT_PASSWORD"`
	Topic    string `env:"MQTT_TOPIC"     envDefault:"sangha/stats/dashboard"`
	QoS      byte   `env:"MQTT_QOS"       envDefault:"1"`
}

// LogConfig logger settings shared by every service.
// Level: debug, info, warn, error. Format: json or console.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL"  envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Parse fills target (a pointer to a struct with env tags) from the environment.
func Parse(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
