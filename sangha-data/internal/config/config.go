package config

import (
	commoncfg "sangha/sangha-common/config"
)

// Config sangha-data (HTTP API) settings.
type Config struct {
	HTTP struct {
		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
	}

	// DBEnabled selects the Postgres store; otherwise members live in memory.
	DBEnabled bool `env:"DB_ENABLED" envDefault:"false"`
	Database  commoncfg.DatabaseConfig

	// RedisEnabled turns on member events and the cached dashboard.
	RedisEnabled bool `env:"REDIS_ENABLED" envDefault:"false"`
	Redis        commoncfg.RedisConfig

	Log   commoncfg.LogConfig
	Stats StatsConfig
}

// StatsConfig statistics, cache and event settings.
type StatsConfig struct {
	MemoSize       int    `env:"STATS_MEMO_SIZE"      envDefault:"64"`
	DashboardKey   string `env:"STATS_DASHBOARD_KEY"  envDefault:"sangha:stats:dashboard"`
	EventStream    string `env:"MEMBER_EVENT_STREAM"  envDefault:"sangha:member-events"`
	MaxUploadBytes int64  `env:"IMPORT_MAX_BYTES"     envDefault:"10485760"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := commoncfg.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
