package config

import (
	"time"

	commoncfg "sangha/sangha-common/config"
)

// Trigger modes.
const (
	TriggerPolling = "polling"
	TriggerEvents  = "events"
)

// Config sangha-aggregator settings.
type Config struct {
	Redis commoncfg.RedisConfig
	MQTT  commoncfg.MQTTConfig
	Log   commoncfg.LogConfig

	Aggregator AggregatorConfig
}

// AggregatorConfig controls how and when the dashboard is recomputed.
type AggregatorConfig struct {
	// TriggerMode is "polling" (refresh every PollInterval) or "events"
	// (refresh on member events, with PollInterval as a safety net).
	TriggerMode  string        `env:"TRIGGER_MODE"  envDefault:"polling"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"60s"`

	DataBaseURL    string        `env:"DATA_BASE_URL"        envDefault:"http://localhost:8080"`
	RequestTimeout time.Duration `env:"DATA_REQUEST_TIMEOUT" envDefault:"10s"`

	EventStream   string `env:"MEMBER_EVENT_STREAM" envDefault:"sangha:member-events"`
	ConsumerGroup string `env:"CONSUMER_GROUP"      envDefault:"sangha-aggregator-group"`
	ConsumerName  string `env:"CONSUMER_NAME"       envDefault:"sangha-aggregator-1"`
	BatchSize     int64  `env:"EVENT_BATCH_SIZE"    envDefault:"10"`

	DashboardKey string        `env:"STATS_DASHBOARD_KEY" envDefault:"sangha:stats:dashboard"`
	DashboardTTL time.Duration `env:"STATS_DASHBOARD_TTL" envDefault:"10m"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := commoncfg.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
