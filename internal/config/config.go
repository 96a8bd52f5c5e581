package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP struct {
		Port int `yaml:"port"`
	} `yaml:"http"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Redis struct {
		Address               string `yaml:"address"`
		Password              string `yaml:"password"`
		DB                    int    `yaml:"db"`
		SearchCacheTTLSeconds int    `yaml:"search_cache_ttl_seconds"`
	} `yaml:"redis"`

	Telegram struct {
		BotToken  string `yaml:"bot_token"`
		OpsChatID int64  `yaml:"ops_chat_id"`
	} `yaml:"telegram"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Reminders struct {
		Enabled         bool `yaml:"enabled"`
		IntervalMinutes int  `yaml:"interval_minutes"`
		LeadHours       int  `yaml:"lead_hours"`
	} `yaml:"reminders"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		StoragePath   string `yaml:"storage_path"`
		IntervalHours int    `yaml:"interval_hours"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	RateLimit struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/lendit.db"
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 20
	}
	if cfg.Backup.StoragePath == "" {
		cfg.Backup.StoragePath = "data/backups"
	}
	return &cfg, nil
}

func (c *Config) SearchCacheTTL() time.Duration {
	if c.Redis.SearchCacheTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Redis.SearchCacheTTLSeconds) * time.Second
}

func (c *Config) ReminderInterval() time.Duration {
	if c.Reminders.IntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Reminders.IntervalMinutes) * time.Minute
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func (c *Config) ReminderLead() time.Duration {
	if c.Reminders.LeadHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Reminders.LeadHours) * time.Hour
}
