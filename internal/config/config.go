package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the moto-hail binary, loaded from YAML.
type Config struct {
	HTTP struct {
		Port          int `yaml:"port"`
		MaxConcurrent int `yaml:"max_concurrent"`
	} `yaml:"http"`

	Database struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	RabbitMQ struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
	} `yaml:"rabbitmq"`

	JWT struct {
		SecretKey string        `yaml:"secret_key"`
		AccessTTL time.Duration `yaml:"access_ttl"`
	} `yaml:"jwt"`

	Admin struct {
		Email        string `yaml:"email"`
		PasswordHash string `yaml:"password_hash"` // bcrypt hash of the dashboard password
	} `yaml:"admin"`

	Dispatch Dispatch `yaml:"dispatch"`

	Alerts Alerts `yaml:"alerts"`
}

// Dispatch groups the timing and probability knobs of the simulation core.
type Dispatch struct {
	OfferInterval    time.Duration `yaml:"offer_interval"`
	MaxPendingOffers int           `yaml:"max_pending_offers"`
	NoShowSeconds    int           `yaml:"no_show_seconds"`
	MatchProbability float64       `yaml:"match_probability"` // cheap-mode match chance
}

// Alerts holds the thresholds used by the admin store alert policy.
type Alerts struct {
	RidesToday     int     `yaml:"rides_today"`
	CancelledToday int     `yaml:"cancelled_today"`
	RefundsToday   float64 `yaml:"refunds_today"`
}

// LoadFromFile reads the YAML file, applies defaults, and validates.
func LoadFromFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Default returns a config usable without a file (simulate mode, tests).
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 3000
	}
	if c.HTTP.MaxConcurrent == 0 {
		c.HTTP.MaxConcurrent = 100
	}

	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}

	if c.RabbitMQ.Host == "" {
		c.RabbitMQ.Host = "localhost"
	}
	if c.RabbitMQ.Port == 0 {
		c.RabbitMQ.Port = 5672
	}

	if c.JWT.AccessTTL == 0 {
		c.JWT.AccessTTL = 2 * time.Hour
	}
	if c.JWT.SecretKey == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			key = []byte(fmt.Sprintf("%d", time.Now().UnixNano()))
		}
		c.JWT.SecretKey = base64.StdEncoding.EncodeToString(key)
	}

	if c.Dispatch.OfferInterval == 0 {
		c.Dispatch.OfferInterval = 3500 * time.Millisecond
	}
	if c.Dispatch.MaxPendingOffers == 0 {
		c.Dispatch.MaxPendingOffers = 3
	}
	if c.Dispatch.NoShowSeconds == 0 {
		c.Dispatch.NoShowSeconds = 90
	}
	if c.Dispatch.MatchProbability == 0 {
		c.Dispatch.MatchProbability = 0.6
	}

	if c.Alerts.RidesToday == 0 {
		c.Alerts.RidesToday = 50
	}
	if c.Alerts.CancelledToday == 0 {
		c.Alerts.CancelledToday = 5
	}
	if c.Alerts.RefundsToday == 0 {
		c.Alerts.RefundsToday = 10000
	}
}

func (c *Config) validate() error {
	var problems []string

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		problems = append(problems, "http.port must be in 1..65535")
	}
	if c.HTTP.MaxConcurrent < 1 {
		problems = append(problems, "http.max_concurrent must be >= 1")
	}

	if c.Database.Enabled {
		if c.Database.User == "" {
			problems = append(problems, "database.user is required when database.enabled")
		}
		if c.Database.Name == "" {
			problems = append(problems, "database.name is required when database.enabled")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			problems = append(problems, "database.port must be in 1..65535")
		}
	}

	if c.RabbitMQ.Enabled {
		if c.RabbitMQ.User == "" {
			problems = append(problems, "rabbitmq.user is required when rabbitmq.enabled")
		}
		if c.RabbitMQ.Password == "" {
			problems = append(problems, "rabbitmq.password is required when rabbitmq.enabled")
		}
		if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
			problems = append(problems, "rabbitmq.port must be in 1..65535")
		}
	}

	if c.Dispatch.MatchProbability < 0 || c.Dispatch.MatchProbability > 1 {
		problems = append(problems, "dispatch.match_probability must be in [0,1]")
	}
	if c.Dispatch.NoShowSeconds < 1 {
		problems = append(problems, "dispatch.no_show_seconds must be >= 1")
	}
	if c.Dispatch.MaxPendingOffers < 1 {
		problems = append(problems, "dispatch.max_pending_offers must be >= 1")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
