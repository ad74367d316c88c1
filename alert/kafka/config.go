package kafka

import (
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/cemint/cemint-insights/validation"
)

// DefaultTopic receives alerts when Topic is unset.
const DefaultTopic = "power-efficiency-alerts"

// Config is the alert.kafka block. Durations accept Go duration strings
// ("250ms", "10s") in config.yml and the environment.
type Config struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers" validate:"required_if=Enabled true,dive,hostname_port"`
	Topic   string   `mapstructure:"topic" validate:"required_if=Enabled true"`

	TLS  TLSConfig  `mapstructure:"tls"`
	SASL SASLConfig `mapstructure:"sasl"`

	Compression  string        `mapstructure:"compression" validate:"omitempty,oneof=none gzip snappy lz4 zstd"`
	Retries      int           `mapstructure:"retries" validate:"gte=0"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	// RequiredAcks is -1 (all replicas), 0 or 1.
	RequiredAcks int `mapstructure:"required_acks" validate:"oneof=-1 0 1"`
}

// TLSConfig enables TLS to the brokers. CAFile adds a private CA; CertFile
// and KeyFile enable mutual TLS.
type TLSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	SkipVerify bool   `mapstructure:"skip_verify"`
	CAFile     string `mapstructure:"ca_file" validate:"omitempty,file"`
	CertFile   string `mapstructure:"cert_file" validate:"required_with=KeyFile"`
	KeyFile    string `mapstructure:"key_file" validate:"required_with=CertFile"`
}

// SASLConfig enables SASL authentication.
type SASLConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Mechanism string `mapstructure:"mechanism" validate:"omitempty,oneof=PLAIN SCRAM-SHA-256 SCRAM-SHA-512"`
	Username  string `mapstructure:"username" validate:"required_if=Enabled true"`
	Password  string `mapstructure:"password"`
}

// ApplyDefaults fills unset fields. Alerts are rare, so every message is
// flushed on its own and acknowledged by all replicas.
func (c *Config) ApplyDefaults() {
	if len(c.Brokers) == 0 {
		c.Brokers = []string{"localhost:9092"}
	}
	if c.Topic == "" {
		c.Topic = DefaultTopic
	}
	if c.Compression == "" {
		c.Compression = "snappy"
	}
	if c.Retries == 0 {
		c.Retries = 3
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 1
	}
	if c.BatchTimeout == 0 {
		c.BatchTimeout = 100 * time.Millisecond
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.RequiredAcks == 0 {
		c.RequiredAcks = -1
	}
	if c.SASL.Enabled && c.SASL.Mechanism == "" {
		c.SASL.Mechanism = "PLAIN"
	}
}

// Validate checks an enabled config. A disabled producer needs nothing.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("alert.kafka: %w", err)
	}
	return nil
}

func (c *Config) compression() kafkago.Compression {
	switch c.Compression {
	case "gzip":
		return kafkago.Gzip
	case "lz4":
		return kafkago.Lz4
	case "zstd":
		return kafkago.Zstd
	case "none":
		return 0
	}
	return kafkago.Snappy
}
