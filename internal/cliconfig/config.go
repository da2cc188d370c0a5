package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/logship/pkg/logship"
)

// DefaultShutdownTimeout bounds the final flush when the CLI exits.
const DefaultShutdownTimeout = 30 * time.Second

const masked = "*****"

// Config holds CLI configuration for logship.
type Config struct {
	Name    string
	Backend string

	// File is followed for new lines; stdin is read when empty.
	File      string
	FromStart bool
	Source    string
	Level     string

	MaxPendingCount int
	MaxPendingBytes int
	SyncInterval    time.Duration
	ShutdownTimeout time.Duration

	ImmudbHost     string
	ImmudbPort     int
	ImmudbUser     string
	ImmudbPassword string
	ImmudbDatabase string
	ImmudbTable    string

	VaultURL        string
	VaultToken      string
	VaultLedger     string
	VaultCollection string
	VaultTimeout    time.Duration

	// KafkaBrokers is a comma separated host:port list.
	KafkaBrokers string
	KafkaTopic   string

	MetricsAddr string
	LogLevel    string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Name:            "logship",
		Level:           "info",
		MaxPendingCount: logship.DefaultMaxPendingCount,
		MaxPendingBytes: logship.DefaultMaxPendingBytes,
		SyncInterval:    logship.DefaultSyncInterval,
		ShutdownTimeout: DefaultShutdownTimeout,
		ImmudbHost:      "localhost",
		ImmudbPort:      3322,
		ImmudbUser:      "immudb",
		ImmudbPassword:  "immudb",
		ImmudbDatabase:  "defaultdb",
		ImmudbTable:     "logship_logs",
		VaultURL:        "https://vault.immudb.io",
		VaultLedger:     "default",
		VaultCollection: "default",
		VaultTimeout:    10 * time.Second,
		LogLevel:        "info",
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	switch c.Backend {
	case logship.BackendImmudb, logship.BackendVault, logship.BackendKafka:
	case "":
		return fmt.Errorf("backend is required (immudb, immudb-vault or kafka)")
	default:
		return fmt.Errorf("unknown backend %q (immudb, immudb-vault or kafka)", c.Backend)
	}

	if c.Source == "" {
		if c.File != "" {
			c.Source = c.File
		} else {
			c.Source = "stdin"
		}
	}

	if c.MaxPendingCount <= 0 {
		return fmt.Errorf("max pending count must be positive")
	}
	if c.MaxPendingBytes <= 0 {
		return fmt.Errorf("max pending bytes must be positive")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync interval must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	return nil
}

// Library converts the CLI configuration into an appender configuration.
func (c Config) Library() logship.Config {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	return logship.Config{
		Name:            c.Name,
		MaxPendingCount: c.MaxPendingCount,
		MaxPendingBytes: c.MaxPendingBytes,
		SyncInterval:    c.SyncInterval,
		Backend: logship.BackendConfig{
			Type: c.Backend,
			Immudb: logship.ImmudbConfig{
				Host:     c.ImmudbHost,
				Port:     c.ImmudbPort,
				Username: c.ImmudbUser,
				Password: c.ImmudbPassword,
				Database: c.ImmudbDatabase,
				Table:    c.ImmudbTable,
			},
			Vault: logship.VaultConfig{
				BaseURL:    c.VaultURL,
				Ledger:     c.VaultLedger,
				Collection: c.VaultCollection,
				WriteToken: c.VaultToken,
				Timeout:    c.VaultTimeout,
			},
			Kafka: logship.KafkaConfig{
				Brokers: brokers,
				Topic:   c.KafkaTopic,
			},
		},
	}
}

// Masked returns a copy safe for logging, with credentials replaced.
func (c Config) Masked() Config {
	if c.ImmudbPassword != "" {
		c.ImmudbPassword = masked
	}
	if c.VaultToken != "" {
		c.VaultToken = masked
	}
	return c
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
