package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Name            string `toml:"name"`
	Backend         string `toml:"backend"`
	File            string `toml:"file"`
	FromStart       *bool  `toml:"from_start"`
	Source          string `toml:"source"`
	Level           string `toml:"level"`
	MaxPendingCount int    `toml:"max_pending_count"`
	MaxPendingBytes int    `toml:"max_pending_bytes"`
	SyncInterval    string `toml:"sync_interval"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	MetricsAddr     string `toml:"metrics_addr"`
	LogLevel        string `toml:"log_level"`

	Immudb struct {
		Host     string `toml:"host"`
		Port     int    `toml:"port"`
		User     string `toml:"user"`
		Password string `toml:"password"`
		Database string `toml:"database"`
		Table    string `toml:"table"`
	} `toml:"immudb"`

	Vault struct {
		URL        string `toml:"url"`
		Token      string `toml:"token"`
		Ledger     string `toml:"ledger"`
		Collection string `toml:"collection"`
		Timeout    string `toml:"timeout"`
	} `toml:"vault"`

	Kafka struct {
		Brokers string `toml:"brokers"`
		Topic   string `toml:"topic"`
	} `toml:"kafka"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.logship/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".logship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("name", fc.Name, &cfg.Name)
	s.setString("backend", fc.Backend, &cfg.Backend)
	s.setString("file", fc.File, &cfg.File)
	s.setString("source", fc.Source, &cfg.Source)
	s.setString("level", fc.Level, &cfg.Level)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setBool("from-start", fc.FromStart, &cfg.FromStart)

	s.setInt("max-pending-count", fc.MaxPendingCount, &cfg.MaxPendingCount)
	s.setInt("max-pending-bytes", fc.MaxPendingBytes, &cfg.MaxPendingBytes)
	if err := s.setDuration("sync-interval", fc.SyncInterval, &cfg.SyncInterval); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout); err != nil {
		return err
	}

	s.setString("immudb-host", fc.Immudb.Host, &cfg.ImmudbHost)
	s.setInt("immudb-port", fc.Immudb.Port, &cfg.ImmudbPort)
	s.setString("immudb-user", fc.Immudb.User, &cfg.ImmudbUser)
	s.setString("immudb-password", fc.Immudb.Password, &cfg.ImmudbPassword)
	s.setString("immudb-database", fc.Immudb.Database, &cfg.ImmudbDatabase)
	s.setString("immudb-table", fc.Immudb.Table, &cfg.ImmudbTable)

	s.setString("vault-url", fc.Vault.URL, &cfg.VaultURL)
	s.setString("vault-token", fc.Vault.Token, &cfg.VaultToken)
	s.setString("vault-ledger", fc.Vault.Ledger, &cfg.VaultLedger)
	s.setString("vault-collection", fc.Vault.Collection, &cfg.VaultCollection)
	if err := s.setDuration("vault-timeout", fc.Vault.Timeout, &cfg.VaultTimeout); err != nil {
		return err
	}

	s.setString("kafka-brokers", fc.Kafka.Brokers, &cfg.KafkaBrokers)
	s.setString("kafka-topic", fc.Kafka.Topic, &cfg.KafkaTopic)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
