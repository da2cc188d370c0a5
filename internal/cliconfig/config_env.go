package cliconfig

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=value pairs from path into the process environment.
// Variables already set are kept. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" || !FileExists(path) {
		return nil
	}
	return godotenv.Load(path)
}

// ApplyEnvConfig applies configuration from environment variables (LOGSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("name", os.Getenv("LOGSHIP_NAME"), &cfg.Name)
	s.setString("backend", os.Getenv("LOGSHIP_BACKEND"), &cfg.Backend)
	s.setString("file", os.Getenv("LOGSHIP_FILE"), &cfg.File)
	s.setString("source", os.Getenv("LOGSHIP_SOURCE"), &cfg.Source)
	s.setString("level", os.Getenv("LOGSHIP_LEVEL"), &cfg.Level)
	s.setString("metrics-addr", os.Getenv("LOGSHIP_METRICS_ADDR"), &cfg.MetricsAddr)
	s.setString("log-level", os.Getenv("LOGSHIP_LOG_LEVEL"), &cfg.LogLevel)
	s.setBoolFromString("from-start", os.Getenv("LOGSHIP_FROM_START"), &cfg.FromStart)

	if err := s.setIntFromString("max-pending-count", os.Getenv("LOGSHIP_MAX_PENDING_COUNT"), &cfg.MaxPendingCount); err != nil {
		return err
	}
	if err := s.setIntFromString("max-pending-bytes", os.Getenv("LOGSHIP_MAX_PENDING_BYTES"), &cfg.MaxPendingBytes); err != nil {
		return err
	}
	if err := s.setDuration("sync-interval", os.Getenv("LOGSHIP_SYNC_INTERVAL"), &cfg.SyncInterval); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", os.Getenv("LOGSHIP_SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout); err != nil {
		return err
	}

	s.setString("immudb-host", os.Getenv("LOGSHIP_IMMUDB_HOST"), &cfg.ImmudbHost)
	if err := s.setIntFromString("immudb-port", os.Getenv("LOGSHIP_IMMUDB_PORT"), &cfg.ImmudbPort); err != nil {
		return err
	}
	s.setString("immudb-user", os.Getenv("LOGSHIP_IMMUDB_USER"), &cfg.ImmudbUser)
	s.setString("immudb-password", os.Getenv("LOGSHIP_IMMUDB_PASSWORD"), &cfg.ImmudbPassword)
	s.setString("immudb-database", os.Getenv("LOGSHIP_IMMUDB_DATABASE"), &cfg.ImmudbDatabase)
	s.setString("immudb-table", os.Getenv("LOGSHIP_IMMUDB_TABLE"), &cfg.ImmudbTable)

	s.setString("vault-url", os.Getenv("LOGSHIP_VAULT_URL"), &cfg.VaultURL)
	s.setString("vault-token", os.Getenv("LOGSHIP_VAULT_TOKEN"), &cfg.VaultToken)
	s.setString("vault-ledger", os.Getenv("LOGSHIP_VAULT_LEDGER"), &cfg.VaultLedger)
	s.setString("vault-collection", os.Getenv("LOGSHIP_VAULT_COLLECTION"), &cfg.VaultCollection)
	if err := s.setDuration("vault-timeout", os.Getenv("LOGSHIP_VAULT_TIMEOUT"), &cfg.VaultTimeout); err != nil {
		return err
	}

	s.setString("kafka-brokers", os.Getenv("LOGSHIP_KAFKA_BROKERS"), &cfg.KafkaBrokers)
	s.setString("kafka-topic", os.Getenv("LOGSHIP_KAFKA_TOPIC"), &cfg.KafkaTopic)

	return nil
}
