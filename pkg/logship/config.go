package logship

import (
	"fmt"
	"time"

	httpAdapter "github.com/bft-labs/logship/internal/adapters/http"
	kafkaAdapter "github.com/bft-labs/logship/internal/adapters/kafka"
	sqlAdapter "github.com/bft-labs/logship/internal/adapters/sql"
	"github.com/bft-labs/logship/internal/app"
	"github.com/bft-labs/logship/internal/domain"
)

// Backend selectors for BackendConfig.Type.
const (
	BackendImmudb = "immudb"
	BackendVault  = "immudb-vault"
	BackendKafka  = "kafka"
)

// Default threshold values.
const (
	DefaultMaxPendingCount = app.DefaultMaxCount
	DefaultMaxPendingBytes = app.DefaultMaxBytes
	DefaultSyncInterval    = app.DefaultMaxInterval
)

// ImmudbConfig configures the immudb table store.
type ImmudbConfig = sqlAdapter.Config

// VaultConfig configures the immudb Vault document store.
type VaultConfig = httpAdapter.Config

// KafkaConfig configures the Kafka topic store.
type KafkaConfig = kafkaAdapter.Config

// BackendConfig selects and configures a storage backend.
// Only the section matching Type is read.
type BackendConfig struct {
	Type   string
	Immudb ImmudbConfig
	Vault  VaultConfig
	Kafka  KafkaConfig
}

// Config holds the appender configuration. It is read once by New.
type Config struct {
	// Name identifies the appender in log lines.
	Name string

	// MaxPendingCount triggers a flush when the pending batch holds this many payloads.
	MaxPendingCount int

	// MaxPendingBytes triggers a flush when the pending payloads total this many bytes.
	MaxPendingBytes int

	// SyncInterval triggers a flush on the first append at least this long after the last flush.
	SyncInterval time.Duration

	Backend BackendConfig
}

// DefaultConfig returns a Config with default thresholds and no backend selected.
func DefaultConfig() Config {
	return Config{
		Name:            "logship",
		MaxPendingCount: DefaultMaxPendingCount,
		MaxPendingBytes: DefaultMaxPendingBytes,
		SyncInterval:    DefaultSyncInterval,
	}
}

// SetDefaults fills unset thresholds.
func (c *Config) SetDefaults() {
	if c.Name == "" {
		c.Name = "logship"
	}
	if c.MaxPendingCount == 0 {
		c.MaxPendingCount = DefaultMaxPendingCount
	}
	if c.MaxPendingBytes == 0 {
		c.MaxPendingBytes = DefaultMaxPendingBytes
	}
	if c.SyncInterval == 0 {
		c.SyncInterval = DefaultSyncInterval
	}
}

// Validate checks the thresholds. The backend section is checked by NewStorage.
func (c Config) Validate() error {
	if c.MaxPendingCount < 1 {
		return fmt.Errorf("%w: max pending count must be positive, got %d", domain.ErrInvalidConfig, c.MaxPendingCount)
	}
	if c.MaxPendingBytes < 1 {
		return fmt.Errorf("%w: max pending bytes must be positive, got %d", domain.ErrInvalidConfig, c.MaxPendingBytes)
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("%w: sync interval must be positive, got %s", domain.ErrInvalidConfig, c.SyncInterval)
	}
	return nil
}

func (c Config) thresholds() app.Thresholds {
	return app.Thresholds{
		MaxCount:    c.MaxPendingCount,
		MaxBytes:    c.MaxPendingBytes,
		MaxInterval: c.SyncInterval,
	}
}
