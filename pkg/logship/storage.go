package logship

import (
	"fmt"

	httpAdapter "github.com/bft-labs/logship/internal/adapters/http"
	kafkaAdapter "github.com/bft-labs/logship/internal/adapters/kafka"
	sqlAdapter "github.com/bft-labs/logship/internal/adapters/sql"
	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/ports"
)

// Storage persists one batch of encoded payloads per call.
// Implementations must be safe for use by one flush at a time; the appender
// never calls Store concurrently.
type Storage = ports.Storage

// Batch is the ordered list of payloads handed to Storage.Store.
type Batch = domain.Batch

// NewStorage builds the backend selected by cfg.Type.
// WithLogger and WithHTTPClient are honored; other options are ignored.
func NewStorage(cfg BackendConfig, opts ...Option) (Storage, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newStorage(cfg, o)
}

func newStorage(cfg BackendConfig, o options) (Storage, error) {
	switch cfg.Type {
	case BackendImmudb:
		c := cfg.Immudb
		c.SetDefaults()
		s, err := sqlAdapter.NewTableStore(c.Table, sqlAdapter.ImmudbConnector(c), o.logger)
		if err != nil {
			return nil, err
		}
		return s, nil

	case BackendVault:
		s, err := httpAdapter.NewDocumentStore(cfg.Vault, o.httpClient, o.logger)
		if err != nil {
			return nil, err
		}
		return s, nil

	case BackendKafka:
		s, err := kafkaAdapter.NewTopicStore(cfg.Kafka, o.logger)
		if err != nil {
			return nil, err
		}
		return s, nil

	case "":
		return nil, fmt.Errorf("%w: no storage backend selected", domain.ErrInvalidConfig)

	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidConfig, cfg.Type)
	}
}
