package logship

import (
	"time"

	"github.com/bft-labs/logship/internal/ports"
	"github.com/bft-labs/logship/pkg/log"
)

// HTTPClient is the interface for making HTTP requests.
// *http.Client satisfies this interface.
type HTTPClient = ports.HTTPClient

// Logger is the interface for structured logging.
type Logger = log.Logger

// LogField represents a structured log field.
type LogField = log.Field

// Option configures optional behavior of an Appender.
type Option func(*options)

type options struct {
	httpClient   ports.HTTPClient
	logger       ports.Logger
	eventHandler EventHandler
	encoder      Encoder
	storage      Storage
	now          func() time.Time
}

func defaultOptions() options {
	return options{
		logger:  log.NewNoopLogger(),
		encoder: JSONEncoder{},
		now:     time.Now,
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEventHandler sets a handler for flush, drop and state events.
// Flush events are called from the flush goroutine and must return quickly.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithEncoder sets the encoder used by AppendEvent. Defaults to JSONEncoder.
func WithEncoder(encoder Encoder) Option {
	return func(o *options) {
		if encoder != nil {
			o.encoder = encoder
		}
	}
}

// WithStorage injects a backend. Config.Backend is then ignored.
func WithStorage(storage Storage) Option {
	return func(o *options) {
		o.storage = storage
	}
}

// WithHTTPClient sets the HTTP client used by the Vault backend.
// If not provided, an *http.Client with the configured timeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithClock replaces the clock used to evaluate the sync interval.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
