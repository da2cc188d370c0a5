package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/ports"
)

const (
	backendName = "immudb-vault"

	DefaultBaseURL    = "https://vault.immudb.io"
	DefaultLedger     = "default"
	DefaultCollection = "default"
	DefaultTimeout    = 10 * time.Second

	// maxErrorBody caps how much of a failed response is kept in the error.
	maxErrorBody = 512
)

// Config contains the document store endpoint and credentials.
type Config struct {
	BaseURL    string
	Ledger     string
	Collection string
	WriteToken string
	Timeout    time.Duration
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Ledger == "" {
		c.Ledger = DefaultLedger
	}
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
}

// DocumentURL returns the endpoint documents are PUT to.
func (c Config) DocumentURL() string {
	return strings.TrimRight(c.BaseURL, "/") +
		"/ics/api/v1/ledger/" + url.PathEscape(c.Ledger) +
		"/collection/" + url.PathEscape(c.Collection) +
		"/document"
}

// DocumentStore implements ports.Storage by uploading every payload as one document.
type DocumentStore struct {
	client     ports.HTTPClient
	logger     ports.Logger
	endpoint   string
	writeToken string
}

// NewDocumentStore creates a document store. A nil client gets an
// *http.Client with cfg.Timeout.
func NewDocumentStore(cfg Config, client ports.HTTPClient, logger ports.Logger) (*DocumentStore, error) {
	cfg.SetDefaults()
	if cfg.WriteToken == "" {
		return nil, fmt.Errorf("%w: write token is required", domain.ErrInvalidConfig)
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("%w: base url: %v", domain.ErrInvalidConfig, err)
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &DocumentStore{
		client:     client,
		logger:     logger,
		endpoint:   cfg.DocumentURL(),
		writeToken: cfg.WriteToken,
	}, nil
}

// Store uploads payloads one at a time in order and stops at the first failure.
// Documents uploaded before the failure stay stored.
func (s *DocumentStore) Store(ctx context.Context, batch domain.Batch) error {
	for i, payload := range batch {
		if err := s.put(ctx, payload); err != nil {
			s.logger.Debug("document upload stopped",
				ports.Int("uploaded", i),
				ports.Int("remaining", batch.Size()-i),
			)
			return domain.NewStorageError(backendName, "put", err)
		}
	}
	return nil
}

func (s *DocumentStore) put(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", s.writeToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
