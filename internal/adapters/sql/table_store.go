package sql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"

	// Registers the "immudb" database/sql driver.
	_ "github.com/codenotary/immudb/pkg/stdlib"

	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/ports"
)

const (
	backendName = "immudb"

	// SubBatchSize is the maximum number of rows per INSERT transaction.
	SubBatchSize = 100

	DefaultHost     = "localhost"
	DefaultPort     = 3322
	DefaultUsername = "immudb"
	DefaultPassword = "immudb"
	DefaultDatabase = "defaultdb"
	DefaultTable    = "logship_logs"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Connector opens a database handle. The handle is owned by the TableStore,
// which closes it after any failure and asks for a new one on the next Store.
type Connector func(ctx context.Context) (*sql.DB, error)

// Config contains connection settings for the table store.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	Table    string
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Username == "" {
		c.Username = DefaultUsername
	}
	if c.Password == "" {
		c.Password = DefaultPassword
	}
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.Table == "" {
		c.Table = DefaultTable
	}
}

// DSN returns the immudb driver connection string.
func (c Config) DSN() string {
	u := url.URL{
		Scheme:   "immudb",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// ImmudbConnector returns a Connector that opens cfg through the immudb driver
// and pings the server before handing the handle out.
func ImmudbConnector(cfg Config) Connector {
	dsn := cfg.DSN()
	return func(ctx context.Context) (*sql.DB, error) {
		db, err := sql.Open("immudb", dsn)
		if err != nil {
			return nil, fmt.Errorf("open: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping: %w", err)
		}
		return db, nil
	}
}

// TableStore implements ports.Storage by inserting payloads as rows of a
// single JSON column. The table is created on first use.
type TableStore struct {
	table   string
	connect Connector
	logger  ports.Logger

	mu           sync.Mutex
	db           *sql.DB
	tableEnsured bool
}

// NewTableStore creates a table store. connect is called lazily on the first
// Store and again after any failure.
func NewTableStore(table string, connect Connector, logger ports.Logger) (*TableStore, error) {
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("%w: invalid table name %q", domain.ErrInvalidConfig, table)
	}
	if connect == nil {
		return nil, fmt.Errorf("%w: nil connector", domain.ErrInvalidConfig)
	}
	return &TableStore{
		table:   table,
		connect: connect,
		logger:  logger,
	}, nil
}

// Store writes batch in transactions of at most SubBatchSize rows.
// Sub-batches committed before a failure stay committed.
func (s *TableStore) Store(ctx context.Context, batch domain.Batch) error {
	if batch.Empty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.conn(ctx)
	if err != nil {
		return domain.NewStorageError(backendName, "connect", err)
	}

	if !s.tableEnsured {
		if err := s.inTx(ctx, db, s.createTableSQL()); err != nil {
			s.reset()
			return domain.NewStorageError(backendName, "create table", err)
		}
		s.tableEnsured = true
		s.logger.Info("table ensured", ports.String("table", s.table))
	}

	for _, chunk := range batch.Chunks(SubBatchSize) {
		query, args := s.insertSQL(chunk)
		if err := s.inTx(ctx, db, query, args...); err != nil {
			s.reset()
			return domain.NewStorageError(backendName, "insert", err)
		}
	}

	return nil
}

// Close releases the connection, if any.
func (s *TableStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *TableStore) conn(ctx context.Context) (*sql.DB, error) {
	if s.db != nil {
		return s.db, nil
	}
	db, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	s.db = db
	return db, nil
}

// reset drops the connection after a failure. The table flag is kept.
func (s *TableStore) reset() {
	if s.db == nil {
		return
	}
	if err := s.db.Close(); err != nil {
		s.logger.Warn("close connection after failure", ports.Err(err))
	}
	s.db = nil
}

func (s *TableStore) inTx(ctx context.Context, db *sql.DB, query string, args ...any) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("exec: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *TableStore) createTableSQL() string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s(id INTEGER AUTO_INCREMENT, data JSON, PRIMARY KEY id)", s.table)
}

// insertSQL builds one multi-row INSERT with a positional parameter per payload.
func (s *TableStore) insertSQL(chunk domain.Batch) (string, []any) {
	var b strings.Builder
	b.Grow(32 + len(s.table) + 6*len(chunk))
	b.WriteString("INSERT INTO ")
	b.WriteString(s.table)
	b.WriteString("(data) VALUES ")

	args := make([]any, len(chunk))
	for i, payload := range chunk {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("($")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(")")
		args[i] = string(payload)
	}
	return b.String(), args
}
