// Package log provides the logging abstraction used by logship components.
//
// This package defines a Logger interface that can be implemented by
// any logging library. Implementations are provided for zerolog and a
// no-op logger for testing.
//
// # Usage
//
// Use the provided zerolog adapter:
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//
// Attach fields shared by every message:
//
//	logger = log.With(logger, log.String("appender", "audit"))
//
// Or use the no-op logger for testing:
//
//	logger := log.NewNoopLogger()
//
// Note that this logger reports on logship itself (flush failures, lifecycle).
// It is not the log stream being shipped.
package log
