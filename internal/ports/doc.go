// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// application needs from external systems without specifying how those needs
// are fulfilled.
//
// # Port Interfaces
//
//   - [Storage]: Persists a flushed batch (table store, document store, topic)
//   - [Encoder]: Turns a structured event into payload bytes
//   - [FlushEventEmitter]: Observes flush outcomes (metrics, callbacks)
//   - [Logger]: Structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement these interfaces
// with concrete implementations (database/sql, HTTP, Kafka, Prometheus, zerolog).
package ports
