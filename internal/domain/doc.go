// Package domain contains the core domain entities and value objects for logship.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (SQL, HTTP, Kafka, logging) and
// contains only the types every other layer agrees on.
//
// # Entities
//
//   - [Event]: A structured log event prior to encoding
//   - [Batch]: The ordered payloads taken from the buffer by one flush
//   - [StorageError]: A failed Store call, matched by [ErrStorage]
package domain
