// Package logship provides a buffered, asynchronous log appender that ships
// encoded log events in batches to a durable backend.
//
// Producers never block on storage: [Appender.Append] adds a payload to an
// in-memory batch and, when a trigger fires, hands the batch to a single
// background flush. A flush is triggered when the pending batch reaches
// [Config.MaxPendingCount] payloads, [Config.MaxPendingBytes] bytes, or when
// [Config.SyncInterval] has elapsed since the last flush. The interval is only
// checked on append; it is not a timer.
//
// # Basic Usage
//
//	cfg := logship.DefaultConfig()
//	cfg.Backend = logship.BackendConfig{
//	    Type:   logship.BackendImmudb,
//	    Immudb: logship.ImmudbConfig{Host: "immudb.internal"},
//	}
//
//	appender, err := logship.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer appender.Close(context.Background())
//
//	_ = appender.AppendEvent(logship.Event{Level: "info", Message: "started"})
//
// # Backends
//
// [BackendImmudb] inserts payloads as rows of a JSON column through the immudb
// database/sql driver. [BackendVault] uploads one document per payload to the
// immudb Vault HTTP API. [BackendKafka] produces one message per payload.
// Any [Storage] can be injected with [WithStorage].
//
// # Failure Semantics
//
// Delivery is best effort. A failed flush drops its batch; the failure is
// logged and reported to the [EventHandler], never to the producer. Payloads
// still buffered when the process exits without [Appender.Close] are lost.
//
// # Using zerolog
//
// An [Appender] is an [io.Writer], so a zerolog.Logger can write JSON lines
// straight into it:
//
//	logger := zerolog.New(appender).With().Timestamp().Logger()
package logship
