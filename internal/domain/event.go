package domain

import "time"

// Event is a structured log event before encoding.
type Event struct {
	// Time is when the event was produced.
	Time time.Time

	// Level is the severity name (e.g. "info", "error").
	Level string

	// Message is the human readable text.
	Message string

	// Source identifies the producer (file path, "stdin", logger name).
	Source string

	// Fields carries arbitrary structured context.
	Fields map[string]any
}
