package logship

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/internal/ports"
)

// Event is a structured log event accepted by Appender.AppendEvent.
type Event = domain.Event

// Encoder turns an Event into the payload that gets buffered and stored.
type Encoder = ports.Encoder

// Keys written by JSONEncoder. They take precedence over Event.Fields entries
// with the same name.
const (
	TimeKey    = "time"
	LevelKey   = "level"
	MessageKey = "message"
	SourceKey  = "source"
)

// JSONEncoder encodes an event as one flat JSON object with sorted keys.
// Empty standard fields are omitted and Time is written in UTC RFC 3339 form.
type JSONEncoder struct{}

// Encode implements Encoder.
func (JSONEncoder) Encode(event Event) ([]byte, error) {
	doc := make(map[string]any, len(event.Fields)+4)
	for k, v := range event.Fields {
		doc[k] = v
	}
	if !event.Time.IsZero() {
		doc[TimeKey] = event.Time.UTC().Format(time.RFC3339Nano)
	}
	if event.Level != "" {
		doc[LevelKey] = event.Level
	}
	doc[MessageKey] = event.Message
	if event.Source != "" {
		doc[SourceKey] = event.Source
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return data, nil
}
