package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const CurrentSchemaVersion = 1

// Envelope wraps every offer-service event on the bus. Schemas for Data live
// under contracts/events/v1 and are keyed by EventType.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

var ErrInvalidEnvelope = errors.New("invalid event envelope")

// Validate checks the routing fields and that Data carries the partition key
// at PartitionKeyPath.
func (e Envelope) Validate() error {
	switch {
	case strings.TrimSpace(e.EventID) == "":
		return fmt.Errorf("%w: event_id is required", ErrInvalidEnvelope)
	case strings.TrimSpace(e.EventType) == "":
		return fmt.Errorf("%w: event_type is required", ErrInvalidEnvelope)
	case e.OccurredAt.IsZero():
		return fmt.Errorf("%w: occurred_at is required", ErrInvalidEnvelope)
	case e.SchemaVersion < 1 || e.SchemaVersion > CurrentSchemaVersion:
		return fmt.Errorf("%w: unsupported schema_version %d", ErrInvalidEnvelope, e.SchemaVersion)
	case strings.TrimSpace(e.PartitionKey) == "":
		return fmt.Errorf("%w: partition_key is required", ErrInvalidEnvelope)
	}
	if e.PartitionKeyPath == "" {
		return nil
	}
	var data map[string]any
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return fmt.Errorf("%w: data must be a JSON object", ErrInvalidEnvelope)
	}
	if value, _ := data[e.PartitionKeyPath].(string); value != e.PartitionKey {
		return fmt.Errorf("%w: data.%s does not match partition_key", ErrInvalidEnvelope, e.PartitionKeyPath)
	}
	return nil
}
