package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// DataChangedEvent announces that the dataset behind the analytics endpoints moved
// to a new version
type DataChangedEvent struct {
	DataVersion int64     `json:"data_version"`
	Origin      string    `json:"origin,omitempty"` // instance ID of the publishing replica
	Source      string    `json:"source"`
	Records     int       `json:"records"`
	At          time.Time `json:"at"`
}

// Encode serializes the event for publishing
func (e DataChangedEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeDataChanged parses a published event
func DecodeDataChanged(data []byte) (DataChangedEvent, error) {
	var e DataChangedEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("invalid data-changed event: %w", err)
	}
	if e.DataVersion < 1 {
		return e, fmt.Errorf("invalid data-changed event: data_version must be positive")
	}
	return e, nil
}
