package amqp

import (
	"encoding/json"
	"time"
)

// TableSyncMessage tells the worker that a new table version exists locally.
// It carries only the sheet ID and version; the worker loads the full
// snapshot from storage, so a burst of messages collapses into one push.
type TableSyncMessage struct {
	SheetID   string    `json:"sheet_id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTableSyncMessage creates a sync message for the given table version
func NewTableSyncMessage(sheetID string, version int64) *TableSyncMessage {
	return &TableSyncMessage{
		SheetID:   sheetID,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TableSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TableSyncMessageFromJSON creates a message from JSON bytes
func TableSyncMessageFromJSON(data []byte) (*TableSyncMessage, error) {
	var msg TableSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
