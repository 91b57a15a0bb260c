package amqp

import (
	"encoding/json"
	"time"
)

// ExportRequestMessage asks the worker to re-export one withdrawal month.
// It carries only the month; the worker rebuilds the view from the database
// so it always exports current data.
type ExportRequestMessage struct {
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExportRequestMessage creates an export request for the given month.
func NewExportRequestMessage(year, month int) *ExportRequestMessage {
	return &ExportRequestMessage{
		Year:      year,
		Month:     month,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func ExportRequestMessageFromJSON(data []byte) (*ExportRequestMessage, error) {
	var msg ExportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
