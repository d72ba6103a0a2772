package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BackupRequest asks the backup worker to back up the current month.
// RequestedAt is the time of the write that triggered it; the worker uses
// it to coalesce bursts of writes into one run.
type BackupRequest struct {
	RequestID   string    `json:"request_id"`
	RequestedAt time.Time `json:"requested_at"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewBackupRequest creates a request for a write made at requestedAt.
func NewBackupRequest(requestedAt time.Time) *BackupRequest {
	return &BackupRequest{
		RequestID:   uuid.NewString(),
		RequestedAt: requestedAt,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BackupRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BackupRequestFromJSON decodes a message body.
func BackupRequestFromJSON(data []byte) (*BackupRequest, error) {
	var msg BackupRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
