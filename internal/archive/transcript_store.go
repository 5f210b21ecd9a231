// Package archive persists finished call transcripts to Redis for later
// review. Archival is best-effort: the call flow never fails because a
// transcript could not be written.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orbyn-ai/nova-voice-agent/internal/session"
)

const transcriptKeyPrefix = "voice:transcript:"

// TranscriptRecord is the archived snapshot of one completed call.
type TranscriptRecord struct {
	CallID          string              `json:"call_id"`
	CallerPhone     string              `json:"caller_phone,omitempty"`
	Language        session.Language    `json:"language"`
	Status          session.Status      `json:"status"`
	AppointmentTime string              `json:"appointment_time,omitempty"`
	Collected       session.ContactInfo `json:"collected"`
	Turns           []session.Turn      `json:"turns"`
	StartedAt       time.Time           `json:"started_at"`
	EndedAt         time.Time           `json:"ended_at"`
}

// TranscriptStore archives call transcripts in Redis with a TTL.
type TranscriptStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTranscriptStore creates a transcript store backed by Redis.
func NewTranscriptStore(rdb *redis.Client, ttl time.Duration) *TranscriptStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TranscriptStore{rdb: rdb, ttl: ttl}
}

func transcriptKey(callID string) string {
	return transcriptKeyPrefix + callID
}

// RecordFromSession snapshots a finished session and archives it.
func (s *TranscriptStore) RecordFromSession(ctx context.Context, sess *session.CallSession) error {
	if sess == nil {
		return fmt.Errorf("transcript: session required")
	}
	record := &TranscriptRecord{
		CallID:          sess.CallID,
		CallerPhone:     sess.CallerPhone,
		Language:        sess.Language,
		Status:          sess.Status,
		AppointmentTime: sess.AppointmentTime,
		Collected:       sess.Collected,
		Turns:           sess.Turns,
		StartedAt:       sess.StartedAt,
		EndedAt:         time.Now().UTC(),
	}
	return s.Save(ctx, record)
}

// Save persists one transcript record.
func (s *TranscriptStore) Save(ctx context.Context, record *TranscriptRecord) error {
	if record == nil || record.CallID == "" {
		return fmt.Errorf("transcript: call_id required")
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("transcript: marshal: %w", err)
	}
	return s.rdb.Set(ctx, transcriptKey(record.CallID), data, s.ttl).Err()
}

// Get retrieves an archived transcript, or nil when none exists.
func (s *TranscriptStore) Get(ctx context.Context, callID string) (*TranscriptRecord, error) {
	data, err := s.rdb.Get(ctx, transcriptKey(callID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("transcript: get: %w", err)
	}
	var record TranscriptRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("transcript: unmarshal: %w", err)
	}
	return &record, nil
}
