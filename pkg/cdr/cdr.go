// Package cdr persists Call Detail Records once a call ends. It is
// peripheral to the audio path and never on the hot 20ms path; the bridge
// session calls Store once, after both audio threads have joined.
package cdr

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is one call's detail record, written once at call end.
type Record struct {
	CallUUID      string
	Caller        string
	SampleRate    int
	StartedAt     time.Time
	EndedAt       time.Time
	FramesIn      uint64
	FramesOut     uint64
	DroppedFrames uint64
	BargeIns      uint64
	EndReason     string
	Metadata      map[string]any
}

// DurationSeconds reports the call's wall-clock duration.
func (r Record) DurationSeconds() float64 {
	return r.EndedAt.Sub(r.StartedAt).Seconds()
}

// Store writes CDRs to Postgres via a pooled connection.
type Store struct {
	db *pgxpool.Pool
}

// NewStore wraps an already-configured pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Insert writes one completed call's record. Failures here must never
// affect the audio path: callers should log and continue, not fail the
// call on a persistence error.
func (s *Store) Insert(ctx context.Context, r Record) error {
	metadataJSON, err := json.Marshal(r.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO call_detail_records (
			call_uuid, caller, sample_rate,
			started_at, ended_at, duration_seconds,
			frames_in, frames_out, dropped_frames, barge_ins,
			end_reason, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (call_uuid) DO UPDATE SET
			ended_at = EXCLUDED.ended_at,
			duration_seconds = EXCLUDED.duration_seconds,
			frames_in = EXCLUDED.frames_in,
			frames_out = EXCLUDED.frames_out,
			dropped_frames = EXCLUDED.dropped_frames,
			barge_ins = EXCLUDED.barge_ins,
			end_reason = EXCLUDED.end_reason,
			metadata = EXCLUDED.metadata
	`

	_, err = s.db.Exec(ctx, query,
		r.CallUUID, r.Caller, r.SampleRate,
		r.StartedAt, r.EndedAt, r.DurationSeconds(),
		r.FramesIn, r.FramesOut, r.DroppedFrames, r.BargeIns,
		r.EndReason, metadataJSON,
	)
	return err
}

// Get fetches one call's record by its call UUID.
func (s *Store) Get(ctx context.Context, callUUID string) (Record, error) {
	query := `
		SELECT call_uuid, caller, sample_rate,
		       started_at, ended_at,
		       frames_in, frames_out, dropped_frames, barge_ins,
		       end_reason, metadata
		FROM call_detail_records
		WHERE call_uuid = $1
	`
	var r Record
	var metadataJSON []byte
	err := s.db.QueryRow(ctx, query, callUUID).Scan(
		&r.CallUUID, &r.Caller, &r.SampleRate,
		&r.StartedAt, &r.EndedAt,
		&r.FramesIn, &r.FramesOut, &r.DroppedFrames, &r.BargeIns,
		&r.EndReason, &metadataJSON,
	)
	if err != nil {
		return Record{}, err
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &r.Metadata); err != nil {
			return Record{}, err
		}
	}
	return r, nil
}

// Schema is the DDL Store expects to already exist. It is exposed as a
// constant rather than run automatically; migrations are the deployer's
// responsibility, not this package's.
const Schema = `
CREATE TABLE IF NOT EXISTS call_detail_records (
	call_uuid         TEXT PRIMARY KEY,
	caller            TEXT NOT NULL,
	sample_rate       INTEGER NOT NULL,
	started_at        TIMESTAMPTZ NOT NULL,
	ended_at          TIMESTAMPTZ NOT NULL,
	duration_seconds  DOUBLE PRECISION NOT NULL,
	frames_in         BIGINT NOT NULL DEFAULT 0,
	frames_out        BIGINT NOT NULL DEFAULT 0,
	dropped_frames    BIGINT NOT NULL DEFAULT 0,
	barge_ins         BIGINT NOT NULL DEFAULT 0,
	end_reason        TEXT NOT NULL,
	metadata          JSONB,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
)`
