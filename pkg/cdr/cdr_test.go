package cdr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecord_DurationSeconds(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r := Record{StartedAt: start, EndedAt: start.Add(90 * time.Second)}
	assert.Equal(t, 90.0, r.DurationSeconds())
}

func TestSchema_NamesExpectedTable(t *testing.T) {
	assert.Contains(t, Schema, "call_detail_records")
	assert.Contains(t, Schema, "call_uuid")
	assert.Contains(t, Schema, "barge_ins")
}
