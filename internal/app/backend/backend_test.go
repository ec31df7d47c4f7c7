package backend_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dalemusser/folioadmin/internal/app/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &backend.Error{Code: backend.CodeUniqueViolation, Message: "duplicate key"}

	assert.True(t, backend.IsUniqueViolation(dup))
	assert.True(t, backend.IsUniqueViolation(fmt.Errorf("insert sector: %w", dup)))
	assert.False(t, backend.IsUniqueViolation(&backend.Error{Code: "23503"}))
	assert.False(t, backend.IsUniqueViolation(errors.New("boom")))
	assert.False(t, backend.IsUniqueViolation(nil))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("socket closed")
	err := &backend.Error{Code: "08006", Message: "connection failure", Table: "sectors", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "08006", backend.Code(err))
	assert.Contains(t, err.Error(), "sectors")
}

func TestDecodeRows(t *testing.T) {
	created := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	rows := []backend.Row{
		{"id": "a", "title": "First", "created_at": created, "extra": json.RawMessage(`{"x":1}`)},
		{"id": "b", "title": "Second", "created_at": created.Add(time.Hour)},
	}

	type item struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		CreatedAt time.Time `json:"created_at"`
	}

	got, err := backend.DecodeRows[item](rows)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "First", got[0].Title)
	assert.True(t, got[1].CreatedAt.Equal(created.Add(time.Hour)))
}

func TestTime(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	got, ok := backend.Time(backend.Row{"created_at": ts}, "created_at")
	assert.True(t, ok)
	assert.True(t, got.Equal(ts))

	got, ok = backend.Time(backend.Row{"created_at": ts.Format(time.RFC3339Nano)}, "created_at")
	assert.True(t, ok)
	assert.True(t, got.Equal(ts))

	_, ok = backend.Time(backend.Row{"created_at": 42}, "created_at")
	assert.False(t, ok)

	_, ok = backend.Time(backend.Row{}, "created_at")
	assert.False(t, ok)
}
