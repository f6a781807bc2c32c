package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *HistoryStore {
	t.Helper()
	h, err := NewHistoryStore(filepath.Join(t.TempDir(), "maintbot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestRecordAndListUpdates(t *testing.T) {
	h := newTestStore(t)
	ctx := context.Background()

	first := UpdateRecord{
		RequestID: "req-1", ChatID: "42", User: "AG",
		Equipment: "Oil Free Air Compressor", Serial: "20250623001",
		Frequency: "monthly", Date: "2025-11-15",
		Success: true, Sheet: "Compressor", Row: 6, Message: "Updated workbook: Compressor, Row 6",
		CreatedAt: time.Date(2025, 11, 15, 9, 0, 0, 0, time.UTC),
	}
	second := UpdateRecord{
		RequestID: "req-2", User: "BK", Equipment: "Blockwise Crimper",
		Frequency: "annual", Date: "2025-11-16", Message: "could not find sheet for equipment",
	}

	id, err := h.RecordUpdate(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	_, err = h.RecordUpdate(ctx, second)
	require.NoError(t, err)

	all, err := h.RecentUpdates(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "req-2", all[0].RequestID)
	assert.False(t, all[0].Success)
	assert.False(t, all[0].CreatedAt.IsZero())

	got := all[1]
	assert.Equal(t, "AG", got.User)
	assert.True(t, got.Success)
	assert.Equal(t, 6, got.Row)
	assert.Equal(t, "Compressor", got.Sheet)
	assert.True(t, first.CreatedAt.Equal(got.CreatedAt))

	byName, err := h.RecentUpdates(ctx, "oil free air compressor", 10)
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "req-1", byName[0].RequestID)

	bySerial, err := h.RecentUpdates(ctx, "20250623001", 10)
	require.NoError(t, err)
	assert.Len(t, bySerial, 1)

	limited, err := h.RecentUpdates(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestNotifications(t *testing.T) {
	h := newTestStore(t)
	ctx := context.Background()
	n := NotificationRecord{Equipment: "Oil Free Air Compressor", Serial: "20250623001", Frequency: "monthly", DueDate: "2025-09-01"}

	sent, err := h.WasNotified(ctx, n)
	require.NoError(t, err)
	assert.False(t, sent)

	require.NoError(t, h.MarkNotified(ctx, n))
	require.NoError(t, h.MarkNotified(ctx, n), "marking twice is harmless")

	sent, err = h.WasNotified(ctx, n)
	require.NoError(t, err)
	assert.True(t, sent)

	next := n
	next.DueDate = "2025-10-01"
	sent, err = h.WasNotified(ctx, next)
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maintbot.db")
	h, err := NewHistoryStore(path)
	require.NoError(t, err)
	_, err = h.RecordUpdate(context.Background(), UpdateRecord{RequestID: "req-1"})
	require.NoError(t, err)
	require.NoError(t, h.Close())

	h, err = NewHistoryStore(path)
	require.NoError(t, err)
	defer h.Close()
	all, err := h.RecentUpdates(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
