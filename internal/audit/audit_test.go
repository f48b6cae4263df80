package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dileep-u-k/agent-gateway/internal/audit"
)

func newLog(t *testing.T, maxLen int64) (*audit.Log, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return audit.New(client, "agent:audit", maxLen, nil), mr
}

func TestLog_RecordAndRecent(t *testing.T) {
	log, _ := newLog(t, 0)
	ctx := context.Background()
	ts := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	log.Record(ctx, audit.Entry{RequestID: "r1", UserID: "alice", Tool: "query_collection", InputSummary: "collection=finance_transactions", Success: true, DurationMs: 12, Timestamp: ts})
	log.Record(ctx, audit.Entry{RequestID: "r1", UserID: "bob", Tool: "analyze_data", Success: true, Timestamp: ts})
	log.Record(ctx, audit.Entry{RequestID: "r2", UserID: "alice", Tool: "query_collection", Success: false, Error: "access denied", Timestamp: ts})

	entries, err := log.Recent(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "r2", entries[0].RequestID)
	assert.False(t, entries[0].Success)
	assert.Equal(t, "access denied", entries[0].Error)

	assert.Equal(t, "collection=finance_transactions", entries[1].InputSummary)
	assert.True(t, entries[1].Success)
	assert.Equal(t, int64(12), entries[1].DurationMs)
	assert.True(t, ts.Equal(entries[1].Timestamp))

	all, err := log.Recent(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLog_RecentReachesOlderEntries(t *testing.T) {
	log, _ := newLog(t, 0)
	ctx := context.Background()

	log.Record(ctx, audit.Entry{RequestID: "old", UserID: "alice", Tool: "query_collection", Success: true})
	for i := 0; i < 250; i++ {
		log.Record(ctx, audit.Entry{RequestID: "busy", UserID: "bob", Tool: "analyze_data", Success: true})
	}

	entries, err := log.Recent(ctx, "alice", 20)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "old", entries[0].RequestID)

	bob, err := log.Recent(ctx, "bob", 120)
	require.NoError(t, err)
	assert.Len(t, bob, 120)

	none, err := log.Recent(ctx, "carol", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLog_StreamIsCapped(t *testing.T) {
	log, mr := newLog(t, 2)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		log.Record(ctx, audit.Entry{Tool: "query_collection", UserID: "u"})
	}

	entries, err := mr.Stream("agent:audit")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestLog_RecordSwallowsErrors(t *testing.T) {
	log, mr := newLog(t, 0)
	mr.Close()
	assert.NotPanics(t, func() {
		log.Record(context.Background(), audit.Entry{Tool: "query_collection"})
	})
}
