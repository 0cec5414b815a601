package workload

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paladin223/mit-service/internal/mockserver"
	"github.com/paladin223/mit-service/internal/target"
)

func TestIDReferenceValues(t *testing.T) {
	// Digests must match what the population and read tooling has
	// always produced, or cross-run reads break.
	assert.Equal(t, "7310e75df332eaa3dfc1431067e33255", ID(0))
	assert.Equal(t, "5ff90447ed219f62413acb4a1e217745", ID(1))
	assert.Equal(t, "df8eb6934d645e8a6ae29f242737a3b9", ID(42))
}

func TestIDDeterministicAndDistinct(t *testing.T) {
	seen := make(map[string]int64)
	for seq := int64(0); seq < 1000; seq++ {
		id := ID(seq)
		assert.Equal(t, id, ID(seq), "seq %d not stable", seq)
		assert.Len(t, id, 32)
		if prev, dup := seen[id]; dup {
			t.Fatalf("seq %d and %d collide on %s", prev, seq, id)
		}
		seen[id] = seq
	}
}

func TestUserValueShape(t *testing.T) {
	v := UserValue(125, 100)

	assert.Equal(t, "Test User 125", v["name"])
	assert.Equal(t, "user125@example.com", v["email"])
	assert.Equal(t, int64(20+125%60), v["age"])
	assert.Equal(t, "City 25", v["city"])
	assert.Equal(t, "Dept 5", v["department"])
	assert.Equal(t, int64(30000+125%70000), v["salary"])

	meta, ok := v["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, meta["populated"])
	assert.Equal(t, int64(1), meta["batch"])
}

func TestTaskValueShape(t *testing.T) {
	v := TaskValue(7)

	assert.Equal(t, "Test Record 7", v["name"])
	assert.Equal(t, int64(7), v["request_number"])

	meta, ok := v["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, meta["test"])
	assert.Equal(t, "load_test", meta["batch"])
}

func newTestClient(t *testing.T) (*target.Client, *mockserver.Server) {
	t.Helper()
	mock := mockserver.New()
	srv := httptest.NewServer(mock.Handler())
	t.Cleanup(srv.Close)
	return target.NewClient(srv.URL, 5*time.Second, 10), mock
}

func TestMixedTaskSequence(t *testing.T) {
	client, mock := newTestClient(t)

	results := Mixed(client)(context.Background(), 3)
	require.Len(t, results, 3)

	assert.Equal(t, OpInsert, results[0].Op)
	assert.Equal(t, OpUpdate, results[1].Op)
	assert.Equal(t, OpGet, results[2].Op)
	for _, res := range results {
		assert.Equal(t, target.Success, res.Outcome.Class, "op %s: %s", res.Op, res.Outcome.Reason)
		assert.Greater(t, res.Outcome.Elapsed, time.Duration(0))
	}
	assert.Equal(t, 1, mock.Len())
}

func TestReadMissingRecordIsNotFound(t *testing.T) {
	client, _ := newTestClient(t)

	results := Read(client)(context.Background(), 999999)
	require.Len(t, results, 1)
	assert.Equal(t, target.NotFound, results[0].Outcome.Class)
}

func TestWriteThenRead(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	wres := Write(client)(ctx, 17)
	require.Len(t, wres, 1)
	require.Equal(t, target.Success, wres[0].Outcome.Class)

	rres := Read(client)(ctx, 17)
	require.Len(t, rres, 1)
	assert.Equal(t, target.Success, rres[0].Outcome.Class)
}

func TestPopulateInserts(t *testing.T) {
	client, mock := newTestClient(t)
	work := Populate(client, 10)

	for seq := int64(1); seq <= 5; seq++ {
		results := work(context.Background(), seq)
		require.Len(t, results, 1)
		assert.Equal(t, target.Success, results[0].Outcome.Class)
	}
	assert.Equal(t, 5, mock.Len())
}
