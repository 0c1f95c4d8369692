package sink

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/lrinject/core/factory"
	"github.com/kilianp07/lrinject/core/model"
	coresink "github.com/kilianp07/lrinject/core/sink"
)

func TestJSONLSinkAppendsAndReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "events.jsonl")
	s, err := NewJSONLSink(JSONLConfig{Path: path})
	require.NoError(t, err)

	ctx := coresink.WithPassID(context.Background(), "p1")
	require.NoError(t, s.Emit(ctx, position.Channel(), position.Values()))
	require.NoError(t, s.Emit(ctx, model.BalanceChannel, []any{int64(1), int32(2), int32(3)}))
	require.NoError(t, s.Close())

	all, err := s.ReadAll("")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "position_report", all[0].Channel)
	assert.Equal(t, "accbal_report", all[1].Channel)

	bal, err := s.ReadAll("accbal_report")
	require.NoError(t, err)
	require.Len(t, bal, 1)
	assert.EqualValues(t, 3, bal[0].Fields["qid"])
	assert.Equal(t, "p1", bal[0].PassID)
}

func TestJSONLSinkRequiresPath(t *testing.T) {
	_, err := NewJSONLSink(JSONLConfig{})
	assert.Error(t, err)
}

func TestSQLiteSinkStoresInOrder(t *testing.T) {
	s, err := NewSQLiteSink(SQLiteConfig{Path: filepath.Join(t.TempDir(), "events.db")})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := coresink.WithPassID(context.Background(), "p1")
	for i := 0; i < 3; i++ {
		r := position
		r.Time = int64(i)
		require.NoError(t, s.Emit(ctx, r.Channel(), r.Values()))
	}
	require.NoError(t, s.Emit(ctx, model.BalanceChannel, []any{int64(9), int32(2), int32(3)}))

	got, err := s.Query(ctx, "position_report")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, e := range got {
		assert.EqualValues(t, i, e.Fields["secfromstart"])
		assert.Equal(t, "p1", e.PassID)
	}

	all, err := s.Query(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	bal, err := s.Query(ctx, "accbal_report")
	require.NoError(t, err)
	require.Len(t, bal, 1)
	assert.EqualValues(t, 9, bal[0].Fields["secfromstart"])
}

func TestSQLiteSinkRejectsSchemaMismatch(t *testing.T) {
	s, err := NewSQLiteSink(SQLiteConfig{Path: filepath.Join(t.TempDir(), "events.db")})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	err = s.Emit(context.Background(), model.ExpenditureChannel, []any{1, 2})
	assert.ErrorIs(t, err, model.ErrSchemaMismatch)
}

func TestRegisteredSinks(t *testing.T) {
	names := coresink.Registered()
	for _, n := range []string{"nop", "mqtt", "nats", "jsonl", "sqlite", "influx"} {
		assert.Contains(t, names, n)
	}
}

func TestBuildFromModuleConfigs(t *testing.T) {
	dir := t.TempDir()
	s, err := coresink.NewSink([]factory.ModuleConfig{
		{Type: "jsonl", Conf: map[string]any{"path": filepath.Join(dir, "a.jsonl"), "max_size_mb": "5"}},
		{Type: "sqlite", Conf: map[string]any{"path": filepath.Join(dir, "a.db")}},
	})
	require.NoError(t, err)
	multi, ok := s.(*coresink.MultiSink)
	require.True(t, ok)
	require.Len(t, multi.Sinks, 2)
	require.NoError(t, s.Emit(context.Background(), position.Channel(), position.Values()))

	got, err := multi.Sinks[1].(*SQLiteSink).Query(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	require.NoError(t, s.Close())

	_, err = coresink.NewSink([]factory.ModuleConfig{{Type: "jsonl"}})
	assert.ErrorContains(t, err, "jsonl: ")
}
