package sink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/lrinject/core/factory"
	"github.com/kilianp07/lrinject/core/model"
)

type recordSink struct {
	mu      sync.Mutex
	got     []string
	err     error
	closed  bool
	closeEr error
}

func (r *recordSink) Emit(_ context.Context, ch model.Channel, _ []any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, ch.Name)
	return r.err
}

func (r *recordSink) Close() error {
	r.closed = true
	return r.closeEr
}

func TestNewEmission(t *testing.T) {
	ctx := WithPassID(context.Background(), "pass-1")
	e, err := NewEmission(ctx, model.BalanceChannel, []any{int64(7), int32(3), int32(9)})
	require.NoError(t, err)
	assert.Equal(t, "pass-1", e.PassID)
	assert.Equal(t, "accbal_report", e.Channel)
	assert.Equal(t, int32(9), e.Fields["qid"])
	assert.Len(t, e.Values, 3)
	assert.False(t, e.At.IsZero())

	_, err = NewEmission(ctx, model.BalanceChannel, []any{int64(7)})
	assert.ErrorIs(t, err, model.ErrSchemaMismatch)
}

func TestPassIDAbsent(t *testing.T) {
	assert.Empty(t, PassID(context.Background()))
}

func TestMultiSinkFirstErrorStops(t *testing.T) {
	a := &recordSink{err: errors.New("boom")}
	b := &recordSink{}
	m := NewMultiSink(a, b)
	err := m.Emit(context.Background(), model.PositionChannel, nil)
	assert.EqualError(t, err, "boom")
	assert.Len(t, a.got, 1)
	assert.Empty(t, b.got)
}

func TestMultiSinkCloseJoins(t *testing.T) {
	a := &recordSink{closeEr: errors.New("a")}
	b := &recordSink{closeEr: errors.New("b")}
	err := NewMultiSink(a, b).Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestRateLimitedSinkPaces(t *testing.T) {
	rec := &recordSink{}
	s := NewRateLimitedSink(rec, 50, 1)
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Emit(context.Background(), model.PositionChannel, nil))
	}
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Len(t, rec.got, 3)
}

func TestRateLimitedSinkHonoursContext(t *testing.T) {
	rec := &recordSink{}
	s := NewRateLimitedSink(rec, 0.001, 1)
	require.NoError(t, s.Emit(context.Background(), model.PositionChannel, nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.Emit(ctx, model.PositionChannel, nil))
	assert.Len(t, rec.got, 1)
}

var registrations atomic.Int64

// uniqueSinkName keeps registrations distinct across repeated test runs
// sharing the package registry.
func uniqueSinkName(t *testing.T) string {
	return fmt.Sprintf("%s-%d", t.Name(), registrations.Add(1))
}

func TestNewSinkFromRegistry(t *testing.T) {
	created := 0
	name := uniqueSinkName(t)
	require.NoError(t, RegisterSink(name, func(conf map[string]any) (Sink, error) {
		created++
		return &recordSink{}, nil
	}))
	require.Error(t, RegisterSink(name, func(map[string]any) (Sink, error) { return nil, nil }))
	assert.Contains(t, Registered(), name)

	s, err := NewSink(nil)
	require.NoError(t, err)
	assert.IsType(t, NopSink{}, s)

	s, err = NewSink([]factory.ModuleConfig{{Type: name}})
	require.NoError(t, err)
	assert.IsType(t, &recordSink{}, s)

	s, err = NewSink([]factory.ModuleConfig{{Type: name}, {Type: name}})
	require.NoError(t, err)
	assert.Len(t, s.(*MultiSink).Sinks, 2)
	assert.Equal(t, 3, created)

	_, err = NewSink([]factory.ModuleConfig{{Type: name}, {Type: "missing"}})
	assert.ErrorIs(t, err, factory.ErrUnknownType)
}

func TestBuildWrapsRateLimit(t *testing.T) {
	cfg := Config{RateLimit: 100}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Burst)
	assert.Equal(t, 256, cfg.TapBuffer)
	s, err := Build(cfg)
	require.NoError(t, err)
	assert.IsType(t, &RateLimitedSink{}, s)
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{RateLimit: -1}.Validate())
	assert.Error(t, Config{Sinks: []factory.ModuleConfig{{}}}.Validate())
}
