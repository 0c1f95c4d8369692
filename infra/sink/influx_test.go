package sink

import (
	"context"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/lrinject/core/model"
	coresink "github.com/kilianp07/lrinject/core/sink"
	"github.com/kilianp07/lrinject/infra/logger"
)

type fakeWriteAPI struct {
	api.WriteAPIBlocking
	points []*write.Point
}

func (f *fakeWriteAPI) WritePoint(_ context.Context, p ...*write.Point) error {
	f.points = append(f.points, p...)
	return nil
}

func TestPointLayout(t *testing.T) {
	em, err := coresink.NewEmission(coresink.WithPassID(context.Background(), "p1"), position.Channel(), position.Values())
	require.NoError(t, err)
	p := Point(em, model.PositionChannel)
	assert.Equal(t, "position_report", p.Name())

	tags := map[string]string{}
	for _, tg := range p.TagList() {
		tags[tg.Key] = tg.Value
	}
	assert.Equal(t, map[string]string{"pass_id": "p1", "vid": "105"}, tags)

	fields := map[string]any{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Len(t, fields, 7)
	assert.EqualValues(t, 70, fields["ofst"])
	assert.EqualValues(t, 32, fields["speed"])
}

func TestInfluxSinkEmit(t *testing.T) {
	w := &fakeWriteAPI{}
	s := &InfluxSink{writeAPI: w, timeout: time.Second, log: logger.NopLogger{}}
	require.NoError(t, s.Emit(context.Background(), model.BalanceChannel, []any{int64(1), int32(2), int32(3)}))
	require.Len(t, w.points, 1)
	assert.Equal(t, "accbal_report", w.points[0].Name())
	require.NoError(t, s.Close())
}

func TestInfluxFallbackOnUnreachable(t *testing.T) {
	s := NewInfluxSinkWithFallback(InfluxConfig{URL: "http://127.0.0.1:1", TimeoutMS: 200})
	assert.IsType(t, coresink.NopSink{}, s)
}
