//go:build integration

package sink

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/lrinject/core/model"
	coresink "github.com/kilianp07/lrinject/core/sink"
	"github.com/kilianp07/lrinject/test/util"
)

func TestMQTTSinkAgainstMosquitto(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	broker, cleanup, err := util.StartMosquitto(ctx)
	if err != nil {
		t.Skipf("mosquitto container unavailable: %v", err)
	}
	defer cleanup()

	col, err := util.Subscribe(broker, "lrb/input/#")
	require.NoError(t, err)
	defer col.Close()

	s, err := NewMQTTSink(MQTTConfig{Broker: broker, QoS: map[string]byte{"position_report": 1, "daily_exp": 1}})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	pctx := coresink.WithPassID(ctx, "it")
	require.NoError(t, s.Emit(pctx, position.Channel(), position.Values()))
	q := model.DailyExpenditureReport{Time: 100, VehicleID: 7, Expressway: 2, QueryID: 55, Day: 4}
	require.NoError(t, s.Emit(pctx, q.Channel(), q.Values()))

	waitCtx, waitCancel := context.WithTimeout(ctx, 10*time.Second)
	defer waitCancel()
	got, err := col.WaitFor(waitCtx, 2)
	require.NoError(t, err)
	require.Len(t, got["lrb/input/daily_exp"], 1)

	var em coresink.Emission
	require.NoError(t, json.Unmarshal(got["lrb/input/daily_exp"][0], &em))
	assert.EqualValues(t, 55, em.Fields["qid"])
	assert.Equal(t, "it", em.PassID)
	assert.Len(t, got["lrb/input/position_report"], 1)
}
