package sink

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/lrinject/core/model"
	coresink "github.com/kilianp07/lrinject/core/sink"
	"github.com/kilianp07/lrinject/infra/logger"
)

// InfluxConfig configures the InfluxDB sink.
type InfluxConfig struct {
	URL       string `json:"url"`
	Token     string `json:"token"`
	Org       string `json:"org"`
	Bucket    string `json:"bucket"`
	TimeoutMS int    `json:"timeout_ms"`
}

// InfluxSink writes one point per event. The measurement is the channel name,
// the pass id and vehicle id are tags and the remaining fields are fields.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	timeout  time.Duration
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	if cfg.TimeoutMS <= 0 {
		cfg.TimeoutMS = 5000
	}
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: timeout}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		timeout:  timeout,
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coresink.Sink {
	s := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	health, err := s.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			s.log.Errorf("influx health check error: %v", err)
		} else {
			s.log.Errorf("influx health status: %s", health.Status)
		}
		s.client.Close()
		return coresink.NopSink{}
	}
	return s
}

// Point converts an emission to a line protocol point.
func Point(em coresink.Emission, ch model.Channel) *write.Point {
	p := write.NewPointWithMeasurement(ch.Name)
	if em.PassID != "" {
		p = p.AddTag("pass_id", em.PassID)
	}
	for i, name := range ch.Fields {
		if name == "vid" {
			p = p.AddTag("vid", fmt.Sprint(em.Values[i]))
			continue
		}
		p = p.AddField(name, em.Values[i])
	}
	return p.SetTime(em.At)
}

// Emit writes the event as a point.
func (s *InfluxSink) Emit(ctx context.Context, ch model.Channel, values []any) error {
	em, err := coresink.NewEmission(ctx, ch, values)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, Point(em, ch))
}

// Close releases the HTTP client.
func (s *InfluxSink) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}
