package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/lrinject/core/metrics"
)

// PromRecorder records injector activity in Prometheus metrics.
type PromRecorder struct {
	polls       *prometheus.CounterVec
	ready       prometheus.Gauge
	emitted     *prometheus.CounterVec
	parseErrors prometheus.Counter
	passes      prometheus.Counter
	passTime    prometheus.Histogram
	passEvents  prometheus.Gauge
}

var _ coremetrics.Recorder = (*PromRecorder)(nil)

// NewPromRecorder registers injector metrics on the default Prometheus
// registerer. The HTTP endpoint is started separately with StartPromServer.
func NewPromRecorder() (*PromRecorder, error) {
	return NewPromRecorderWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromRecorderWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromRecorderWithRegistry(reg prometheus.Registerer) (*PromRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PromRecorder{
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "injector_readiness_polls_total",
			Help: "Readiness queries sent to the history notifier by outcome",
		}, []string{"status"}),
		ready: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "injector_ready",
			Help: "1 once history loading has completed",
		}),
		emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "injector_events_emitted_total",
			Help: "Events forwarded to the sink per channel",
		}, []string{"channel"}),
		parseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "injector_parse_errors_total",
			Help: "Malformed records encountered",
		}),
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "injector_passes_total",
			Help: "Completed passes over the data file",
		}),
		passTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "injector_pass_duration_seconds",
			Help:    "Time taken by one pass over the data file",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		passEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "injector_last_pass_events",
			Help: "Events emitted by the last completed pass",
		}),
	}

	var err error
	if r.polls, err = register(reg, r.polls); err != nil {
		return nil, err
	}
	if r.ready, err = register(reg, r.ready); err != nil {
		return nil, err
	}
	if r.emitted, err = register(reg, r.emitted); err != nil {
		return nil, err
	}
	if r.parseErrors, err = register(reg, r.parseErrors); err != nil {
		return nil, err
	}
	if r.passes, err = register(reg, r.passes); err != nil {
		return nil, err
	}
	if r.passTime, err = register(reg, r.passTime); err != nil {
		return nil, err
	}
	if r.passEvents, err = register(reg, r.passEvents); err != nil {
		return nil, err
	}
	return r, nil
}

// register adds c to reg, reusing an already registered collector of the
// same type.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (r *PromRecorder) RecordReadinessPoll(status string) {
	r.polls.WithLabelValues(status).Inc()
}

func (r *PromRecorder) RecordReady() { r.ready.Set(1) }

func (r *PromRecorder) RecordEmission(channel string) {
	r.emitted.WithLabelValues(channel).Inc()
}

func (r *PromRecorder) RecordParseError() { r.parseErrors.Inc() }

func (r *PromRecorder) RecordPass(emitted int, d time.Duration) {
	r.passes.Inc()
	r.passTime.Observe(d.Seconds())
	r.passEvents.Set(float64(emitted))
}
