// Package app wires the injector, its coordinator client, sinks, metrics and
// error monitoring from configuration and drives the activation loop.
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/lrinject/config"
	corecoord "github.com/kilianp07/lrinject/core/coordinator"
	"github.com/kilianp07/lrinject/core/injector"
	coremetrics "github.com/kilianp07/lrinject/core/metrics"
	coremon "github.com/kilianp07/lrinject/core/monitoring"
	coresink "github.com/kilianp07/lrinject/core/sink"
	"github.com/kilianp07/lrinject/infra/coordinator"
	"github.com/kilianp07/lrinject/infra/logger"
	"github.com/kilianp07/lrinject/infra/metrics"
	"github.com/kilianp07/lrinject/infra/monitoring"
	infrasink "github.com/kilianp07/lrinject/infra/sink"
)

// Service runs the injector until its configured passes are done or the
// context is cancelled.
type Service struct {
	Injector *injector.Injector

	coord       corecoord.Coordinator
	sink        coresink.Sink
	tap         *infrasink.TapSink
	driver      config.DriverConfig
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return nil, err
	}
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	var rec coremetrics.Recorder = coremetrics.NopRecorder{}
	if cfg.Metrics.PrometheusEnabled {
		prom, err := metrics.NewPromRecorder()
		if err != nil {
			return nil, fmt.Errorf("prom recorder: %w", err)
		}
		rec = prom
	}

	configured, err := coresink.Build(cfg.Sink)
	if err != nil {
		return nil, fmt.Errorf("sink: %w", err)
	}
	tap := infrasink.NewTapSink(cfg.Sink.TapBuffer)
	out := coresink.NewMultiSink(configured, tap)

	coord := coordinator.NewClient(cfg.Coordinator)
	inj, err := injector.New(cfg.Injector, coord, out,
		injector.WithLogger(logger.New("injector")),
		injector.WithRecorder(rec),
	)
	if err != nil {
		_ = out.Close()
		return nil, fmt.Errorf("injector: %w", err)
	}

	logg.Infof("injector ready to read %s, coordinator at %s", cfg.Injector.DataFile, coord.Addr())
	return &Service{
		Injector:    inj,
		coord:       coord,
		sink:        out,
		tap:         tap,
		driver:      cfg.Driver,
		log:         logg,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

// Subscribe returns a live copy of every emitted event. The channel closes
// when the service closes.
func (s *Service) Subscribe() <-chan coresink.Emission { return s.tap.Subscribe() }

// Run starts the metrics endpoint and the activation loop. It returns once
// the configured passes completed, the context is cancelled, or a pass fails.
func (s *Service) Run(ctx context.Context) error {
	defer coremon.Flush(2 * time.Second)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	if s.promEnabled {
		g.Go(func() error {
			if err := metrics.StartPromServer(gctx, s.promPort); err != nil {
				return fmt.Errorf("prom server: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		defer cancel()
		return s.drive(gctx)
	})
	return g.Wait()
}

func (s *Service) drive(ctx context.Context) error {
	if s.driver.CheckLiveness {
		if r := s.coord.CheckLiveness(ctx); r.OK() {
			s.log.Infof("coordinator is alive")
		} else {
			s.log.Warnf("coordinator liveness check: %s", r)
		}
	}

	passes := 0
	for {
		if ctx.Err() != nil {
			return nil
		}
		wasReady := s.Injector.Ready()
		if err := s.Injector.Activate(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			coremon.CaptureException(err, map[string]string{"module": "injector"})
			return fmt.Errorf("activate: %w", err)
		}
		if !wasReady {
			continue
		}
		passes++
		if s.driver.MaxPasses != config.UnlimitedPasses && passes >= s.driver.MaxPasses {
			break
		}
		if err := pause(ctx, s.driver.PassInterval()); err != nil {
			return nil
		}
	}
	s.log.Infof("completed %d pass(es)", passes)

	if s.driver.ShutdownCoordinator {
		if err := s.coord.RequestShutdown(ctx); err != nil {
			s.log.Warnf("coordinator shutdown request: %v", err)
		}
	}
	return nil
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Close releases the sinks.
func (s *Service) Close() error { return s.sink.Close() }
