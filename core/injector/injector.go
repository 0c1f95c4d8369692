// Package injector gates on the coordinator's readiness signal and then
// replays the Linear Road data file into a sink.
//
// The host drives the injector by calling Activate repeatedly. While the
// history is still loading each call polls the coordinator once and waits the
// poll interval. Once ready, each call reads the whole data file from the
// start and emits every record in file order.
package injector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/lrinject/core/coordinator"
	"github.com/kilianp07/lrinject/core/logger"
	"github.com/kilianp07/lrinject/core/metrics"
	"github.com/kilianp07/lrinject/core/model"
	"github.com/kilianp07/lrinject/core/parser"
	"github.com/kilianp07/lrinject/core/sink"
)

const maxLineSize = 1 << 20

// WaitFunc suspends the caller for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Stats summarizes the activity of an Injector.
type Stats struct {
	Polls   int
	Passes  int
	Emitted map[string]int
	Skipped int
}

// Injector is the event parser and dispatcher.
type Injector struct {
	cfg   Config
	coord coordinator.ReadinessChecker
	sink  sink.Sink
	log   logger.Logger
	rec   metrics.Recorder
	wait  WaitFunc

	running sync.Mutex
	ready   atomic.Bool

	mu    sync.Mutex
	stats Stats
}

// Option customizes an Injector.
type Option func(*Injector)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(i *Injector) {
		if l != nil {
			i.log = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(i *Injector) {
		if r != nil {
			i.rec = r
		}
	}
}

// WithWait replaces the poll interval wait.
func WithWait(w WaitFunc) Option {
	return func(i *Injector) {
		if w != nil {
			i.wait = w
		}
	}
}

// New creates an Injector in the not ready state.
func New(cfg Config, coord coordinator.ReadinessChecker, s sink.Sink, opts ...Option) (*Injector, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if coord == nil {
		return nil, errors.New("injector: coordinator is required")
	}
	if s == nil {
		s = sink.NopSink{}
	}
	i := &Injector{
		cfg:   cfg,
		coord: coord,
		sink:  s,
		log:   logger.NopLogger{},
		rec:   metrics.NopRecorder{},
		wait:  sleep,
		stats: Stats{Emitted: make(map[string]int)},
	}
	for _, o := range opts {
		o(i)
	}
	return i, nil
}

// Ready reports whether the coordinator has signalled that history loading
// finished.
func (i *Injector) Ready() bool { return i.ready.Load() }

// Stats returns a snapshot of the counters.
func (i *Injector) Stats() Stats {
	i.mu.Lock()
	defer i.mu.Unlock()
	s := i.stats
	s.Emitted = make(map[string]int, len(i.stats.Emitted))
	for k, v := range i.stats.Emitted {
		s.Emitted[k] = v
	}
	return s
}

// Activate performs one unit of work: a readiness poll while not ready, a
// full pass over the data file once ready.
func (i *Injector) Activate(ctx context.Context) error {
	if !i.running.TryLock() {
		return ErrActivationInFlight
	}
	defer i.running.Unlock()

	if !i.ready.Load() {
		return i.poll(ctx)
	}
	return i.pass(ctx)
}

func (i *Injector) poll(ctx context.Context) error {
	reply := i.coord.QueryReadiness(ctx)
	i.rec.RecordReadinessPoll(reply.Status.String())
	i.mu.Lock()
	i.stats.Polls++
	i.mu.Unlock()

	switch reply.Status {
	case coordinator.StatusAffirmative:
		i.ready.Store(true)
		i.rec.RecordReady()
		i.log.Infof("history loaded, starting injection from %s", i.cfg.DataFile)
		return nil
	case coordinator.StatusNegative:
		i.log.Debugf("history not loaded yet (%s)", reply)
	default:
		i.log.Warnf("readiness query failed: %v", reply.Err)
	}
	return i.wait(ctx, i.cfg.PollInterval())
}

func (i *Injector) pass(ctx context.Context) error {
	passID := uuid.NewString()
	ctx = sink.WithPassID(ctx, passID)
	start := time.Now()

	f, err := os.Open(i.cfg.DataFile)
	if err != nil {
		return fmt.Errorf("open data file: %w", err)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	emitted, lineNo := 0, 0
	for sc.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Text()
		if parser.Blank(line) {
			continue
		}
		ev, err := parser.ParseRecord(line)
		if err != nil {
			i.rec.RecordParseError()
			lerr := &LineError{File: i.cfg.DataFile, Line: lineNo, Err: err}
			if i.cfg.OnMalformed == OnMalformedSkip {
				i.log.Warnf("skipping malformed record: %v", lerr)
				i.mu.Lock()
				i.stats.Skipped++
				i.mu.Unlock()
				continue
			}
			return lerr
		}
		switch e := ev.(type) {
		case nil:
		case model.TravelTimeQueryNotice:
			i.log.Infow("travel time query", map[string]any{"line": lineNo, "raw": e.Raw})
		case model.Emittable:
			ch := e.Channel()
			if err := i.sink.Emit(ctx, ch, e.Values()); err != nil {
				return &LineError{File: i.cfg.DataFile, Line: lineNo, Err: fmt.Errorf("emit %s: %w", ch.Name, err)}
			}
			i.rec.RecordEmission(ch.Name)
			i.mu.Lock()
			i.stats.Emitted[ch.Name]++
			i.mu.Unlock()
			emitted++
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", i.cfg.DataFile, err)
	}

	elapsed := time.Since(start)
	i.rec.RecordPass(emitted, elapsed)
	i.mu.Lock()
	i.stats.Passes++
	i.mu.Unlock()
	i.log.Infow("all records processed", map[string]any{
		"pass_id":  passID,
		"emitted":  emitted,
		"lines":    lineNo,
		"duration": elapsed.String(),
	})
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
