package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kilianp07/lrinject/core/model"
	coresink "github.com/kilianp07/lrinject/core/sink"
)

// JSONLConfig configures the rotating JSON lines sink.
type JSONLConfig struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
	Compress   bool   `json:"compress"`
}

// JSONLSink appends one JSON object per event to a rotating file.
type JSONLSink struct {
	mu   sync.Mutex
	out  *lumberjack.Logger
	enc  *json.Encoder
	path string
}

// NewJSONLSink creates the sink, ensuring the parent directory exists.
func NewJSONLSink(cfg JSONLConfig) (*JSONLSink, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("jsonl: path is required")
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 100
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	lj := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	return &JSONLSink{out: lj, enc: json.NewEncoder(lj), path: cfg.Path}, nil
}

// Emit writes the event as a single line.
func (s *JSONLSink) Emit(ctx context.Context, ch model.Channel, values []any) error {
	em, err := coresink.NewEmission(ctx, ch, values)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(em)
}

// ReadAll returns the emissions stored in the file and its rotated backups,
// optionally restricted to one channel.
func (s *JSONLSink) ReadAll(channel string) ([]coresink.Emission, error) {
	files, err := filepath.Glob(s.path + "*")
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	var res []coresink.Emission
	for _, f := range files {
		file, err := os.Open(f)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			var e coresink.Emission
			if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
				continue
			}
			if channel != "" && e.Channel != channel {
				continue
			}
			res = append(res, e)
		}
		_ = file.Close()
	}
	return res, nil
}

// Close closes the underlying writer.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Close()
}
