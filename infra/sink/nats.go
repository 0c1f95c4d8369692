package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kilianp07/lrinject/core/model"
	coresink "github.com/kilianp07/lrinject/core/sink"
	"github.com/kilianp07/lrinject/infra/logger"
)

// DefaultNATSPrefix is prepended to the channel name to form the subject.
const DefaultNATSPrefix = "lrb.input"

// NATSConfig defines the connection parameters of the NATS sink.
type NATSConfig struct {
	URL             string `json:"url"`
	Name            string `json:"name"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	Token           string `json:"token"`
	SubjectPrefix   string `json:"subject_prefix"`
	MaxReconnects   int    `json:"max_reconnects"`
	ReconnectWaitMS int    `json:"reconnect_wait_ms"`
	FlushTimeoutMS  int    `json:"flush_timeout_ms"`
}

// SetDefaults applies sane defaults.
func (c *NATSConfig) SetDefaults() {
	if c.URL == "" {
		c.URL = nats.DefaultURL
	}
	if c.Name == "" {
		c.Name = "lrinject"
	}
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = DefaultNATSPrefix
	}
	if c.MaxReconnects == 0 {
		c.MaxReconnects = 10
	}
	if c.ReconnectWaitMS <= 0 {
		c.ReconnectWaitMS = 2000
	}
	if c.FlushTimeoutMS <= 0 {
		c.FlushTimeoutMS = 2000
	}
}

type natsConn interface {
	Publish(subj string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Drain() error
}

var natsConnect = func(url string, opts ...nats.Option) (natsConn, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return nc, nil
}

// NATSSink publishes each event as JSON on <prefix>.<channel>.
type NATSSink struct {
	nc           natsConn
	prefix       string
	flushTimeout time.Duration
	log          logger.Logger
}

// NewNATSSink connects to the NATS server described by cfg.
func NewNATSSink(cfg NATSConfig) (*NATSSink, error) {
	cfg.SetDefaults()
	log := logger.New("nats-sink")
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(time.Duration(cfg.ReconnectWaitMS) * time.Millisecond),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("nats disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("nats reconnected to %s", nc.ConnectedUrl())
		}),
	}
	if cfg.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}
	nc, err := natsConnect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", cfg.URL, err)
	}
	log.Infof("NATS connected to %s", cfg.URL)
	return &NATSSink{
		nc:           nc,
		prefix:       strings.TrimSuffix(cfg.SubjectPrefix, "."),
		flushTimeout: time.Duration(cfg.FlushTimeoutMS) * time.Millisecond,
		log:          log,
	}, nil
}

// Subject returns the subject events of ch are published on.
func (s *NATSSink) Subject(ch model.Channel) string {
	return s.prefix + "." + ch.Name
}

// Emit publishes the event. Delivery is asynchronous; Close flushes.
func (s *NATSSink) Emit(ctx context.Context, ch model.Channel, values []any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	em, err := coresink.NewEmission(ctx, ch, values)
	if err != nil {
		return err
	}
	data, err := json.Marshal(em)
	if err != nil {
		return err
	}
	if err := s.nc.Publish(s.Subject(ch), data); err != nil {
		return fmt.Errorf("publish %s: %w", s.Subject(ch), err)
	}
	return nil
}

// Close flushes pending messages and drains the connection.
func (s *NATSSink) Close() error {
	if err := s.nc.FlushTimeout(s.flushTimeout); err != nil {
		s.log.Warnf("nats flush: %v", err)
	}
	return s.nc.Drain()
}
