package coordinator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	corecoord "github.com/kilianp07/lrinject/core/coordinator"
	"github.com/kilianp07/lrinject/infra/logger"
)

// commandTimeout bounds how long a client may take to send its command.
const commandTimeout = 10 * time.Second

// Server is the notifier side of the control protocol. It answers done?
// according to its loaded flag, answers ruok with imok and signals
// ShutdownRequested on shtdn.
type Server struct {
	addr string
	log  logger.Logger

	loaded   atomic.Bool
	handled  atomic.Uint64
	shutdown chan struct{}
	stopOnce sync.Once

	mu        sync.Mutex
	ln        net.Listener
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewServer creates a notifier listening on addr once started.
func NewServer(addr string) *Server {
	return &Server{
		addr:     addr,
		log:      logger.New("coordinator_server"),
		shutdown: make(chan struct{}),
	}
}

// Start binds the listener and serves connections until ctx is done or
// Close is called.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.log.Infof("notifier listening on %s", ln.Addr())

	s.wg.Add(1)
	go s.serve(ln)
	context.AfterFunc(ctx, func() {
		if err := s.Close(); err != nil {
			s.log.Errorf("close: %v", err)
		}
	})
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// SetLoaded sets the answer given to done?.
func (s *Server) SetLoaded(v bool) { s.loaded.Store(v) }

// Loaded reports whether history loading is marked complete.
func (s *Server) Loaded() bool { return s.loaded.Load() }

// Handled returns the number of commands processed.
func (s *Server) Handled() uint64 { return s.handled.Load() }

// ShutdownRequested is closed once a client sends shtdn.
func (s *Server) ShutdownRequested() <-chan struct{} { return s.shutdown }

// Close stops accepting connections and waits for in-flight handlers.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		ln := s.ln
		s.mu.Unlock()
		if ln != nil {
			err = ln.Close()
		}
		s.wg.Wait()
	})
	return err
}

func (s *Server) serve(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Errorf("accept: %v", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	defer func() {
		if err := conn.Close(); err != nil {
			s.log.Debugf("close %s: %v", conn.RemoteAddr(), err)
		}
	}()
	_ = conn.SetDeadline(time.Now().Add(commandTimeout))

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		s.log.Debugf("read command from %s: %v", conn.RemoteAddr(), err)
		return
	}
	cmd := strings.TrimSpace(line)
	s.handled.Add(1)

	switch cmd {
	case corecoord.CmdDone:
		answer := corecoord.ReplyNo
		if s.Loaded() {
			answer = corecoord.ReplyYes
		}
		s.reply(conn, answer)
	case corecoord.CmdRUOK:
		s.reply(conn, corecoord.ReplyIMOK)
	case corecoord.CmdShutdown:
		s.stopOnce.Do(func() { close(s.shutdown) })
		s.log.Infof("shutdown requested by %s", conn.RemoteAddr())
	default:
		s.log.Warnf("unknown command %q from %s", cmd, conn.RemoteAddr())
	}
}

func (s *Server) reply(w io.Writer, word string) {
	if _, err := io.WriteString(w, word+"\n"); err != nil {
		s.log.Debugf("write reply: %v", err)
	}
}
