package coordinator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	corecoord "github.com/kilianp07/lrinject/core/coordinator"
	"github.com/kilianp07/lrinject/infra/logger"
)

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Client speaks the control protocol over TCP. Every call opens its own
// connection and closes it before returning.
type Client struct {
	addr        string
	readTimeout time.Duration
	dial        dialFunc
	log         logger.Logger
}

var _ corecoord.Coordinator = (*Client)(nil)

// NewClient creates a client for the configured notifier.
func NewClient(cfg Config) *Client {
	d := &net.Dialer{Timeout: millis(cfg.DialTimeoutMS)}
	return &Client{
		addr:        cfg.Address(),
		readTimeout: millis(cfg.ReadTimeoutMS),
		dial:        d.DialContext,
		log:         logger.New("coordinator_client"),
	}
}

// Addr returns the notifier address.
func (c *Client) Addr() string { return c.addr }

// QueryReadiness sends done? and expects yes.
func (c *Client) QueryReadiness(ctx context.Context) corecoord.Reply {
	return c.ask(ctx, corecoord.CmdDone, corecoord.ReplyYes)
}

// CheckLiveness sends ruok and expects imok.
func (c *Client) CheckLiveness(ctx context.Context) corecoord.Reply {
	return c.ask(ctx, corecoord.CmdRUOK, corecoord.ReplyIMOK)
}

// RequestShutdown sends shtdn without waiting for a reply. The connection is
// closed on every path.
func (c *Client) RequestShutdown(ctx context.Context) error {
	conn, err := c.dial(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.addr, err)
	}
	defer c.closeOrLog(conn)
	stop := c.arm(ctx, conn)
	defer stop()
	if err := send(conn, corecoord.CmdShutdown); err != nil {
		return fmt.Errorf("send %s: %w", corecoord.CmdShutdown, err)
	}
	return nil
}

func (c *Client) ask(ctx context.Context, cmd, want string) corecoord.Reply {
	conn, err := c.dial(ctx, "tcp", c.addr)
	if err != nil {
		return corecoord.Failed(fmt.Errorf("dial %s: %w", c.addr, err))
	}
	defer c.closeOrLog(conn)
	stop := c.arm(ctx, conn)
	defer stop()

	if err := send(conn, cmd); err != nil {
		return corecoord.Failed(fmt.Errorf("send %s: %w", cmd, err))
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return corecoord.Failed(fmt.Errorf("read %s reply: %w", cmd, err))
	}
	return corecoord.Match(strings.TrimSpace(line), want)
}

// arm applies the read timeout and unblocks pending I/O when ctx is done.
func (c *Client) arm(ctx context.Context, conn net.Conn) func() bool {
	if c.readTimeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(c.readTimeout)); err != nil {
			c.log.Debugf("set deadline: %v", err)
		}
	}
	return context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
}

func send(w io.Writer, cmd string) error {
	_, err := io.WriteString(w, cmd+"\n")
	return err
}

func (c *Client) closeOrLog(conn net.Conn) {
	if err := conn.Close(); err != nil {
		c.log.Debugf("close connection to %s: %v", c.addr, err)
	}
}
