package coordinator

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corecoord "github.com/kilianp07/lrinject/core/coordinator"
)

func startServer(t *testing.T) *Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv := NewServer("127.0.0.1:0")
	require.NoError(t, srv.Start(ctx))
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func roundTrip(t *testing.T, addr, cmd string) string {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))
	_, err = conn.Write([]byte(cmd + "\n"))
	require.NoError(t, err)
	line, _ := bufio.NewReader(conn).ReadString('\n')
	return strings.TrimSpace(line)
}

func TestServerAnswers(t *testing.T) {
	srv := startServer(t)

	assert.Equal(t, corecoord.ReplyNo, roundTrip(t, srv.Addr(), corecoord.CmdDone))
	srv.SetLoaded(true)
	assert.Equal(t, corecoord.ReplyYes, roundTrip(t, srv.Addr(), corecoord.CmdDone))
	assert.Equal(t, corecoord.ReplyIMOK, roundTrip(t, srv.Addr(), corecoord.CmdRUOK))
	assert.Equal(t, "", roundTrip(t, srv.Addr(), "hello"))
	assert.EqualValues(t, 4, srv.Handled())
}

func TestClientAgainstServer(t *testing.T) {
	srv := startServer(t)
	c := clientFor(t, srv.Addr())
	ctx := context.Background()

	assert.Equal(t, corecoord.StatusNegative, c.QueryReadiness(ctx).Status)
	srv.SetLoaded(true)
	assert.True(t, c.QueryReadiness(ctx).OK())
	assert.True(t, c.CheckLiveness(ctx).OK())

	require.NoError(t, c.RequestShutdown(ctx))
	select {
	case <-srv.ShutdownRequested():
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown not signalled")
	}
	// a second shtdn must not panic on the closed channel
	require.NoError(t, c.RequestShutdown(ctx))
}

func TestServerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer("127.0.0.1:0")
	require.NoError(t, srv.Start(ctx))
	addr := srv.Addr()
	cancel()

	assert.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err != nil {
			return true
		}
		_ = conn.Close()
		return false
	}, 2*time.Second, 20*time.Millisecond)
	assert.NoError(t, srv.Close())
}

func TestServerListenError(t *testing.T) {
	srv := startServer(t)
	other := NewServer(srv.Addr())
	assert.Error(t, other.Start(context.Background()))
}
