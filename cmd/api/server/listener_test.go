package server

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// echoHandler answers every connection with "ok" after release is closed.
type echoHandler struct {
	release  chan struct{}
	served   atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
}

func newEchoHandler() *echoHandler {
	return &echoHandler{release: make(chan struct{})}
}

func (h *echoHandler) ServeConn(_ context.Context, conn net.Conn) {
	defer conn.Close()
	n := h.inFlight.Add(1)
	for {
		p := h.peak.Load()
		if n <= p || h.peak.CompareAndSwap(p, n) {
			break
		}
	}
	<-h.release
	h.inFlight.Add(-1)
	h.served.Add(1)
	_, _ = conn.Write([]byte("ok"))
}

func startListener(t *testing.T, concurrent bool, h ConnHandler) (*Listener, context.CancelFunc, <-chan error) {
	t.Helper()
	l := NewListener("127.0.0.1:0", concurrent, h, zaptest.NewLogger(t))
	require.NoError(t, l.Listen(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Serve(ctx) }()
	t.Cleanup(cancel)
	return l, cancel, done
}

func dial(t *testing.T, addr net.Addr) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr.String(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestListener_ServesConnection(t *testing.T) {
	h := newEchoHandler()
	close(h.release)
	l, _, _ := startListener(t, false, h)

	resp, err := io.ReadAll(dial(t, l.Addr()))
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp))
}

func TestListener_SequentialServesOneAtATime(t *testing.T) {
	h := newEchoHandler()
	l, _, _ := startListener(t, false, h)

	first := dial(t, l.Addr())
	second := dial(t, l.Addr())

	require.Eventually(t, func() bool { return h.inFlight.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), h.inFlight.Load())

	close(h.release)

	for _, c := range []net.Conn{first, second} {
		resp, err := io.ReadAll(c)
		require.NoError(t, err)
		assert.Equal(t, "ok", string(resp))
	}
	assert.Equal(t, int32(1), h.peak.Load())
	assert.Equal(t, int32(2), h.served.Load())
}

func TestListener_ConcurrentServesInParallel(t *testing.T) {
	h := newEchoHandler()
	l, _, _ := startListener(t, true, h)

	conns := []net.Conn{dial(t, l.Addr()), dial(t, l.Addr()), dial(t, l.Addr())}

	require.Eventually(t, func() bool { return h.inFlight.Load() == 3 }, time.Second, 5*time.Millisecond)
	close(h.release)

	for _, c := range conns {
		resp, err := io.ReadAll(c)
		require.NoError(t, err)
		assert.Equal(t, "ok", string(resp))
	}
	assert.Equal(t, int32(3), h.peak.Load())
}

func TestListener_StopsOnCancel(t *testing.T) {
	h := newEchoHandler()
	close(h.release)
	l, cancel, done := startListener(t, false, h)
	addr := l.Addr()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("accept loop did not stop")
	}

	_, err := net.DialTimeout("tcp", addr.String(), 200*time.Millisecond)
	assert.Error(t, err)
}

func TestListener_WaitDrainsInFlight(t *testing.T) {
	h := newEchoHandler()
	l, cancel, done := startListener(t, true, h)

	conn := dial(t, l.Addr())
	require.Eventually(t, func() bool { return h.inFlight.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	short, stop := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer stop()
	assert.Error(t, l.Wait(short))

	close(h.release)
	require.NoError(t, l.Wait(context.Background()))

	resp, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp))
}

func TestListener_BindFailure(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer occupied.Close()

	l := NewListener(occupied.Addr().String(), false, newEchoHandler(), zaptest.NewLogger(t))
	err = l.Listen(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
	assert.Nil(t, l.Addr())
}

func TestListener_ServeWithoutListen(t *testing.T) {
	l := NewListener("127.0.0.1:0", false, newEchoHandler(), zaptest.NewLogger(t))
	assert.Error(t, l.Serve(context.Background()))
	assert.NoError(t, l.Close())
}

// flakyListener fails its first Accept, then yields one connection, then blocks until closed.
type flakyListener struct {
	calls  atomic.Int32
	conn   net.Conn
	closed chan struct{}
	once   sync.Once
}

func (f *flakyListener) Accept() (net.Conn, error) {
	switch f.calls.Add(1) {
	case 1:
		return nil, errors.New("too many open files")
	case 2:
		return f.conn, nil
	}
	<-f.closed
	return nil, net.ErrClosed
}

func (f *flakyListener) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *flakyListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}

func TestListener_AcceptErrorDoesNotStopLoop(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	core, logs := observer.New(zap.WarnLevel)
	h := newEchoHandler()
	close(h.release)

	l := NewListener("unused", false, h, zap.New(core))
	l.ln = &flakyListener{conn: server, closed: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Serve(ctx) }()

	resp, err := io.ReadAll(client)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp))
	assert.Equal(t, 1, logs.FilterMessage("failed to accept connection").Len())

	cancel()
	require.NoError(t, <-done)
}

func TestNextAcceptDelay(t *testing.T) {
	assert.Equal(t, 5*time.Millisecond, nextAcceptDelay(0))
	assert.Equal(t, 10*time.Millisecond, nextAcceptDelay(5*time.Millisecond))
	assert.Equal(t, maxAcceptDelay, nextAcceptDelay(800*time.Millisecond))
}
