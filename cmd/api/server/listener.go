package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

const maxAcceptDelay = time.Second

// ConnHandler serves one accepted connection and closes it.
type ConnHandler interface {
	ServeConn(ctx context.Context, conn net.Conn)
}

// Listener accepts TCP connections and hands each one to a ConnHandler.
// By default connections are served one at a time in accept order.
type Listener struct {
	addr       string
	concurrent bool
	handler    ConnHandler
	log        *zap.Logger

	mu    sync.Mutex
	ln    net.Listener
	conns sync.WaitGroup
}

// NewListener creates a listener for addr. It does not bind until Listen.
func NewListener(addr string, concurrent bool, handler ConnHandler, log *zap.Logger) *Listener {
	return &Listener{
		addr:       addr,
		concurrent: concurrent,
		handler:    handler,
		log:        log,
	}
}

// Listen binds the address. A bind failure is fatal to startup.
func (l *Listener) Listen(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", l.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", l.addr, err)
	}

	l.mu.Lock()
	l.ln = ln
	l.mu.Unlock()

	l.log.Info("wire listener running",
		zap.String("address", ln.Addr().String()),
		zap.Bool("concurrent", l.concurrent),
	)
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Serve runs the accept loop until ctx is canceled or the listener is closed.
// Accept failures are logged and the loop keeps going.
func (l *Listener) Serve(ctx context.Context) error {
	l.mu.Lock()
	ln := l.ln
	l.mu.Unlock()
	if ln == nil {
		return errors.New("wire listener is not bound")
	}

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	// Connections outlive the accept loop so shutdown can drain them.
	connCtx := context.WithoutCancel(ctx)

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				l.log.Info("wire listener stopped")
				return nil
			}

			delay = nextAcceptDelay(delay)
			l.log.Warn("failed to accept connection", zap.Error(err), zap.Duration("retry_in", delay))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
			continue
		}
		delay = 0

		if !l.concurrent {
			l.handler.ServeConn(connCtx, conn)
			continue
		}

		l.conns.Add(1)
		go func() {
			defer l.conns.Done()
			l.handler.ServeConn(connCtx, conn)
		}()
	}
}

// Close stops accepting new connections.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	if err := l.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("failed to close wire listener: %w", err)
	}
	return nil
}

// Wait blocks until in-flight connections finish or ctx expires.
func (l *Listener) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("in-flight connections did not finish: %w", ctx.Err())
	}
}

func nextAcceptDelay(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	return min(d*2, maxAcceptDelay)
}
