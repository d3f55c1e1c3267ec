package wire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	usecase "user-wire-service/internal/usecase/user"
	"user-wire-service/pkg/logger"
)

// headGrace bounds the wait for the rest of a head that filled a whole read.
const headGrace = 100 * time.Millisecond

// Recorder counts handled requests by operation and status.
type Recorder interface {
	Record(ctx context.Context, operation string, status int)
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, string, int) {}

// HandlerConfig bounds how a connection is read.
type HandlerConfig struct {
	ReadBufferBytes int           // size of each read from the socket
	MaxRequestBytes int           // hard cap on head plus body
	IOTimeout       time.Duration // per-connection deadline; zero means none
}

// Handler owns one accepted connection from first read to close.
type Handler struct {
	uc       usecase.Operations
	recorder Recorder
	cfg      HandlerConfig
	log      *zap.Logger
}

// NewHandler creates a connection handler. A nil recorder disables counting.
func NewHandler(uc usecase.Operations, recorder Recorder, cfg HandlerConfig, log *zap.Logger) *Handler {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if cfg.ReadBufferBytes <= 0 {
		cfg.ReadBufferBytes = 1024
	}
	if cfg.MaxRequestBytes < cfg.ReadBufferBytes {
		cfg.MaxRequestBytes = cfg.ReadBufferBytes
	}
	return &Handler{uc: uc, recorder: recorder, cfg: cfg, log: log}
}

// ServeConn reads one request from conn, answers it and closes conn.
// Panics are contained here so one bad connection cannot stop the listener.
func (h *Handler) ServeConn(ctx context.Context, conn net.Conn) {
	ctx, _ = logger.WithConnection(ctx, conn.RemoteAddr().String())
	log := logger.WithContext(ctx, h.log)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic recovered in connection handler", zap.Any("panic", r), zap.Stack("stack"))
		}
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Debug("failed to close connection", zap.Error(err))
		}
	}()

	var deadline time.Time
	if h.cfg.IOTimeout > 0 {
		deadline = time.Now().Add(h.cfg.IOTimeout)
		if err := conn.SetDeadline(deadline); err != nil {
			log.Warn("failed to set connection deadline", zap.Error(err))
		}
	}

	raw, err := h.readRequest(conn, deadline)
	if err != nil {
		log.Warn("failed to read request", zap.Int("bytes", len(raw)), zap.Error(err))
		return
	}

	req := Decode(raw)
	op := Route(req.Method, req.Path)
	ctx = logger.WithOperation(ctx, string(op))
	log = logger.WithContext(ctx, h.log)

	status, payload := h.dispatch(ctx, op, req)

	if _, err := conn.Write(Encode(status, payload)); err != nil {
		log.Error("failed to write response", zap.Int("status", int(status)), zap.Error(err))
		return
	}

	h.recorder.Record(ctx, string(op), int(status))

	log.Info("request handled",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status", int(status)),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// dispatch runs the routed operation and maps its outcome onto a status.
func (h *Handler) dispatch(ctx context.Context, op Operation, req Request) (Status, string) {
	var out usecase.Outcome

	switch op {
	case OpCreate:
		out = h.uc.Create(ctx, req.Body)
	case OpReadOne:
		out = h.uc.ReadOne(ctx, IDSegment(req.Path))
	case OpReadAll:
		out = h.uc.ReadAll(ctx)
	case OpUpdate:
		out = h.uc.Update(ctx, IDSegment(req.Path), req.Body)
	case OpDelete:
		out = h.uc.Delete(ctx, IDSegment(req.Path))
	default:
		return StatusNotFound, MsgRouteNotFound
	}

	return statusFor(out.Kind), out.Payload
}

func statusFor(kind usecase.Kind) Status {
	switch kind {
	case usecase.KindSuccess:
		return StatusOK
	case usecase.KindNotFound:
		return StatusNotFound
	default:
		return StatusInternalServerError
	}
}

// readRequest answers what the first read brings unless more is clearly on the way:
//   - a head with a Content-Length whose body has not fully arrived keeps reading
//     under the connection deadline;
//   - a read that filled the whole chunk without a head separator keeps reading,
//     but only for headGrace, after which whatever arrived is the request.
//
// A short read without a separator is a complete request, so a client that sends
// a malformed head and holds the socket open still gets an answer. EOF after some
// data ends the request; reads never go past MaxRequestBytes.
func (h *Handler) readRequest(conn net.Conn, deadline time.Time) ([]byte, error) {
	buf := make([]byte, 0, h.cfg.ReadBufferBytes)
	chunk := make([]byte, h.cfg.ReadBufferBytes)
	graced := false

	for {
		n, err := conn.Read(chunk)
		buf = append(buf, chunk[:n]...)

		if len(buf) >= h.cfg.MaxRequestBytes {
			return buf[:h.cfg.MaxRequestBytes], nil
		}
		if requestComplete(buf) {
			return buf, nil
		}
		if err != nil {
			if len(buf) > 0 && (errors.Is(err, io.EOF) || graced && isTimeout(err)) {
				return buf, nil
			}
			if len(buf) == 0 && errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("connection closed before any request data: %w", err)
			}
			return buf, err
		}

		if bytes.Contains(buf, headerSeparator) {
			// declared body still pending
			if graced {
				_ = conn.SetReadDeadline(deadline)
				graced = false
			}
			continue
		}
		if n < len(chunk) {
			return buf, nil
		}
		if !graced {
			grace := time.Now().Add(headGrace)
			if !deadline.IsZero() && deadline.Before(grace) {
				grace = deadline
			}
			_ = conn.SetReadDeadline(grace)
			graced = true
		}
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// requestComplete reports whether buf holds a full head and any declared body.
func requestComplete(buf []byte) bool {
	idx := bytes.Index(buf, headerSeparator)
	if idx < 0 {
		return false
	}
	n, ok := contentLength(buf[:idx])
	if !ok {
		return true
	}
	return len(buf)-idx-len(headerSeparator) >= n
}
