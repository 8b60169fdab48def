// Package server ties the engine together: a builder that freezes a routing
// table, a listener whose accept loop feeds connections to a fixed worker
// pool, and the per-connection dispatch path.
package server

import (
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/aughey/crag-web/internal/handler"
	"github.com/aughey/crag-web/internal/pool"
	"github.com/aughey/crag-web/internal/request"
	"github.com/aughey/crag-web/internal/response"
)

var (
	ErrNoErrorHandler        = errors.New("no error handler registered")
	ErrDuplicateErrorHandler = errors.New("error handler already registered")
	ErrReservedKey           = errors.New("register the fallback with RegisterErrorHandler")
)

// unidentifiedKey is where the fallback handler lives in the frozen table.
var unidentifiedKey = request.Key{Method: request.Unidentified}

// routingTable maps request identities to handlers. Frozen at Finalize and
// shared read-only by every worker, so lookups need no locking.
type routingTable struct {
	handlers map[request.Key]handler.Handler
}

// lookup returns the handler for key, falling back to the unidentified
// entry. Finalize guarantees the fallback is present.
func (t *routingTable) lookup(key request.Key) handler.Handler {
	if h, ok := t.handlers[key]; ok {
		return h
	}
	return t.handlers[unidentifiedKey]
}

// Builder accumulates routes before the server exists. Registration errors
// are held and surfaced by Finalize so calls can chain.
type Builder struct {
	handlers map[request.Key]handler.Handler
	log      zerolog.Logger
	err      error
}

func Build() *Builder {
	return &Builder{
		handlers: map[request.Key]handler.Handler{},
		log:      zerolog.Nop(),
	}
}

// Logger sets the logger the server and its pool report through.
func (b *Builder) Logger(log zerolog.Logger) *Builder {
	b.log = log
	return b
}

// Register maps a route key to h. Registering the same key again replaces
// the previous handler.
func (b *Builder) Register(key request.Key, h handler.Handler) *Builder {
	if key.Method == request.Unidentified {
		if b.err == nil {
			b.err = ErrReservedKey
		}
		return b
	}
	b.handlers[key] = h
	return b
}

// RegisterErrorHandler installs the fallback invoked when no route matches.
// At most one may be registered.
func (b *Builder) RegisterErrorHandler(h handler.Handler) *Builder {
	if _, ok := b.handlers[unidentifiedKey]; ok {
		if b.err == nil {
			b.err = ErrDuplicateErrorHandler
		}
		return b
	}
	b.handlers[unidentifiedKey] = h
	return b
}

// Finalize resolves and binds addr, starts the worker pool, and freezes the
// routing table. Any construction failure (held registration error, missing
// fallback, bad address, bind failure, invalid pool size) returns before
// anything is serving.
func (b *Builder) Finalize(addr string, poolSize int) (*Server, error) {
	if b.err != nil {
		return nil, b.err
	}
	if _, ok := b.handlers[unidentifiedKey]; !ok {
		return nil, ErrNoErrorHandler
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("binding %s: %w", addr, err)
	}

	workers, err := pool.New(poolSize, b.log)
	if err != nil {
		listener.Close()
		return nil, err
	}

	return &Server{
		listener: listener,
		pool:     workers,
		table:    &routingTable{handlers: b.handlers},
		log:      b.log,
	}, nil
}

// Server owns the listening socket and the worker pool. Connections have no
// read or write deadline, so a stalled client holds its worker slot until
// its I/O completes; that is a known limitation of this engine.
type Server struct {
	listener net.Listener
	pool     *pool.Pool
	table    *routingTable
	log      zerolog.Logger
	closed   atomic.Bool
}

// Addr reports the bound listener address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Run accepts connections and hands each to the pool; it is the sole
// producer of work. It returns nil after Close, and an error on any
// non-transient accept failure, which is fatal to the whole server.
func (s *Server) Run() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}
		if !s.pool.Execute(func() { s.handle(conn) }) {
			// Raced with Close; nothing will serve this connection.
			conn.Close()
		}
	}
}

// Close stops the listener and shuts the pool down after it drains. Safe to
// call more than once.
func (s *Server) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	err := s.listener.Close()
	s.pool.Shutdown()
	return err
}

// handle runs one connection end to end: read, parse, route, invoke,
// serialize, write. Every failure short-circuits to a fixed 500 and the
// connection is always closed.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	start := time.Now()
	remoteHost, _, _ := net.SplitHostPort(conn.RemoteAddr().String())

	req, err := request.ReadRequest(conn)
	if err != nil {
		s.fail(conn, remoteHost, start, fmt.Errorf("parsing request: %w", err))
		return
	}

	resp, err := s.invoke(req)
	if err != nil {
		s.fail(conn, remoteHost, start, fmt.Errorf("%s %s: %w", req.Method, req.Path, err))
		return
	}

	if _, err := conn.Write(resp.Bytes()); err != nil {
		s.log.Error().
			Str("remote", remoteHost).
			Str("method", req.Method.String()).
			Str("target", req.Path).
			Dur("elapsed", time.Since(start)).
			Err(err).
			Msg("writing response")
		return
	}

	evt := s.log.Info().
		Str("remote", remoteHost).
		Str("method", req.Method.String()).
		Str("target", req.Path).
		Int("status", int(resp.Status)).
		Dur("elapsed", time.Since(start))
	if msg := resp.Message(); resp.Status == response.NOT_FOUND && msg != "" {
		evt = evt.Str("detail", msg)
	}
	evt.Msg("request served")
}

// invoke looks the request up and runs its handler, converting a handler
// panic into an error so one connection cannot take down its worker.
func (s *Server) invoke(req request.Request) (resp response.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return s.table.lookup(req.Key())(req)
}

// fail is the error boundary: best-effort fixed 500, then the deferred
// close tears the connection down.
func (s *Server) fail(conn net.Conn, remote string, start time.Time, err error) {
	s.log.Error().
		Str("remote", remote).
		Dur("elapsed", time.Since(start)).
		Err(err).
		Msg("connection failed")
	_, _ = conn.Write(response.InternalServerError().Bytes())
}
