package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/mariwald/rsvpd/internal/engine"
	"github.com/mariwald/rsvpd/internal/logger"
	"github.com/mariwald/rsvpd/internal/ratelimiter"
	"github.com/mariwald/rsvpd/pkg/metrics"
)

// Config carries the transport-level settings of the RSVP server.
type Config struct {
	// Port to listen on.
	Port string

	// MaxConnections bounds concurrently served connections. 0 = unlimited.
	MaxConnections int

	// ReadTimeout bounds reading one request payload.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing one response.
	WriteTimeout time.Duration

	// RateLimit is the sustained requests-per-second budget across all
	// connections. 0 = unlimited.
	RateLimit uint

	// RateBurst is the token bucket capacity. Defaults to 2x RateLimit.
	RateBurst uint

	// ShutdownTimeout bounds the drain of in-flight handlers once the
	// listener is closed.
	ShutdownTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "7777"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.RateBurst == 0 {
		c.RateBurst = c.RateLimit * 2
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
}

// RSVPServer accepts connections and hands each request to the shared
// engine. One goroutine serves each connection; the engine is the only
// shared state and provides its own locking.
type RSVPServer struct {
	config   Config
	listener net.Listener
	engine   *engine.Engine
	limiter  *ratelimiter.RateLimiter
	metrics  *metrics.CommandMetrics

	// connSem bounds concurrent connections when MaxConnections > 0.
	connSem chan struct{}

	// wg tracks in-flight connection handlers so shutdown can drain them
	// before shared state is torn down.
	wg sync.WaitGroup
}

// New creates a server around the shared engine. Metrics may be nil.
func New(config Config, eng *engine.Engine, m *metrics.CommandMetrics) *RSVPServer {
	config.applyDefaults()

	s := &RSVPServer{
		config:  config,
		engine:  eng,
		limiter: ratelimiter.New(config.RateLimit, config.RateBurst),
		metrics: m,
	}
	if config.MaxConnections > 0 {
		s.connSem = make(chan struct{}, config.MaxConnections)
	}
	return s
}

// Serve listens and accepts until the context is cancelled, then waits for
// every in-flight handler to finish before returning. State teardown is the
// caller's job, after Serve returns.
func (s *RSVPServer) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}

	s.listener = listener
	logger.Info("RSVP server listening on port %s", s.config.Port)

	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		tcpConn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				logger.Debug("Listener closed, draining in-flight handlers")
				return s.drain()
			default:
				logger.Debug("Error accepting connection: %v", err)
				continue
			}
		}

		if s.connSem != nil {
			select {
			case s.connSem <- struct{}{}:
			case <-ctx.Done():
				tcpConn.Close()
				return s.drain()
			}
		}

		c := s.newConn(tcpConn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.releaseSlot()
			c.serve(ctx)
		}()
	}
}

// drain waits for in-flight handlers to finish, giving up after the
// configured shutdown timeout so a wedged connection cannot hold up
// process exit.
func (s *RSVPServer) drain() error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(s.config.ShutdownTimeout):
		return fmt.Errorf("shutdown timed out after %v with handlers still in flight", s.config.ShutdownTimeout)
	}
}

func (s *RSVPServer) releaseSlot() {
	if s.connSem != nil {
		<-s.connSem
	}
}

func (s *RSVPServer) newConn(tcpConn net.Conn) *conn {
	return &conn{
		server: s,
		conn:   tcpConn,
	}
}

// Addr returns the listener address once Serve has bound it, else nil.
// Useful when the configured port is 0 (ephemeral).
func (s *RSVPServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener. In-flight handlers keep running; Serve returns
// once they have drained.
func (s *RSVPServer) Stop() error {
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}
