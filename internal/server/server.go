// Package server implements the minimal HTTP/1.1 front end: it accepts
// TCP connections and hands each one to a worker pool as a job.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	boff "github.com/Andrej220/go-utils/backoff"
	lg "github.com/Andrej220/go-utils/zlog"

	workerpool "github.com/azargarov/webpool"
	"github.com/azargarov/webpool/internal/config"
)

const (
	acceptRetryInitial = 5 * time.Millisecond
	acceptRetryMax     = time.Second
)

// Submitter accepts jobs for asynchronous execution. *workerpool.Pool
// satisfies it.
type Submitter interface {
	Submit(job workerpool.Job) error
}

// Server accepts connections and dispatches each to a Submitter.
type Server struct {
	cfg    config.Config
	pool   Submitter
	routes []route

	mu sync.Mutex
	ln net.Listener
}

// New creates a server. cfg is expected to be validated.
func New(cfg config.Config, pool Submitter) *Server {
	return &Server{
		cfg:    cfg,
		pool:   pool,
		routes: defaultRoutes(cfg.SleepDelay),
	}
}

// ListenAndServe binds cfg.Addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Addr returns the bound listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts connections on ln until ctx is done, then closes ln and
// returns nil. Temporary accept errors are retried with backoff; any
// other accept error is returned.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	logger := lg.FromContext(ctx)
	logger.Info("server listening", lg.String("addr", ln.Addr().String()))

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	bo := boff.New(acceptRetryInitial, acceptRetryMax, time.Now().UnixNano())
	failing := false
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("server stopped", lg.String("addr", ln.Addr().String()))
				return nil
			}
			if !isTemporary(err) {
				return fmt.Errorf("server: accept: %w", err)
			}
			failing = true
			delay := bo.Next()
			logger.Warn("accept failed; backing off",
				lg.String("sleep", delay.String()),
				lg.Any("error", err),
			)
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
			}
			continue
		}
		if failing {
			bo = boff.New(acceptRetryInitial, acceptRetryMax, time.Now().UnixNano())
			failing = false
		}

		if err := s.pool.Submit(func() { s.handleConn(ctx, conn) }); err != nil {
			logger.Error("submit failed; dropping connection",
				lg.String("remote", conn.RemoteAddr().String()),
				lg.Any("error", err),
			)
			_ = conn.Close()
		}
	}
}

func isTemporary(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	// EMFILE and friends only report Temporary.
	var te interface{ Temporary() bool }
	return errors.As(err, &te) && te.Temporary()
}
