// Command webpool serves two static pages, handing every accepted
// connection to a fixed-size worker pool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"

	workerpool "github.com/azargarov/webpool"
	"github.com/azargarov/webpool/internal/config"
	"github.com/azargarov/webpool/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var (
		configFile = flag.String("config", "", "config file (YAML or JSON)")
		addr       = flag.String("addr", "", "listen address, overrides config")
		workers    = flag.Int("workers", 0, "number of pool workers, overrides config")
		docRoot    = flag.String("root", "", "directory holding index.html and 404.html, overrides config")
	)
	flag.Parse()

	if err := run(*configFile, *addr, *workers, *docRoot); err != nil {
		fmt.Fprintf(os.Stderr, "webpool: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, addr string, workers int, docRoot string) error {
	cfg := config.Default()
	if configFile != "" {
		var err error
		if cfg, err = config.LoadFile(configFile); err != nil {
			return err
		}
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if workers != 0 {
		cfg.Workers = workers
	}
	if docRoot != "" {
		cfg.DocRoot = docRoot
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := lg.FromContext(ctx)

	opts := []workerpool.Option{
		workerpool.WithContext(ctx),
		workerpool.WithQueueCapacity(cfg.QueueCapacity),
		workerpool.WithLogClaims(cfg.LogClaims),
		workerpool.WithInternalErrorHandler(func(err error) {
			logger.Error("pool internal error", lg.Any("error", err))
		}),
	}
	if cfg.LockOSThread {
		opts = append(opts, workerpool.WithLockOSThread())
	}
	pool, err := workerpool.New(cfg.Workers, opts...)
	if err != nil {
		return err
	}

	srv := server.New(cfg, pool)
	serveErr := srv.ListenAndServe(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := pool.Shutdown(shutdownCtx); err != nil {
		logger.Warn("pool did not drain in time", lg.Any("error", err))
	}
	return serveErr
}
