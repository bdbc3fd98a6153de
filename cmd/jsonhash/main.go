package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jacoelho/jsonhash/internal/config"
	"github.com/jacoelho/jsonhash/internal/exit"
	"github.com/jacoelho/jsonhash/internal/logger"
	"github.com/jacoelho/jsonhash/internal/metrics"
	"github.com/jacoelho/jsonhash/internal/runner"
	"github.com/jacoelho/jsonhash/internal/server"
)

func main() {
	exitCode := run()
	os.Exit(exitCode)
}

func run() int {
	cfg, exitResult := config.Parse(os.Args)
	if exitResult != nil {
		exitResult.Print()
		return exitResult.ExitCode
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := logger.New(cfg.LoggerConfig())
	m := metrics.New()

	engine, err := runner.LoadEngine(ctx, cfg, log, m)
	if err != nil {
		exitResult = exit.Errorf("Error: %v\n", err)
		exitResult.Print()
		return exitResult.ExitCode
	}

	if cfg.Serving() {
		s := server.New(engine,
			server.WithLogger(log),
			server.WithMetrics(m),
			server.WithRateLimit(cfg.RateLimit),
		)
		if err := s.ListenAndServe(ctx, cfg.ServeAddr); err != nil {
			exitResult = exit.Errorf("Error: %v\n", err)
			exitResult.Print()
			return exitResult.ExitCode
		}
		return exit.CodeOK
	}

	return runner.New(cfg, engine, runner.WithLogger(log)).Run(ctx)
}
