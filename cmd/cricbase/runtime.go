package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/errgroup"

	"github.com/riskibarqy/cricbase/internal/app"
	"github.com/riskibarqy/cricbase/internal/config"
	"github.com/riskibarqy/cricbase/internal/observability"
	"github.com/riskibarqy/cricbase/internal/platform/logging"
	"github.com/riskibarqy/cricbase/internal/usecase"
)

// errIssuesFound makes verify exit non-zero without logging a failure.
var errIssuesFound = errors.New("integrity issues found")

// runtime carries what the root command prepares for its subcommands. The
// app is opened on first use so commands like --help never touch the database.
type runtime struct {
	out    io.Writer
	cfg    config.Config
	logger *logging.Logger

	open func(ctx context.Context, cfg config.Config, logger *logging.Logger) (*app.App, error)
	app  *app.App

	stopUptrace   func(context.Context) error
	stopPyroscope func() error
	pprof         *http.Server
}

func newRuntime(out io.Writer) *runtime {
	return &runtime{out: out, open: app.New, logger: logging.Default()}
}

// setup loads configuration and starts logging and observability.
func (rt *runtime) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	rt.cfg = cfg

	rt.logger = logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: cfg.ServiceName})
	logging.SetDefault(rt.logger)

	if rt.stopUptrace, err = observability.InitUptrace(cfg, rt.logger); err != nil {
		return fmt.Errorf("init uptrace: %w", err)
	}
	if rt.stopPyroscope, err = observability.InitPyroscope(cfg, rt.logger); err != nil {
		return fmt.Errorf("init pyroscope: %w", err)
	}
	if rt.pprof, err = observability.StartPprofServer(cfg, rt.logger); err != nil {
		return fmt.Errorf("start pprof: %w", err)
	}
	return nil
}

func (rt *runtime) App(ctx context.Context) (*app.App, error) {
	if rt.app != nil {
		return rt.app, nil
	}
	a, err := rt.open(ctx, rt.cfg, rt.logger)
	if err != nil {
		return nil, err
	}
	rt.app = a
	return a, nil
}

// shutdown stops observability and closes the database. It is safe to call
// when setup never ran.
func (rt *runtime) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var g errgroup.Group
	if rt.stopUptrace != nil {
		g.Go(func() error { return rt.stopUptrace(ctx) })
	}
	if rt.stopPyroscope != nil {
		g.Go(rt.stopPyroscope)
	}
	if rt.pprof != nil {
		g.Go(func() error { return observability.StopPprofServer(rt.pprof, rt.logger, 5*time.Second) })
	}
	if rt.app != nil {
		g.Go(rt.app.Close)
	}
	if err := g.Wait(); err != nil {
		rt.logger.Warn("shutdown incomplete", "error", err)
	}
	_ = rt.logger.Sync()
}

func (rt *runtime) writeJSON(v any) error {
	raw, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	raw = append(raw, '\n')
	_, err = rt.out.Write(raw)
	return err
}

// exitCode maps errors to process exit codes: 2 for bad input, 3 for an
// unavailable dependency, 4 when verify found issues and 1 otherwise.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, usecase.ErrInvalidInput), errors.Is(err, usecase.ErrNotFound):
		return 2
	case errors.Is(err, usecase.ErrDependencyUnavailable):
		return 3
	case errors.Is(err, errIssuesFound):
		return 4
	default:
		return 1
	}
}
