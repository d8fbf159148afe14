// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/jamhost/jamhost/internal/config"
	"github.com/jamhost/jamhost/internal/logging"
	"github.com/jamhost/jamhost/internal/observability"
	"github.com/jamhost/jamhost/internal/plugin/lifecycle"
	"github.com/jamhost/jamhost/internal/plugin/probe"
	"github.com/jamhost/jamhost/internal/plugin/scan"
	"github.com/jamhost/jamhost/internal/xdg"
	"github.com/jamhost/jamhost/pkg/errutil"
)

const serviceName = "jamhost"

// CodeExecutableUnknown is returned when the host cannot locate its own binary.
const CodeExecutableUnknown = "HOST_EXECUTABLE_UNKNOWN"

// hostEnv is the ambient state shared by the host commands.
type hostEnv struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	deps    *Deps
}

// setup loads configuration and builds the logger. A configuration error is
// logged with a default logger before it is returned.
func setup(cmd *cobra.Command, root *rootConfig, deps *Deps) (*hostEnv, error) {
	deps = deps.withDefaults()

	cfg, err := loadConfig(cmd, root.configFile, deps)
	if err != nil {
		logger := logging.Setup(serviceName, version, config.DefaultLogFormat, slog.LevelInfo, cmd.ErrOrStderr())
		errutil.LogError(cmd.Context(), logger, "invalid configuration", err)
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	logger := logging.Setup(serviceName, version, cfg.LogFormat, level, cmd.ErrOrStderr()).
		With("run_id", ulid.Make().String())

	return &hostEnv{
		cfg:     cfg,
		logger:  logger,
		metrics: observability.NewMetrics(),
		deps:    deps,
	}, nil
}

// loadConfig reads path, or config.yaml from the XDG config directory
// when path is empty.
func loadConfig(cmd *cobra.Command, path string, deps *Deps) (*config.Config, error) {
	if path == "" {
		// Without a config directory there is simply no default file.
		if dir, err := deps.ConfigDir(); err == nil {
			path, err = xdg.DefaultConfigFile(dir)
			if err != nil {
				return nil, oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
			}
		}
	}
	return config.Load(cmd.Flags(), path)
}

// openScanner locates the host executable and lists its directory.
func (e *hostEnv) openScanner() (*scan.Scanner, error) {
	exe, err := e.deps.Executable()
	if err != nil {
		return nil, oops.Code(CodeExecutableUnknown).Wrapf(err, "locate host executable")
	}
	s, err := scan.Open(exe, scan.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	e.logger.Debug("scanning plugin directory", "dir", s.Dir())
	return s, nil
}

// finish records the run outcome and writes the metrics textfile if one is
// configured. Failing to write metrics never changes the outcome.
func (e *hostEnv) finish(ctx context.Context, err error) {
	e.metrics.FinishRun(err == nil, e.deps.Now())
	if e.cfg.MetricsTextfile == "" {
		return
	}
	if werr := e.metrics.WriteTextfile(e.cfg.MetricsTextfile); werr != nil {
		errutil.LogWarn(ctx, e.logger, "failed to write metrics", werr)
	}
}

// runHost discovers the control plugin and drives it through its lifecycle.
func runHost(cmd *cobra.Command, root *rootConfig, deps *Deps) error {
	env, err := setup(cmd, root, deps)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	result, err := env.run(ctx)
	env.finish(ctx, err)
	if err != nil {
		errutil.LogError(ctx, env.logger, "run failed", err)
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Control plugin result: %s\n", result.Response)
	return nil
}

func (e *hostEnv) run(ctx context.Context) (lifecycle.Result, error) {
	s, err := e.openScanner()
	if err != nil {
		return lifecycle.Result{}, err
	}

	prober := probe.New(e.deps.Runtime, probe.WithLogger(e.logger), probe.WithMetrics(e.metrics))
	sel, err := prober.Select(ctx, s.Candidates())
	if err != nil {
		return lifecycle.Result{}, err
	}

	mgr := lifecycle.New(e.deps.Runtime, sel,
		lifecycle.WithLogger(e.logger.With("plugin", sel.Candidate().Name)),
		lifecycle.WithMetrics(e.metrics))
	return mgr.Run(ctx)
}
