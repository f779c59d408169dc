package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/posturefix/internal/bootparam"
	"github.com/fyrsmithlabs/posturefix/internal/config"
	"github.com/fyrsmithlabs/posturefix/internal/logging"
	"github.com/fyrsmithlabs/posturefix/internal/repair"
	"github.com/fyrsmithlabs/posturefix/internal/telemetry"
)

const instrumentationName = "github.com/fyrsmithlabs/posturefix"

// application wires configuration, observability and the repair engine.
type application struct {
	cfg       *config.Config
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
	editor    *bootparam.Editor
	engine    *repair.Engine
	gatherer  *prometheus.Registry
}

func newApplication(ctx context.Context, configPath string, editorOpts ...bootparam.Option) (*application, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	telCfg := telemetry.FromSettings(cfg.Telemetry, version)
	telCfg.Logs.Enabled = cfg.Logging.OTEL
	tel, err := telemetry.New(ctx, telCfg)
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}

	logCfg, err := logging.FromSettings(cfg.Logging)
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	if h := tel.Health(); h.Degraded {
		logger.Warn(ctx, "telemetry degraded", zap.Error(h.LastErr))
	}

	gatherer := prometheus.NewRegistry()
	metrics := repair.NewMetrics(gatherer)

	opts := append([]bootparam.Option{
		bootparam.WithTool(cfg.Bootloader.Tool),
		bootparam.WithKernel(cfg.Bootloader.Kernel),
		bootparam.WithTimeout(cfg.Bootloader.Timeout),
		bootparam.WithLogger(logger.Named("bootparam")),
		bootparam.WithInvocationHook(metrics.ObserveTool),
	}, editorOpts...)
	editor := bootparam.NewEditor(opts...)

	registry, err := repair.Build(editor)
	if err != nil {
		return nil, fmt.Errorf("building repair registry: %w", err)
	}

	engine := repair.NewEngine(registry,
		repair.WithLogger(logger.Named("repair")),
		repair.WithTracer(tel.Tracer(instrumentationName)),
		repair.WithMeter(tel.Meter(instrumentationName)),
		repair.WithMetrics(metrics),
	)

	return &application{
		cfg:       cfg,
		logger:    logger,
		telemetry: tel,
		editor:    editor,
		engine:    engine,
		gatherer:  gatherer,
	}, nil
}

// close writes the metrics textfile, flushes telemetry and syncs the logger.
func (a *application) close(ctx context.Context) error {
	var errs []error
	if path := a.cfg.Metrics.TextfilePath; path != "" {
		if err := prometheus.WriteToTextfile(path, a.gatherer); err != nil {
			errs = append(errs, fmt.Errorf("writing metrics textfile: %w", err))
		}
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
	}
	if err := a.logger.Sync(); err != nil {
		errs = append(errs, fmt.Errorf("logger sync: %w", err))
	}
	return errors.Join(errs...)
}
