// Package logging provides structured logging for posturefix.
//
// # Overview
//
// The package wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Dual output (stderr + OpenTelemetry)
//   - Automatic context field injection (trace_id, request.id, repair.*)
//   - Level-aware sampling (errors never sampled)
//
// Stdout is reserved for command output, so console logs go to stderr.
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithRequestID(ctx, "3f1c9a2e-6b0d-4e59-9f58-1b6c1d0e7a42")
//	ctx = logging.WithRepair(ctx, &logging.Repair{Action: "kernel-lockdown", Mode: "apply"})
//	logger.Info(ctx, "repair applied", zap.Duration("duration", d))
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	svc := NewThing(tl.Logger)
//	tl.AssertLogged(t, zapcore.InfoLevel, "repair applied")
package logging
