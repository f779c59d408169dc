// internal/logging/otel.go
package logging

import (
	"fmt"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

// newDualCore creates core with stderr and/or OTEL outputs.
func newDualCore(cfg *Config, otelProvider log.LoggerProvider) (zapcore.Core, error) {
	cores := make([]zapcore.Core, 0, 2)

	if cfg.Output.Stderr {
		writer := zapcore.Lock(zapcore.AddSync(os.Stderr))
		cores = append(cores, zapcore.NewCore(newEncoder(cfg.Format), writer, cfg.Level))
	}

	if cfg.Output.OTEL && otelProvider != nil {
		bridge := otelzap.NewCore("github.com/fyrsmithlabs/posturefix",
			otelzap.WithLoggerProvider(otelProvider),
		)
		// The bridge defers to the SDK, which enables every severity.
		leveled, err := zapcore.NewIncreaseLevelCore(bridge, cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("leveling otel core: %w", err)
		}
		cores = append(cores, leveled)
	}

	if len(cores) == 0 {
		return nil, fmt.Errorf("at least one output must be enabled and available")
	}

	core := cores[0]
	if len(cores) > 1 {
		core = zapcore.NewTee(cores...)
	}

	return newSampledCore(core, cfg.Sampling), nil
}
