// Package config provides configuration loading for posturefix.
//
// Configuration is layered: hardcoded defaults, then an optional YAML file,
// then POSTUREFIX_* environment variables. See LoadWithFile for details.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds the complete posturefix configuration.
type Config struct {
	Bootloader BootloaderConfig `koanf:"bootloader"`
	Logging    LoggingConfig    `koanf:"logging"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	Metrics    MetricsConfig    `koanf:"metrics"`
}

// BootloaderConfig controls the external boot-parameter editor.
type BootloaderConfig struct {
	Tool    string        `koanf:"tool" validate:"required"`
	Kernel  string        `koanf:"kernel" validate:"required"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// LoggingConfig is the subset of logging settings exposed to operators.
type LoggingConfig struct {
	Level    string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format   string `koanf:"format" validate:"oneof=json console"`
	OTEL     bool   `koanf:"otel"`
	Sampling bool   `koanf:"sampling"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint" validate:"required_if=Enabled true"`
	Protocol     string  `koanf:"protocol" validate:"omitempty,oneof=grpc http/protobuf"`
	Insecure     bool    `koanf:"insecure"`
	ServiceName  string  `koanf:"service_name"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"gte=0,lte=1"`
}

// MetricsConfig controls Prometheus textfile export.
type MetricsConfig struct {
	TextfilePath string `koanf:"textfile_path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Bootloader: BootloaderConfig{
			Tool:    "grubby",
			Kernel:  "DEFAULT",
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "console",
			Sampling: false,
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			Endpoint:     "localhost:4317",
			Protocol:     "grpc",
			Insecure:     true,
			ServiceName:  "posturefix",
			SamplingRate: 1.0,
		},
	}
}

// Validate validates the configuration.
//
// Struct tags cover field-level rules; the remaining checks are
// cross-field constraints the tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if strings.ContainsAny(c.Bootloader.Tool, " \t") {
		return fmt.Errorf("bootloader tool must be a program name or path, got %q", c.Bootloader.Tool)
	}
	if strings.ContainsAny(c.Bootloader.Kernel, " \t=") {
		return fmt.Errorf("bootloader kernel selector contains invalid characters: %q", c.Bootloader.Kernel)
	}
	if c.Logging.OTEL && !c.Telemetry.Enabled {
		return errors.New("logging.otel requires telemetry.enabled")
	}

	return nil
}
