package logging

import (
	"context"
	"testing"
	"time"

	"github.com/fyrsmithlabs/posturefix/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewSampledCore_Disabled(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	assert.Equal(t, core, newSampledCore(core, SamplingConfig{Enabled: false}))
}

func TestNewSampledCore_ErrorsNeverSampled(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	sampled := newSampledCore(core, SamplingConfig{
		Enabled: true,
		Tick:    config.Duration(time.Minute),
		Levels:  DefaultLevelSamplingConfig(),
	})
	logger := &Logger{zap: zap.New(sampled)}

	for i := 0; i < 200; i++ {
		logger.Error(context.Background(), "tool failed")
	}

	assert.Len(t, observed.FilterMessage("tool failed").All(), 200)
}

func TestNewSampledCore_InfoSampled(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	sampled := newSampledCore(core, SamplingConfig{
		Enabled: true,
		Tick:    config.Duration(time.Minute),
		Levels: map[zapcore.Level]LevelSamplingConfig{
			zapcore.InfoLevel: {Initial: 5, Thereafter: 0},
		},
	})
	logger := &Logger{zap: zap.New(sampled)}

	for i := 0; i < 50; i++ {
		logger.Info(context.Background(), "repair applied")
		logger.Warn(context.Background(), "unsampled warn")
	}

	assert.Len(t, observed.FilterMessage("repair applied").All(), 5)
	assert.Len(t, observed.FilterMessage("unsampled warn").All(), 50, "levels without a rate pass through")
}

func TestConfig_Validate(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Format = "xml"
	assert.ErrorContains(t, cfg.Validate(), "format must be")

	cfg = NewDefaultConfig()
	cfg.Fields = map[string]string{"": "x"}
	assert.ErrorContains(t, cfg.Validate(), "field key cannot be empty")
}

func TestFromSettings(t *testing.T) {
	cfg, err := FromSettings(config.LoggingConfig{Level: "trace", Format: "json", Sampling: true})
	assert.NoError(t, err)
	assert.Equal(t, TraceLevel, cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.True(t, cfg.Sampling.Enabled)

	_, err = FromSettings(config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}
