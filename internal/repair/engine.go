package repair

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/posturefix/internal/logging"
)

const instrumentationName = "github.com/fyrsmithlabs/posturefix/internal/repair"

// Result describes a completed execution.
type Result struct {
	Action    string
	Attribute string
	Mode      Mode
	RequestID string
	Duration  time.Duration
}

// Engine dispatches repairs to registry actions.
//
// Executions of the same action are serialized; different actions may run
// in parallel. Nothing is retried.
type Engine struct {
	registry *Registry
	logger   *logging.Logger
	tracer   trace.Tracer
	meter    metric.Meter
	metrics  *Metrics
	locks    map[ID]*sync.Mutex
	newID    func() string

	otelDuration metric.Float64Histogram
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *logging.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithTracer sets the tracer used for repair.execute spans.
func WithTracer(t trace.Tracer) EngineOption {
	return func(e *Engine) { e.tracer = t }
}

// WithMeter records an OpenTelemetry duration histogram alongside the
// Prometheus metrics.
func WithMeter(m metric.Meter) EngineOption {
	return func(e *Engine) { e.meter = m }
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an Engine over r.
func NewEngine(r *Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		registry: r,
		logger:   logging.NewNop(),
		tracer:   noop.NewTracerProvider().Tracer(instrumentationName),
		locks:    make(map[ID]*sync.Mutex, len(r.actions)),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	for _, a := range r.actions {
		e.locks[a.ID] = &sync.Mutex{}
	}

	if e.meter != nil {
		h, err := e.meter.Float64Histogram("posturefix.repair.duration",
			metric.WithDescription("Duration of repair executions"),
			metric.WithUnit("s"),
		)
		if err != nil {
			e.logger.Warn(context.Background(), "repair duration histogram unavailable", zap.Error(err))
		} else {
			e.otelDuration = h
		}
	}
	return e
}

// Registry returns the registry the engine dispatches to.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Execute runs the action with the given name.
//
// Unknown names fail with ErrNotFound and a nil Result. When the action runs
// and fails, the returned *Error carries the Kind and tool output, and the
// Result is still returned for its request ID and duration.
func (e *Engine) Execute(ctx context.Context, name string, mode Mode) (*Result, error) {
	ctx, span, res := e.begin(ctx, name, mode)
	defer span.End()

	action, err := e.registry.ByName(name)
	if err != nil {
		return nil, e.reject(ctx, span, actionUnknown, res, err)
	}
	return e.run(ctx, span, name, action, action.AttributeID, res)
}

// Repair runs the action that repairs attributeID.
//
// For attributes that honour it, value "undo" selects Revert regardless of
// mode. Known attributes without a remediation fail with ErrUnsupported;
// unknown identifiers fail with ErrNotFound.
func (e *Engine) Repair(ctx context.Context, attributeID string, mode Mode, value string) (*Result, error) {
	action, attr, lookupErr := e.registry.ByAttribute(attributeID)
	if lookupErr == nil && attr.UndoValue && value == UndoValue {
		mode = Revert
	}

	ctx, span, res := e.begin(ctx, attributeID, mode)
	defer span.End()

	if lookupErr != nil {
		label := actionUnknown
		if attr.ID != "" {
			label = actionNone
		}
		res.Attribute = attr.ID
		return nil, e.reject(ctx, span, label, res, lookupErr)
	}
	return e.run(ctx, span, attributeID, action, attr.ID, res)
}

func (e *Engine) begin(ctx context.Context, key string, mode Mode) (context.Context, trace.Span, *Result) {
	res := &Result{Mode: mode, RequestID: e.newID()}
	ctx = logging.WithRequestID(ctx, res.RequestID)
	ctx, span := e.tracer.Start(ctx, "repair.execute", trace.WithAttributes(
		attribute.String("repair.key", key),
		attribute.String("repair.mode", mode.String()),
		attribute.String("request.id", res.RequestID),
	))
	return ctx, span, res
}

func (e *Engine) reject(ctx context.Context, span trace.Span, label string, res *Result, err error) error {
	kind := KindOf(err)
	span.SetAttributes(attribute.String("repair.result", string(kind)))
	e.metrics.observe(label, res.Mode, err)

	ctx = logging.WithRepair(ctx, &logging.Repair{Attribute: res.Attribute, Mode: res.Mode.String()})
	if kind == KindUnsupported {
		e.logger.Info(ctx, "repair not supported", zap.Error(err))
		return err
	}
	span.SetStatus(codes.Error, err.Error())
	e.logger.Warn(ctx, "repair item not found", zap.Error(err))
	return err
}

func (e *Engine) run(ctx context.Context, span trace.Span, key string, action Action, attributeID string, res *Result) (*Result, error) {
	res.Action = action.Name
	res.Attribute = attributeID
	span.SetAttributes(
		attribute.String("repair.action", action.Name),
		attribute.String("repair.attribute", attributeID),
	)
	ctx = logging.WithRepair(ctx, &logging.Repair{
		Action:    action.Name,
		Attribute: attributeID,
		Mode:      res.Mode.String(),
	})

	mu := e.locks[action.ID]
	mu.Lock()
	defer mu.Unlock()

	e.logger.Info(ctx, "repair started")

	start := time.Now()
	var err error
	if res.Mode == Revert {
		err = action.Handler.Revert(ctx)
	} else {
		err = action.Handler.Apply(ctx)
	}
	res.Duration = time.Since(start)

	e.metrics.observe(action.Name, res.Mode, err)
	e.metrics.observeDuration(action.Name, res.Mode, res.Duration)
	if e.otelDuration != nil {
		e.otelDuration.Record(ctx, res.Duration.Seconds(), metric.WithAttributes(
			attribute.String("action", action.Name),
			attribute.String("mode", res.Mode.String()),
			attribute.Bool("success", err == nil),
		))
	}

	if err != nil {
		rerr := classify(key, err)
		span.RecordError(rerr)
		span.SetStatus(codes.Error, string(rerr.Kind))
		span.SetAttributes(attribute.String("repair.result", string(rerr.Kind)))
		e.logger.Error(ctx, "repair failed",
			zap.String("kind", string(rerr.Kind)),
			zap.String("output", rerr.Output),
			zap.Duration("duration", res.Duration),
			zap.Error(err),
		)
		return res, rerr
	}

	span.SetAttributes(attribute.String("repair.result", resultSuccess))
	span.SetStatus(codes.Ok, "")
	e.logger.Info(ctx, "repair succeeded", zap.Duration("duration", res.Duration))
	return res, nil
}
