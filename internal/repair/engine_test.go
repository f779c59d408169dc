package repair

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/posturefix/internal/bootparam"
	"github.com/fyrsmithlabs/posturefix/internal/logging"
	"github.com/fyrsmithlabs/posturefix/internal/telemetry"
)

// fakeToggler keeps kernel arguments in memory.
type fakeToggler struct {
	mu      sync.Mutex
	args    map[string]bool
	calls   []string
	err     error
	running atomic.Int32
	maxSeen atomic.Int32
	delay   time.Duration
}

func newFakeToggler(args ...string) *fakeToggler {
	f := &fakeToggler{args: map[string]bool{}}
	for _, a := range args {
		f.args[a] = true
	}
	return f
}

func (f *fakeToggler) Toggle(_ context.Context, enable bool, argument string) (bool, error) {
	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		peak := f.maxSeen.Load()
		if n <= peak || f.maxSeen.CompareAndSwap(peak, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("%t:%s", enable, argument))
	if f.err != nil {
		return false, f.err
	}
	if f.args[argument] == enable {
		return false, nil
	}
	if enable {
		f.args[argument] = true
	} else {
		delete(f.args, argument)
	}
	return true, nil
}

func (f *fakeToggler) has(argument string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.args[argument]
}

func newTestEngine(t *testing.T, tg Toggler, opts ...EngineOption) *Engine {
	t.Helper()
	return NewEngine(mustBuild(t, tg), opts...)
}

func TestEngine_DoThenUndo(t *testing.T) {
	tg := newFakeToggler()
	e := newTestEngine(t, tg)
	ctx := context.Background()

	res, err := e.Execute(ctx, "kernel-lockdown", Apply)
	require.NoError(t, err)
	assert.Equal(t, "kernel-lockdown", res.Action)
	assert.Equal(t, AttrKernelLockdown, res.Attribute)
	assert.Equal(t, Apply, res.Mode)
	assert.NotEmpty(t, res.RequestID)
	assert.True(t, tg.has(LockdownArgument))

	res, err = e.Execute(ctx, "kernel-lockdown", Revert)
	require.NoError(t, err)
	assert.Equal(t, Revert, res.Mode)
	assert.False(t, tg.has(LockdownArgument))
}

func TestEngine_ApplyTwiceIsIdempotent(t *testing.T) {
	tg := newFakeToggler()
	e := newTestEngine(t, tg)

	_, err := e.Execute(context.Background(), "kernel-lockdown", Apply)
	require.NoError(t, err)
	_, err = e.Execute(context.Background(), "kernel-lockdown", Apply)
	require.NoError(t, err)
	assert.True(t, tg.has(LockdownArgument))
	assert.Len(t, tg.args, 1)
}

func TestEngine_RevertNeverApplied(t *testing.T) {
	e := newTestEngine(t, newFakeToggler())

	_, err := e.Execute(context.Background(), "iommu", Revert)
	assert.NoError(t, err)
}

func TestEngine_ExecuteNotFound(t *testing.T) {
	tg := newFakeToggler()
	e := newTestEngine(t, tg)

	res, err := e.Execute(context.Background(), "not-a-real-repair", Apply)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrNotFound)

	var re *Error
	require.True(t, errors.As(err, &re))
	assert.Equal(t, KindNotFound, re.Kind)
	assert.Equal(t, "not-a-real-repair", re.Key)
	assert.Equal(t, MsgNotFound, re.Message)
	assert.Empty(t, tg.calls)
}

func TestEngine_RepairUnsupported(t *testing.T) {
	tg := newFakeToggler()
	e := newTestEngine(t, tg)

	res, err := e.Repair(context.Background(), AttrTPMVersion20, Apply, "")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, KindUnsupported, KindOf(err))
	assert.Empty(t, tg.calls)
}

func TestEngine_RepairTPM20Enabled(t *testing.T) {
	tg := newFakeToggler()
	e := newTestEngine(t, tg)

	res, err := e.Repair(context.Background(), "org.fwupd.hsi.Tpm20.Enabled", Apply, "")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Empty(t, tg.calls)
}

func TestEngine_RepairUnknownAttribute(t *testing.T) {
	e := newTestEngine(t, newFakeToggler())

	_, err := e.Repair(context.Background(), "org.example.NotAnAttribute", Apply, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEngine_RepairUndoValue(t *testing.T) {
	tests := []struct {
		name     string
		mode     Mode
		value    string
		wantMode Mode
		present  bool
	}{
		{"do without value applies", Apply, "", Apply, true},
		{"do with other value applies", Apply, "force", Apply, true},
		{"undo value reverts", Apply, "undo", Revert, false},
		{"undo mode reverts", Revert, "", Revert, false},
		{"value is case-sensitive", Apply, "UNDO", Apply, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tg := newFakeToggler()
			if tt.wantMode == Revert {
				tg.args[IOMMUArgument] = true
			}
			e := newTestEngine(t, tg)

			res, err := e.Repair(context.Background(), AttrIOMMU, tt.mode, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, res.Mode)
			assert.Equal(t, "iommu", res.Action)
			assert.Equal(t, tt.present, tg.has(IOMMUArgument))
		})
	}
}

func TestEngine_UndoValueScopedPerAttribute(t *testing.T) {
	calls := 0
	h := handlerFunc{
		apply:  func(context.Context) error { calls++; return nil },
		revert: func(context.Context) error { t.Fatal("revert must not run"); return nil },
	}
	r, err := newRegistry(
		[]Action{{ID: KernelLockdown, Name: "plain", AttributeID: "x", Handler: h}},
		[]Attribute{{ID: "x", Action: KernelLockdown}},
	)
	require.NoError(t, err)
	e := NewEngine(r)

	res, err := e.Repair(context.Background(), "x", Apply, "undo")
	require.NoError(t, err)
	assert.Equal(t, Apply, res.Mode)
	assert.Equal(t, 1, calls)
}

type handlerFunc struct {
	apply, revert func(context.Context) error
}

func (h handlerFunc) Apply(ctx context.Context) error  { return h.apply(ctx) }
func (h handlerFunc) Revert(ctx context.Context) error { return h.revert(ctx) }

func TestEngine_HandlerErrorReturnedNotSwallowed(t *testing.T) {
	tg := newFakeToggler()
	execErr := &bootparam.ExecError{
		Args:   []string{"/usr/sbin/grubby", "--update-kernel=DEFAULT", "--args=iommu=force"},
		Output: "grubby: cannot write",
		Err:    errors.New("exit status 1"),
	}
	tg.err = fmt.Errorf("toggle: %w", execErr)
	e := newTestEngine(t, tg)

	res, err := e.Execute(context.Background(), "iommu", Apply)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.RequestID)

	var re *Error
	require.True(t, errors.As(err, &re))
	assert.Equal(t, KindExecutionFailed, re.Kind)
	assert.Equal(t, "grubby: cannot write", re.Output)
	assert.ErrorIs(t, err, ErrExecutionFailed)
	assert.ErrorIs(t, err, bootparam.ErrExecutionFailed)

	var got *bootparam.ExecError
	assert.True(t, errors.As(err, &got))
}

func TestEngine_InternalError(t *testing.T) {
	tg := newFakeToggler()
	tg.err = errors.New("boom")
	e := newTestEngine(t, tg)

	_, err := e.Execute(context.Background(), "iommu", Apply)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestEngine_SerializesSameAction(t *testing.T) {
	tg := newFakeToggler()
	tg.delay = 5 * time.Millisecond
	e := newTestEngine(t, tg)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Execute(context.Background(), "kernel-lockdown", Apply)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), tg.maxSeen.Load())
	assert.Len(t, tg.calls, 8)
}

func TestEngine_Metrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	m := NewMetrics(reg)
	tg := newFakeToggler()
	e := newTestEngine(t, tg, WithMetrics(m))
	ctx := context.Background()

	_, _ = e.Execute(ctx, "kernel-lockdown", Apply)
	_, _ = e.Execute(ctx, "kernel-lockdown", Revert)
	_, _ = e.Execute(ctx, "nope", Apply)
	_, _ = e.Repair(ctx, AttrUEFISecureBoot, Apply, "")
	tg.err = &bootparam.ExecError{Args: []string{"grubby"}, Err: errors.New("exit status 1")}
	_, _ = e.Execute(ctx, "iommu", Apply)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Executions.WithLabelValues("kernel-lockdown", "do", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Executions.WithLabelValues("kernel-lockdown", "undo", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Executions.WithLabelValues("unknown", "do", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Executions.WithLabelValues("none", "do", "unsupported")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Executions.WithLabelValues("iommu", "do", "execution_failed")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.Duration))

	problems, err := testutil.GatherAndLint(reg)
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestMetrics_ObserveTool(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveTool(bootparam.OpQuery, 10*time.Millisecond, nil)
	m.ObserveTool(bootparam.OpAdd, 20*time.Millisecond, errors.New("exit status 1"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolInvocations.WithLabelValues("query", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolInvocations.WithLabelValues("add", "error")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.ObserveTool(bootparam.OpQuery, 0, nil) })
}

func TestEngine_TracingAndLogging(t *testing.T) {
	tel := telemetry.NewTestTelemetry()
	tl := logging.NewTestLogger()
	tg := newFakeToggler()
	e := newTestEngine(t, tg,
		WithTracer(tel.Tracer("test")),
		WithMeter(tel.Meter("test")),
		WithLogger(tl.Logger),
	)

	res, err := e.Repair(context.Background(), AttrKernelLockdown, Apply, "")
	require.NoError(t, err)

	tel.AssertSpanExists(t, "repair.execute")
	tel.AssertSpanAttribute(t, "repair.execute", "repair.action", "kernel-lockdown")
	tel.AssertSpanAttribute(t, "repair.execute", "repair.attribute", AttrKernelLockdown)
	tel.AssertSpanAttribute(t, "repair.execute", "repair.result", "success")
	tel.AssertSpanAttribute(t, "repair.execute", "request.id", res.RequestID)
	assert.Equal(t, codes.Ok, tel.SpanByName("repair.execute").Status().Code)

	tl.AssertLogged(t, zapcore.InfoLevel, "repair succeeded")
	tl.AssertField(t, "repair succeeded", "request.id", res.RequestID)
	tl.AssertField(t, "repair succeeded", "repair.action", "kernel-lockdown")
	tl.AssertField(t, "repair succeeded", "repair.mode", "do")
}

func TestEngine_LogsFailuresWithOutput(t *testing.T) {
	tl := logging.NewTestLogger()
	tg := newFakeToggler()
	tg.err = &bootparam.ExecError{Args: []string{"grubby"}, Output: "no such entry", Err: errors.New("exit status 1")}
	e := newTestEngine(t, tg, WithLogger(tl.Logger))

	_, err := e.Execute(context.Background(), "iommu", Apply)
	require.Error(t, err)
	tl.AssertLogged(t, zapcore.ErrorLevel, "repair failed")
	tl.AssertField(t, "repair failed", "output", "no such entry")

	tl.Reset()
	_, _ = e.Repair(context.Background(), AttrKernelSwap, Apply, "")
	tl.AssertLogged(t, zapcore.InfoLevel, "repair not supported")
	tl.AssertNotLogged(t, zapcore.ErrorLevel, "repair failed")
}

// grubbyRunner emulates grubby for end-to-end tests through bootparam.Editor.
type grubbyRunner struct {
	mu   sync.Mutex
	args []string
	runs int
}

func (g *grubbyRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.runs++
	if strings.HasPrefix(args[0], "--info=") {
		return []byte(`args="` + strings.Join(g.args, " ") + `"`), nil
	}
	if v, ok := strings.CutPrefix(args[1], "--args="); ok {
		g.args = append(g.args, v)
		return nil, nil
	}
	v := strings.TrimPrefix(args[1], "--remove-args=")
	kept := []string{}
	for _, a := range g.args {
		if a != v {
			kept = append(kept, a)
		}
	}
	g.args = kept
	return nil, nil
}

func TestEngine_WithBootParamEditor(t *testing.T) {
	runner := &grubbyRunner{args: []string{"ro", "quiet"}}
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	editor := bootparam.NewEditor(
		bootparam.WithRunner(runner),
		bootparam.WithLookPath(func(string) (string, error) { return "/usr/sbin/grubby", nil }),
		bootparam.WithInvocationHook(m.ObserveTool),
	)
	e := newTestEngine(t, editor, WithMetrics(m))
	ctx := context.Background()

	_, err := e.Execute(ctx, "kernel-lockdown", Apply)
	require.NoError(t, err)
	_, err = e.Execute(ctx, "kernel-lockdown", Apply)
	require.NoError(t, err)
	assert.Equal(t, []string{"ro", "quiet", "lockdown=confidentiality"}, runner.args)

	_, err = e.Execute(ctx, "kernel-lockdown", Revert)
	require.NoError(t, err)
	assert.Equal(t, []string{"ro", "quiet"}, runner.args)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ToolInvocations.WithLabelValues("query", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolInvocations.WithLabelValues("add", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolInvocations.WithLabelValues("remove", "success")))
}

func TestEngine_ToolNotFound(t *testing.T) {
	runner := &grubbyRunner{args: []string{"ro"}}
	editor := bootparam.NewEditor(
		bootparam.WithRunner(runner),
		bootparam.WithLookPath(func(file string) (string, error) {
			return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
		}),
	)
	e := newTestEngine(t, editor)

	_, err := e.Execute(context.Background(), "kernel-lockdown", Apply)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolNotFound)
	assert.Equal(t, KindToolNotFound, KindOf(err))
	assert.Zero(t, runner.runs)
	assert.Equal(t, []string{"ro"}, runner.args)
}
