package bootparam

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/posturefix/internal/logging"
)

const (
	DefaultTool    = "grubby"
	DefaultKernel  = "DEFAULT"
	DefaultTimeout = 30 * time.Second
)

// Op names a tool invocation for InvocationHook.
type Op string

const (
	OpQuery  Op = "query"
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// InvocationHook observes every completed tool invocation.
type InvocationHook func(op Op, duration time.Duration, err error)

// Editor adds and removes kernel arguments on one boot entry.
//
// An Editor holds no mutable state and is safe for concurrent use, but two
// concurrent toggles of the same argument race inside the tool itself.
// Callers serialize per argument.
type Editor struct {
	tool     string
	kernel   string
	timeout  time.Duration
	runner   Runner
	lookPath LookPathFunc
	logger   *logging.Logger
	hook     InvocationHook
}

// Option configures an Editor.
type Option func(*Editor)

// WithTool sets the editor program name or path.
func WithTool(tool string) Option {
	return func(e *Editor) { e.tool = tool }
}

// WithKernel sets the kernel entry selector passed to --update-kernel.
func WithKernel(kernel string) Option {
	return func(e *Editor) { e.kernel = kernel }
}

// WithTimeout bounds each Toggle call, including the state query.
func WithTimeout(d time.Duration) Option {
	return func(e *Editor) { e.timeout = d }
}

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return func(e *Editor) { e.runner = r }
}

// WithLookPath replaces PATH resolution.
func WithLookPath(fn LookPathFunc) Option {
	return func(e *Editor) { e.lookPath = fn }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// WithInvocationHook registers a hook called after each tool invocation.
func WithInvocationHook(h InvocationHook) Option {
	return func(e *Editor) { e.hook = h }
}

// NewEditor creates an Editor for grubby on the DEFAULT kernel unless
// overridden by options.
func NewEditor(opts ...Option) *Editor {
	e := &Editor{
		tool:     DefaultTool,
		kernel:   DefaultKernel,
		timeout:  DefaultTimeout,
		runner:   ExecRunner{},
		lookPath: exec.LookPath,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tool returns the configured program name.
func (e *Editor) Tool() string {
	return e.tool
}

// Toggle adds (enable) or removes the kernel argument on the configured
// entry. It reports whether the boot configuration was changed; a call
// that finds the entry already in the requested state changes nothing and
// returns (false, nil).
//
// Errors wrap ErrToolNotFound when the tool is not on PATH (nothing was
// run), ErrExecutionFailed when the tool exits non-zero or times out, and
// ErrInvalidArgument for unusable arguments.
func (e *Editor) Toggle(ctx context.Context, enable bool, argument string) (bool, error) {
	if err := validateArgument(argument); err != nil {
		return false, err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	path, err := e.locate()
	if err != nil {
		return false, err
	}

	current, err := e.query(ctx, path)
	if err != nil {
		return false, err
	}

	if containsArg(current, argument) == enable {
		e.logger.Debug(ctx, "kernel argument already in requested state",
			zap.String("argument", argument),
			zap.Bool("present", enable),
		)
		return false, nil
	}

	op, flag := OpAdd, "--args="
	if !enable {
		op, flag = OpRemove, "--remove-args="
	}
	if _, err := e.run(ctx, op, path, "--update-kernel="+e.kernel, flag+argument); err != nil {
		return false, err
	}

	e.logger.Info(ctx, "kernel argument updated",
		zap.String("argument", argument),
		zap.String("op", string(op)),
		zap.String("kernel", e.kernel),
	)
	return true, nil
}

// Args returns the current kernel arguments of the configured entry.
func (e *Editor) Args(ctx context.Context) ([]string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	path, err := e.locate()
	if err != nil {
		return nil, err
	}
	return e.query(ctx, path)
}

func (e *Editor) locate() (string, error) {
	path, err := e.lookPath(e.tool)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrToolNotFound, e.tool, err)
	}
	return path, nil
}

func (e *Editor) query(ctx context.Context, path string) ([]string, error) {
	out, err := e.run(ctx, OpQuery, path, "--info="+e.kernel)
	if err != nil {
		return nil, err
	}
	return parseInfoArgs(out), nil
}

func (e *Editor) run(ctx context.Context, op Op, path string, args ...string) ([]byte, error) {
	e.logger.Trace(ctx, "running boot parameter tool",
		zap.String("path", path),
		zap.Strings("args", args),
	)

	start := time.Now()
	out, err := e.runner.Run(ctx, path, args...)
	if err != nil && ctx.Err() != nil {
		err = fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	if e.hook != nil {
		e.hook(op, time.Since(start), err)
	}
	if err != nil {
		return out, &ExecError{
			Args:   append([]string{path}, args...),
			Output: strings.TrimSpace(string(out)),
			Err:    err,
		}
	}
	return out, nil
}

// parseInfoArgs extracts the argument list from the first args="..." line
// of `--info` output.
func parseInfoArgs(out []byte) []string {
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		value, ok := strings.CutPrefix(line, "args=")
		if !ok {
			continue
		}
		return strings.Fields(strings.Trim(value, `"`))
	}
	return nil
}

func containsArg(args []string, argument string) bool {
	for _, a := range args {
		if a == argument {
			return true
		}
	}
	return false
}

func validateArgument(argument string) error {
	if argument == "" {
		return fmt.Errorf("%w: empty", ErrInvalidArgument)
	}
	if strings.HasPrefix(argument, "-") {
		return fmt.Errorf("%w: %q starts with '-'", ErrInvalidArgument, argument)
	}
	if strings.IndexFunc(argument, func(r rune) bool {
		return unicode.IsSpace(r) || r == '"' || !unicode.IsPrint(r)
	}) >= 0 {
		return fmt.Errorf("%w: %q contains whitespace or quotes", ErrInvalidArgument, argument)
	}
	return nil
}

// IsToolNotFound reports whether err means the tool could not be located.
func IsToolNotFound(err error) bool {
	return errors.Is(err, ErrToolNotFound)
}
