package repair

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/posturefix/internal/bootparam"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantKind   Kind
		wantOutput string
	}{
		{
			name:     "tool not found",
			err:      fmt.Errorf("%w: grubby: not in PATH", bootparam.ErrToolNotFound),
			wantKind: KindToolNotFound,
		},
		{
			name:       "execution failed",
			err:        &bootparam.ExecError{Args: []string{"grubby"}, Output: "denied", Err: errors.New("exit status 1")},
			wantKind:   KindExecutionFailed,
			wantOutput: "denied",
		},
		{
			name:     "unclassified",
			err:      errors.New("boom"),
			wantKind: KindInternal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify("iommu", tt.err)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantOutput, got.Output)
			assert.Equal(t, "iommu", got.Key)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassify_KeepsExistingError(t *testing.T) {
	orig := unsupported("x")
	assert.Same(t, orig, classify("y", fmt.Errorf("wrapped: %w", orig)))
}

func TestError_Is(t *testing.T) {
	assert.ErrorIs(t, notFound("a"), ErrNotFound)
	assert.NotErrorIs(t, notFound("a"), ErrUnsupported)
	assert.ErrorIs(t, unsupported("a"), ErrUnsupported)
	assert.Equal(t, "a: Repair item is not found.", notFound("a").Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindInternal, KindOf(errors.New("x")))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("ctx: %w", notFound("a"))))
}
