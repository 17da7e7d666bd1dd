package fixture

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingTB struct {
	testing.TB
	skipped []any
	fatal   []any
}

func (r *recordingTB) Helper()           {}
func (r *recordingTB) Skip(args ...any)  { r.skipped = args }
func (r *recordingTB) Fatal(args ...any) { r.fatal = args }

func TestHandle(t *testing.T) {
	tb := &recordingTB{}
	Handle(tb, nil)
	assert.Nil(t, tb.skipped)
	assert.Nil(t, tb.fatal)

	tb = &recordingTB{}
	Handle(tb, fmt.Errorf("step: %w", &SkipError{Message: "This scenario requires a to match b"}))
	assert.Equal(t, []any{"step: This scenario requires a to match b"}, tb.skipped)
	assert.Nil(t, tb.fatal)

	tb = &recordingTB{}
	boom := errors.New("boom")
	Handle(tb, boom)
	assert.Nil(t, tb.skipped)
	assert.Equal(t, []any{boom}, tb.fatal)
}

func TestConfigErrorUnwraps(t *testing.T) {
	inner := errors.New("permission denied")
	err := &ConfigError{Dir: "/cache", Err: inner}

	assert.ErrorIs(t, err, ErrInvalidCacheDir)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "the /cache template cache directory does not exist or is not readable: permission denied", err.Error())
}
