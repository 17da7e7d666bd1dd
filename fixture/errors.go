package fixture

import (
	"errors"
	"fmt"
	"testing"
)

var (
	ErrSkipped         = errors.New("scenario skipped")
	ErrInvalidCacheDir = errors.New("invalid cache directory")
)

// SkipError marks a scenario whose preconditions are not met. Host runners
// report it as skipped, not failed.
type SkipError struct {
	Message string
}

func (e *SkipError) Error() string {
	return e.Message
}

func (e *SkipError) Is(target error) bool {
	return target == ErrSkipped
}

// ConfigError is returned when the cache directory is unusable. It is raised
// before any compilation is attempted.
type ConfigError struct {
	Dir string
	Err error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("the %s template cache directory does not exist or is not readable", e.Dir)
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidCacheDir
}

func IsSkip(err error) bool {
	return errors.Is(err, ErrSkipped)
}

// Handle reports err on tb: skip errors skip the test, anything else fails it.
func Handle(tb testing.TB, err error) {
	if err == nil {
		return
	}
	tb.Helper()
	if IsSkip(err) {
		tb.Skip(err.Error())
		return
	}
	tb.Fatal(err)
}
