package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTemplateNotFound   = errors.New("template not found")
	ErrEnvironmentLocked  = errors.New("environment is locked: extensions cannot be added after a template was loaded")
	ErrDuplicateExtension = errors.New("extension already registered")
	ErrCacheMiss          = errors.New("cache miss")
	ErrUndefinedVariable  = errors.New("variable is not defined")
)

// NotFoundError is returned by loaders when no search path holds the template.
type NotFoundError struct {
	Name  string
	Paths []string
}

func (e *NotFoundError) Error() string {
	if len(e.Paths) == 0 {
		return fmt.Sprintf("unable to find template %q", e.Name)
	}
	return fmt.Sprintf("unable to find template %q (looked into: %s)", e.Name, strings.Join(e.Paths, ", "))
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrTemplateNotFound
}

// CompileError reports a failure while turning a template source into an artifact.
type CompileError struct {
	Name    string
	Message string
	Err     error
}

func (e *CompileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Name, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
