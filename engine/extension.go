package engine

import (
	"strings"

	"github.com/google/uuid"
)

// Extension contributes template functions to an Environment. Its Name takes
// part in the options hash, so two environments with different extension
// sets never share cache entries. Functions are exposed as callable
// globals, e.g. {{ shout(name) }}.
type Extension interface {
	Name() string
	Funcs() map[string]any
}

// IsolationExtension adds no functions. Every instance carries a random
// identity, so registering one gives the environment a cache identity no
// other environment has.
type IsolationExtension struct {
	id uuid.UUID
}

func NewIsolationExtension() *IsolationExtension {
	return &IsolationExtension{id: uuid.New()}
}

func (e *IsolationExtension) ID() uuid.UUID {
	return e.id
}

func (e *IsolationExtension) Name() string {
	return "isolation_" + strings.ReplaceAll(e.id.String(), "-", "")
}

func (e *IsolationExtension) Funcs() map[string]any {
	return nil
}

// FuncExtension is a named function set.
type FuncExtension struct {
	name  string
	funcs map[string]any
}

func NewFuncExtension(name string, funcs map[string]any) *FuncExtension {
	return &FuncExtension{name: name, funcs: funcs}
}

func (e *FuncExtension) Name() string          { return e.name }
func (e *FuncExtension) Funcs() map[string]any { return e.funcs }
