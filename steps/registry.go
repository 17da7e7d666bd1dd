// Package steps maps scenario step text onto fixture operations.
//
// Step expressions contain :placeholder tokens. In step text each
// placeholder is a double-quoted argument; a trailing placeholder may
// instead be supplied as a doc string.
package steps

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrUndefinedStep = errors.New("undefined step")
	ErrAmbiguousStep = errors.New("ambiguous step")
)

type Handler func(args ...string) error

type Definition struct {
	Expression string
	Params     []string

	inline  *regexp.Regexp
	trailer *regexp.Regexp
	handler Handler
}

var placeholder = regexp.MustCompile(`:([A-Za-z_][A-Za-z0-9_]*)`)

const quotedArg = `"((?:[^"\\]|\\.)*)"`

func compile(expression string, handler Handler) (*Definition, error) {
	locs := placeholder.FindAllStringSubmatchIndex(expression, -1)

	var params []string
	var pattern strings.Builder
	var trailer string
	last := 0
	for i, loc := range locs {
		literal := expression[last:loc[0]]
		if i == len(locs)-1 && loc[1] == len(expression) {
			trailer = pattern.String() + regexp.QuoteMeta(strings.TrimRight(literal, " "))
		}
		pattern.WriteString(regexp.QuoteMeta(literal))
		pattern.WriteString(quotedArg)
		params = append(params, expression[loc[2]:loc[3]])
		last = loc[1]
	}
	pattern.WriteString(regexp.QuoteMeta(expression[last:]))

	inline, err := regexp.Compile("^" + pattern.String() + "$")
	if err != nil {
		return nil, fmt.Errorf("step %q: %w", expression, err)
	}

	d := &Definition{
		Expression: expression,
		Params:     params,
		inline:     inline,
		handler:    handler,
	}
	if len(locs) > 0 && locs[len(locs)-1][1] == len(expression) {
		if d.trailer, err = regexp.Compile("^" + trailer + "$"); err != nil {
			return nil, fmt.Errorf("step %q: %w", expression, err)
		}
	}
	return d, nil
}

// match returns the handler arguments for text, or false.
func (d *Definition) match(text string, docString []string) ([]string, bool) {
	if len(docString) > 0 {
		if d.trailer == nil {
			return nil, false
		}
		m := d.trailer.FindStringSubmatch(text)
		if m == nil {
			return nil, false
		}
		return append(unquote(m[1:]), docString[0]), true
	}

	m := d.inline.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	return unquote(m[1:]), true
}

func unquote(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = strings.NewReplacer(`\"`, `"`, `\\`, `\`).Replace(a)
	}
	return out
}

type Registry struct {
	defs []*Definition
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Define(expression string, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("step %q: handler must not be nil", expression)
	}
	for _, d := range r.defs {
		if d.Expression == expression {
			return fmt.Errorf("step %q is already defined", expression)
		}
	}

	d, err := compile(expression, handler)
	if err != nil {
		return err
	}
	r.defs = append(r.defs, d)
	return nil
}

// Run dispatches text to the one definition it matches. An optional doc
// string fills the definition's trailing placeholder.
func (r *Registry) Run(text string, docString ...string) error {
	text = strings.TrimSpace(text)

	var found *Definition
	var args []string
	for _, d := range r.defs {
		a, ok := d.match(text, docString)
		if !ok {
			continue
		}
		if found != nil {
			return fmt.Errorf("%w: %q matches %q and %q", ErrAmbiguousStep, text, found.Expression, d.Expression)
		}
		found, args = d, a
	}

	if found == nil {
		return fmt.Errorf("%w: %q", ErrUndefinedStep, text)
	}
	return found.handler(args...)
}

// Definitions lists the registered expressions in definition order.
func (r *Registry) Definitions() []string {
	out := make([]string, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d.Expression)
	}
	return out
}
