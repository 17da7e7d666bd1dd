// Package engine compiles templates into an on-disk cache of artifacts.
//
// An Environment ties a Loader, a Cache and a set of Extensions together.
// Cache keys are derived from the template name and the environment's
// options hash, which covers the compilation options, the names of all
// registered extensions and an optional namespace.
package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/cpcf/fixturekit/postprocess"
)

var commentTag = regexp.MustCompile(`(?s)\{#.*?#\}`)

// Environment compiles Twig-syntax templates. Parsing and rendering is done
// by pongo2; undefined variables render as empty strings.
type Environment struct {
	logger         *slog.Logger
	loader         Loader
	cache          Cache
	options        Options
	extensions     map[string]Extension
	postprocessors *postprocess.Chain
	loaded         map[string]*Template
	set            *pongo2.TemplateSet
	locked         bool
}

func NewEnvironment(loader Loader, opts ...Option) *Environment {
	e := &Environment{
		logger:         slog.Default(),
		loader:         loader,
		cache:          NullCache{},
		extensions:     make(map[string]Extension),
		postprocessors: postprocess.NewChain(),
		loaded:         make(map[string]*Template),
	}

	for _, opt := range opts {
		opt(e)
	}
	e.set = pongo2.NewSet("fixturekit", setLoader{loader: e.loader})

	return e
}

func (e *Environment) Options() Options {
	return e.options
}

func (e *Environment) Cache() Cache {
	return e.cache
}

func (e *Environment) Loader() Loader {
	return e.loader
}

func (e *Environment) AddExtension(ext Extension) error {
	if ext == nil {
		return errors.New("extension must not be nil")
	}
	if e.locked {
		return fmt.Errorf("%w: %s", ErrEnvironmentLocked, ext.Name())
	}
	if _, exists := e.extensions[ext.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateExtension, ext.Name())
	}
	e.extensions[ext.Name()] = ext
	return nil
}

// Extensions returns the registered extension names, sorted.
func (e *Environment) Extensions() []string {
	names := make([]string, 0, len(e.extensions))
	for name := range e.extensions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddPostProcessor appends a processor applied to artifacts before they are cached.
func (e *Environment) AddPostProcessor(processor postprocess.Processor) {
	e.postprocessors.Add(processor)
}

// OptionsHash identifies the compilation settings of this environment.
// AutoReload does not change what gets compiled and is left out.
func (e *Environment) OptionsHash() string {
	sum := sha256.Sum256([]byte(e.describe()))
	return hex.EncodeToString(sum[:])
}

func (e *Environment) describe() string {
	return fmt.Sprintf("debug=%t;strict=%t;optimizations=%d;namespace=%s;extensions=%s",
		e.options.Debug,
		e.options.StrictVariables,
		e.options.Optimizations,
		e.options.Namespace,
		strings.Join(e.Extensions(), ","),
	)
}

// CacheKey is the key name compiles under in this environment.
func (e *Environment) CacheKey(name string) string {
	return e.cache.GenerateKey(name, e.OptionsHash())
}

// Load returns the compiled template for name, compiling it and writing
// the artifact into the cache when no usable artifact exists.
func (e *Environment) Load(name string) (*Template, error) {
	e.locked = true
	key := e.CacheKey(name)

	if tmpl, ok := e.loaded[key]; ok {
		return tmpl, nil
	}

	tmpl, err := e.loadFromCache(name, key)
	if err != nil {
		return nil, err
	}

	if tmpl == nil {
		tmpl, err = e.compile(name, key)
		if err != nil {
			return nil, err
		}
	}

	e.loaded[key] = tmpl
	return tmpl, nil
}

// loadFromCache returns nil without error on a miss.
func (e *Environment) loadFromCache(name, key string) (*Template, error) {
	ts := e.cache.Timestamp(key)
	if ts.IsZero() {
		e.logger.Debug("template cache miss", "template", name, "key", key)
		return nil, nil
	}

	if e.options.AutoReload {
		fresh, err := e.loader.IsFresh(name, ts)
		if err != nil {
			return nil, err
		}
		if !fresh {
			e.logger.Debug("template changed since compilation", "template", name, "key", key)
			return nil, nil
		}
	}

	artifact, err := e.cache.Load(key)
	if err != nil {
		e.logger.Debug("discarding unreadable artifact", "template", name, "key", key, "error", err)
		return nil, nil
	}
	if artifact.CacheKey != key || artifact.TemplateName != name {
		e.logger.Debug("discarding mismatched artifact", "template", name, "key", key)
		return nil, nil
	}

	tpl, err := e.parse(artifact.TemplateSource)
	if err != nil {
		return nil, &CompileError{Name: name, Message: "cached artifact does not parse", Err: err}
	}

	e.logger.Debug("template cache hit", "template", name, "key", key)
	return e.newTemplate(name, key, artifact.TemplateSource, tpl, true), nil
}

func (e *Environment) compile(name, key string) (*Template, error) {
	src, err := e.loader.Source(name)
	if err != nil {
		return nil, err
	}

	code := src.Code
	if e.options.Optimizations != 0 {
		code = commentTag.ReplaceAllString(code, "")
	}

	tpl, err := e.parse(code)
	if err != nil {
		return nil, &CompileError{Name: name, Message: "failed to parse template", Err: err}
	}

	artifact := Artifact{
		CacheKey:       key,
		TemplateName:   name,
		TemplateSource: code,
	}
	if e.options.Debug {
		artifact.SourcePath = src.Path
		artifact.Environment = e.describe()
	}

	content := artifact.Marshal()
	if e.postprocessors.HasProcessors() {
		content, err = e.postprocessors.Process(e.cache.Location(key), content)
		if err != nil {
			return nil, &CompileError{Name: name, Message: "post-processing failed", Err: err}
		}
	}

	if err := e.cache.Write(key, name, content); err != nil {
		return nil, err
	}

	e.logger.Debug("compiled template", "template", name, "path", src.Path, "key", key)
	return e.newTemplate(name, key, code, tpl, false), nil
}

func (e *Environment) parse(code string) (*pongo2.Template, error) {
	return e.set.FromString(code)
}

// globals collects the functions of all registered extensions.
func (e *Environment) globals() pongo2.Context {
	ctx := pongo2.Context{}
	for _, name := range e.Extensions() {
		for fn, impl := range e.extensions[name].Funcs() {
			ctx[fn] = impl
		}
	}
	return ctx
}

func (e *Environment) newTemplate(name, key, source string, tpl *pongo2.Template, fromCache bool) *Template {
	return &Template{
		name:      name,
		key:       key,
		source:    source,
		tpl:       tpl,
		globals:   e.globals(),
		strict:    e.options.StrictVariables,
		fromCache: fromCache,
	}
}

// setLoader resolves include, extends and import tags through the
// environment's Loader.
type setLoader struct {
	loader Loader
}

func (l setLoader) Abs(base, name string) string {
	return name
}

func (l setLoader) Get(path string) (io.Reader, error) {
	if l.loader == nil {
		return nil, &NotFoundError{Name: path}
	}
	src, err := l.loader.Source(path)
	if err != nil {
		return nil, err
	}
	return strings.NewReader(src.Code), nil
}

// Template is a loaded, executable template.
type Template struct {
	name      string
	key       string
	source    string
	tpl       *pongo2.Template
	globals   pongo2.Context
	strict    bool
	fromCache bool
}

func (t *Template) Name() string    { return t.name }
func (t *Template) Key() string     { return t.key }
func (t *Template) Source() string  { return t.source }
func (t *Template) FromCache() bool { return t.fromCache }

// Execute renders the template with data layered over the extension
// functions. Names missing from data render as empty strings unless the
// environment uses strict variables, in which case every name printed by a
// plain {{ name }} tag must be present.
func (t *Template) Execute(w io.Writer, data map[string]any) error {
	ctx := pongo2.Context{}
	ctx.Update(t.globals)
	ctx.Update(data)

	if t.strict {
		for _, name := range printedNames(t.source) {
			if _, ok := ctx[name]; !ok {
				return fmt.Errorf("%w: %q in template %q", ErrUndefinedVariable, name, t.name)
			}
		}
	}

	return t.tpl.ExecuteWriter(ctx, w)
}

var (
	printTag   = regexp.MustCompile(`\{\{-?\s*([A-Za-z_][A-Za-z0-9_]*)`)
	bindingTag = regexp.MustCompile(`\{%-?\s*(?:for|set|with)\s+([A-Za-z_][A-Za-z0-9_]*)(?:\s*,\s*([A-Za-z_][A-Za-z0-9_]*))?`)
)

// printedNames returns the root variable of every print tag, in order of
// first appearance. Calls, names bound by for/set/with tags and values
// passed through the default filter are skipped.
func printedNames(source string) []string {
	seen := map[string]bool{"loop": true, "forloop": true}
	for _, m := range bindingTag.FindAllStringSubmatch(source, -1) {
		seen[m[1]] = true
		if m[2] != "" {
			seen[m[2]] = true
		}
	}

	var names []string
	for _, m := range printTag.FindAllStringSubmatchIndex(source, -1) {
		name := source[m[2]:m[3]]
		rest := strings.TrimLeft(source[m[3]:], " \t")
		if strings.HasPrefix(rest, "(") || strings.HasPrefix(rest, "|default") {
			continue
		}
		if seen[name] || isKeyword(name) {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

func isKeyword(name string) bool {
	switch name {
	case "true", "false", "none", "None", "nil", "not":
		return true
	}
	return false
}
