package engine

import (
	"log/slog"

	"github.com/cpcf/fixturekit/postprocess"
)

// Options are the compilation settings that, together with the registered
// extensions, make up the environment's options hash.
type Options struct {
	AutoReload      bool
	Debug           bool
	StrictVariables bool
	// Optimizations is 0 for no optimization passes. Any other value drops
	// template comments from the parse tree.
	Optimizations int
	// Namespace is an optional salt mixed into every cache key.
	Namespace string
}

type Option func(*Environment)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Environment) {
		e.logger = logger
	}
}

func WithCache(cache Cache) Option {
	return func(e *Environment) {
		if cache != nil {
			e.cache = cache
		}
	}
}

func WithAutoReload(enabled bool) Option {
	return func(e *Environment) {
		e.options.AutoReload = enabled
	}
}

func WithDebug(enabled bool) Option {
	return func(e *Environment) {
		e.options.Debug = enabled
	}
}

func WithStrictVariables(enabled bool) Option {
	return func(e *Environment) {
		e.options.StrictVariables = enabled
	}
}

func WithOptimizations(level int) Option {
	return func(e *Environment) {
		e.options.Optimizations = level
	}
}

func WithCacheNamespace(namespace string) Option {
	return func(e *Environment) {
		e.options.Namespace = namespace
	}
}

func WithPostProcessor(processor postprocess.Processor) Option {
	return func(e *Environment) {
		e.postprocessors.Add(processor)
	}
}
