package steps

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRunInlineArguments(t *testing.T) {
	r := NewRegistry()
	var got []string
	require.NoError(t, r.Define("I have the :package package satisfying the :versionConstraint", func(args ...string) error {
		got = args
		return nil
	}))

	require.NoError(t, r.Run(`I have the "vendor/pkg" package satisfying the ">=1.0, <2.0"`))
	assert.Equal(t, []string{"vendor/pkg", ">=1.0, <2.0"}, got)
}

func TestRegistryRunEscapedQuotes(t *testing.T) {
	r := NewRegistry()
	var got []string
	require.NoError(t, r.Define("I have the following :templateName template :code", func(args ...string) error {
		got = args
		return nil
	}))

	require.NoError(t, r.Run(`I have the following "t.twig" template "{{ \"a\" }}"`))
	assert.Equal(t, []string{"t.twig", `{{ "a" }}`}, got)
}

func TestRegistryRunDocString(t *testing.T) {
	r := NewRegistry()
	var got []string
	require.NoError(t, r.Define("I have the following :templateName template :code", func(args ...string) error {
		got = args
		return nil
	}))

	doc := "{% block body %}\n{{ x }}\n{% endblock %}"
	require.NoError(t, r.Run(`  I have the following "index.html.twig" template  `, doc))
	assert.Equal(t, []string{"index.html.twig", doc}, got)
}

func TestRegistryDocStringRequiresTrailingPlaceholder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Define("the :name template is compiled", func(args ...string) error { return nil }))

	err := r.Run(`the "t.twig" template is compiled`, "unexpected")
	assert.ErrorIs(t, err, ErrUndefinedStep)
}

func TestRegistryUndefinedAndAmbiguous(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Define("a :x step", func(args ...string) error { return nil }))
	require.NoError(t, r.Define(`a "1" step`, func(args ...string) error { return nil }))

	assert.ErrorIs(t, r.Run("something else"), ErrUndefinedStep)
	assert.ErrorIs(t, r.Run(`a "1" step`), ErrAmbiguousStep)
}

func TestRegistryDefineErrors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Define("a :x step", func(args ...string) error { return nil }))

	assert.Error(t, r.Define("a :x step", func(args ...string) error { return nil }))
	assert.Error(t, r.Define("another step", nil))
	assert.Equal(t, []string{"a :x step"}, r.Definitions())
}

func TestRegistryPropagatesHandlerErrors(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	require.NoError(t, r.Define("fail", func(args ...string) error { return boom }))

	assert.ErrorIs(t, r.Run("fail"), boom)
}
