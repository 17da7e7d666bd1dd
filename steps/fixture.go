package steps

import "github.com/cpcf/fixturekit/fixture"

const (
	StageTemplate     = "I have the following :templateName template :code"
	CompileTemplate   = "the :templateName template is compiled in the :cacheDirectory directory"
	RequireDependency = "I have the :package package satisfying the :versionConstraint"
)

// Register defines the fixture steps on r, bound to m.
func Register(r *Registry, m *fixture.Module) error {
	defs := []struct {
		expression string
		handler    Handler
	}{
		{StageTemplate, func(args ...string) error { return m.StageTemplate(args[0], args[1]) }},
		{CompileTemplate, func(args ...string) error { return m.CompileTemplate(args[0], args[1]) }},
		{RequireDependency, func(args ...string) error { return m.RequireDependency(args[0], args[1]) }},
	}

	for _, d := range defs {
		if err := r.Define(d.expression, d.handler); err != nil {
			return err
		}
	}
	return nil
}
