package engine

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
)

const artifactHeader = "// Code generated by fixturekit; DO NOT EDIT."

// Artifact is the compiled form of a template as stored in a Cache. It is
// serialized as a Go source file declaring one constant per field.
type Artifact struct {
	CacheKey       string
	TemplateName   string
	TemplateSource string
	// SourcePath and Environment are only written in debug mode.
	SourcePath  string
	Environment string
}

func (a Artifact) Marshal() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n// Source: %s\n\npackage compiled\n\n", artifactHeader, a.TemplateName)
	fmt.Fprintf(&buf, "const CacheKey = %q\n\n", a.CacheKey)
	fmt.Fprintf(&buf, "const TemplateName = %q\n\n", a.TemplateName)
	fmt.Fprintf(&buf, "const TemplateSource = %q\n", a.TemplateSource)
	if a.SourcePath != "" {
		fmt.Fprintf(&buf, "\nconst SourcePath = %q\n", a.SourcePath)
	}
	if a.Environment != "" {
		fmt.Fprintf(&buf, "\nconst Environment = %q\n", a.Environment)
	}
	return buf.Bytes()
}

func ParseArtifact(content []byte) (Artifact, error) {
	file, err := parser.ParseFile(token.NewFileSet(), "artifact.go", content, 0)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to parse artifact: %w", err)
	}

	consts := make(map[string]string)
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.CONST {
			continue
		}
		for _, spec := range gen.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok || len(vs.Names) != 1 || len(vs.Values) != 1 {
				continue
			}
			lit, ok := vs.Values[0].(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				continue
			}
			value, err := strconv.Unquote(lit.Value)
			if err != nil {
				return Artifact{}, fmt.Errorf("constant %s: %w", vs.Names[0].Name, err)
			}
			consts[vs.Names[0].Name] = value
		}
	}

	key, ok := consts["CacheKey"]
	if !ok {
		return Artifact{}, fmt.Errorf("artifact has no CacheKey")
	}
	source, ok := consts["TemplateSource"]
	if !ok {
		return Artifact{}, fmt.Errorf("artifact has no TemplateSource")
	}

	return Artifact{
		CacheKey:       key,
		TemplateName:   consts["TemplateName"],
		TemplateSource: source,
		SourcePath:     consts["SourcePath"],
		Environment:    consts["Environment"],
	}, nil
}
