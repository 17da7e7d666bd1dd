// Package processors provides post-processors for compiled template artifacts.
package processors

import (
	"fmt"
	"go/format"
	"path/filepath"
	"strings"

	"golang.org/x/tools/imports"
)

// GoImports formats generated Go artifacts with goimports, falling back to gofmt.
type GoImports struct {
	TabWidth  int
	TabIndent bool
	AllErrors bool
	Comments  bool
}

func NewGoImports() *GoImports {
	return &GoImports{
		TabWidth:  8,
		TabIndent: true,
		Comments:  true,
	}
}

// ProcessContent implements postprocess.Processor. Non-Go files pass through.
func (g *GoImports) ProcessContent(path string, content []byte) ([]byte, error) {
	if !g.isGoFile(path) {
		return content, nil
	}

	options := &imports.Options{
		AllErrors: g.AllErrors,
		Comments:  g.Comments,
		TabIndent: g.TabIndent,
		TabWidth:  g.TabWidth,
		// Artifacts never import anything; skip the module resolver walk.
		FormatOnly: true,
	}

	formatted, err := imports.Process(path, content, options)
	if err != nil {
		formatted, fmtErr := format.Source(content)
		if fmtErr != nil {
			return nil, fmt.Errorf("failed to format Go code with goimports (%w) and gofmt (%w)", err, fmtErr)
		}
		return formatted, nil
	}

	return formatted, nil
}

func (g *GoImports) isGoFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".go"
}
