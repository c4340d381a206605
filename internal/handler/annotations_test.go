package handler_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRouteAnnotations keeps the swag comments in line with RegisterRoutes.
func TestRouteAnnotations(t *testing.T) {
	file, err := parser.ParseFile(token.NewFileSet(), "handler.go", nil, parser.ParseComments)
	require.NoError(t, err)

	routers := map[string]string{}
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Doc == nil {
			continue
		}
		for _, c := range fn.Doc.List {
			if line, ok := strings.CutPrefix(c.Text, "// @Router "); ok {
				routers[fn.Name.Name] = strings.TrimSpace(line)
			}
		}
	}

	assert.Equal(t, map[string]string{
		"handleHealthz":    "/healthz [get]",
		"handleReload":     "/__livereload/reload [post]",
		"handleListBuilds": "/__builds [get]",
		"handleGetBuild":   "/__builds/{id} [get]",
	}, routers)
}
