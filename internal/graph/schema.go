package graph

import (
	_ "embed"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

//go:embed schema.graphql
var schemaSource string

// NewSchema parses the embedded SDL; it panics on a malformed schema.
func NewSchema() *ast.Schema {
	return gqlparser.MustLoadSchema(&ast.Source{
		Name:    "schema.graphql",
		Input:   schemaSource,
		BuiltIn: false,
	})
}
