package yaml

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// SchemaGenerator reflects a JSON schema from a Go value.
type SchemaGenerator struct {
	root     any
	packages []string

	// Module is the import path of the module containing packages. Doc
	// comments are read relative to the working directory, which must be
	// the module root.
	Module string
}

// NewSchemaGenerator creates a [SchemaGenerator] for root. Doc comments are
// read from the listed packages, which must live under
// [SchemaGenerator.Module].
func NewSchemaGenerator(root any, packages ...string) *SchemaGenerator {
	return &SchemaGenerator{
		root:     root,
		packages: packages,
		Module:   "github.com/macropower/condfmt",
	}
}

// Generate returns the indented JSON schema document.
func (g *SchemaGenerator) Generate() ([]byte, error) {
	r := &jsonschema.Reflector{}

	for _, pkg := range g.packages {
		rel, ok := strings.CutPrefix(pkg, g.Module)
		if !ok {
			return nil, fmt.Errorf("package %q is outside module %q", pkg, g.Module)
		}

		err := r.AddGoComments(g.Module, "./"+strings.TrimPrefix(rel, "/"))
		if err != nil {
			return nil, fmt.Errorf("add go comments for %s: %w", pkg, err)
		}
	}

	jss := r.Reflect(g.root)

	data, err := json.MarshalIndent(jss, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return data, nil
}
