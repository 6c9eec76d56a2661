package yaml_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/condfmt/pkg/yaml"
)

type sheet struct {
	Name string     `json:"name"`
	Rows [][]string `json:"rows,omitempty"`
}

func TestSchemaGenerator(t *testing.T) {
	t.Parallel()

	data, err := yaml.NewSchemaGenerator(&sheet{}).Generate()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "$defs")

	v, err := yaml.NewValidator("/sheet.json", data)
	require.NoError(t, err)

	require.NoError(t, v.Validate(map[string]any{"name": "Sheet1"}))
	require.Error(t, v.Validate(map[string]any{"rows": []any{}}))
}

func TestSchemaGeneratorOutsideModule(t *testing.T) {
	t.Parallel()

	_, err := yaml.NewSchemaGenerator(&sheet{}, "example.com/other").Generate()
	require.ErrorContains(t, err, "outside module")
}
