package yaml_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/condfmt/pkg/yaml"
)

const source = `apiVersion: condfmt.macropower.dev/v1beta1
kind: RuleSet
rules:
  - id: top
    kind: top-bottom
    mode: sideways
`

func TestErrorAnnotatesSource(t *testing.T) {
	t.Parallel()

	errBad := errors.New("bad mode")

	err := yaml.NewError(errBad,
		yaml.WithPath(yaml.NewPathBuilder().Root().Child("rules").Index(0).Child("mode").Build()),
		yaml.WithSource([]byte(source)),
	)

	require.ErrorIs(t, err, errBad)
	assert.Equal(t, 6, err.Line())
	assert.Contains(t, err.Error(), "[6:5] bad mode:")
	assert.Contains(t, err.Error(), "mode: sideways")
}

func TestErrorWithoutLocation(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		err  *yaml.Error
		want string
	}{
		"no path": {
			err:  yaml.NewError(errors.New("value is required")),
			want: "value is required",
		},
		"path without source": {
			err: yaml.NewError(errors.New("value is required"),
				yaml.WithPath(yaml.NewPathBuilder().Root().Child("field").Child("subfield").Build()),
			),
			want: "error at $.field.subfield: value is required",
		},
		"nil error": {
			err:  &yaml.Error{},
			want: "",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, tc.err.Error())
		})
	}
}

func TestErrorWrapper(t *testing.T) {
	t.Parallel()

	ew := yaml.NewErrorWrapper(yaml.WithSource([]byte(source)))

	plain := errors.New("plain")
	require.Same(t, plain, ew.Wrap(plain))
	require.NoError(t, ew.Wrap(nil))

	wrapped := ew.Wrap(yaml.NewError(errors.New("bad"),
		yaml.WithPath(yaml.NewPathBuilder().Root().Child("kind").Build()),
	))

	var yamlErr *yaml.Error
	require.ErrorAs(t, wrapped, &yamlErr)
	assert.Equal(t, 2, yamlErr.Line())
}

func TestDecoderErrors(t *testing.T) {
	t.Parallel()

	var out struct {
		Kind string `yaml:"kind"`
	}

	err := yaml.NewStrictDecoder(stringsReader("kind: RuleSet\nextra: 1\n")).Decode(&out)

	var yamlErr *yaml.Error
	require.ErrorAs(t, err, &yamlErr)
	assert.Positive(t, yamlErr.Line())

	err = yaml.NewDecoder(stringsReader("kind: RuleSet\nextra: 1\n")).Decode(&out)
	require.NoError(t, err)
	assert.Equal(t, "RuleSet", out.Kind)
}

func TestMarshal(t *testing.T) {
	t.Parallel()

	got, err := yaml.Marshal(map[string]any{"rows": []any{[]any{1, "a"}}})
	require.NoError(t, err)
	assert.YAMLEq(t, "rows: [[1, a]]", string(got))
}
