package yaml

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validator checks decoded documents against a compiled JSON schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles schemaData, registered under url.
func NewValidator(url string, schemaData []byte) (*Validator, error) {
	var doc any
	if err := json.Unmarshal(schemaData, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	schema, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// MustNewValidator is like [NewValidator] but panics on error.
func MustNewValidator(url string, schemaData []byte) *Validator {
	v, err := NewValidator(url, schemaData)
	if err != nil {
		panic(err)
	}

	return v
}

// Validate validates decoded YAML data against the schema. Failures are
// returned as an [*Error] whose Path points at the most specific failing
// instance location, so that callers can annotate the rule file source.
func (v *Validator) Validate(data any) error {
	err := v.schema.Validate(data)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("schema validation: %w", err)
	}

	return &Error{
		Err:  verr,
		Path: instancePath(deepestLocation(verr)),
	}
}

// deepestLocation returns the longest instance location among err and all of
// its causes.
func deepestLocation(err *jsonschema.ValidationError) []string {
	loc := err.InstanceLocation
	for _, cause := range err.Causes {
		if l := deepestLocation(cause); len(l) > len(loc) {
			loc = l
		}
	}

	return loc
}

// instancePath converts a JSON pointer split into tokens to a [yaml.Path].
// Numeric tokens are treated as sequence indexes.
func instancePath(location []string) *yaml.Path {
	pb := NewPathBuilder().Root()
	for _, tok := range location {
		if i, err := strconv.ParseUint(tok, 10, 0); err == nil {
			pb = pb.Index(uint(i))
			continue
		}

		pb = pb.Child(tok)
	}

	return pb.Build()
}
