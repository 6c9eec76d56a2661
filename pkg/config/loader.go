package config

import (
	"bytes"

	"github.com/goccy/go-yaml"

	"github.com/macropower/condfmt/api"
	"github.com/macropower/condfmt/api/v1beta1"
	condyaml "github.com/macropower/condfmt/pkg/yaml"
)

// Validator validates decoded document data against a schema.
type Validator interface {
	Validate(data any) error
}

// LoaderOpt configures a [Loader].
type LoaderOpt func(*loaderOptions)

type loaderOptions struct {
	validator Validator
	colored   bool
}

// WithValidator sets a custom validator.
func WithValidator(v Validator) LoaderOpt {
	return func(o *loaderOptions) {
		o.validator = v
	}
}

// WithColor enables ANSI colors in annotated error sources.
func WithColor(colored bool) LoaderOpt {
	return func(o *loaderOptions) {
		o.colored = colored
	}
}

// Loader is a generic document loader that handles schema validation,
// YAML decoding, and source-annotated errors for any document type T.
type Loader[T v1beta1.Object] struct {
	validator Validator
	newFunc   func() T
	yamlError *condyaml.ErrorWrapper
	data      []byte
}

// NewLoaderFromBytes creates a [Loader] from byte data.
// The newFunc parameter is the constructor for type T (e.g., rulesets.New).
func NewLoaderFromBytes[T v1beta1.Object](
	data []byte,
	newFunc func() T,
	defaultValidator Validator,
	opts ...LoaderOpt,
) *Loader[T] {
	options := &loaderOptions{
		validator: defaultValidator,
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Loader[T]{
		data:      data,
		newFunc:   newFunc,
		validator: options.validator,
		yamlError: condyaml.NewErrorWrapper(
			condyaml.WithSource(data),
			condyaml.WithColor(options.colored),
		),
	}
}

// NewLoaderFromFile creates a [Loader] from a file path.
func NewLoaderFromFile[T v1beta1.Object](
	path string,
	newFunc func() T,
	defaultValidator Validator,
	opts ...LoaderOpt,
) (*Loader[T], error) {
	data, err := api.ReadFile(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // Return the original error.
	}

	return NewLoaderFromBytes(data, newFunc, defaultValidator, opts...), nil
}

// Validate validates the document data against the schema.
func (l *Loader[T]) Validate() error {
	var anyDoc any

	dec := condyaml.NewDecoder(bytes.NewReader(l.data))

	err := dec.Decode(&anyDoc)
	if err != nil {
		return l.yamlError.Wrap(err)
	}

	if l.validator != nil {
		err = l.validator.Validate(anyDoc)
		if err != nil {
			return l.yamlError.Wrap(err)
		}
	}

	return nil
}

// Load decodes and returns the document. Unknown fields are rejected.
//
//nolint:ireturn // Generic type parameter return is intentional.
func (l *Loader[T]) Load() (T, error) {
	doc := l.newFunc()

	dec := condyaml.NewStrictDecoder(bytes.NewReader(l.data))

	err := dec.Decode(doc)
	if err != nil {
		var zero T
		return zero, l.yamlError.Wrap(err)
	}

	doc.EnsureDefaults()

	return doc, nil
}

// Annotate returns err as a [*condyaml.Error] pointing at path in the
// loaded source.
func (l *Loader[T]) Annotate(err error, path *yaml.Path) error {
	if err == nil {
		return nil
	}

	return l.yamlError.Wrap(condyaml.NewError(err, condyaml.WithPath(path)))
}
