package yaml

import (
	"errors"
	"io"

	"github.com/goccy/go-yaml"
)

// Decoder decodes YAML documents, converting parse errors to [*Error].
type Decoder struct {
	d *yaml.Decoder
}

// NewDecoder returns a [Decoder] that tolerates unknown fields.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		d: yaml.NewDecoder(r, yaml.AllowDuplicateMapKey()),
	}
}

// NewStrictDecoder returns a [Decoder] that rejects unknown fields and
// duplicate keys.
func NewStrictDecoder(r io.Reader) *Decoder {
	return &Decoder{
		d: yaml.NewDecoder(r, yaml.DisallowUnknownField()),
	}
}

// Decode decodes the next document into v.
func (d *Decoder) Decode(v any) error {
	err := d.d.Decode(v)
	if err == nil {
		return nil
	}

	var yamlErr yaml.Error
	if errors.As(err, &yamlErr) {
		return &Error{
			Err:   errors.New(yamlErr.GetMessage()),
			Token: yamlErr.GetToken(),
		}
	}

	//nolint:wrapcheck // Return the original error if it's not a [yaml.Error].
	return err
}
