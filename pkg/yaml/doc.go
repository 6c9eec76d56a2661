// Package yaml wraps [github.com/goccy/go-yaml] with decoding, encoding,
// JSON schema validation, and source-annotated errors.
package yaml
