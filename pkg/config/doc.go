// Package config loads versioned YAML documents.
//
// A [Loader] validates raw document data against a JSON schema, decodes it
// into a typed document, and reports failures as source-annotated
// YAML errors.
package config
