// Package v1beta1 contains the v1beta1 API types for condfmt documents.
package v1beta1

import (
	"errors"
	"fmt"
	"slices"

	"github.com/invopop/jsonschema"
)

// APIVersion is the current API version for all condfmt document kinds.
const APIVersion = "condfmt.macropower.dev/v1beta1"

// ErrTypeMeta indicates a document with an unsupported apiVersion or kind.
var ErrTypeMeta = errors.New("unsupported document type")

// ValidAPIVersions contains all valid API versions.
var ValidAPIVersions = []string{APIVersion}

// TypeMeta contains the API version and kind metadata common to all config types.
type TypeMeta struct {
	// APIVersion specifies the API version of the document.
	APIVersion string `json:"apiVersion" jsonschema:"title=API Version"`
	// Kind defines the type of document.
	Kind string `json:"kind" jsonschema:"title=Kind"`
}

// GetAPIVersion returns the API version.
func (tm TypeMeta) GetAPIVersion() string {
	return tm.APIVersion
}

// GetKind returns the kind.
func (tm TypeMeta) GetKind() string {
	return tm.Kind
}

// Object is the interface that all document types implement.
type Object interface {
	GetAPIVersion() string
	GetKind() string
	EnsureDefaults()
}

// ExtendSchemaWithEnums adds apiVersion and kind enum constraints to a JSON schema.
func ExtendSchemaWithEnums(jss *jsonschema.Schema, apiVersions, kinds []string) {
	apiVersion, ok := jss.Properties.Get("apiVersion")
	if !ok {
		panic("apiVersion property not found in schema")
	}

	for _, version := range apiVersions {
		apiVersion.OneOf = append(apiVersion.OneOf, &jsonschema.Schema{
			Type:  "string",
			Const: version,
			Title: "API Version",
		})
	}

	_, _ = jss.Properties.Set("apiVersion", apiVersion)

	kind, ok := jss.Properties.Get("kind")
	if !ok {
		panic("kind property not found in schema")
	}

	for _, kindValue := range kinds {
		kind.OneOf = append(kind.OneOf, &jsonschema.Schema{
			Type:  "string",
			Const: kindValue,
			Title: "Kind",
		})
	}

	_, _ = jss.Properties.Set("kind", kind)
}

// CheckTypeMeta returns an error wrapping [ErrTypeMeta] unless obj carries
// one of [ValidAPIVersions] and one of kinds.
func CheckTypeMeta(obj Object, kinds ...string) error {
	if !slices.Contains(ValidAPIVersions, obj.GetAPIVersion()) {
		return fmt.Errorf("%w: apiVersion %q", ErrTypeMeta, obj.GetAPIVersion())
	}
	if !slices.Contains(kinds, obj.GetKind()) {
		return fmt.Errorf("%w: kind %q, want one of %v", ErrTypeMeta, obj.GetKind(), kinds)
	}

	return nil
}
