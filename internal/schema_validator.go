package internal

import (
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// SchemaValidator checks request bodies against a JSON schema compiled once at startup.
type SchemaValidator struct {
	schema *gojsonschema.Schema
}

// Validate returns the schema violations of body; an empty slice means it is valid.
func (v *SchemaValidator) Validate(body string) ([]gojsonschema.ResultError, error) {
	result, err := v.schema.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return nil, errors.Wrap(err, "validating request body")
	}
	if result.Valid() {
		return []gojsonschema.ResultError{}, nil
	}
	return result.Errors(), nil
}

func NewSchemaValidator(schema string) (*SchemaValidator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		return nil, errors.Wrap(err, "compiling json schema")
	}
	return &SchemaValidator{
		schema: compiled,
	}, nil
}

// MustSchemaValidator is NewSchemaValidator for schemas embedded in the binary.
func MustSchemaValidator(schema string) *SchemaValidator {
	v, err := NewSchemaValidator(schema)
	if err != nil {
		panic(err)
	}
	return v
}
