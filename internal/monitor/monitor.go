// Package monitor checks the shape of incoming payment descriptions against a JSON
// schema before they reach the request builder.
package monitor

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/payment_description.json
var defaultSchema []byte

// ContractMonitor validates payment descriptions against a compiled JSON schema.
type ContractMonitor struct {
	schema *gojsonschema.Schema
}

// NewContractMonitor loads and compiles the schema at schemaPath.
// The schemaPath should be an absolute path or relative to the working directory.
func NewContractMonitor(schemaPath string) (*ContractMonitor, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewReferenceLoader("file://" + schemaPath))
	if err != nil {
		return nil, fmt.Errorf("error loading or compiling schema %s: %w", schemaPath, err)
	}
	return &ContractMonitor{schema: schema}, nil
}

// NewDefaultContractMonitor uses the built-in flat description contract.
func NewDefaultContractMonitor() *ContractMonitor {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(defaultSchema))
	if err != nil {
		panic("monitor: built-in schema does not compile: " + err.Error())
	}
	return &ContractMonitor{schema: schema}
}

// Validate validates body against the schema.
// It returns true if valid, or false and a list of validation errors if invalid.
// A body that is not JSON yields an error rather than validation errors.
func (cm *ContractMonitor) Validate(body []byte) (bool, []string, error) {
	result, err := cm.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return false, nil, fmt.Errorf("error during validation: %w", err)
	}
	if result.Valid() {
		return true, nil, nil
	}

	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return false, errs, nil
}

// FormatErrors joins validation errors into a single message.
func FormatErrors(validationErrors []string) string {
	if len(validationErrors) == 0 {
		return ""
	}
	return "Validation errors: " + strings.Join(validationErrors, "; ")
}
