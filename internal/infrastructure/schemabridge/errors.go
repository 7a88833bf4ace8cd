package schemabridge

import (
	"bytes"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/microsoft/wassette/internal/domain/wassette"
)

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

// ValidationErrorFrom flattens a jsonschema.ValidationError's cause tree
// into a *wassette.Error carrying one diagnostic per leaf violation, each
// prefixed with its JSON-pointer InstanceLocation, per spec.md §4.B's
// requirement that "validation errors are reported with JSON-pointer-style
// paths".
func ValidationErrorFrom(toolName string, err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return wassette.Validationf("lower", toolName, err.Error())
	}
	var diags []string
	collectLeaves(ve, &diags)
	if len(diags) == 0 {
		diags = []string{ve.Error()}
	}
	return wassette.Validationf("lower", toolName, diags...)
}

func collectLeaves(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		ptr := ve.InstanceLocation
		if ptr == "" {
			ptr = "/"
		}
		*out = append(*out, fmt.Sprintf("%s: %s", ptr, ve.Message))
		return
	}
	for _, c := range ve.Causes {
		collectLeaves(c, out)
	}
}
