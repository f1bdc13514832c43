package llm

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

// ValidateJSON checks that data satisfies the given CUE schema. Model
// output is untrusted input: a response missing a required field, carrying
// a wrong type, or an out-of-range value is rejected here, before any of it
// reaches the pipeline.
func ValidateJSON(schema string, data []byte) error {
	cctx := cuecontext.New()

	schemaVal := cctx.CompileString(schema)
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	expr, err := cuejson.Extract("response", data)
	if err != nil {
		return fmt.Errorf("parse response JSON: %w", err)
	}
	dataVal := cctx.BuildExpr(expr)
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("build response value: %w", err)
	}

	unified := schemaVal.Unify(dataVal)
	if err := unified.Err(); err != nil {
		return fmt.Errorf("response does not match schema: %w", err)
	}
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("response does not match schema: %w", err)
	}
	return nil
}
