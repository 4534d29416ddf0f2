package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// validateSchema unifies the configuration with the #Config definition.
// The configuration is handed to CUE as JSON, which is valid CUE.
func validateSchema(c *Config) error {
	data, err := json.Marshal(c)
	if err != nil {
		return &ConfigError{Message: fmt.Sprintf("encode for validation: %v", err), Err: err}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return &ConfigError{Message: fmt.Sprintf("compile schema: %v", err), Err: err}
	}

	value := ctx.CompileBytes(data, cue.Filename("config.json"))
	if err := value.Err(); err != nil {
		return &ConfigError{Message: fmt.Sprintf("load config value: %v", err), Err: err}
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// formatCUEError converts the first CUE validation error into a ConfigError
// naming the offending field.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &ConfigError{Message: err.Error(), Err: err}
	}

	first := errs[0]
	path := first.Path()
	if len(path) > 0 && path[0] == "#Config" {
		path = path[1:]
	}

	format, args := first.Msg()
	return &ConfigError{
		Field:   strings.Join(path, "."),
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}
