package cli

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaCUE []byte

// Script error codes, reported in CLI error envelopes.
const (
	ErrCodeScriptNotFound = "SCRIPT_NOT_FOUND"
	ErrCodeScriptParse    = "SCRIPT_PARSE"
	ErrCodeScriptSchema   = "SCRIPT_SCHEMA"
)

// ScriptError is a script loading or validation failure, with the CUE
// source position when one is available.
type ScriptError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *ScriptError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ValidateScript checks script YAML against the embedded schema without
// decoding it. filename is used for error positions only. Returns all
// violations, not just the first.
func ValidateScript(filename string, data []byte) []error {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return []error{&ScriptError{Code: ErrCodeScriptSchema, Message: fmt.Sprintf("compiling schema: %v", err)}}
	}
	def := schema.LookupPath(cue.ParsePath("#Script"))
	if !def.Exists() {
		return []error{&ScriptError{Code: ErrCodeScriptSchema, Message: "schema has no #Script definition"}}
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return []error{&ScriptError{Code: ErrCodeScriptParse, Message: err.Error()}}
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return []error{&ScriptError{Code: ErrCodeScriptParse, Message: err.Error()}}
	}

	if err := def.Unify(doc).Validate(cue.Concrete(true), cue.Final()); err != nil {
		var errs []error
		for _, e := range cueerrors.Errors(err) {
			format, args := e.Msg()
			errs = append(errs, &ScriptError{
				Code:    ErrCodeScriptSchema,
				Message: fmt.Sprintf(format, args...),
				Pos:     e.Position(),
			})
		}
		return errs
	}
	return nil
}
