package cli

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/haldane/cutroom/internal/engine"
)

// Script is an edit-script file: a named batch of commands applied to one
// timeline through the agent write path. Scripts do not name their target
// timeline; that comes from the apply command, so one script can replay
// against many timelines.
type Script struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	CreatedBy   string           `yaml:"createdBy"`
	Commands    []engine.Command `yaml:"commands"`
}

// decodeScript parses script YAML, rejecting unknown fields so typos
// surface as errors instead of silently dropped commands.
func decodeScript(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	return &s, nil
}

// LoadScript reads, schema-validates, and decodes an edit script.
// Validation runs against the embedded CUE schema before decoding, so a
// malformed script never reaches the engine.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ScriptError{Code: ErrCodeScriptNotFound, Message: fmt.Sprintf("reading script: %v", err)}
	}
	if errs := ValidateScript(path, data); len(errs) > 0 {
		return nil, errs[0]
	}
	s, err := decodeScript(data)
	if err != nil {
		return nil, &ScriptError{Code: ErrCodeScriptParse, Message: err.Error()}
	}
	return s, nil
}
