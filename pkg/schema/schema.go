// Package schema validates extraction output against the published JSON
// Schemas of both modes.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/panbanda/harnessprobe/pkg/models"
)

//go:embed schemas/*.json
var files embed.FS

const baseURL = "https://harnessprobe.dev/schemas/"

var schemaFiles = map[models.Mode]string{
	models.ModeFunctions: "functions.json",
	models.ModeVariables: "variables.json",
}

// Raw returns the schema document for mode.
func Raw(mode models.Mode) ([]byte, error) {
	name, ok := schemaFiles[mode]
	if !ok {
		return nil, fmt.Errorf("no schema for mode %q", mode)
	}
	return files.ReadFile("schemas/" + name)
}

// Validator holds the compiled schemas.
type Validator struct {
	schemas map[models.Mode]*jsonschema.Schema
}

// New compiles the embedded schemas.
func New() (*Validator, error) {
	c := jsonschema.NewCompiler()
	for _, name := range schemaFiles {
		data, err := files.ReadFile("schemas/" + name)
		if err != nil {
			return nil, err
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
		if err := c.AddResource(baseURL+name, doc); err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
	}

	v := &Validator{schemas: make(map[models.Mode]*jsonschema.Schema, len(schemaFiles))}
	for mode, name := range schemaFiles {
		sch, err := c.Compile(baseURL + name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[mode] = sch
	}
	return v, nil
}

// Validate checks one JSON document produced in mode. A multi-file document
// ({"files": [...], "failed": [...]}) has each file checked on its own.
func (v *Validator) Validate(mode models.Mode, data []byte) error {
	sch, ok := v.schemas[mode]
	if !ok {
		return fmt.Errorf("no schema for mode %q", mode)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("output is not JSON: %w", err)
	}

	obj, _ := inst.(map[string]any)
	entries, isRun := obj["files"].([]any)
	if !isRun {
		return sch.Validate(inst)
	}
	for i, f := range entries {
		if err := sch.Validate(f); err != nil {
			m, _ := f.(map[string]any)
			name, _ := m["file"].(string)
			return fmt.Errorf("files[%d] %s: %w", i, name, err)
		}
	}
	return nil
}

// ValidateResult validates a result value by its JSON encoding.
func (v *Validator) ValidateResult(mode models.Mode, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return v.Validate(mode, data)
}
