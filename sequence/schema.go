package sequence

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/LinkesAuge/autoseq/engine"
)

// schemaURL names the in-memory schema resource.
const schemaURL = "sequence-v1.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// Validate checks raw sequence JSON against the schema: the outer
// {name, actions} shape, the {type, params} action envelope, and the closed
// kind set. Parameter details are left to the typed decoder.
func Validate(data []byte) error {
	sch, err := schema()
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse sequence json: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("sequence schema: %w", err)
	}
	return nil
}

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, schemaDocument()); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// schemaDocument builds the schema from the live kind registry so the enum
// can never drift from the engine.
func schemaDocument() map[string]any {
	kinds := engine.Kinds()
	enum := make([]any, len(kinds))
	for i, k := range kinds {
		enum[i] = string(k)
	}
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"name":        map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"actions": map[string]any{
				"type":  "array",
				"items": map[string]any{"$ref": "#/$defs/action"},
			},
		},
		"required":             []any{"actions"},
		"additionalProperties": false,
		"$defs": map[string]any{
			"action": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"type": map[string]any{
						"type": "string",
						"enum": enum,
					},
					"params": map[string]any{"type": "object"},
				},
				"required":             []any{"type"},
				"additionalProperties": false,
			},
		},
	}
}
