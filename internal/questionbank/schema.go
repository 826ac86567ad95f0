package questionbank

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
)

// SupportedMajor is the bank file format major version this build reads.
const SupportedMajor = "v1"

const roundSchemaURL = "schema://cassini/round.json"

// roundSchema describes a single R{n}.json file.
var roundSchema = map[string]any{
	"type":     "object",
	"required": []any{"questions"},
	"properties": map[string]any{
		"schema_version": map[string]any{"type": "string"},
		"unit":           map[string]any{"type": "string"},
		"questions": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"question_id", "question", "options", "correct_answer"},
				"properties": map[string]any{
					"question_id": map[string]any{"type": "string", "minLength": 1},
					"question":    map[string]any{"type": "string", "minLength": 1},
					"options": map[string]any{
						"type":     "object",
						"required": []any{"A", "B", "C", "D"},
						"properties": map[string]any{
							"A": map[string]any{"type": "string"},
							"B": map[string]any{"type": "string"},
							"C": map[string]any{"type": "string"},
							"D": map[string]any{"type": "string"},
						},
					},
					"correct_answer": map[string]any{"enum": []any{"A", "B", "C", "D"}},
					"explanation":    map[string]any{"type": "string"},
					"source_unit":    map[string]any{"type": "string"},
				},
			},
		},
	},
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The compiler wants a decoded JSON value, so round-trip the Go map.
		raw, err := json.Marshal(roundSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(roundSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(roundSchemaURL)
	})
	return compiled, compileErr
}

// ValidateRound checks raw round-file bytes against the bank schema and the
// supported format version.
func ValidateRound(raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if obj, ok := parsed.(map[string]any); ok {
		if v, ok := obj["schema_version"].(string); ok && v != "" {
			if err := checkVersion(v); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkVersion accepts "1", "1.2" or "v1.2.0" style versions with a
// supported major.
func checkVersion(v string) error {
	canonical := v
	if !strings.HasPrefix(canonical, "v") {
		canonical = "v" + canonical
	}
	if !semver.IsValid(canonical) {
		return fmt.Errorf("invalid schema_version %q", v)
	}
	if major := semver.Major(canonical); major != SupportedMajor {
		return fmt.Errorf("unsupported schema_version %q (want %s.x)", v, SupportedMajor)
	}
	return nil
}
