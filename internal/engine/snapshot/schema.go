package snapshot

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaSource validates the shape of a snapshot document loosely enough
// to accept versions 1 and 2, which omit most fields: only "version" is
// required. Field types are still checked, catching corrupt files early
// with a useful field name.
const schemaSource = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["version"],
	"properties": {
		"version": {"type": "integer", "minimum": 1},
		"config": {"type": "object"},
		"token_counts": {"type": "object", "additionalProperties": {"type": "number"}},
		"template_counts": {"type": "object", "additionalProperties": {"type": "number"}},
		"g": {"type": "number"},
		"seen_lines": {"type": "integer", "minimum": 0},
		"total_token_mass": {"type": "number"},
		"total_template_mass": {"type": "number"},
		"truncated_lines": {"type": "integer", "minimum": 0},
		"truncated_tokens": {"type": "integer", "minimum": 0},
		"renormalizations": {"type": "integer", "minimum": 0},
		"vocab_order": {"type": "object"}
	}
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("snapshot.json", strings.NewReader(schemaSource)); err != nil {
			compileErr = fmt.Errorf("compile snapshot schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile("snapshot.json")
	})
	return compiled, compileErr
}
