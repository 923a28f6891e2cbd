// Package stdout writes alert records to standard output as NDJSON.
package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/crimson-sun/novelty/internal/alertout"
)

// Output writes JSON-encoded alert records to stdout.
type Output struct {
	enc       *json.Encoder
	verbosity alertout.Verbosity
}

// New creates a new stdout Output with verbosity-aware field truncation
// and optional pretty-printed JSON.
func New(verbosity alertout.Verbosity, pretty bool) *Output {
	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &Output{enc: enc, verbosity: verbosity}
}

func (o *Output) Write(_ context.Context, record alertout.AlertRecord) error {
	formatted := alertout.Format(record, o.verbosity)
	if err := o.enc.Encode(formatted); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
