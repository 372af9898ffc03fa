// ABOUTME: ObjectGenerator abstracts the strict-schema structured LLM call used by every agent.
// ABOUTME: Satisfied by *llm.Client; tests substitute fakes.

package workflow

import (
	"context"
	"encoding/json"

	"github.com/tintlab/tint/llm"
)

// ObjectGenerator issues one structured-output LLM call and parses the result
// into out. Implementations must fail rather than return partial or untyped data.
type ObjectGenerator interface {
	GenerateObject(ctx context.Context, opts llm.GenerateOptions, schemaName string, schema json.RawMessage, out any) error
}
