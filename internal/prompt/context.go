// Package prompt builds the model-facing context block from retrieval results.
package prompt

import (
	"fmt"
	"strings"

	"github.com/mkerr/librarian/internal/index"
)

// NoContext is emitted when retrieval produced no results, so downstream
// consumers can tell the no-match case apart from an empty block.
const NoContext = "(no matching context)"

// BuildContext formats retrieval hits into the CONTEXT block the model is
// constrained to. Result order is preserved.
func BuildContext(results []index.Result) string {
	if len(results) == 0 {
		return NoContext
	}

	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("Title: %s\nSummary: %s", r.Title, r.Summary)
	}
	return strings.Join(parts, "\n\n")
}
