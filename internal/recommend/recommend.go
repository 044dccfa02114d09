// Package recommend drives the two-round tool-call exchange with the
// hosted model and validates its final answer.
package recommend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Errors terminating a single recommendation turn. They leave the catalog
// and index untouched; the caller decides whether to start another turn.
var (
	// ErrUnresolvedTitle indicates the model named a title absent from the catalog.
	ErrUnresolvedTitle = errors.New("tool call named a title not in the catalog")

	// ErrSchemaViolation indicates the model's answer did not match the
	// fixed recommendation schema.
	ErrSchemaViolation = errors.New("model response does not match the recommendation schema")
)

// Status of a finished recommendation turn.
type Status string

const (
	StatusOK     Status = "ok"
	StatusRefuse Status = "refuse"
)

// Recommendation is the validated terminal output of a single turn.
type Recommendation struct {
	Status  Status   `json:"status"`
	Title   string   `json:"title,omitempty"`
	Blurb   string   `json:"blurb,omitempty"`
	Reasons []string `json:"reasons,omitempty"`
	Verbal  string   `json:"verbal,omitempty"`
}

// parseFinal validates the model's JSON payload into the tagged union.
// Anything that is not a well-formed "ok" or refusal is a schema violation.
func parseFinal(content string) (Recommendation, error) {
	var raw struct {
		Status  string   `json:"status"`
		Title   string   `json:"title"`
		Blurb   string   `json:"blurb"`
		Reasons []string `json:"reasons"`
		Verbal  string   `json:"verbal"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &raw); err != nil {
		return Recommendation{}, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}

	switch raw.Status {
	case string(StatusOK):
		if raw.Title == "" {
			return Recommendation{}, fmt.Errorf("%w: status ok without a title", ErrSchemaViolation)
		}
		return Recommendation{
			Status:  StatusOK,
			Title:   raw.Title,
			Blurb:   raw.Blurb,
			Reasons: raw.Reasons,
			Verbal:  raw.Verbal,
		}, nil

	case string(StatusRefuse):
		return Recommendation{Status: StatusRefuse}, nil

	case "no_match":
		// Nothing in the context fit the request. Treated as a refusal
		// with no title so the caller sees a single negative branch.
		return Recommendation{Status: StatusRefuse}, nil

	default:
		return Recommendation{}, fmt.Errorf("%w: unknown status %q", ErrSchemaViolation, raw.Status)
	}
}
