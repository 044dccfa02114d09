package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mkerr/librarian/internal/catalog"
	"github.com/mkerr/librarian/internal/openai"
)

// ToolName is the single function the model must invoke.
const ToolName = "get_summary_by_title"

// defaultTemperature keeps the structured answer close to the context.
const defaultTemperature = 0.2

// instructions constrain the model to the retrieved context and the fixed
// output schema.
const instructions = `You are a retrieval-grounded book recommender.

Rules (follow strictly):
1) Use ONLY the provided CONTEXT. Do not invent books or use outside knowledge.
2) Recommend exactly ONE title that appears in the CONTEXT.
3) Call get_summary_by_title once with that exact title before answering.
4) Output VALID JSON ONLY:
   {
     "status": "ok" | "refuse",
     "title": "<exact title from CONTEXT>",
     "blurb": "<4-5 engaging sentences tailored to the user>",
     "reasons": ["<short reason 1>", "<short reason 2>"],
     "verbal": "Because you want <summarized user preference>, I recommend <Title>. <1-2 sentence why this fits, based on CONTEXT>."
   }
5) If no suitable title is present, or the request is unsafe or disallowed, return {"status":"refuse"} and nothing else.
6) Respond in the SAME LANGUAGE as the user query.`

// toolParameters is the JSON schema for the get_summary_by_title arguments.
var toolParameters = json.RawMessage(`{
	"type": "object",
	"properties": {
		"title": {"type": "string", "description": "Exact title from CONTEXT"}
	},
	"required": ["title"]
}`)

func summaryTool() openai.Tool {
	return openai.Tool{
		Type: "function",
		Function: openai.ToolFunction{
			Name:        ToolName,
			Description: "Return the short summary for the exact book title selected from CONTEXT.",
			Parameters:  toolParameters,
		},
	}
}

// Recommender runs single recommendation turns against the hosted model.
//
// Each turn walks forward through one state machine: the first request
// forces a tool call, the tool title is resolved against the catalog, the
// canonical summary goes back as the tool output, and the second response
// must be the final structured answer. A refusal can short-circuit the
// machine before any tool resolution. There are no backward transitions.
type Recommender struct {
	client *openai.Client
	model  string
	cat    *catalog.Catalog
}

// New creates a Recommender bound to a catalog snapshot.
func New(client *openai.Client, model string, cat *catalog.Catalog) *Recommender {
	if model == "" {
		model = openai.DefaultChatModel
	}
	return &Recommender{client: client, model: model, cat: cat}
}

// Recommend runs one complete turn for the given query and context block.
func (r *Recommender) Recommend(ctx context.Context, query, contextBlock string) (Recommendation, error) {
	temperature := defaultTemperature

	messages := []openai.ChatMessage{
		{Role: openai.RoleSystem, Content: instructions},
		{
			Role:    openai.RoleUser,
			Content: fmt.Sprintf("USER_QUERY:\n%s\n\nCONTEXT (use only this):\n---\n%s\n---", query, contextBlock),
		},
	}

	first, err := r.client.ChatCompletion(ctx, openai.ChatRequest{
		Model:       r.model,
		Messages:    messages,
		Tools:       []openai.Tool{summaryTool()},
		ToolChoice:  openai.ForceTool(ToolName),
		Temperature: &temperature,
	})
	if err != nil {
		return Recommendation{}, fmt.Errorf("requesting recommendation: %w", err)
	}

	reply := first.Choices[0].Message
	if len(reply.ToolCalls) == 0 {
		// The model answered without the forced tool call. Only a refusal
		// is acceptable here; every successful recommendation must pass
		// through tool resolution.
		rec, err := parseFinal(reply.Content)
		if err != nil {
			return Recommendation{}, err
		}
		if rec.Status != StatusRefuse {
			return Recommendation{}, fmt.Errorf("%w: final answer without tool resolution", ErrSchemaViolation)
		}
		return rec, nil
	}

	call := reply.ToolCalls[0]
	if call.Function.Name != ToolName {
		return Recommendation{}, fmt.Errorf("%w: unexpected tool %q", ErrSchemaViolation, call.Function.Name)
	}

	var args struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return Recommendation{}, fmt.Errorf("%w: malformed tool arguments: %v", ErrSchemaViolation, err)
	}

	title := strings.TrimSpace(args.Title)
	book, ok := r.cat.Get(title)
	if !ok {
		return Recommendation{}, fmt.Errorf("%w: %q", ErrUnresolvedTitle, title)
	}

	// Second round trip: hand the canonical summary back as the tool output.
	messages = append(messages, reply, openai.ChatMessage{
		Role:       openai.RoleTool,
		ToolCallID: call.ID,
		Content:    book.Summary,
	})

	final, err := r.client.ChatCompletion(ctx, openai.ChatRequest{
		Model:          r.model,
		Messages:       messages,
		ResponseFormat: &openai.ResponseFormat{Type: "json_object"},
		Temperature:    &temperature,
	})
	if err != nil {
		return Recommendation{}, fmt.Errorf("finishing recommendation: %w", err)
	}

	rec, err := parseFinal(final.Choices[0].Message.Content)
	if err != nil {
		return Recommendation{}, err
	}
	if rec.Status == StatusOK {
		if _, ok := r.cat.Get(rec.Title); !ok {
			return Recommendation{}, fmt.Errorf("%w: %q", ErrUnresolvedTitle, rec.Title)
		}
	}
	return rec, nil
}
