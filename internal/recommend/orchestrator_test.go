package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mkerr/librarian/internal/catalog"
	"github.com/mkerr/librarian/internal/openai"
)

const summary1984 = "A dystopian society ruled by Big Brother."

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	path := filepath.Join(t.TempDir(), "books.jsonl")
	content := fmt.Sprintf(`{"title":"1984","summary_short":%q,"themes":["surveillance"]}
{"title":"Dune","summary_short":"A desert planet and the spice."}
`, summary1984)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing test catalog: %v", err)
	}

	cat, err := catalog.Load(path)
	if err != nil {
		t.Fatalf("loading test catalog: %v", err)
	}
	return cat
}

// chatServer records decoded chat requests and replies from a script,
// one response body per request.
type chatServer struct {
	mu       sync.Mutex
	requests []openai.ChatRequest
	script   []string
	srv      *httptest.Server
}

func newChatServer(t *testing.T, script ...string) *chatServer {
	t.Helper()

	cs := &chatServer{script: script}
	cs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}

		var req openai.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding chat request: %v", err)
		}

		cs.mu.Lock()
		cs.requests = append(cs.requests, req)
		n := len(cs.requests)
		cs.mu.Unlock()

		if n > len(cs.script) {
			t.Errorf("unexpected request %d, script has %d responses", n, len(cs.script))
			http.Error(w, "script exhausted", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, cs.script[n-1])
	}))
	t.Cleanup(cs.srv.Close)
	return cs
}

func (cs *chatServer) client() *openai.Client {
	return openai.NewClient(
		openai.WithAPIKey("test-key"),
		openai.WithBaseURL(cs.srv.URL),
	)
}

// toolCallResponse builds a first-round response invoking the summary tool.
func toolCallResponse(title string) string {
	args, _ := json.Marshal(map[string]string{"title": title})
	return fmt.Sprintf(`{
		"id": "chatcmpl-1",
		"choices": [{
			"index": 0,
			"message": {
				"role": "assistant",
				"content": "",
				"tool_calls": [{
					"id": "call_1",
					"type": "function",
					"function": {"name": "get_summary_by_title", "arguments": %q}
				}]
			},
			"finish_reason": "tool_calls"
		}]
	}`, string(args))
}

// finalResponse builds a second-round response with the given JSON content.
func finalResponse(content string) string {
	quoted, _ := json.Marshal(content)
	return fmt.Sprintf(`{
		"id": "chatcmpl-2",
		"choices": [{
			"index": 0,
			"message": {"role": "assistant", "content": %s},
			"finish_reason": "stop"
		}]
	}`, string(quoted))
}

func TestRecommend(t *testing.T) {
	query := "I want a book about surveillance in a dystopia"
	contextBlock := "Title: 1984\nSummary: " + summary1984

	t.Run("two-round tool flow", func(t *testing.T) {
		cs := newChatServer(t,
			toolCallResponse("1984"),
			finalResponse(`{"status":"ok","title":"1984","reasons":["surveillance themes"],"verbal":"Because you want surveillance, I recommend 1984."}`),
		)
		r := New(cs.client(), "test-model", testCatalog(t))

		rec, err := r.Recommend(context.Background(), query, contextBlock)
		if err != nil {
			t.Fatalf("Recommend failed: %v", err)
		}
		if rec.Status != StatusOK {
			t.Errorf("status: got %q, want ok", rec.Status)
		}
		if rec.Title != "1984" {
			t.Errorf("title: got %q, want 1984", rec.Title)
		}

		if len(cs.requests) != 2 {
			t.Fatalf("expected 2 round trips, got %d", len(cs.requests))
		}

		first := cs.requests[0]
		if len(first.Tools) != 1 || first.Tools[0].Function.Name != ToolName {
			t.Errorf("first request must declare exactly the %s tool", ToolName)
		}
		if first.ToolChoice == nil || first.ToolChoice.Function.Name != ToolName {
			t.Error("first request must force the tool, not merely allow it")
		}

		second := cs.requests[1]
		last := second.Messages[len(second.Messages)-1]
		if last.Role != openai.RoleTool {
			t.Fatalf("second request must end with a tool message, got role %q", last.Role)
		}
		if last.ToolCallID != "call_1" {
			t.Errorf("tool message must reference the call ID, got %q", last.ToolCallID)
		}
		if last.Content != summary1984 {
			t.Errorf("tool output must be the canonical summary, got %q", last.Content)
		}
	})

	t.Run("direct refusal short-circuits the tool", func(t *testing.T) {
		cs := newChatServer(t, finalResponse(`{"status":"refuse"}`))
		r := New(cs.client(), "test-model", testCatalog(t))

		rec, err := r.Recommend(context.Background(), "something unsafe", contextBlock)
		if err != nil {
			t.Fatalf("Recommend failed: %v", err)
		}
		if rec.Status != StatusRefuse {
			t.Errorf("status: got %q, want refuse", rec.Status)
		}
		if len(cs.requests) != 1 {
			t.Errorf("refusal must not trigger a second round trip, got %d requests", len(cs.requests))
		}
	})

	t.Run("direct ok answer without tool resolution is rejected", func(t *testing.T) {
		cs := newChatServer(t, finalResponse(`{"status":"ok","title":"1984"}`))
		r := New(cs.client(), "test-model", testCatalog(t))

		_, err := r.Recommend(context.Background(), query, contextBlock)
		if !errors.Is(err, ErrSchemaViolation) {
			t.Fatalf("expected ErrSchemaViolation, got %v", err)
		}
	})

	t.Run("tool call with unknown title", func(t *testing.T) {
		cs := newChatServer(t, toolCallResponse("The Phantom Tome"))
		r := New(cs.client(), "test-model", testCatalog(t))

		_, err := r.Recommend(context.Background(), query, contextBlock)
		if !errors.Is(err, ErrUnresolvedTitle) {
			t.Fatalf("expected ErrUnresolvedTitle, got %v", err)
		}
		if len(cs.requests) != 1 {
			t.Errorf("unresolved title must not trigger a second round trip, got %d requests", len(cs.requests))
		}
	})

	t.Run("final answer with unknown title", func(t *testing.T) {
		cs := newChatServer(t,
			toolCallResponse("1984"),
			finalResponse(`{"status":"ok","title":"The Phantom Tome","verbal":"made up"}`),
		)
		r := New(cs.client(), "test-model", testCatalog(t))

		_, err := r.Recommend(context.Background(), query, contextBlock)
		if !errors.Is(err, ErrUnresolvedTitle) {
			t.Fatalf("expected ErrUnresolvedTitle, got %v", err)
		}
	})

	t.Run("malformed final payload", func(t *testing.T) {
		cs := newChatServer(t,
			toolCallResponse("1984"),
			finalResponse(`here you go: 1984!`),
		)
		r := New(cs.client(), "test-model", testCatalog(t))

		_, err := r.Recommend(context.Background(), query, contextBlock)
		if !errors.Is(err, ErrSchemaViolation) {
			t.Fatalf("expected ErrSchemaViolation, got %v", err)
		}
	})

	t.Run("API error surfaces to the caller", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":{"message":"boom","type":"server_error"}}`)
		}))
		defer srv.Close()

		client := openai.NewClient(openai.WithAPIKey("test-key"), openai.WithBaseURL(srv.URL))
		r := New(client, "test-model", testCatalog(t))

		_, err := r.Recommend(context.Background(), query, contextBlock)
		var apiErr *openai.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *openai.APIError, got %v", err)
		}
		if apiErr.StatusCode != http.StatusInternalServerError {
			t.Errorf("status code: got %d, want 500", apiErr.StatusCode)
		}
	})
}
