package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func completionBody(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
}

func TestCompleteReturnsAssistantText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != defaultModel || len(req.Messages) != 2 {
			t.Fatalf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(completionBody("Market overview."))
	}))
	defer server.Close()

	client := NewClient("sk-test").WithBaseURL(server.URL)
	text, err := client.Complete(context.Background(), "You are an analyst.", "Summarize.", 1000)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if text != "Market overview." {
		t.Fatalf("unexpected completion: %q", text)
	}
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(completionBody("Recovered."))
	}))
	defer server.Close()

	client := NewClient("sk-test").WithBaseURL(server.URL)
	text, err := client.Complete(context.Background(), "system", "user", 100)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if text != "Recovered." || attempts != 2 {
		t.Fatalf("expected retry then success, got %q after %d attempts", text, attempts)
	}
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "bad key"}})
	}))
	defer server.Close()

	client := NewClient("sk-bad").WithBaseURL(server.URL)
	if _, err := client.Complete(context.Background(), "system", "user", 100); err == nil {
		t.Fatal("expected api error")
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}
