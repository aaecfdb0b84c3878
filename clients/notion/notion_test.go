package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateWorkspace(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pages" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Notion-Version"); got != notionVersion {
			t.Fatalf("unexpected notion version: %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("unexpected authorization: %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "page_1"})
	}))
	defer server.Close()

	client := NewClient("secret", "db_1").WithBaseURL(server.URL)
	pageID, err := client.CreateWorkspace(context.Background(), "a@b.com", "COPYKIT-MONTHLY")
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	if pageID != "page_1" {
		t.Fatalf("unexpected page id: %q", pageID)
	}
	parent, _ := captured["parent"].(map[string]any)
	if parent["database_id"] != "db_1" {
		t.Fatalf("unexpected parent: %+v", captured)
	}
}

func TestCreateCRMRecordSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "Email is not a property", "code": "validation_error"})
	}))
	defer server.Close()

	client := NewClient("secret", "db_1").WithBaseURL(server.URL)
	_, err := client.CreateCRMRecord(context.Background(), CRMRecord{Email: "a@b.com"})
	if err == nil {
		t.Fatal("expected api error")
	}
}

func TestCreateWorkspaceRequiresAPIKey(t *testing.T) {
	client := NewClient("", "db_1")
	if _, err := client.CreateWorkspace(context.Background(), "a@b.com", "COPYKIT-MONTHLY"); err == nil {
		t.Fatal("expected configuration error")
	}
}
