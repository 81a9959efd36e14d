package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	xerrors "SolAgent-Kit/internal/errors"
	"SolAgent-Kit/internal/llm"
)

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Config{})
	if xerrors.CodeOf(err) != xerrors.CodeCredentialFailure {
		t.Fatalf("expected CREDENTIAL_FAILURE, got %v", err)
	}
}

func TestGenerateImageAppliesDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header = %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["size"] != "1024x1024" {
			t.Errorf("size = %v", body["size"])
		}
		if body["n"] != float64(1) {
			t.Errorf("n = %v", body["n"])
		}
		w.Write([]byte(`{"data":[{"url":"https://img.example/1.png"}]}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	images, err := client.GenerateImage(context.Background(), llm.ImageRequest{Prompt: "a solana logo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(images) != 1 || images[0].URL != "https://img.example/1.png" {
		t.Fatalf("unexpected images: %+v", images)
	}
}

func TestGenerateImageClassifiesAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "bad-key", BaseURL: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.GenerateImage(context.Background(), llm.ImageRequest{Prompt: "anything"})
	if xerrors.CodeOf(err) != xerrors.CodeCredentialFailure {
		t.Fatalf("expected CREDENTIAL_FAILURE, got %v", err)
	}
}

func TestGenerateImageRejectsEmptyPrompt(t *testing.T) {
	client, err := NewClient(Config{APIKey: "test-key"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.GenerateImage(context.Background(), llm.ImageRequest{})
	if xerrors.CodeOf(err) != xerrors.CodeInvalidArgument {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
}
