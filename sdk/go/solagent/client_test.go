package solagent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestInvokeSendsAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/invoke" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("expected bearer key, got %q", got)
		}
		var req struct {
			Tool string          `json:"tool"`
			Args json.RawMessage `json:"args"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Tool != "fetch_price" {
			t.Fatalf("unexpected tool: %s", req.Tool)
		}
		_ = json.NewEncoder(w).Encode(InvokeResponse{
			Tool:   req.Tool,
			Result: json.RawMessage(`{"price_usd":"1.0"}`),
		})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, WithHTTPClient(srv.Client()), WithAPIKey("secret"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	resp, err := client.Invoke(context.Background(), "fetch_price", map[string]string{"asset": "USDC"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if resp.Tool != "fetch_price" || len(resp.Result) == 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestWaitForOperationPollsUntilTerminal(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/operations":
			_ = json.NewEncoder(w).Encode(Operation{ID: "op-1", Tool: "transfer", Status: "pending"})
		case "/api/v1/operations/op-1":
			calls++
			status := "running"
			if calls >= 3 {
				status = "succeeded"
			}
			_ = json.NewEncoder(w).Encode(Operation{
				ID:     "op-1",
				Tool:   "transfer",
				Status: status,
				Result: json.RawMessage(`{"signature":"sig"}`),
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	op, err := client.SubmitOperation(context.Background(), "", "transfer", map[string]any{"to": "addr", "amount": 1})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	final, err := client.WaitForOperation(ctx, op.ID, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if final.Status != "succeeded" || calls < 3 {
		t.Fatalf("unexpected final state: %+v after %d polls", final, calls)
	}
}

func TestListOperationsEncodesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/operations" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("status") != "failed" || query.Get("tool") != "trade" || query.Get("limit") != "5" {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(struct {
			Operations []Operation `json:"operations"`
		}{Operations: []Operation{{ID: "op-2", Tool: "trade", Status: "failed"}}})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ops, err := client.ListOperations(context.Background(), ListQuery{
		Statuses: []string{"failed"},
		Tool:     "trade",
		Limit:    5,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ops) != 1 || ops[0].ID != "op-2" {
		t.Fatalf("unexpected operations: %+v", ops)
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": "operation not found",
			"code":  "NOT_FOUND",
		})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.GetOperation(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Code != "NOT_FOUND" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}
