package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"SolAgent-Kit/sdk/go/solagent"
)

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/tools", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"tools": []solagent.ToolDefinition{
				{Name: "fetch_price", Description: "Fetch the USD price of a token."},
			},
		})
	})
	mux.HandleFunc("/api/v1/operations", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(solagent.Operation{
			ID:     "op-demo",
			Tool:   "fetch_price",
			Status: "pending",
		})
	})
	mux.HandleFunc("/api/v1/operations/op-demo", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(solagent.Operation{
			ID:     "op-demo",
			Tool:   "fetch_price",
			Status: "succeeded",
			Result: json.RawMessage(`{"symbol":"USDC","price_usd":"0.9998"}`),
		})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := solagent.NewClient(srv.URL)
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tools, err := client.Tools(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Printf("server exposes %d tools\n", len(tools))

	op, err := client.SubmitOperation(ctx, "", "fetch_price", map[string]string{"asset": "USDC"})
	if err != nil {
		panic(err)
	}
	fmt.Printf("submitted operation %s (status=%s)\n", op.ID, op.Status)

	final, err := client.WaitForOperation(ctx, op.ID, 100*time.Millisecond)
	if err != nil {
		panic(err)
	}
	fmt.Printf("operation %s finished with result %s\n", final.ID, string(final.Result))
}
