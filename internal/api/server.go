package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"SolAgent-Kit/internal/agent"
	"SolAgent-Kit/internal/auth"
	xerrors "SolAgent-Kit/internal/errors"
	"SolAgent-Kit/internal/observability/metrics"
	"SolAgent-Kit/internal/registry"
	"SolAgent-Kit/internal/task"
)

// Server exposes the toolkit over REST: synchronous tool invocation plus
// the asynchronous operation pipeline.
type Server struct {
	addr       string
	kit        *agent.Kit
	registry   *registry.Registry
	operations *task.Service
	auth       *auth.Service
}

// NewServer builds the REST surface. The operation service and auth
// service may be nil, which disables the corresponding routes.
func NewServer(addr string, kit *agent.Kit, reg *registry.Registry, operations *task.Service, authSvc *auth.Service) *Server {
	return &Server{addr: addr, kit: kit, registry: reg, operations: operations, auth: authSvc}
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           withContext(ctx, s.Routes()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Routes assembles the handler tree with auth and metrics instrumentation.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)

	protected := http.NewServeMux()
	protected.Handle("/api/v1/tools", instrument("tools", http.HandlerFunc(s.handleTools)))
	protected.Handle("/api/v1/invoke", instrument("invoke", http.HandlerFunc(s.handleInvoke)))
	protected.Handle("/api/v1/operations", instrument("operations", http.HandlerFunc(s.handleOperations)))
	protected.Handle("/api/v1/operations/stats", instrument("operation_stats", http.HandlerFunc(s.handleOperationStats)))
	protected.Handle("/api/v1/operations/", instrument("operation_detail", http.HandlerFunc(s.handleOperationDetail)))

	if s.auth != nil {
		mux.Handle("/api/v1/", s.auth.Middleware(protected))
	} else {
		mux.Handle("/api/v1/", protected)
	}
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "", "only GET is supported")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "", "only GET is supported")
		return
	}
	if s.registry == nil {
		writeError(w, http.StatusServiceUnavailable, "", "tool registry is not initialised")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.registry.Definitions()})
}

// InvokeRequest is one synchronous tool call.
type InvokeRequest struct {
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args,omitempty"`
}

// InvokeResponse carries the tool result.
type InvokeResponse struct {
	Tool   string `json:"tool"`
	Result any    `json:"result"`
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "", "only POST is supported")
		return
	}
	if s.registry == nil || s.kit == nil {
		writeError(w, http.StatusServiceUnavailable, "", "toolkit is not initialised")
		return
	}

	var req InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, string(xerrors.CodeInvalidArgument), "request body is not valid JSON")
		return
	}
	req.Tool = strings.TrimSpace(req.Tool)
	if req.Tool == "" {
		writeError(w, http.StatusBadRequest, string(xerrors.CodeInvalidArgument), "tool name is empty")
		return
	}

	start := time.Now()
	result, err := s.registry.Invoke(r.Context(), s.kit, req.Tool, req.Args)
	metrics.ObserveToolInvocation(req.Tool, err == nil, time.Since(start))
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, InvokeResponse{Tool: req.Tool, Result: result})
}

func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSubmitOperation(w, r)
	case http.MethodGet:
		s.handleListOperations(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "", "only GET/POST are supported")
	}
}

func (s *Server) handleSubmitOperation(w http.ResponseWriter, r *http.Request) {
	if s.operations == nil {
		writeError(w, http.StatusServiceUnavailable, "", "operation pipeline is not configured")
		return
	}
	var req task.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, string(xerrors.CodeInvalidArgument), "request body is not valid JSON")
		return
	}
	op, err := s.operations.Submit(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, op)
}

func (s *Server) handleListOperations(w http.ResponseWriter, r *http.Request) {
	if s.operations == nil {
		writeError(w, http.StatusServiceUnavailable, "", "operation pipeline is not configured")
		return
	}
	opts, err := listOptionsFromQuery(r)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	ops, err := s.operations.List(r.Context(), opts...)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"operations": ops})
}

func (s *Server) handleOperationStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "", "only GET is supported")
		return
	}
	if s.operations == nil {
		writeError(w, http.StatusServiceUnavailable, "", "operation pipeline is not configured")
		return
	}
	opts, err := listOptionsFromQuery(r)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	stats, err := s.operations.Stats(r.Context(), opts...)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleOperationDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "", "only GET is supported")
		return
	}
	if s.operations == nil {
		writeError(w, http.StatusServiceUnavailable, "", "operation pipeline is not configured")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/operations/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, string(xerrors.CodeInvalidArgument), "operation ID is missing")
		return
	}
	op, err := s.operations.Get(r.Context(), id)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func listOptionsFromQuery(r *http.Request) ([]task.ListOption, error) {
	query := r.URL.Query()
	var opts []task.ListOption

	if raw := query.Get("status"); raw != "" {
		statuses := make([]task.Status, 0, 2)
		for _, part := range strings.Split(raw, ",") {
			status := task.Status(strings.TrimSpace(part))
			if !task.IsValidStatus(status) {
				return nil, xerrors.New(xerrors.CodeInvalidArgument, "unknown status "+string(status))
			}
			statuses = append(statuses, status)
		}
		opts = append(opts, task.WithStatuses(statuses...))
	}
	if tool := strings.TrimSpace(query.Get("tool")); tool != "" {
		opts = append(opts, task.WithTool(tool))
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return nil, xerrors.New(xerrors.CodeInvalidArgument, "limit must be a positive integer")
		}
		opts = append(opts, task.WithLimit(limit))
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return nil, xerrors.New(xerrors.CodeInvalidArgument, "offset must be a non-negative integer")
		}
		opts = append(opts, task.WithOffset(offset))
	}
	if raw := query.Get("order"); raw != "" {
		switch task.SortOrder(raw) {
		case task.SortByUpdatedAsc:
			opts = append(opts, task.WithOrder(task.SortByUpdatedAsc))
		case task.SortByUpdatedDesc:
			opts = append(opts, task.WithOrder(task.SortByUpdatedDesc))
		default:
			return nil, xerrors.New(xerrors.CodeInvalidArgument, "unknown order "+raw)
		}
	}
	return opts, nil
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: message, Code: code})
}

func writeErrorFrom(w http.ResponseWriter, err error) {
	code := xerrors.CodeOf(err)
	writeError(w, statusForCode(code), string(code), err.Error())
}

func statusForCode(code xerrors.Code) int {
	switch code {
	case xerrors.CodeInvalidArgument:
		return http.StatusBadRequest
	case xerrors.CodeNotFound:
		return http.StatusNotFound
	case xerrors.CodeConflict, xerrors.CodeAlreadyCompleted:
		return http.StatusConflict
	case xerrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case xerrors.CodeRPCFailure, xerrors.CodeChainRejected, xerrors.CodeProviderFailure, xerrors.CodeCredentialFailure:
		return http.StatusBadGateway
	case xerrors.CodeInitializationFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// instrument records request metrics under the given handler label.
func instrument(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		metrics.ObserveHTTPRequest(name, r.Method, recorder.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// withContext rejects requests once the root context is cancelled.
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}
