// Package task implements the asynchronous operation pipeline: queued tool
// invocations with persistent state, retries and failure alerting.
package task

import (
	"encoding/json"

	xerrors "SolAgent-Kit/internal/errors"
)

// Status is the lifecycle state of a queued operation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Operation is one queued tool invocation.
type Operation struct {
	ID         string          `json:"id"`
	Tool       string          `json:"tool"`
	Args       json.RawMessage `json:"args,omitempty"`
	Status     Status          `json:"status"`
	Attempts   int             `json:"attempts"`
	MaxRetries int             `json:"max_retries"`
	LastError  string          `json:"last_error,omitempty"`
	ErrorCode  string          `json:"error_code,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	CreatedAt  int64           `json:"created_at"`
	UpdatedAt  int64           `json:"updated_at"`
}

// Sentinel states an operation can be in when a store call cannot proceed.
var (
	ErrNotFound  = xerrors.New(xerrors.CodeNotFound, "operation not found")
	ErrConflict  = xerrors.New(xerrors.CodeConflict, "operation conflict", xerrors.WithSeverity(xerrors.SeverityWarning))
	ErrCompleted = xerrors.New(xerrors.CodeAlreadyCompleted, "operation already completed", xerrors.WithSeverity(xerrors.SeverityInfo))
	ErrExhausted = xerrors.New(xerrors.CodeRetriesExhausted, "operation retries exhausted", xerrors.WithSeverity(xerrors.SeverityCritical))
)

// IsValidStatus reports whether status is a supported enum value.
func IsValidStatus(status Status) bool {
	switch status {
	case StatusPending, StatusRunning, StatusSucceeded, StatusFailed:
		return true
	default:
		return false
	}
}

func cloneOperation(op *Operation) *Operation {
	clone := *op
	if op.Args != nil {
		clone.Args = append(json.RawMessage(nil), op.Args...)
	}
	if op.Result != nil {
		clone.Result = append(json.RawMessage(nil), op.Result...)
	}
	return &clone
}

func hasResult(op *Operation) bool {
	return op != nil && len(op.Result) > 0
}
