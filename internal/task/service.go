package task

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	xerrors "SolAgent-Kit/internal/errors"
	"SolAgent-Kit/pkg/logger"
)

// ToolTable answers whether a tool name is registered. Satisfied by the
// tool registry.
type ToolTable interface {
	Has(name string) bool
}

// SubmitRequest enqueues one operation. A caller-supplied ID makes the
// submission idempotent: resubmitting an existing ID returns the stored
// record unchanged.
type SubmitRequest struct {
	ID   string          `json:"id,omitempty"`
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Service creates and queries operations.
type Service struct {
	store      Store
	producer   Producer
	tools      ToolTable
	maxRetries int
}

// NewService builds the operation service.
func NewService(store Store, producer Producer, tools ToolTable, maxRetries int) *Service {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Service{store: store, producer: producer, tools: tools, maxRetries: maxRetries}
}

// Submit persists a new operation and publishes its ID.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Operation, error) {
	if s.store == nil || s.producer == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "operation service is not initialised")
	}
	tool := strings.TrimSpace(req.Tool)
	if tool == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "tool name is empty")
	}
	if s.tools != nil && !s.tools.Has(tool) {
		return nil, xerrors.New(xerrors.CodeNotFound, fmt.Sprintf("tool %s is not registered", tool))
	}
	if len(req.Args) > 0 && !json.Valid(req.Args) {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "args is not valid JSON")
	}

	operationID := strings.TrimSpace(req.ID)
	if operationID != "" {
		op, err := s.store.Get(ctx, operationID)
		if err == nil {
			return op, nil
		}
		if !stdErrors.Is(err, ErrNotFound) {
			return nil, err
		}
	} else {
		operationID = uuid.NewString()
	}

	op := &Operation{
		ID:         operationID,
		Tool:       tool,
		Args:       req.Args,
		Status:     StatusPending,
		Attempts:   0,
		MaxRetries: s.maxRetries,
	}
	if err := s.store.Create(ctx, op); err != nil {
		if stdErrors.Is(err, ErrConflict) {
			existing, getErr := s.store.Get(ctx, operationID)
			if getErr == nil {
				return existing, nil
			}
			if !stdErrors.Is(getErr, ErrNotFound) {
				return nil, getErr
			}
		}
		return nil, err
	}
	if err := s.producer.Publish(ctx, operationID); err != nil {
		logger.L().Error("publish operation failed", slog.Any("error", err), slog.String("operation_id", operationID))
		wrapped := xerrors.Wrap(xerrors.CodeQueueFailure, err, "publish operation to queue")
		_ = s.store.MarkFailed(ctx, operationID, xerrors.CodeQueueFailure, wrapped.Error(), true)
		return nil, wrapped
	}
	logger.Audit().Info("operation queued",
		slog.String("operation_id", operationID),
		slog.String("tool", tool),
		slog.Int("max_retries", op.MaxRetries),
	)
	return op, nil
}

// Get returns one operation.
func (s *Service) Get(ctx context.Context, id string) (*Operation, error) {
	if s.store == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "operation store is not initialised")
	}
	return s.store.Get(ctx, id)
}

// List returns matching operations.
func (s *Service) List(ctx context.Context, opts ...ListOption) ([]*Operation, error) {
	if s.store == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "operation store is not initialised")
	}
	return s.store.List(ctx, buildListOptions(opts))
}

// Stats aggregates matching operations.
func (s *Service) Stats(ctx context.Context, opts ...ListOption) (Stats, error) {
	if s.store == nil {
		return Stats{}, xerrors.New(xerrors.CodeInitializationFailure, "operation store is not initialised")
	}
	return s.store.Stats(ctx, buildListOptions(opts))
}

// WaitUntilCompleted polls until the operation reaches a terminal state. A
// failed operation with attempts left is still in flight and keeps the poll
// going.
func (s *Service) WaitUntilCompleted(ctx context.Context, id string, interval time.Duration) (*Operation, error) {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		op, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if op.Status == StatusSucceeded || (op.Status == StatusFailed && op.Attempts >= op.MaxRetries) {
			return op, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close releases the store and producer.
func (s *Service) Close() error {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			return err
		}
	}
	if s.producer != nil {
		return s.producer.Close()
	}
	return nil
}
