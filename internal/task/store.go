package task

import (
	"context"
	"encoding/json"

	xerrors "SolAgent-Kit/internal/errors"
)

// Store persists operation state.
type Store interface {
	Create(ctx context.Context, op *Operation) error
	Get(ctx context.Context, id string) (*Operation, error)
	Claim(ctx context.Context, id string) (*Operation, error)
	MarkSucceeded(ctx context.Context, id string, result json.RawMessage) error
	MarkFailed(ctx context.Context, id string, code xerrors.Code, lastError string, terminal bool) error
	List(ctx context.Context, opts ListOptions) ([]*Operation, error)
	Stats(ctx context.Context, opts ListOptions) (Stats, error)
	Close() error
}
