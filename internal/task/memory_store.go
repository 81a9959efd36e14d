package task

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	xerrors "SolAgent-Kit/internal/errors"
)

// MemoryStore keeps operation state in memory. Used for tests and single
// process deployments without durability requirements.
type MemoryStore struct {
	mu  sync.RWMutex
	ops map[string]*Operation
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ops: make(map[string]*Operation)}
}

// Create implements Store.
func (m *MemoryStore) Create(_ context.Context, op *Operation) error {
	if op == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "operation is nil")
	}
	if op.ID == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "operation ID is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ops[op.ID]; ok {
		return ErrConflict
	}
	now := time.Now().Unix()
	if op.CreatedAt == 0 {
		op.CreatedAt = now
	}
	op.UpdatedAt = now
	m.ops[op.ID] = cloneOperation(op)
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id string) (*Operation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	op, ok := m.ops[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneOperation(op), nil
}

// Claim transitions the operation to running, spending one attempt.
func (m *MemoryStore) Claim(_ context.Context, id string) (*Operation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.ops[id]
	if !ok {
		return nil, ErrNotFound
	}
	switch op.Status {
	case StatusSucceeded:
		return cloneOperation(op), ErrCompleted
	case StatusRunning:
		return cloneOperation(op), ErrConflict
	}
	if op.Attempts >= op.MaxRetries {
		return cloneOperation(op), ErrExhausted
	}
	op.Status = StatusRunning
	op.Attempts++
	op.LastError = ""
	op.ErrorCode = ""
	op.UpdatedAt = time.Now().Unix()
	return cloneOperation(op), nil
}

// MarkSucceeded implements Store.
func (m *MemoryStore) MarkSucceeded(_ context.Context, id string, result json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.ops[id]
	if !ok {
		return ErrNotFound
	}
	op.Status = StatusSucceeded
	op.Result = append(json.RawMessage(nil), result...)
	op.LastError = ""
	op.ErrorCode = ""
	op.UpdatedAt = time.Now().Unix()
	return nil
}

// MarkFailed implements Store. A terminal failure exhausts the attempt
// budget so the operation can never be claimed again.
func (m *MemoryStore) MarkFailed(_ context.Context, id string, code xerrors.Code, lastError string, terminal bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.ops[id]
	if !ok {
		return ErrNotFound
	}
	op.Status = StatusFailed
	op.LastError = lastError
	op.ErrorCode = string(code)
	if terminal && op.Attempts < op.MaxRetries {
		op.Attempts = op.MaxRetries
	}
	op.UpdatedAt = time.Now().Unix()
	return nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, opts ListOptions) ([]*Operation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	opts.applyDefaults()

	results := make([]*Operation, 0, len(m.ops))
	for _, op := range m.ops {
		if !matchesFilters(op, opts) {
			continue
		}
		results = append(results, cloneOperation(op))
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if opts.Order == SortByUpdatedAsc {
			a, b = b, a
		}
		if a.UpdatedAt != b.UpdatedAt {
			return a.UpdatedAt > b.UpdatedAt
		}
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt > b.CreatedAt
		}
		return a.ID > b.ID
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(results) {
			return []*Operation{}, nil
		}
		results = results[opts.Offset:]
	}
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// Stats implements Store.
func (m *MemoryStore) Stats(_ context.Context, opts ListOptions) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	opts.applyDefaults()

	var stats Stats
	for _, op := range m.ops {
		if !matchesFilters(op, opts) {
			continue
		}
		stats.Total++
		switch op.Status {
		case StatusPending:
			stats.Pending++
		case StatusRunning:
			stats.Running++
		case StatusSucceeded:
			stats.Succeeded++
		case StatusFailed:
			stats.Failed++
		}
		if op.UpdatedAt > stats.NewestUpdatedAt {
			stats.NewestUpdatedAt = op.UpdatedAt
		}
		if stats.OldestUpdatedAt == 0 || (op.UpdatedAt != 0 && op.UpdatedAt < stats.OldestUpdatedAt) {
			stats.OldestUpdatedAt = op.UpdatedAt
		}
	}
	if stats.Total == 0 {
		stats.OldestUpdatedAt = 0
		stats.NewestUpdatedAt = 0
	}
	return stats, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }

func matchesFilters(op *Operation, opts ListOptions) bool {
	if len(opts.Statuses) > 0 {
		matched := false
		for _, status := range opts.Statuses {
			if op.Status == status {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if opts.Tool != "" && op.Tool != opts.Tool {
		return false
	}
	if opts.UpdatedGTE > 0 && op.UpdatedAt < opts.UpdatedGTE {
		return false
	}
	if opts.UpdatedLTE > 0 && op.UpdatedAt > opts.UpdatedLTE {
		return false
	}
	if opts.HasResult != nil && hasResult(op) != *opts.HasResult {
		return false
	}
	return true
}

var _ Store = (*MemoryStore)(nil)
