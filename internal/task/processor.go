package task

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"time"

	xerrors "SolAgent-Kit/internal/errors"
	"SolAgent-Kit/internal/observability/alerting"
	"SolAgent-Kit/pkg/logger"
)

// Invoker dispatches a tool call. Satisfied by the tool registry bound to
// an agent kit.
type Invoker interface {
	Invoke(ctx context.Context, tool string, args json.RawMessage) (any, error)
}

// RecoveryHandler produces a fallback result for a non-retryable failure.
// Returning nil JSON means no fallback applies and the failure stands.
type RecoveryHandler interface {
	Recover(ctx context.Context, op *Operation, cause error) (json.RawMessage, error)
}

// Processor consumes operation IDs and drives them through the invoker.
type Processor struct {
	invoker     Invoker
	store       Store
	consumer    Consumer
	producer    Producer
	workerCount int
	logger      *slog.Logger
	recovery    RecoveryHandler
	alerter     alerting.Dispatcher
}

// ProcessorOption configures optional processor behaviour.
type ProcessorOption func(*Processor)

// WithProcessorLogger sets the debug logger.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithWorkerCount sets the number of consuming goroutines.
func WithWorkerCount(workers int) ProcessorOption {
	return func(p *Processor) {
		if workers > 0 {
			p.workerCount = workers
		}
	}
}

// WithRecoveryHandler installs a fallback for non-retryable failures.
func WithRecoveryHandler(handler RecoveryHandler) ProcessorOption {
	return func(p *Processor) {
		p.recovery = handler
	}
}

// WithAlertDispatcher installs the alert sink.
func WithAlertDispatcher(dispatcher alerting.Dispatcher) ProcessorOption {
	return func(p *Processor) {
		p.alerter = dispatcher
	}
}

// NewProcessor builds a Processor.
func NewProcessor(invoker Invoker, store Store, consumer Consumer, producer Producer, opts ...ProcessorOption) *Processor {
	p := &Processor{
		invoker:     invoker,
		store:       store,
		consumer:    consumer,
		producer:    producer,
		workerCount: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.workerCount <= 0 {
		p.workerCount = 1
	}
	return p
}

// Start runs the consume loop until ctx is cancelled.
func (p *Processor) Start(ctx context.Context) error {
	if p.consumer == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "operation consumer is not configured")
	}
	return p.consumer.Consume(ctx, p.workerCount, p.handle)
}

func (p *Processor) handle(ctx context.Context, operationID string) error {
	if p.store == nil || p.invoker == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "processor is not initialised")
	}
	op, err := p.store.Claim(ctx, operationID)
	if err != nil {
		if stdErrors.Is(err, ErrNotFound) || stdErrors.Is(err, ErrCompleted) || stdErrors.Is(err, ErrExhausted) {
			p.logDebug("skipping operation", slog.String("operation_id", operationID), slog.String("reason", err.Error()))
			return nil
		}
		logger.L().Error("claim operation failed", slog.Any("error", err), slog.String("operation_id", operationID))
		p.emitAlert(ctx, &Operation{ID: operationID}, xerrors.CodeStorageFailure, err, "claim")
		return err
	}

	result, invokeErr := p.invoker.Invoke(ctx, op.Tool, op.Args)
	if invokeErr != nil {
		return p.handleInvokeFailure(ctx, op, invokeErr)
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return p.handleInvokeFailure(ctx, op, xerrors.Wrap(xerrors.CodeUnknown, err, "encode operation result"))
	}
	if err := p.store.MarkSucceeded(ctx, op.ID, raw); err != nil {
		logger.L().Error("mark operation succeeded failed", slog.Any("error", err), slog.String("operation_id", op.ID))
		if storeErr := p.store.MarkFailed(ctx, op.ID, xerrors.CodeStorageFailure, err.Error(), false); storeErr != nil {
			logger.L().Error("write back failure state failed", slog.Any("error", storeErr), slog.String("operation_id", op.ID))
			return storeErr
		}
		if pubErr := p.producer.Publish(ctx, op.ID); pubErr != nil {
			return xerrors.Wrap(xerrors.CodeQueueFailure, pubErr, fmt.Sprintf("requeue operation %s after result write failure", op.ID))
		}
		logger.Audit().Warn("operation requeued after result write failure",
			slog.String("operation_id", op.ID),
			slog.String("tool", op.Tool),
			slog.String("error", err.Error()),
		)
		return nil
	}
	logger.Audit().Info("operation succeeded",
		slog.String("operation_id", op.ID),
		slog.String("tool", op.Tool),
		slog.Int("attempts", op.Attempts),
	)
	return nil
}

func (p *Processor) handleInvokeFailure(ctx context.Context, op *Operation, invokeErr error) error {
	code := xerrors.CodeOf(invokeErr)
	if code == xerrors.CodeUnknown {
		code = xerrors.CodeProviderFailure
	}
	retryable := xerrors.RetryableError(invokeErr)
	terminal := op.Attempts >= op.MaxRetries || !retryable

	if !retryable && p.recovery != nil {
		if fallback, recErr := p.recovery.Recover(ctx, op, invokeErr); recErr != nil {
			wrapped := xerrors.Wrap(code, recErr, "operation fallback failed")
			logger.L().Error("run fallback failed",
				slog.Any("error", wrapped),
				slog.String("operation_id", op.ID))
			p.emitAlert(ctx, op, code, wrapped, "fallback")
		} else if len(fallback) > 0 {
			if err := p.store.MarkSucceeded(ctx, op.ID, fallback); err != nil {
				logger.L().Error("record fallback result failed", slog.Any("error", err), slog.String("operation_id", op.ID))
				if storeErr := p.store.MarkFailed(ctx, op.ID, code, err.Error(), false); storeErr != nil {
					logger.L().Error("write back failure state after fallback failed", slog.Any("error", storeErr), slog.String("operation_id", op.ID))
					return storeErr
				}
				if pubErr := p.producer.Publish(ctx, op.ID); pubErr != nil {
					return xerrors.Wrap(xerrors.CodeQueueFailure, pubErr, fmt.Sprintf("requeue operation %s after fallback write failure", op.ID))
				}
				return nil
			}
			logger.Audit().Warn("operation completed via fallback",
				slog.String("operation_id", op.ID),
				slog.String("tool", op.Tool),
				slog.String("cause", invokeErr.Error()),
			)
			p.emitAlert(ctx, op, code, invokeErr, "degraded")
			return nil
		}
	}

	if storeErr := p.store.MarkFailed(ctx, op.ID, code, invokeErr.Error(), terminal); storeErr != nil {
		logger.L().Error("mark operation failed errored", slog.Any("error", storeErr), slog.String("operation_id", op.ID))
		return storeErr
	}
	logger.Audit().Warn("operation failed",
		slog.String("operation_id", op.ID),
		slog.String("tool", op.Tool),
		slog.Bool("terminal", terminal),
		slog.String("error", invokeErr.Error()),
		slog.String("error_code", string(code)),
		slog.Int("attempts", op.Attempts),
		slog.Int("max_retries", op.MaxRetries),
	)

	stage := "retry"
	if terminal {
		stage = "terminal"
	} else if !retryable {
		stage = "non_retryable"
	}
	p.emitAlert(ctx, op, code, invokeErr, stage)

	if retryable && !terminal {
		if pubErr := p.producer.Publish(ctx, op.ID); pubErr != nil {
			return xerrors.Wrap(xerrors.CodeQueueFailure, pubErr, fmt.Sprintf("requeue operation %s", op.ID))
		}
		p.logDebug("operation requeued", slog.String("operation_id", op.ID), slog.Int("attempts", op.Attempts))
	}
	return nil
}

func (p *Processor) logDebug(msg string, attrs ...slog.Attr) {
	if p.logger != nil {
		args := make([]any, len(attrs))
		for i, attr := range attrs {
			args[i] = attr
		}
		p.logger.Debug(msg, args...)
	}
}

func (p *Processor) emitAlert(ctx context.Context, op *Operation, code xerrors.Code, cause error, stage string) {
	if p == nil || p.alerter == nil || op == nil {
		return
	}
	attrs := xerrors.AttributesOf(code)
	message := attrs.Message
	if cause != nil {
		message = cause.Error()
	}
	metadata := map[string]string{
		"stage": stage,
	}
	if cause != nil {
		metadata["cause"] = cause.Error()
	}
	event := alerting.Event{
		Code:        code,
		Message:     message,
		Severity:    attrs.Severity,
		OperationID: op.ID,
		Tool:        op.Tool,
		Attempts:    op.Attempts,
		MaxRetries:  op.MaxRetries,
		Metadata:    metadata,
		OccurredAt:  time.Now(),
	}
	if err := p.alerter.Notify(ctx, event); err != nil {
		logger.L().Error("alert notify failed",
			slog.Any("error", err),
			slog.String("operation_id", op.ID),
			slog.String("stage", stage),
		)
	}
}
