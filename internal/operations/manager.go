package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"datalab/internal/infrastructure"
)

// Manager runs registered steps one after another. The first failing step
// stops the run and every step after it is marked skipped.
type Manager struct {
	registry *Registry
	logger   *slog.Logger
	metrics  *infrastructure.Metrics
	tracer   trace.Tracer
}

// NewManager creates a manager over registry. metrics may be nil.
func NewManager(registry *Registry, logger *slog.Logger, metrics *infrastructure.Metrics) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Manager{
		registry: registry,
		logger:   infrastructure.WithComponent(logger, "operations"),
		metrics:  metrics,
		tracer:   infrastructure.Tracer(infrastructure.TracerName),
	}
}

// Registry returns the step registry
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Execute runs the requested steps in registration order and returns the
// final state. The error, if any, is an *OperationError naming the step.
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationState, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	if req.ID == "" {
		req.ID = infrastructure.GetRunID(ctx)
	}

	steps, err := m.registry.Select(req.Steps)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, NewFatalError("no steps registered", nil)
	}

	state := NewOperationState(req.ID)
	for _, step := range steps {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}
	state.Status = OperationStatusRunning

	ctx, span := m.tracer.Start(ctx, "operation.run",
		trace.WithAttributes(
			attribute.String("operation_id", state.ID),
			attribute.Int("steps", len(steps)),
		))
	defer span.End()

	m.logger.InfoContext(ctx, "operation_started",
		slog.String("operation_id", state.ID),
		slog.Int("steps", len(steps)))

	for i, step := range steps {
		if err := m.executeStage(ctx, state, step); err != nil {
			m.skipRemaining(ctx, state, steps[i+1:], step.ID())
			if IsCancellation(err) {
				state.Cancel(err)
			} else {
				state.Fail(err)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			m.logger.ErrorContext(ctx, "operation_failed",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.Duration("duration", state.Duration()),
				slog.String("error", err.Error()))
			return state, err
		}
	}

	state.Complete()
	m.metrics.MarkSuccess(time.Now())
	m.logger.InfoContext(ctx, "operation_completed",
		slog.String("operation_id", state.ID),
		slog.Duration("duration", state.Duration()))
	return state, nil
}

// executeStage runs a single step and records its outcome
func (m *Manager) executeStage(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStage(step.ID())
	if stepState == nil {
		return NewFatalError(fmt.Sprintf("state for step %s not found", step.ID()), nil)
	}

	if err := ctx.Err(); err != nil {
		stepState.Skip("operation cancelled")
		return NewCancellationError(step.ID(), err)
	}

	m.logger.DebugContext(ctx, "validating_stage",
		slog.String("operation_id", state.ID),
		slog.String("step", step.ID()))
	if err := step.Validate(state); err != nil {
		m.logger.WarnContext(ctx, "validation_failed",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.String("error", err.Error()))
		stepState.Fail(err)
		return NewValidationError(step.ID(), err)
	}

	stageCtx, span := m.tracer.Start(ctx, "stage."+step.ID())
	defer span.End()

	m.logger.InfoContext(ctx, "executing_stage",
		slog.String("operation_id", state.ID),
		slog.String("step", step.ID()),
		slog.String("name", step.Name()))

	stepState.Start()
	startTime := time.Now()
	err := step.Execute(stageCtx, state)
	duration := time.Since(startTime)
	m.metrics.ObserveStage(step.ID(), duration, err)

	if err != nil {
		stepState.Fail(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.logger.ErrorContext(ctx, "stage_execution_failed",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		if ctx.Err() != nil {
			return NewCancellationError(step.ID(), err)
		}
		return NewExecutionError(step.ID(), err)
	}

	if stepState.GetStatus() == StepStatusActive {
		stepState.Complete("completed")
	}
	m.logger.InfoContext(ctx, "stage_completed_successfully",
		slog.String("operation_id", state.ID),
		slog.String("step", step.ID()),
		slog.Duration("duration", duration))
	return nil
}

// skipRemaining marks steps that never ran after a failure
func (m *Manager) skipRemaining(ctx context.Context, state *OperationState, steps []Step, failed string) {
	for _, step := range steps {
		if ss := state.GetStage(step.ID()); ss != nil {
			ss.Skip(fmt.Sprintf("skipped after %s failed", failed))
		}
		m.logger.DebugContext(ctx, "stage_skipped",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()))
	}
}
