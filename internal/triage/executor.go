package triage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-engine/internal/domain"
	"github.com/spec-kit/triage-engine/internal/tools"
)

// StepOutcome is the result of attempting one resolution step.
type StepOutcome struct {
	Step    domain.ResolutionStep
	Success bool
	Output  map[string]any
	Err     error
}

// Executor runs resolution plans step by step against the tool registry.
type Executor struct {
	registry    *tools.Registry
	logger      *zap.Logger
	stepTimeout time.Duration
}

// NewExecutor creates an executor. stepTimeout bounds each tool call;
// zero selects the 30 second default.
func NewExecutor(registry *tools.Registry, stepTimeout time.Duration, logger *zap.Logger) *Executor {
	if stepTimeout <= 0 {
		stepTimeout = 30 * time.Second
	}
	return &Executor{registry: registry, logger: logger, stepTimeout: stepTimeout}
}

// BuildPlan turns recorded resolution lines into executable steps. A step
// is bound to a registered tool when the line mentions its name.
func (e *Executor) BuildPlan(lines []string) []domain.ResolutionStep {
	plan := make([]domain.ResolutionStep, 0, len(lines))
	for _, line := range lines {
		step := domain.ResolutionStep{Action: line}
		normalized := strings.ToLower(line)
		for _, name := range e.registry.Names() {
			if strings.Contains(normalized, name) {
				step.ToolName = name
				break
			}
		}
		plan = append(plan, step)
	}
	return plan
}

// ExecuteStep attempts a single step. Steps without a tool succeed as
// no-ops; a missing tool, a tool error, a panic, or an "error" entry in
// the tool's output all count as failure.
func (e *Executor) ExecuteStep(ctx context.Context, step domain.ResolutionStep) StepOutcome {
	outcome := StepOutcome{Step: step}

	if step.ToolName == "" {
		outcome.Success = true
		return outcome
	}

	tool, ok := e.registry.Lookup(step.ToolName)
	if !ok {
		outcome.Err = fmt.Errorf("tool %s not found", step.ToolName)
		return outcome
	}

	stepCtx, cancel := context.WithTimeout(ctx, e.stepTimeout)
	defer cancel()

	output, err := invokeTool(stepCtx, tool, step.ToolArgs)
	outcome.Output = output
	if err != nil {
		outcome.Err = err
		return outcome
	}
	if message, ok := output["error"].(string); ok && message != "" {
		outcome.Err = fmt.Errorf("tool %s reported: %s", step.ToolName, message)
		return outcome
	}

	outcome.Success = true
	return outcome
}

// Execute runs the plan in order, stopping at the first failure. The
// failing step is included in StepsTaken.
func (e *Executor) Execute(ctx context.Context, plan []domain.ResolutionStep, solution string) domain.ResolutionResult {
	result := domain.ResolutionResult{Success: true}

	for _, step := range plan {
		outcome := e.ExecuteStep(ctx, step)
		result.StepsTaken = append(result.StepsTaken, step)
		if !outcome.Success {
			result.Success = false
			result.FailureReason = outcome.Err.Error()
			e.logger.Warn("resolution step failed",
				zap.String("action", step.Action),
				zap.String("tool", step.ToolName),
				zap.Error(outcome.Err))
			return result
		}
	}

	result.Solution = solution
	return result
}

// invokeTool shields the executor from tool panics.
func invokeTool(ctx context.Context, tool tools.Tool, args map[string]any) (output map[string]any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			output = nil
			err = fmt.Errorf("tool %s panicked: %v", tool.Name(), recovered)
		}
	}()
	return tool.Invoke(ctx, args)
}
