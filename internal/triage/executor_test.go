package triage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-engine/internal/domain"
	"github.com/spec-kit/triage-engine/internal/tools"
)

type fakeTool struct {
	name   string
	output map[string]any
	err    error
	panics bool
	calls  int
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return "fake tool" }

func (f *fakeTool) Invoke(ctx context.Context, args map[string]any) (map[string]any, error) {
	f.calls++
	if f.panics {
		panic("boom")
	}
	return f.output, f.err
}

func newTestExecutor(toolset ...*fakeTool) (*Executor, *tools.Registry) {
	registry := tools.NewRegistry()
	for _, tool := range toolset {
		registry.Register(tool)
	}
	return NewExecutor(registry, time.Second, zap.NewNop()), registry
}

func TestExecuteStepNoToolIsNoop(t *testing.T) {
	executor, _ := newTestExecutor()

	outcome := executor.ExecuteStep(context.Background(), domain.ResolutionStep{Action: "inform the user"})

	assert.True(t, outcome.Success)
	assert.NoError(t, outcome.Err)
}

func TestExecuteStepUnknownToolFails(t *testing.T) {
	executor, _ := newTestExecutor()

	outcome := executor.ExecuteStep(context.Background(), domain.ResolutionStep{
		Action:   "run the tool",
		ToolName: "nonexistent",
	})

	assert.False(t, outcome.Success)
	assert.EqualError(t, outcome.Err, "tool nonexistent not found")
}

func TestExecuteStepErrorKeyInOutputFails(t *testing.T) {
	tool := &fakeTool{name: "flaky", output: map[string]any{"error": "upstream rejected"}}
	executor, _ := newTestExecutor(tool)

	outcome := executor.ExecuteStep(context.Background(), domain.ResolutionStep{
		Action:   "call flaky",
		ToolName: "flaky",
	})

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Err.Error(), "upstream rejected")
}

func TestExecuteStepToolErrorFails(t *testing.T) {
	tool := &fakeTool{name: "broken", err: errors.New("timeout")}
	executor, _ := newTestExecutor(tool)

	outcome := executor.ExecuteStep(context.Background(), domain.ResolutionStep{
		Action:   "call broken",
		ToolName: "broken",
	})

	assert.False(t, outcome.Success)
}

func TestExecuteStepRecoversToolPanic(t *testing.T) {
	tool := &fakeTool{name: "panicky", panics: true}
	executor, _ := newTestExecutor(tool)

	outcome := executor.ExecuteStep(context.Background(), domain.ResolutionStep{
		Action:   "call panicky",
		ToolName: "panicky",
	})

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Err.Error(), "panicked")
}

func TestExecuteStopsAtFirstFailure(t *testing.T) {
	good := &fakeTool{name: "good", output: map[string]any{"result": "ok"}}
	bad := &fakeTool{name: "bad", err: errors.New("nope")}
	never := &fakeTool{name: "never", output: map[string]any{"result": "ok"}}
	executor, _ := newTestExecutor(good, bad, never)

	plan := []domain.ResolutionStep{
		{Action: "step one", ToolName: "good"},
		{Action: "step two", ToolName: "bad"},
		{Action: "step three", ToolName: "never"},
	}

	result := executor.Execute(context.Background(), plan, "all done")

	assert.False(t, result.Success)
	// failing step is included; the one after it is not attempted
	require.Len(t, result.StepsTaken, 2)
	assert.Equal(t, "step two", result.StepsTaken[1].Action)
	assert.Equal(t, 0, never.calls)
	assert.Empty(t, result.Solution)
	assert.NotEmpty(t, result.FailureReason)
}

func TestExecuteAllStepsSucceed(t *testing.T) {
	tool := &fakeTool{name: "good", output: map[string]any{"result": "ok"}}
	executor, _ := newTestExecutor(tool)

	plan := []domain.ResolutionStep{
		{Action: "step one", ToolName: "good"},
		{Action: "step two"},
	}

	result := executor.Execute(context.Background(), plan, "password reset sent")

	assert.True(t, result.Success)
	assert.Len(t, result.StepsTaken, 2)
	assert.Equal(t, "password reset sent", result.Solution)
}

func TestBuildPlanBindsRegisteredToolByName(t *testing.T) {
	reset := &fakeTool{name: "reset_user_password"}
	executor, _ := newTestExecutor(reset)

	plan := executor.BuildPlan([]string{
		"Verify the requester's identity",
		"Run reset_user_password for the account",
	})

	require.Len(t, plan, 2)
	assert.Empty(t, plan[0].ToolName)
	assert.Equal(t, "reset_user_password", plan[1].ToolName)
}
