package domain

// ResolutionStep is a single step in a resolution plan. Plan order is
// execution order; a step may optionally be bound to a named tool.
type ResolutionStep struct {
	Action   string
	Reason   string
	ToolName string
	ToolArgs map[string]any
}

// ResolutionResult is the terminal artifact of a resolution attempt.
// Success is false if any attempted step failed; StepsTaken contains the
// steps attempted up to and including the failing one.
type ResolutionResult struct {
	Success       bool
	StepsTaken    []ResolutionStep
	Solution      string
	FailureReason string
}

// ClassificationDecision is produced exactly once per ticket by the
// classifier and is immutable once returned. RoutingTeam is never empty:
// it falls back to DefaultTeam. AutoResolutionSteps is nil whenever
// CanAutoResolve is false.
type ClassificationDecision struct {
	CanAutoResolve      bool
	ConfidenceScore     float64
	RoutingTeam         Team
	TeamMatchScore      float64
	AutoResolutionSteps []string
	Reasoning           string
	NeedsMoreInfo       bool
}
