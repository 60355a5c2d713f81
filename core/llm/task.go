package llm

import "time"

// TaskType identifies what kind of work a router call performs.
type TaskType string

const (
	TaskClassification TaskType = "classification"
	TaskExtraction     TaskType = "extraction"
	TaskGeneration     TaskType = "generation"
)

// Priority orders tasks when callers need to shed load.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
)

// TaskContext drives provider selection for a single call. Immutable per
// call.
type TaskContext struct {
	TaskType             TaskType
	Priority             Priority
	RequiresPrivacy      bool
	ExpectedResponseTime time.Duration
}

// ClassificationTask is the default context for intent classification.
func ClassificationTask(privacySensitive bool) TaskContext {
	return TaskContext{
		TaskType:             TaskClassification,
		Priority:             PriorityHigh,
		RequiresPrivacy:      privacySensitive,
		ExpectedResponseTime: 5 * time.Second,
	}
}

// GenerationTask is the default context for response synthesis.
func GenerationTask(privacySensitive bool) TaskContext {
	return TaskContext{
		TaskType:             TaskGeneration,
		Priority:             PriorityNormal,
		RequiresPrivacy:      privacySensitive,
		ExpectedResponseTime: 15 * time.Second,
	}
}
