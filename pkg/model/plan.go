package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// AgentName identifies one of the logical agents the coordinator can
// schedule. The catalog is fixed; the planner must not invent agents.
type AgentName string

const (
	AgentTranscription AgentName = "transcription_agent"
	AgentMemory        AgentName = "memory_agent"
	AgentSynthesis     AgentName = "synthesis_agent"
	AgentInsights      AgentName = "insights_agent"
	AgentTimeline      AgentName = "timeline_agent"
)

// Validate checks if the agent name is part of the fixed catalog
func (a AgentName) Validate() error {
	switch a {
	case AgentTranscription, AgentMemory, AgentSynthesis, AgentInsights, AgentTimeline:
		return nil
	default:
		return goerr.New("unknown agent", goerr.V("agent", a))
	}
}

type TaskType string

const (
	TaskTypeUpload   TaskType = "upload"
	TaskTypeQuery    TaskType = "query"
	TaskTypeInsight  TaskType = "insight"
	TaskTypeAnalysis TaskType = "analysis"
)

type ExecutionStrategy string

const (
	StrategySequential ExecutionStrategy = "sequential"
	StrategyParallel   ExecutionStrategy = "parallel"
	StrategyHybrid     ExecutionStrategy = "hybrid"
)

type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

type PriorityLevel string

const (
	PriorityHigh   PriorityLevel = "high"
	PriorityMedium PriorityLevel = "medium"
	PriorityLow    PriorityLevel = "low"
)

// ExecutionPlan is the coordinator's per-task decision: which agents
// run, in what strategy, at what complexity. Ephemeral, never persisted.
type ExecutionPlan struct {
	TaskType            TaskType          `json:"task_type"`
	AgentsRequired      []AgentName       `json:"agents_required"`
	ExecutionStrategy   ExecutionStrategy `json:"execution_strategy"`
	EstimatedComplexity Complexity        `json:"estimated_complexity"`
	SpecialRequirements []string          `json:"special_requirements"`
	OptimizationHints   []string          `json:"optimization_hints"`
	GeneratedAt         time.Time         `json:"generated_at"`
}

// Validate checks the parsed plan against the enum constraints rather
// than trusting the model output
func (p *ExecutionPlan) Validate() error {
	switch p.TaskType {
	case TaskTypeUpload, TaskTypeQuery, TaskTypeInsight, TaskTypeAnalysis:
	default:
		return goerr.New("invalid task type", goerr.V("task_type", p.TaskType))
	}
	switch p.ExecutionStrategy {
	case StrategySequential, StrategyParallel, StrategyHybrid:
	default:
		return goerr.New("invalid execution strategy", goerr.V("strategy", p.ExecutionStrategy))
	}
	switch p.EstimatedComplexity {
	case ComplexityLow, ComplexityMedium, ComplexityHigh:
	default:
		return goerr.New("invalid complexity", goerr.V("complexity", p.EstimatedComplexity))
	}
	if len(p.AgentsRequired) == 0 {
		return goerr.New("plan requires at least one agent")
	}
	for _, a := range p.AgentsRequired {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Requires reports whether the plan names the given agent
func (p *ExecutionPlan) Requires(agent AgentName) bool {
	for _, a := range p.AgentsRequired {
		if a == agent {
			return true
		}
	}
	return false
}

// ResourceNegotiation assigns priorities and a fallback ordering among
// the agents of a plan. The fallback chain is advisory metadata: it is
// recorded for operators but not executed automatically.
type ResourceNegotiation struct {
	PrimaryAgent       AgentName                   `json:"primary_agent"`
	SupportAgents      []AgentName                 `json:"support_agents"`
	ResourceAllocation map[AgentName]PriorityLevel `json:"resource_allocation"`
	FallbackChain      []AgentName                 `json:"fallback_chain"`
}

// Validate checks the parsed negotiation result
func (n *ResourceNegotiation) Validate() error {
	if err := n.PrimaryAgent.Validate(); err != nil {
		return goerr.Wrap(err, "invalid primary agent")
	}
	for _, a := range n.SupportAgents {
		if err := a.Validate(); err != nil {
			return goerr.Wrap(err, "invalid support agent")
		}
	}
	for agent, level := range n.ResourceAllocation {
		if err := agent.Validate(); err != nil {
			return goerr.Wrap(err, "invalid allocation agent")
		}
		switch level {
		case PriorityHigh, PriorityMedium, PriorityLow:
		default:
			return goerr.New("invalid priority level", goerr.V("agent", agent), goerr.V("level", level))
		}
	}
	return nil
}
