package model

import "github.com/m-mizutani/goerr/v2"

type QueryType string

const (
	QueryTypeFactual    QueryType = "factual"
	QueryTypeTemporal   QueryType = "temporal"
	QueryTypeAnalytical QueryType = "analytical"
)

const (
	// MinSearchDepth and MaxSearchDepth bound the search depth an LLM
	// query analysis may recommend
	MinSearchDepth = 3
	MaxSearchDepth = 10
)

// QueryParams is the typed result of LLM query analysis
type QueryParams struct {
	SearchDepth       int       `json:"search_depth"`
	QueryType         QueryType `json:"query_type"`
	RequiresSynthesis bool      `json:"requires_synthesis"`
}

// Validate checks the parsed analysis against the enum constraints
func (p *QueryParams) Validate() error {
	switch p.QueryType {
	case QueryTypeFactual, QueryTypeTemporal, QueryTypeAnalytical:
	default:
		return goerr.New("invalid query type", goerr.V("query_type", p.QueryType))
	}
	if p.SearchDepth <= 0 {
		return goerr.New("search depth must be positive", goerr.V("search_depth", p.SearchDepth))
	}
	return nil
}

// Clamp forces SearchDepth into the allowed [MinSearchDepth, MaxSearchDepth] range
func (p *QueryParams) Clamp() {
	if p.SearchDepth < MinSearchDepth {
		p.SearchDepth = MinSearchDepth
	}
	if p.SearchDepth > MaxSearchDepth {
		p.SearchDepth = MaxSearchDepth
	}
}

// Answer is the synthesis engine's output: grounded text plus the
// deterministic source projection of the context it was given
type Answer struct {
	Text    string      `json:"answer"`
	Sources []SourceRef `json:"sources"`
}

// QueryResult is the success payload of the standard query workflow
type QueryResult struct {
	QueryID      QueryID     `json:"query_id"`
	Query        string      `json:"query"`
	Answer       string      `json:"answer"`
	Sources      []SourceRef `json:"sources"`
	MemoriesUsed int         `json:"memories_used"`
	Analysis     QueryParams `json:"query_analysis"`
}

// IntelligentResultType distinguishes the two routes of IntelligentQuery
type IntelligentResultType string

const (
	IntelligentResultInsights IntelligentResultType = "insights"
	IntelligentResultQuery    IntelligentResultType = "query"
)

// IntelligentResult carries the outcome of the plan-first query path.
// Exactly one of Insights or Query is set, matching Type.
type IntelligentResult struct {
	Type        IntelligentResultType `json:"type"`
	Plan        *ExecutionPlan        `json:"execution_plan"`
	Negotiation *ResourceNegotiation  `json:"resource_negotiation,omitempty"`
	Insights    *InsightsReport       `json:"insights,omitempty"`
	Query       *QueryResult          `json:"result,omitempty"`
}
