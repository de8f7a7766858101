package orchestrator

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recallos/pkg/model"
	"github.com/m-mizutani/recallos/pkg/utils/jsonx"
	"github.com/m-mizutani/recallos/pkg/utils/logging"
)

//go:embed prompt/analyze.md
var analyzePromptRaw string

var analyzePromptTmpl = template.Must(template.New("analyze").Parse(analyzePromptRaw))

// insightCues route a query to the insights path even when the plan
// does not name the insights agent
var insightCues = []string{"pattern", "across"}

// Query runs the standard query workflow: analyze the query to pick
// retrieval parameters, search the memory store, synthesize a grounded
// answer, and log the query against the session if one was given. A
// missing session is non-fatal; the answer still returns.
func (uc *UseCase) Query(ctx context.Context, query string, sessionID model.SessionID) (*model.QueryResult, error) {
	if query == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "query is empty")
	}

	params, err := uc.analyzeQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := uc.memories.Search(ctx, query, params.SearchDepth)
	if err != nil {
		return nil, err
	}

	answer, err := uc.synthesis.Answer(ctx, query, results)
	if err != nil {
		return nil, err
	}

	queryID := model.NewQueryID()
	if sessionID != "" {
		record := model.QueryRecord{
			QueryID:   string(queryID),
			Query:     query,
			Timestamp: uc.now(),
		}
		if err := uc.sessions.AppendQuery(ctx, sessionID, record); err != nil {
			logging.Component(ctx, "orchestrator").Warn("failed to log query against session",
				"session_id", sessionID, "query_id", queryID, "error", err)
		}
	}

	return &model.QueryResult{
		QueryID:      queryID,
		Query:        query,
		Answer:       answer.Text,
		Sources:      answer.Sources,
		MemoriesUsed: len(results),
		Analysis:     *params,
	}, nil
}

// IntelligentQuery plans before acting: the coordinator decides which
// agents the query needs, and the result routes either to the
// cross-conversation insights path or to the standard query path with
// the resource negotiation attached as metadata.
func (uc *UseCase) IntelligentQuery(ctx context.Context, query string) (*model.IntelligentResult, error) {
	if query == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "query is empty")
	}

	plan, err := uc.coordinator.Plan(ctx, query)
	if err != nil {
		return nil, err
	}

	if plan.Requires(model.AgentInsights) || hasInsightCue(query) {
		report, err := uc.insights.FindPatterns(ctx, query, 0)
		if err != nil {
			return nil, err
		}
		return &model.IntelligentResult{
			Type:     model.IntelligentResultInsights,
			Plan:     plan,
			Insights: report,
		}, nil
	}

	// the negotiation is advisory metadata: its failure never blocks
	// the answer
	negotiation, err := uc.coordinator.Negotiate(ctx, plan.AgentsRequired, plan.EstimatedComplexity)
	if err != nil {
		logging.Component(ctx, "orchestrator").Warn("resource negotiation failed",
			"error", err)
		negotiation = nil
	}

	result, err := uc.Query(ctx, query, "")
	if err != nil {
		return nil, err
	}

	return &model.IntelligentResult{
		Type:        model.IntelligentResultQuery,
		Plan:        plan,
		Negotiation: negotiation,
		Query:       result,
	}, nil
}

// analyzeQuery asks the language model for typed retrieval parameters
// and clamps the search depth into the allowed range
func (uc *UseCase) analyzeQuery(ctx context.Context, query string) (*model.QueryParams, error) {
	var buf bytes.Buffer
	if err := analyzePromptTmpl.Execute(&buf, map[string]any{
		"Query":    query,
		"MinDepth": model.MinSearchDepth,
		"MaxDepth": model.MaxSearchDepth,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to execute analyze prompt template")
	}

	raw, err := uc.gemini.Generate(ctx, buf.String())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to analyze query", goerr.V("query", query))
	}

	var params model.QueryParams
	body := jsonx.Extract(raw)
	if err := json.Unmarshal([]byte(body), &params); err != nil {
		return nil, goerr.Wrap(model.ErrAnalysisParse, err.Error(), goerr.V("response", raw))
	}
	if err := params.Validate(); err != nil {
		return nil, goerr.Wrap(model.ErrAnalysisParse, err.Error(), goerr.V("response", raw))
	}
	params.Clamp()

	logging.Component(ctx, "orchestrator").Debug("query analyzed",
		"search_depth", params.SearchDepth,
		"query_type", params.QueryType,
		"requires_synthesis", params.RequiresSynthesis)

	return &params, nil
}

func hasInsightCue(query string) bool {
	lower := strings.ToLower(query)
	for _, cue := range insightCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}
