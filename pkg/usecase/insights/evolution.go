package insights

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"sort"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recallos/pkg/model"
	"github.com/m-mizutani/recallos/pkg/utils/logging"
)

//go:embed prompt/evolution.md
var evolutionPromptRaw string

var evolutionPromptTmpl = template.Must(template.New("evolution").Parse(evolutionPromptRaw))

const noEvolutionNarrative = "No memories matched this topic, so there is no evolution to report."

// TopicEvolution tracks how discussion of a topic developed over time.
// The search is narrower than pattern mining, the result is sorted
// strictly chronologically, and the model sees the full timeline
// without truncation.
func (uc *UseCase) TopicEvolution(ctx context.Context, topic string) (*model.EvolutionReport, error) {
	if topic == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "topic is empty")
	}

	results, err := uc.searcher.Search(ctx, topic, evolutionSearchBreadth)
	if err != nil {
		return nil, goerr.Wrap(err, "evolution search failed", goerr.V("topic", topic))
	}

	timeline := make([]model.EvolutionEntry, 0, len(results))
	for _, r := range results {
		timeline = append(timeline, model.EvolutionEntry{
			Text:      r.Text,
			CreatedAt: r.CreatedAt(),
			Speaker:   r.Speaker(),
			FileID:    fileID(r),
			Score:     r.Score,
		})
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].CreatedAt < timeline[j].CreatedAt
	})

	report := &model.EvolutionReport{
		Topic:             topic,
		TimelinePoints:    len(timeline),
		ChronologicalData: timeline,
	}

	if len(timeline) == 0 {
		report.EvolutionAnalysis = noEvolutionNarrative
		return report, nil
	}

	timelineJSON, err := json.MarshalIndent(timeline, "", "  ")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal timeline")
	}

	var buf bytes.Buffer
	if err := evolutionPromptTmpl.Execute(&buf, map[string]any{
		"Topic":    topic,
		"Timeline": string(timelineJSON),
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to execute evolution prompt template")
	}

	narrative, err := uc.gemini.Generate(ctx, buf.String())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to narrate evolution", goerr.V("topic", topic))
	}
	report.EvolutionAnalysis = narrative

	logging.Component(ctx, "insights").Info("evolution analysis complete",
		"topic", topic, "timeline_points", report.TimelinePoints)

	return report, nil
}
