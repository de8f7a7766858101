package insights

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"sort"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recallos/pkg/model"
	"github.com/m-mizutani/recallos/pkg/utils/logging"
)

//go:embed prompt/patterns.md
var patternsPromptRaw string

var patternsPromptTmpl = template.Must(template.New("patterns").Parse(patternsPromptRaw))

const noPatternNarrative = "No memories matched this topic, so there are no cross-conversation patterns to report."

// FindPatterns runs one broad similarity search for the topic, groups
// the matches by conversation, speaker and time, and asks the language
// model to narrate recurring themes. Speakers and conversations with
// fewer than minOccurrences matches are dropped from the distributions;
// they still count toward total mentions and may appear in the
// timeline. minOccurrences <= 0 selects the default threshold.
func (uc *UseCase) FindPatterns(ctx context.Context, topic string, minOccurrences int) (*model.InsightsReport, error) {
	if topic == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "topic is empty")
	}
	if minOccurrences <= 0 {
		minOccurrences = DefaultMinOccurrences
	}

	results, err := uc.searcher.Search(ctx, topic, patternSearchBreadth)
	if err != nil {
		return nil, goerr.Wrap(err, "pattern search failed", goerr.V("topic", topic))
	}

	byFile := map[string]int{}
	bySpeaker := map[string]int{}
	timeline := make([]model.TimelineEntry, 0, len(results))

	for _, r := range results {
		byFile[fileID(r)]++
		bySpeaker[r.Speaker()]++
		timeline = append(timeline, model.TimelineEntry{
			Text:      r.Text,
			FileID:    fileID(r),
			Speaker:   r.Speaker(),
			Timestamp: asFloat(r.Metadata["timestamp_start"]),
			CreatedAt: r.CreatedAt(),
		})
	}

	// created_at is RFC3339 so lexicographic order is chronological
	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].CreatedAt < timeline[j].CreatedAt
	})

	fileDist := filterBelow(byFile, minOccurrences)
	speakerDist := filterBelow(bySpeaker, minOccurrences)

	report := &model.InsightsReport{
		Topic:                 topic,
		ConversationsAnalyzed: len(fileDist),
		TotalMentions:         len(results),
		Speakers:              sortedKeys(speakerDist),
		SpeakerDistribution:   speakerDist,
		FileDistribution:      fileDist,
		Timeline:              truncateTimeline(timeline, timelineLimit),
	}

	if len(results) == 0 {
		report.Speakers = []string{}
		report.Insights = noPatternNarrative
		return report, nil
	}

	narrative, err := uc.narratePatterns(ctx, report, timeline)
	if err != nil {
		return nil, err
	}
	report.Insights = narrative

	logging.Component(ctx, "insights").Info("pattern analysis complete",
		"topic", topic,
		"conversations", report.ConversationsAnalyzed,
		"speakers", len(report.Speakers),
		"mentions", report.TotalMentions)

	return report, nil
}

// narratePatterns seeds the model with group counts and a small text
// sample rather than the full corpus
func (uc *UseCase) narratePatterns(ctx context.Context, report *model.InsightsReport, timeline []model.TimelineEntry) (string, error) {
	samples := make([]string, 0, sampleLimit)
	for _, entry := range truncateTimeline(timeline, sampleLimit) {
		samples = append(samples, model.Truncate(entry.Text, sampleLen))
	}

	patternData, err := json.MarshalIndent(map[string]any{
		"by_file":         report.FileDistribution,
		"by_speaker":      report.SpeakerDistribution,
		"sample_mentions": samples,
	}, "", "  ")
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal pattern data")
	}

	var buf bytes.Buffer
	if err := patternsPromptTmpl.Execute(&buf, map[string]any{
		"Topic":         report.Topic,
		"FilesAnalyzed": report.ConversationsAnalyzed,
		"TotalMentions": report.TotalMentions,
		"Speakers":      strings.Join(report.Speakers, ", "),
		"PatternData":   string(patternData),
	}); err != nil {
		return "", goerr.Wrap(err, "failed to execute patterns prompt template")
	}

	narrative, err := uc.gemini.Generate(ctx, buf.String())
	if err != nil {
		return "", goerr.Wrap(err, "failed to narrate patterns", goerr.V("topic", report.Topic))
	}
	return narrative, nil
}

func filterBelow(counts map[string]int, threshold int) map[string]int {
	filtered := make(map[string]int, len(counts))
	for k, v := range counts {
		if v >= threshold {
			filtered[k] = v
		}
	}
	return filtered
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncateTimeline(timeline []model.TimelineEntry, n int) []model.TimelineEntry {
	if len(timeline) <= n {
		return timeline
	}
	return timeline[:n]
}
