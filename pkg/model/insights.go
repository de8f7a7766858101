package model

// TimelineEntry is one chronological data point in a pattern report
type TimelineEntry struct {
	Text      string  `json:"text"`
	FileID    string  `json:"file_id"`
	Speaker   string  `json:"speaker"`
	Timestamp float64 `json:"timestamp"`
	CreatedAt string  `json:"created_at"`
}

// InsightsReport aggregates cross-conversation patterns for a topic:
// counts per conversation and speaker, an LLM narrative, and a
// truncated chronological slice of the underlying mentions.
type InsightsReport struct {
	Topic                 string          `json:"topic"`
	ConversationsAnalyzed int             `json:"conversations_analyzed"`
	TotalMentions         int             `json:"total_mentions"`
	Speakers              []string        `json:"speakers"`
	SpeakerDistribution   map[string]int  `json:"speaker_distribution"`
	FileDistribution      map[string]int  `json:"file_distribution"`
	Insights              string          `json:"insights"`
	Timeline              []TimelineEntry `json:"timeline"`
}

// EvolutionEntry is one chronological data point in an evolution report
type EvolutionEntry struct {
	Text      string  `json:"text"`
	CreatedAt string  `json:"created_at"`
	Speaker   string  `json:"speaker"`
	FileID    string  `json:"file_id"`
	Score     float64 `json:"score"`
}

// EvolutionReport tracks how discussion of a topic developed over time.
// Unlike InsightsReport, the chronological data is not truncated.
type EvolutionReport struct {
	Topic             string           `json:"topic"`
	TimelinePoints    int              `json:"timeline_points"`
	EvolutionAnalysis string           `json:"evolution_analysis"`
	ChronologicalData []EvolutionEntry `json:"chronological_data"`
}
