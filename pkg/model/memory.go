package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type MemoryID string

// NewMemoryID generates a new unique MemoryID
func NewMemoryID() MemoryID {
	return MemoryID("mem_" + shortID())
}

// SpeakerUnknown is used when a segment carries no speaker attribution
const SpeakerUnknown = "Unknown"

// shortID returns the first 8 hex characters of a fresh UUID
func shortID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// MemoryMetadata describes where a stored memory chunk came from.
// It is flattened into the vector store payload alongside the text.
type MemoryMetadata struct {
	SessionID      SessionID
	FileID         string
	SegmentIndex   int
	TimestampStart float64
	TimestampEnd   float64
	Speaker        string
	Language       string
	AudioFile      string
	GCSURL         string
}

// Fields converts the metadata into a payload map for the vector store
func (m *MemoryMetadata) Fields() map[string]any {
	fields := map[string]any{
		"file_id":         m.FileID,
		"segment_index":   m.SegmentIndex,
		"timestamp_start": m.TimestampStart,
		"timestamp_end":   m.TimestampEnd,
		"speaker":         m.Speaker,
		"audio_file":      m.AudioFile,
	}
	if m.SessionID != "" {
		fields["session_id"] = string(m.SessionID)
	}
	if m.Language != "" {
		fields["language"] = m.Language
	}
	if m.GCSURL != "" {
		fields["gcs_url"] = m.GCSURL
	}
	return fields
}

// SearchResult is a single semantic search hit, ordered by descending score
type SearchResult struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// Speaker returns the speaker recorded in the result metadata, if any
func (r *SearchResult) Speaker() string {
	if s, ok := r.Metadata["speaker"].(string); ok && s != "" {
		return s
	}
	return SpeakerUnknown
}

// CreatedAt returns the stored creation timestamp, or empty when absent
func (r *SearchResult) CreatedAt() string {
	if s, ok := r.Metadata["created_at"].(string); ok {
		return s
	}
	return ""
}

// SourceRef is a citable projection of a SearchResult. The projection is
// deterministic: it preserves input order and never depends on LLM output.
type SourceRef struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// Truncate shortens s to at most n characters
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Timestamp formats t the way memory payloads store created_at
func Timestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}
