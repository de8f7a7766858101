package model

// Segment is a time-bounded, speaker-attributed span of transcribed text
type Segment struct {
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// Transcript is the canonical, normalized output of the transcription
// pipeline. Duration is derived from the last segment, never supplied
// by the provider.
type Transcript struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
}

// Preview returns the first n characters of the full transcript text
// with a trailing ellipsis when truncated
func (t *Transcript) Preview(n int) string {
	if len(t.Text) <= n {
		return t.Text
	}
	return t.Text[:n] + "..."
}
