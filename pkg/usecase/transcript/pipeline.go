// Package transcript normalizes raw transcription provider output into
// the canonical time-aligned, speaker-tagged segment list.
package transcript

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/recallos/pkg/adapter"
	"github.com/m-mizutani/recallos/pkg/model"
	"github.com/m-mizutani/recallos/pkg/utils/logging"
)

// Pipeline wraps a transcription provider and normalizes its output
type Pipeline struct {
	transcriber adapter.Transcriber
}

// New creates a new transcription pipeline
func New(transcriber adapter.Transcriber) *Pipeline {
	return &Pipeline{transcriber: transcriber}
}

// Transcribe runs the provider on the audio resource and returns the
// canonical transcript. Provider errors, missing files and wait
// timeouts are surfaced as typed errors; callers branch on them rather
// than catching panics.
func (p *Pipeline) Transcribe(ctx context.Context, audioPath, gcsURI string) (*model.Transcript, error) {
	raw, err := p.transcriber.Recognize(ctx, audioPath, gcsURI)
	if err != nil {
		return nil, err
	}

	transcript := Normalize(raw)

	logging.Component(ctx, "transcription").Info("transcription complete",
		"segments", len(transcript.Segments), "duration", transcript.Duration)

	return transcript, nil
}

// Normalize converts provider results into canonical segments. A result
// with word-level timing becomes a segment spanning the first to last
// word, attributed to the first word's speaker tag; a missing tag
// defaults to "Speaker 1". Duration is the last segment's end, or 0
// when no segment has timing.
func Normalize(raw *adapter.RawTranscript) *model.Transcript {
	var texts []string
	var segments []model.Segment

	for _, result := range raw.Results {
		if result.Transcript == "" {
			continue
		}
		texts = append(texts, result.Transcript)

		if len(result.Words) == 0 {
			continue
		}

		first := result.Words[0]
		last := result.Words[len(result.Words)-1]

		segments = append(segments, model.Segment{
			Text:    result.Transcript,
			Start:   first.Start,
			End:     last.End,
			Speaker: speakerName(first.Speaker),
		})
	}

	var duration float64
	if len(segments) > 0 {
		duration = segments[len(segments)-1].End
	}

	language := raw.LanguageCode
	if language == "" {
		language = "en"
	}

	return &model.Transcript{
		Text:     strings.Join(texts, " "),
		Segments: segments,
		Language: language,
		Duration: duration,
	}
}

func speakerName(tag int32) string {
	if tag <= 0 {
		tag = 1
	}
	return fmt.Sprintf("Speaker %d", tag)
}
