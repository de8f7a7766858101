package transcript_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/recallos/pkg/adapter"
	"github.com/m-mizutani/recallos/pkg/model"
	"github.com/m-mizutani/recallos/pkg/usecase/transcript"
)

type mockTranscriber struct {
	raw *adapter.RawTranscript
	err error
}

func (m *mockTranscriber) Recognize(ctx context.Context, audioPath, gcsURI string) (*adapter.RawTranscript, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.raw, nil
}

func TestNormalizeWordTiming(t *testing.T) {
	raw := &adapter.RawTranscript{
		LanguageCode: "en",
		Results: []adapter.RawResult{
			{
				Transcript: "Good morning everyone.",
				Words: []adapter.RawWord{
					{Start: 0.0, End: 0.4, Speaker: 1},
					{Start: 0.5, End: 0.9, Speaker: 1},
					{Start: 1.0, End: 1.6, Speaker: 1},
				},
			},
			{
				Transcript: "Thanks for joining.",
				Words: []adapter.RawWord{
					{Start: 2.0, End: 2.3, Speaker: 2},
					{Start: 2.4, End: 2.8, Speaker: 2},
					{Start: 2.9, End: 3.5, Speaker: 2},
				},
			},
		},
	}

	out := transcript.Normalize(raw)

	gt.Equal(t, out.Text, "Good morning everyone. Thanks for joining.")
	gt.A(t, out.Segments).Length(2)

	gt.Equal(t, out.Segments[0].Start, 0.0)
	gt.Equal(t, out.Segments[0].End, 1.6)
	gt.Equal(t, out.Segments[0].Speaker, "Speaker 1")

	gt.Equal(t, out.Segments[1].Start, 2.0)
	gt.Equal(t, out.Segments[1].End, 3.5)
	gt.Equal(t, out.Segments[1].Speaker, "Speaker 2")

	// duration derives from the last segment, never from the provider
	gt.Equal(t, out.Duration, 3.5)
}

func TestNormalizeDefaultSpeaker(t *testing.T) {
	raw := &adapter.RawTranscript{
		Results: []adapter.RawResult{
			{
				Transcript: "No diarization here.",
				Words: []adapter.RawWord{
					{Start: 0.0, End: 0.5, Speaker: 0},
					{Start: 0.6, End: 1.2, Speaker: 0},
				},
			},
		},
	}

	out := transcript.Normalize(raw)
	gt.A(t, out.Segments).Length(1)
	gt.Equal(t, out.Segments[0].Speaker, "Speaker 1")
}

func TestNormalizeTextOnlyResult(t *testing.T) {
	raw := &adapter.RawTranscript{
		Results: []adapter.RawResult{
			{Transcript: "A result with no word timing."},
		},
	}

	out := transcript.Normalize(raw)
	gt.Equal(t, out.Text, "A result with no word timing.")
	gt.A(t, out.Segments).Length(0)
	gt.Equal(t, out.Duration, 0.0)
}

func TestNormalizeEmpty(t *testing.T) {
	out := transcript.Normalize(&adapter.RawTranscript{})
	gt.Equal(t, out.Text, "")
	gt.A(t, out.Segments).Length(0)
	gt.Equal(t, out.Duration, 0.0)
	gt.Equal(t, out.Language, "en")
}

func TestTranscribePropagatesTypedErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("timeout", func(t *testing.T) {
		p := transcript.New(&mockTranscriber{err: goerr.Wrap(model.ErrTranscriptionTimeout, "operation still running")})
		_, err := p.Transcribe(ctx, "meeting.mp3", "gs://bucket/meeting.mp3")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrTranscriptionTimeout))
		gt.False(t, errors.Is(err, model.ErrTranscriptionFailed))
	})

	t.Run("provider failure", func(t *testing.T) {
		p := transcript.New(&mockTranscriber{err: goerr.Wrap(model.ErrTranscriptionFailed, "backend unavailable")})
		_, err := p.Transcribe(ctx, "meeting.mp3", "")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrTranscriptionFailed))
	})

	t.Run("missing file", func(t *testing.T) {
		p := transcript.New(&mockTranscriber{err: goerr.Wrap(model.ErrAudioNotFound, "no such file")})
		_, err := p.Transcribe(ctx, "missing.mp3", "")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrAudioNotFound))
	})
}
