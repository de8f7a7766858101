package adapter

import (
	"context"
	"errors"
	"os"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recallos/pkg/model"
)

// RawWord is one time-aligned word from the transcription provider
type RawWord struct {
	Start   float64
	End     float64
	Speaker int32
}

// RawResult is one provider result: a text alternative with optional
// word-level timing. Results without words contribute text only.
type RawResult struct {
	Transcript string
	Words      []RawWord
}

// RawTranscript is the provider output before normalization
type RawTranscript struct {
	Results      []RawResult
	LanguageCode string
}

// Transcriber is the speech-to-text collaborator. Recognize blocks
// until the provider finishes or the wait bound elapses; a timeout is
// reported as model.ErrTranscriptionTimeout, distinct from provider
// failures.
type Transcriber interface {
	Recognize(ctx context.Context, audioPath, gcsURI string) (*RawTranscript, error)
}

// SpeechClient implements Transcriber using Google Cloud Speech-to-Text
type SpeechClient struct {
	client      *speech.Client
	waitTimeout time.Duration
}

type SpeechOption func(*SpeechClient)

// WithWaitTimeout bounds the blocking wait on long-running recognition
func WithWaitTimeout(d time.Duration) SpeechOption {
	return func(s *SpeechClient) {
		s.waitTimeout = d
	}
}

func NewSpeech(ctx context.Context, opts ...SpeechOption) (*SpeechClient, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create speech client")
	}

	s := &SpeechClient{
		client:      client,
		waitTimeout: 300 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func recognitionConfig() *speechpb.RecognitionConfig {
	return &speechpb.RecognitionConfig{
		Encoding:                   speechpb.RecognitionConfig_MP3,
		LanguageCode:               "en-US",
		EnableWordTimeOffsets:      true,
		EnableAutomaticPunctuation: true,
		DiarizationConfig: &speechpb.SpeakerDiarizationConfig{
			EnableSpeakerDiarization: true,
			MinSpeakerCount:          1,
			MaxSpeakerCount:          4,
		},
		Model: "latest_long",
	}
}

// Recognize transcribes the audio resource. When a GCS URI is given the
// long-running API is used (no payload size limit); otherwise the local
// file content is sent synchronously.
func (s *SpeechClient) Recognize(ctx context.Context, audioPath, gcsURI string) (*RawTranscript, error) {
	var resp *speechpb.LongRunningRecognizeResponse

	if gcsURI != "" {
		op, err := s.client.LongRunningRecognize(ctx, &speechpb.LongRunningRecognizeRequest{
			Config: recognitionConfig(),
			Audio: &speechpb.RecognitionAudio{
				AudioSource: &speechpb.RecognitionAudio_Uri{Uri: gcsURI},
			},
		})
		if err != nil {
			return nil, goerr.Wrap(model.ErrTranscriptionFailed, err.Error(), goerr.V("uri", gcsURI))
		}

		waitCtx, cancel := context.WithTimeout(ctx, s.waitTimeout)
		defer cancel()

		resp, err = op.Wait(waitCtx)
		if err != nil {
			if errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
				return nil, goerr.Wrap(model.ErrTranscriptionTimeout, "long-running recognition did not finish",
					goerr.V("uri", gcsURI), goerr.V("timeout", s.waitTimeout))
			}
			return nil, goerr.Wrap(model.ErrTranscriptionFailed, err.Error(), goerr.V("uri", gcsURI))
		}

		return convertResults(resp.Results, "en"), nil
	}

	content, err := os.ReadFile(audioPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(model.ErrAudioNotFound, "local file missing", goerr.V("path", audioPath))
		}
		return nil, goerr.Wrap(err, "failed to read audio file", goerr.V("path", audioPath))
	}

	syncResp, err := s.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: recognitionConfig(),
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: content},
		},
	})
	if err != nil {
		return nil, goerr.Wrap(model.ErrTranscriptionFailed, err.Error(), goerr.V("path", audioPath))
	}

	return convertResults(syncResp.Results, "en"), nil
}

func convertResults(results []*speechpb.SpeechRecognitionResult, lang string) *RawTranscript {
	raw := &RawTranscript{LanguageCode: lang}

	for _, result := range results {
		if len(result.Alternatives) == 0 {
			continue
		}
		alt := result.Alternatives[0]

		words := make([]RawWord, 0, len(alt.Words))
		for _, w := range alt.Words {
			words = append(words, RawWord{
				Start:   w.StartTime.AsDuration().Seconds(),
				End:     w.EndTime.AsDuration().Seconds(),
				Speaker: w.SpeakerTag,
			})
		}

		raw.Results = append(raw.Results, RawResult{
			Transcript: alt.Transcript,
			Words:      words,
		})
	}

	return raw
}
