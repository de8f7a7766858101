package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recallos/pkg/model"
	"github.com/m-mizutani/recallos/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

const (
	// transcribeAttempts bounds retries against the transcription
	// provider; the backoff between attempts is 2^attempt seconds
	transcribeAttempts = 3

	// storeConcurrency bounds the parallel per-segment store workers
	storeConcurrency = 4

	// previewLen caps the transcript preview in the upload result
	previewLen = 200
)

// ProcessAudio runs the full upload workflow: blob upload, diarized
// transcription with retry, and per-segment memory store. The session
// record is merge-written at every stage transition. ProcessAudio owns
// audioPath as a temporary working copy and removes it on every exit
// path; callers must hand over a file they no longer need.
func (uc *UseCase) ProcessAudio(ctx context.Context, audioPath string) (*model.UploadResult, error) {
	defer func() {
		if err := uc.cleanup(audioPath); err != nil {
			logging.Component(ctx, "orchestrator").Warn("failed to remove temporary audio file",
				"path", audioPath, "error", err)
		}
	}()

	sessionID := model.NewSessionID()
	fileID := model.NewFileID()
	logger := logging.Component(ctx, "orchestrator").With("session_id", sessionID, "file_id", fileID)

	if err := uc.sessions.Put(ctx, sessionID, map[string]any{
		"file_id":    string(fileID),
		"status":     model.SessionStatusProcessing,
		"stage":      model.StageCreated,
		"audio_path": audioPath,
		"started_at": uc.now(),
	}); err != nil {
		return nil, err
	}

	// stage: uploading
	if err := uc.transition(ctx, sessionID, model.StageUploading, nil); err != nil {
		return nil, err
	}
	gcsURL, err := uc.blobs.Upload(ctx, audioPath, uploadKey(fileID, audioPath))
	if err != nil {
		// upload failures are never retried
		return nil, uc.fail(ctx, sessionID, err)
	}
	logger.Info("audio uploaded", "gcs_url", gcsURL)

	// stage: transcribing
	if err := uc.transition(ctx, sessionID, model.StageTranscribing, map[string]any{"gcs_url": gcsURL}); err != nil {
		return nil, err
	}
	tr, err := uc.transcribeWithRetry(ctx, audioPath, gcsURL)
	if err != nil {
		return nil, uc.fail(ctx, sessionID, err)
	}
	logger.Info("transcription complete", "segments", len(tr.Segments), "duration", tr.Duration)

	// stage: storing
	if err := uc.transition(ctx, sessionID, model.StageStoring, map[string]any{"duration": tr.Duration}); err != nil {
		return nil, err
	}
	stored, failed := uc.storeSegments(ctx, sessionID, fileID, gcsURL, audioPath, tr)
	logger.Info("segments stored", "stored", stored, "failed", failed)

	if err := uc.sessions.Put(ctx, sessionID, map[string]any{
		"status":          model.SessionStatusCompleted,
		"stage":           model.StageCompleted,
		"segments_stored": stored,
		"segments_failed": failed,
		"completed_at":    uc.now(),
	}); err != nil {
		return nil, err
	}

	return &model.UploadResult{
		SessionID:         sessionID,
		FileID:            fileID,
		AudioPath:         audioPath,
		GCSURL:            gcsURL,
		Duration:          tr.Duration,
		SegmentsStored:    stored,
		SegmentsFailed:    failed,
		TranscriptPreview: tr.Preview(previewLen),
	}, nil
}

// transcribeWithRetry retries provider failures with exponential
// backoff. File-level errors are not the provider's fault and fail
// immediately.
func (uc *UseCase) transcribeWithRetry(ctx context.Context, audioPath, gcsURL string) (*model.Transcript, error) {
	var lastErr error
	for attempt := 0; attempt < transcribeAttempts; attempt++ {
		tr, err := uc.pipeline.Transcribe(ctx, audioPath, gcsURL)
		if err == nil {
			return tr, nil
		}
		lastErr = err

		if errors.Is(err, model.ErrAudioNotFound) || errors.Is(err, model.ErrInvalidArgument) {
			return nil, err
		}
		if attempt < transcribeAttempts-1 {
			wait := time.Duration(1<<attempt) * time.Second
			logging.Component(ctx, "orchestrator").Warn("transcription attempt failed, retrying",
				"attempt", attempt+1, "wait", wait, "error", err)
			uc.sleep(wait)
		}
	}
	return nil, goerr.Wrap(lastErr, "transcription failed after retries",
		goerr.V("attempts", transcribeAttempts))
}

// storeSegments persists every transcript segment as its own memory.
// Individual failures are counted and logged but never abort the batch.
func (uc *UseCase) storeSegments(ctx context.Context, sessionID model.SessionID, fileID model.FileID, gcsURL, audioPath string, tr *model.Transcript) (int, int) {
	segments := tr.Segments
	if len(segments) == 0 && tr.Text != "" {
		// no diarization data; keep the transcript as a single memory
		segments = []model.Segment{{
			Text:    tr.Text,
			End:     tr.Duration,
			Speaker: model.SpeakerUnknown,
		}}
	}

	var stored, failed atomic.Int64
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(storeConcurrency)

	for i, seg := range segments {
		eg.Go(func() error {
			meta := model.MemoryMetadata{
				SessionID:      sessionID,
				FileID:         string(fileID),
				SegmentIndex:   i,
				TimestampStart: seg.Start,
				TimestampEnd:   seg.End,
				Speaker:        seg.Speaker,
				Language:       tr.Language,
				AudioFile:      filepath.Base(audioPath),
				GCSURL:         gcsURL,
			}
			if _, err := uc.memories.Store(egCtx, seg.Text, meta.Fields()); err != nil {
				failed.Add(1)
				logging.Component(ctx, "orchestrator").Warn("segment store failed",
					"file_id", fileID, "segment", i, "error", err)
				return nil
			}
			stored.Add(1)
			return nil
		})
	}
	// workers never return errors; Wait is a join
	_ = eg.Wait()

	return int(stored.Load()), int(failed.Load())
}

// transition merge-writes the next stage plus any extra fields
func (uc *UseCase) transition(ctx context.Context, id model.SessionID, stage model.Stage, extra map[string]any) error {
	fields := map[string]any{"stage": stage}
	for k, v := range extra {
		fields[k] = v
	}
	return uc.sessions.Put(ctx, id, fields)
}

// fail marks the session terminally failed and passes the cause through
func (uc *UseCase) fail(ctx context.Context, id model.SessionID, cause error) error {
	if err := uc.sessions.Put(ctx, id, map[string]any{
		"status":       model.SessionStatusFailed,
		"error":        cause.Error(),
		"completed_at": uc.now(),
	}); err != nil {
		logging.Component(ctx, "orchestrator").Error("failed to persist session failure",
			"session_id", id, "error", err)
	}
	return cause
}

func uploadKey(fileID model.FileID, audioPath string) string {
	return fmt.Sprintf("audio/%s%s", fileID, filepath.Ext(audioPath))
}
