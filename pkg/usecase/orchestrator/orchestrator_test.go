package orchestrator_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/recallos/pkg/adapter"
	"github.com/m-mizutani/recallos/pkg/model"
	"github.com/m-mizutani/recallos/pkg/usecase/coordinator"
	"github.com/m-mizutani/recallos/pkg/usecase/insights"
	"github.com/m-mizutani/recallos/pkg/usecase/memory"
	"github.com/m-mizutani/recallos/pkg/usecase/orchestrator"
	"github.com/m-mizutani/recallos/pkg/usecase/synthesis"
	"github.com/m-mizutani/recallos/pkg/usecase/transcript"
)

type mockGemini struct {
	generateFunc func(ctx context.Context, prompt string) (string, error)
	embedFunc    func(ctx context.Context, text string, task adapter.EmbeddingTask) ([]float32, error)
}

func (m *mockGemini) Generate(ctx context.Context, prompt string) (string, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, prompt)
	}
	return "generated", nil
}

func (m *mockGemini) Embed(ctx context.Context, text string, task adapter.EmbeddingTask) ([]float32, error) {
	if m.embedFunc != nil {
		return m.embedFunc(ctx, text, task)
	}
	return []float32{1, 0, 0}, nil
}

type sessionWrite struct {
	id     model.SessionID
	fields map[string]any
}

type mockSessionStore struct {
	mu        sync.Mutex
	writes    []sessionWrite
	appends   []model.QueryRecord
	appendErr error
	session   *model.Session
}

func (m *mockSessionStore) Put(ctx context.Context, id model.SessionID, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, sessionWrite{id: id, fields: fields})
	return nil
}

func (m *mockSessionStore) Get(ctx context.Context, id model.SessionID) (*model.Session, error) {
	if m.session == nil {
		return nil, model.ErrSessionNotFound
	}
	return m.session, nil
}

func (m *mockSessionStore) AppendQuery(ctx context.Context, id model.SessionID, q model.QueryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.appends = append(m.appends, q)
	return nil
}

func (m *mockSessionStore) ListRecent(ctx context.Context, limit int) ([]*model.Session, error) {
	if m.session == nil {
		return nil, nil
	}
	return []*model.Session{m.session}, nil
}

// lastField returns the most recent write that carried the given field
func (m *mockSessionStore) lastField(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.writes) - 1; i >= 0; i-- {
		if v, ok := m.writes[i].fields[key]; ok {
			return v, true
		}
	}
	return nil, false
}

func (m *mockSessionStore) stages() []model.Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Stage
	for _, w := range m.writes {
		if s, ok := w.fields["stage"].(model.Stage); ok {
			out = append(out, s)
		}
	}
	return out
}

type mockBlobStore struct {
	err   error
	calls int
}

func (m *mockBlobStore) Upload(ctx context.Context, localPath, key string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return "gs://test-bucket/" + key, nil
}

type mockTranscriber struct {
	mu       sync.Mutex
	calls    int
	failures int
	err      error
	raw      *adapter.RawTranscript
}

func (m *mockTranscriber) Recognize(ctx context.Context, audioPath, gcsURI string) (*adapter.RawTranscript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.calls <= m.failures {
		return nil, model.ErrTranscriptionFailed
	}
	return m.raw, nil
}

type mockVectorStore struct {
	mu        sync.Mutex
	upserts   []map[string]any
	upsertErr func(payload map[string]any) error
	matches   []*adapter.Match
}

func (m *mockVectorStore) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		if err := m.upsertErr(metadata); err != nil {
			return err
		}
	}
	m.upserts = append(m.upserts, metadata)
	return nil
}

func (m *mockVectorStore) Search(ctx context.Context, vector []float32, topK int) ([]*adapter.Match, error) {
	if len(m.matches) > topK {
		return m.matches[:topK], nil
	}
	return m.matches, nil
}

func (m *mockVectorStore) Delete(ctx context.Context, id string) error {
	return nil
}

func twoSpeakerRaw() *adapter.RawTranscript {
	return &adapter.RawTranscript{
		LanguageCode: "en-US",
		Results: []adapter.RawResult{
			{
				Transcript: "we should ship the roadmap next quarter",
				Words: []adapter.RawWord{
					{Start: 0.0, End: 0.4, Speaker: 1},
					{Start: 2.1, End: 2.5, Speaker: 1},
				},
			},
			{
				Transcript: "agreed, pending the budget review",
				Words: []adapter.RawWord{
					{Start: 3.0, End: 3.2, Speaker: 2},
					{Start: 4.8, End: 5.1, Speaker: 2},
				},
			},
		},
	}
}

type testRig struct {
	sessions    *mockSessionStore
	blobs       *mockBlobStore
	transcriber *mockTranscriber
	vectors     *mockVectorStore
	analysis    *mockGemini
	planner     *mockGemini
	sleeps      []time.Duration
	uc          *orchestrator.UseCase
}

func newRig(t *testing.T) *testRig {
	t.Helper()

	rig := &testRig{
		sessions:    &mockSessionStore{},
		blobs:       &mockBlobStore{},
		transcriber: &mockTranscriber{raw: twoSpeakerRaw()},
		vectors:     &mockVectorStore{},
		analysis: &mockGemini{
			generateFunc: func(ctx context.Context, prompt string) (string, error) {
				return `{"search_depth": 5, "query_type": "factual", "requires_synthesis": true}`, nil
			},
		},
		planner: &mockGemini{
			generateFunc: func(ctx context.Context, prompt string) (string, error) {
				return `{
					"task_type": "query",
					"agents_required": ["memory_agent", "synthesis_agent"],
					"execution_strategy": "sequential",
					"estimated_complexity": "low",
					"special_requirements": [],
					"optimization_hints": []
				}`, nil
			},
		},
	}

	memories := memory.New(rig.vectors, &mockGemini{})
	synth := synthesis.New(&mockGemini{generateFunc: func(ctx context.Context, prompt string) (string, error) {
		return "the roadmap ships next quarter", nil
	}})
	insightsUC := insights.New(memories, &mockGemini{})

	rig.uc = orchestrator.New(
		rig.sessions,
		rig.blobs,
		transcript.New(rig.transcriber),
		memories,
		synth,
		coordinator.New(rig.planner),
		insightsUC,
		rig.analysis,
		orchestrator.WithSleep(func(d time.Duration) { rig.sleeps = append(rig.sleeps, d) }),
		orchestrator.WithNow(func() time.Time { return time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC) }),
		orchestrator.WithCleanup(func(string) error { return nil }),
	)
	return rig
}

func TestProcessAudioHappyPath(t *testing.T) {
	rig := newRig(t)

	result, err := rig.uc.ProcessAudio(context.Background(), "/tmp/meeting.mp3")
	gt.NoError(t, err)

	gt.S(t, string(result.SessionID)).Contains("session_")
	gt.S(t, string(result.FileID)).Contains("audio_")
	gt.S(t, result.GCSURL).Contains("gs://test-bucket/audio/")
	gt.Equal(t, result.SegmentsStored, 2)
	gt.Equal(t, result.SegmentsFailed, 0)
	gt.Equal(t, result.Duration, 5.1)
	gt.S(t, result.TranscriptPreview).Contains("roadmap")

	// the terminal write advances the stage so pollers see a settled record
	gt.Equal(t, rig.sessions.stages(), []model.Stage{
		model.StageCreated, model.StageUploading, model.StageTranscribing, model.StageStoring,
		model.StageCompleted,
	})
	status, ok := rig.sessions.lastField("status")
	gt.True(t, ok)
	gt.Equal(t, status.(model.SessionStatus), model.SessionStatusCompleted)

	// each segment carries provenance metadata for later retrieval
	gt.A(t, rig.vectors.upserts).Length(2)
	speakers := map[string]bool{}
	for _, payload := range rig.vectors.upserts {
		gt.Equal(t, payload["file_id"].(string), string(result.FileID))
		gt.Equal(t, payload["language"].(string), "en-US")
		speakers[payload["speaker"].(string)] = true
	}
	gt.True(t, speakers["Speaker 1"])
	gt.True(t, speakers["Speaker 2"])
}

func TestProcessAudioUploadFailureIsTerminal(t *testing.T) {
	rig := newRig(t)
	rig.blobs.err = model.ErrUploadFailed

	_, err := rig.uc.ProcessAudio(context.Background(), "/tmp/meeting.mp3")
	gt.True(t, errors.Is(err, model.ErrUploadFailed))

	// no retry on upload, and no transcription attempt at all
	gt.Equal(t, rig.blobs.calls, 1)
	gt.Equal(t, rig.transcriber.calls, 0)

	status, ok := rig.sessions.lastField("status")
	gt.True(t, ok)
	gt.Equal(t, status.(model.SessionStatus), model.SessionStatusFailed)
	msg, ok := rig.sessions.lastField("error")
	gt.True(t, ok)
	gt.S(t, msg.(string)).Contains("upload")
}

func TestProcessAudioTranscriptionRetries(t *testing.T) {
	rig := newRig(t)
	rig.transcriber.failures = 2

	result, err := rig.uc.ProcessAudio(context.Background(), "/tmp/meeting.mp3")
	gt.NoError(t, err)
	gt.Equal(t, result.SegmentsStored, 2)

	gt.Equal(t, rig.transcriber.calls, 3)
	gt.Equal(t, rig.sleeps, []time.Duration{1 * time.Second, 2 * time.Second})
}

func TestProcessAudioTranscriptionExhaustion(t *testing.T) {
	rig := newRig(t)
	rig.transcriber.err = model.ErrTranscriptionTimeout

	_, err := rig.uc.ProcessAudio(context.Background(), "/tmp/meeting.mp3")
	gt.True(t, errors.Is(err, model.ErrTranscriptionTimeout))

	gt.Equal(t, rig.transcriber.calls, 3)
	gt.Equal(t, rig.sleeps, []time.Duration{1 * time.Second, 2 * time.Second})

	status, ok := rig.sessions.lastField("status")
	gt.True(t, ok)
	gt.Equal(t, status.(model.SessionStatus), model.SessionStatusFailed)
}

func TestProcessAudioMissingFileDoesNotRetry(t *testing.T) {
	rig := newRig(t)
	rig.transcriber.err = model.ErrAudioNotFound

	_, err := rig.uc.ProcessAudio(context.Background(), "/tmp/meeting.mp3")
	gt.True(t, errors.Is(err, model.ErrAudioNotFound))
	gt.Equal(t, rig.transcriber.calls, 1)
	gt.A(t, rig.sleeps).Length(0)
}

func TestProcessAudioPartialStoreFailuresComplete(t *testing.T) {
	rig := newRig(t)
	rig.vectors.upsertErr = func(payload map[string]any) error {
		if payload["speaker"] == "Speaker 2" {
			return errors.New("vector store hiccup")
		}
		return nil
	}

	result, err := rig.uc.ProcessAudio(context.Background(), "/tmp/meeting.mp3")
	gt.NoError(t, err)
	gt.Equal(t, result.SegmentsStored, 1)
	gt.Equal(t, result.SegmentsFailed, 1)

	// partial failure still completes the session
	status, ok := rig.sessions.lastField("status")
	gt.True(t, ok)
	gt.Equal(t, status.(model.SessionStatus), model.SessionStatusCompleted)
	failedCount, ok := rig.sessions.lastField("segments_failed")
	gt.True(t, ok)
	gt.Equal(t, failedCount.(int), 1)
}

func TestProcessAudioTenSegmentsTwoFailures(t *testing.T) {
	rig := newRig(t)

	raw := &adapter.RawTranscript{LanguageCode: "en-US"}
	for i := 0; i < 10; i++ {
		start := float64(i)
		raw.Results = append(raw.Results, adapter.RawResult{
			Transcript: fmt.Sprintf("segment number %d", i),
			Words: []adapter.RawWord{
				{Start: start, End: start + 0.5, Speaker: 1},
			},
		})
	}
	rig.transcriber.raw = raw
	rig.vectors.upsertErr = func(payload map[string]any) error {
		if idx, ok := payload["segment_index"].(int); ok && (idx == 3 || idx == 7) {
			return errors.New("vector store hiccup")
		}
		return nil
	}

	result, err := rig.uc.ProcessAudio(context.Background(), "/tmp/meeting.mp3")
	gt.NoError(t, err)
	gt.Equal(t, result.SegmentsStored, 8)
	gt.Equal(t, result.SegmentsFailed, 2)

	status, ok := rig.sessions.lastField("status")
	gt.True(t, ok)
	gt.Equal(t, status.(model.SessionStatus), model.SessionStatusCompleted)
}

func TestProcessAudioCleanupAlwaysRuns(t *testing.T) {
	rig := newRig(t)
	rig.blobs.err = model.ErrUploadFailed

	var removed []string
	orchestrator.WithCleanup(func(path string) error {
		removed = append(removed, path)
		return nil
	})(rig.uc)

	_, err := rig.uc.ProcessAudio(context.Background(), "/tmp/meeting.mp3")
	gt.Error(t, err)
	gt.Equal(t, removed, []string{"/tmp/meeting.mp3"})
}

func TestQueryWorkflow(t *testing.T) {
	rig := newRig(t)
	rig.vectors.matches = []*adapter.Match{
		{ID: "mem_1", Score: 0.95, Metadata: map[string]any{"text": "roadmap discussion", "speaker": "Speaker 1"}},
		{ID: "mem_2", Score: 0.80, Metadata: map[string]any{"text": "budget review pending", "speaker": "Speaker 2"}},
	}

	result, err := rig.uc.Query(context.Background(), "what did we decide about the roadmap?", "session_abc")
	gt.NoError(t, err)

	gt.S(t, string(result.QueryID)).Contains("query_")
	gt.Equal(t, result.Answer, "the roadmap ships next quarter")
	gt.Equal(t, result.MemoriesUsed, 2)
	gt.A(t, result.Sources).Length(2)
	gt.Equal(t, result.Sources[0].ID, "mem_1")
	gt.Equal(t, result.Analysis.SearchDepth, 5)
	gt.Equal(t, result.Analysis.QueryType, model.QueryTypeFactual)

	gt.A(t, rig.sessions.appends).Length(1)
	gt.Equal(t, rig.sessions.appends[0].Query, "what did we decide about the roadmap?")
}

func TestQueryAnalysisDepthClamped(t *testing.T) {
	rig := newRig(t)
	rig.analysis.generateFunc = func(ctx context.Context, prompt string) (string, error) {
		return `{"search_depth": 50, "query_type": "analytical", "requires_synthesis": true}`, nil
	}

	result, err := rig.uc.Query(context.Background(), "deep question", "")
	gt.NoError(t, err)
	gt.Equal(t, result.Analysis.SearchDepth, model.MaxSearchDepth)
}

func TestQueryAnalysisParseError(t *testing.T) {
	rig := newRig(t)
	rig.analysis.generateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "I think you should search broadly", nil
	}

	_, err := rig.uc.Query(context.Background(), "anything", "")
	gt.True(t, errors.Is(err, model.ErrAnalysisParse))
}

func TestQuerySessionAppendFailureIsNonFatal(t *testing.T) {
	rig := newRig(t)
	rig.sessions.appendErr = model.ErrSessionNotFound

	result, err := rig.uc.Query(context.Background(), "what happened?", "session_gone")
	gt.NoError(t, err)
	gt.Equal(t, result.Answer, "the roadmap ships next quarter")
}

func TestQueryWithoutSessionSkipsLog(t *testing.T) {
	rig := newRig(t)

	_, err := rig.uc.Query(context.Background(), "standalone question", "")
	gt.NoError(t, err)
	gt.A(t, rig.sessions.appends).Length(0)
}

func TestIntelligentQueryRoutesToInsightsByPlan(t *testing.T) {
	rig := newRig(t)
	rig.planner.generateFunc = func(ctx context.Context, prompt string) (string, error) {
		return `{
			"task_type": "insight",
			"agents_required": ["memory_agent", "insights_agent"],
			"execution_strategy": "parallel",
			"estimated_complexity": "high",
			"special_requirements": [],
			"optimization_hints": []
		}`, nil
	}

	result, err := rig.uc.IntelligentQuery(context.Background(), "how do meetings usually end?")
	gt.NoError(t, err)

	gt.Equal(t, result.Type, model.IntelligentResultInsights)
	gt.V(t, result.Plan).NotNil()
	gt.V(t, result.Insights).NotNil()
	gt.True(t, result.Query == nil)
}

func TestIntelligentQueryRoutesToInsightsByCue(t *testing.T) {
	rig := newRig(t)

	// the plan names no insights agent; the lexical cue still routes
	result, err := rig.uc.IntelligentQuery(context.Background(), "what patterns show up across meetings?")
	gt.NoError(t, err)
	gt.Equal(t, result.Type, model.IntelligentResultInsights)
}

func TestIntelligentQueryStandardPath(t *testing.T) {
	rig := newRig(t)

	negotiated := false
	base := rig.planner.generateFunc
	rig.planner.generateFunc = func(ctx context.Context, prompt string) (string, error) {
		if negotiated {
			return `{
				"primary_agent": "memory_agent",
				"support_agents": ["synthesis_agent"],
				"resource_allocation": {"memory_agent": "high", "synthesis_agent": "medium"},
				"fallback_chain": ["memory_agent"]
			}`, nil
		}
		negotiated = true
		return base(ctx, prompt)
	}

	result, err := rig.uc.IntelligentQuery(context.Background(), "what did Speaker 1 say?")
	gt.NoError(t, err)

	gt.Equal(t, result.Type, model.IntelligentResultQuery)
	gt.V(t, result.Plan).NotNil()
	gt.V(t, result.Negotiation).NotNil()
	gt.Equal(t, result.Negotiation.PrimaryAgent, model.AgentMemory)
	gt.V(t, result.Query).NotNil()
}

func TestIntelligentQueryNegotiationFailureIsAdvisory(t *testing.T) {
	rig := newRig(t)

	planned := false
	base := rig.planner.generateFunc
	rig.planner.generateFunc = func(ctx context.Context, prompt string) (string, error) {
		if planned {
			return "not valid negotiation json", nil
		}
		planned = true
		return base(ctx, prompt)
	}

	result, err := rig.uc.IntelligentQuery(context.Background(), "what did Speaker 2 say?")
	gt.NoError(t, err)
	gt.Equal(t, result.Type, model.IntelligentResultQuery)
	gt.True(t, result.Negotiation == nil)
	gt.V(t, result.Query).NotNil()
}

func TestIntelligentQueryPlanFailure(t *testing.T) {
	rig := newRig(t)
	rig.planner.generateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "no plan for you", nil
	}

	_, err := rig.uc.IntelligentQuery(context.Background(), "anything")
	gt.True(t, errors.Is(err, model.ErrPlanParse))
}

func TestSessionLookup(t *testing.T) {
	rig := newRig(t)
	rig.sessions.session = &model.Session{
		ID:     "session_abc",
		Status: model.SessionStatusCompleted,
	}

	session, err := rig.uc.Session(context.Background(), "session_abc")
	gt.NoError(t, err)
	gt.Equal(t, session.Status, model.SessionStatusCompleted)

	_, err = rig.uc.Session(context.Background(), "")
	gt.True(t, errors.Is(err, model.ErrInvalidArgument))
}
