package model

import "time"

type SessionID string

// NewSessionID generates a new unique SessionID
func NewSessionID() SessionID {
	return SessionID("session_" + shortID())
}

type FileID string

// NewFileID generates a new unique FileID for an uploaded audio file
func NewFileID() FileID {
	return FileID("audio_" + shortID())
}

type QueryID string

// NewQueryID generates a new unique QueryID
func NewQueryID() QueryID {
	return QueryID("query_" + shortID())
}

type SessionStatus string

const (
	SessionStatusProcessing SessionStatus = "processing"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusFailed     SessionStatus = "failed"
)

// Stage names the upload workflow step currently in progress. The stage
// is persisted with the session so external observers can poll progress.
type Stage string

const (
	StageCreated      Stage = "created"
	StageUploading    Stage = "uploading"
	StageTranscribing Stage = "transcribing"
	StageStoring      Stage = "storing"
	StageCompleted    Stage = "completed"
)

// Session tracks one upload-and-process workflow and its follow-up
// queries. Persisted with merge semantics: each write overwrites only
// the fields it carries.
type Session struct {
	ID             SessionID     `firestore:"-" json:"session_id"`
	FileID         string        `firestore:"file_id" json:"file_id"`
	Status         SessionStatus `firestore:"status" json:"status"`
	Stage          Stage         `firestore:"stage" json:"stage"`
	AudioPath      string        `firestore:"audio_path" json:"audio_path"`
	GCSURL         string        `firestore:"gcs_url" json:"gcs_url,omitempty"`
	Duration       float64       `firestore:"duration" json:"duration,omitempty"`
	SegmentsStored int           `firestore:"segments_stored" json:"segments_stored"`
	SegmentsFailed int           `firestore:"segments_failed" json:"segments_failed"`
	Error          string        `firestore:"error" json:"error,omitempty"`
	Queries        []QueryRecord `firestore:"queries" json:"queries,omitempty"`
	StartedAt      time.Time     `firestore:"started_at" json:"started_at"`
	UpdatedAt      time.Time     `firestore:"updated_at" json:"updated_at"`
	CompletedAt    time.Time     `firestore:"completed_at" json:"completed_at,omitempty"`
}

// QueryRecord is one entry in a session's query log
type QueryRecord struct {
	QueryID   string    `firestore:"query_id" json:"query_id"`
	Query     string    `firestore:"query" json:"query"`
	Timestamp time.Time `firestore:"timestamp" json:"timestamp"`
}

// UploadResult is the success payload of the upload workflow
type UploadResult struct {
	SessionID         SessionID `json:"session_id"`
	FileID            FileID    `json:"file_id"`
	AudioPath         string    `json:"audio_path"`
	GCSURL            string    `json:"gcs_url"`
	Duration          float64   `json:"duration"`
	SegmentsStored    int       `json:"segments_stored"`
	SegmentsFailed    int       `json:"segments_failed"`
	TranscriptPreview string    `json:"transcript_preview"`
}
