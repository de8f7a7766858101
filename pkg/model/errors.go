package model

import "github.com/m-mizutani/goerr/v2"

var (
	ErrInvalidArgument = goerr.New("invalid argument")

	ErrAudioNotFound   = goerr.New("audio file not found")
	ErrSessionNotFound = goerr.New("session not found")

	ErrUploadFailed         = goerr.New("storage upload failed")
	ErrTranscriptionFailed  = goerr.New("transcription failed")
	ErrTranscriptionTimeout = goerr.New("transcription timed out")

	ErrEmbeddingFailed = goerr.New("embedding generation failed")
	ErrStoreFailed     = goerr.New("vector store operation failed")

	ErrPlanParse        = goerr.New("execution plan is not valid JSON")
	ErrNegotiationParse = goerr.New("resource negotiation is not valid JSON")
	ErrAnalysisParse    = goerr.New("query analysis is not valid JSON")
)
