package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recallos/pkg/model"
	"google.golang.org/genai"
)

// EmbeddingTask distinguishes the two embedding intents. Documents and
// queries are optimized differently within the same embedding space, so
// the store and search paths must not share a task type.
type EmbeddingTask string

const (
	EmbeddingTaskDocument EmbeddingTask = "RETRIEVAL_DOCUMENT"
	EmbeddingTaskQuery    EmbeddingTask = "RETRIEVAL_QUERY"
)

// Gemini is the language model collaborator: free-text generation for
// planning, analysis, synthesis and narration, plus task-typed text
// embeddings.
type Gemini interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Embed(ctx context.Context, text string, task EmbeddingTask) ([]float32, error)
}

type GeminiClient struct {
	client          *genai.Client
	generativeModel string
	embeddingModel  string
}

type GeminiOption func(*GeminiClient)

func WithGenerativeModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.generativeModel = model
	}
}

func WithEmbeddingModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.embeddingModel = model
	}
}

func NewGemini(ctx context.Context, projectID, location string, opts ...GeminiOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	g := &GeminiClient{
		client:          client,
		generativeModel: "gemini-2.0-flash",
		embeddingModel:  "text-embedding-004",
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.generativeModel, contents, nil)
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content")
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", goerr.New("invalid response structure from gemini")
	}

	return resp.Candidates[0].Content.Parts[0].Text, nil
}

func (g *GeminiClient) Embed(ctx context.Context, text string, task EmbeddingTask) ([]float32, error) {
	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, genai.Text(text), &genai.EmbedContentConfig{
		TaskType: string(task),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed content", goerr.V("task", task))
	}

	if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, goerr.Wrap(model.ErrEmbeddingFailed, "empty embedding response")
	}

	return resp.Embeddings[0].Values, nil
}
