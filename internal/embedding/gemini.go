package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/proposalkb/proposalkb/internal/log"
)

// Gemini is a Client backed by the Gemini embedding API.
//
// Gemini is stateless after construction and safe for concurrent use.
type Gemini struct {
	client *genai.Client
	model  string
	dim    int32
	logger log.Logger
}

// NewGemini creates a Gemini embedding client.
//
// model selects the embedding model (e.g. gemini-embedding-001) and dim the
// output dimensionality, which must match the vector columns in the schema.
func NewGemini(ctx context.Context, apiKey, model string, dim int, logger log.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dim)
	}
	if logger == nil {
		logger = log.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  model,
		dim:    int32(dim), //nolint:gosec // dim validated positive and small
		logger: logger,
	}, nil
}

// Embed generates an embedding for one text.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	vectors, err := g.embedContents(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for several texts in one remote call.
func (g *Gemini) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	contents := make([]*genai.Content, 0, len(texts))
	for i, t := range texts {
		if t == "" {
			return nil, fmt.Errorf("text at index %d: %w", i, ErrEmptyText)
		}
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}

	return g.embedContents(ctx, contents)
}

// Dimension reports the configured output dimensionality.
func (g *Gemini) Dimension() int {
	return int(g.dim)
}

func (g *Gemini) embedContents(ctx context.Context, contents []*genai.Content) ([][]float32, error) {
	resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &g.dim,
	})
	if err != nil {
		return nil, fmt.Errorf("generating embedding: %w", err)
	}
	if len(resp.Embeddings) != len(contents) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(contents), len(resp.Embeddings))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", i)
		}
		vectors[i] = e.Values
	}

	g.logger.Debug("generated embeddings", "count", len(vectors), "model", g.model)
	return vectors, nil
}
