package services

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/genai"
)

// Embedder turns text into fixed-dimension vectors. Implementations must
// preserve input order and return exactly one vector per input string.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// embedCaller is the slice of the genai client the embedder needs, extracted
// so tests can substitute a fake without a live API key.
type embedCaller interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// geminiEmbedder embeds text with a Gemini embedding model. Batches handed to
// the remote service are capped so a large ingest cannot blow past provider
// request limits; the cap also defines the unit of failure (a chunk embeds
// entirely or not at all).
type geminiEmbedder struct {
	api       embedCaller
	model     string
	dimension int
	batchSize int
}

// NewGeminiEmbedder wraps a genai client as an Embedder.
func NewGeminiEmbedder(client *genai.Client, model string, dimension, batchSize int) Embedder {
	return &geminiEmbedder{
		api:       client.Models,
		model:     model,
		dimension: dimension,
		batchSize: batchSize,
	}
}

// Embed implements Embedder. Inputs larger than the batch cap are chunked and
// the per-chunk results concatenated in order.
func (e *geminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))

		contents := make([]*genai.Content, 0, end-start)
		for _, text := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
		}

		resp, err := e.api.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
			OutputDimensionality: genai.Ptr(int32(e.dimension)),
		})
		if err != nil {
			return nil, fmt.Errorf("embedding call for batch %d-%d failed: %w", start, end, err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("embedding service returned %d vectors for %d inputs", len(resp.Embeddings), end-start)
		}
		for _, emb := range resp.Embeddings {
			if len(emb.Values) != e.dimension {
				return nil, fmt.Errorf("embedding dimension mismatch: want %d, got %d", e.dimension, len(emb.Values))
			}
			vectors = append(vectors, emb.Values)
		}
	}

	log.Printf("EMBEDDER: Embedded %d texts with model %s", len(texts), e.model)
	return vectors, nil
}

// EmbedOne implements Embedder for single query strings.
func (e *geminiEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
