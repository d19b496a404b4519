package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github/itish2003/compliance-rag/models"

	"google.golang.org/genai"
)

func modelRecord(category, name, text string) models.DocumentRecord {
	return models.DocumentRecord{Category: category, Name: name, Text: text}
}

const fakeDimension = 16

// fakeEmbedder produces deterministic bag-of-words vectors by hashing tokens
// into a small fixed dimension, so texts sharing words score higher under dot
// product. It records the size of every batch it receives.
type fakeEmbedder struct {
	mu         sync.Mutex
	batchSizes []int
	failNext   bool
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.batchSizes = append(f.batchSizes, len(texts))
	fail := f.failNext
	f.mu.Unlock()
	if fail {
		return nil, fmt.Errorf("embedding service unavailable")
	}

	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vectors = append(vectors, hashVector(text))
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func hashVector(text string) []float32 {
	vector := make([]float32, fakeDimension)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vector[h.Sum32()%fakeDimension]++
	}
	return vector
}

// fakeIndex is an in-memory VectorIndex ranking by dot product. It records
// the size of every upsert batch.
type fakeIndex struct {
	mu          sync.Mutex
	entries     map[string]models.IndexEntry
	upsertSizes []int
	failNext    bool
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{entries: make(map[string]models.IndexEntry)}
}

func (f *fakeIndex) Upsert(_ context.Context, entries []models.IndexEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		return fmt.Errorf("index unavailable")
	}
	f.upsertSizes = append(f.upsertSizes, len(entries))
	for _, entry := range entries {
		f.entries[entry.ID] = entry
	}
	return nil
}

func (f *fakeIndex) Query(_ context.Context, vector []float32, topK int) ([]models.QueryMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	type scored struct {
		entry models.IndexEntry
		score float32
	}
	ranked := make([]scored, 0, len(f.entries))
	for _, entry := range f.entries {
		var score float32
		for i := range vector {
			if i < len(entry.Vector) {
				score += vector[i] * entry.Vector[i]
			}
		}
		ranked = append(ranked, scored{entry: entry, score: score})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	matches := make([]models.QueryMatch, 0, topK)
	for i := 0; i < len(ranked) && i < topK; i++ {
		matches = append(matches, models.QueryMatch{
			Category: ranked[i].entry.Category,
			Name:     ranked[i].entry.Name,
			Text:     ranked[i].entry.Text,
		})
	}
	return matches, nil
}

func (f *fakeIndex) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries), nil
}

func (f *fakeIndex) Trim(_ context.Context, keep int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id := range f.entries {
		if n, err := strconv.Atoi(id); err == nil && n >= keep {
			delete(f.entries, id)
		}
	}
	return nil
}

// fakeGenerator scripts the model side of an agent run: each call pops the
// next canned response. It records the contents of every call.
type fakeGenerator struct {
	responses []*genai.GenerateContentResponse
	calls     [][]*genai.Content
	configs   []*genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(_ context.Context, _ string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls = append(f.calls, contents)
	f.configs = append(f.configs, config)
	if len(f.responses) == 0 {
		return nil, fmt.Errorf("fake generator has no scripted response left")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: text}},
			},
		}},
	}
}

func toolCallResponse(name string, args map[string]any) *genai.GenerateContentResponse {
	return multiToolCallResponse(&genai.FunctionCall{Name: name, Args: args})
}

func multiToolCallResponse(calls ...*genai.FunctionCall) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, 0, len(calls))
	for _, call := range calls {
		parts = append(parts, &genai.Part{FunctionCall: call})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role:  genai.RoleModel,
				Parts: parts,
			},
		}},
	}
}
