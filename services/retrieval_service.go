package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github/itish2003/compliance-rag/models"
)

// DefaultTopK is how many matches a retrieval query folds into context.
const DefaultTopK = 3

// RetrievalPipeline composes the embedder and the vector index into the two
// operations the rest of the system needs: bulk ingest and top-k contextual
// query.
type RetrievalPipeline struct {
	embedder  Embedder
	index     VectorIndex
	batchSize int
}

// NewRetrievalPipeline wires an embedder and an index into a pipeline.
// batchSize bounds both the embedding request size and the upsert size.
func NewRetrievalPipeline(embedder Embedder, index VectorIndex, batchSize int) *RetrievalPipeline {
	return &RetrievalPipeline{
		embedder:  embedder,
		index:     index,
		batchSize: batchSize,
	}
}

// Ingest embeds and upserts records in batches. Each record's id is its
// position in the overall sequence, so re-running the same batch overwrites
// the same rows instead of duplicating them; entries beyond the sequence are
// trimmed afterwards, so a shorter run also removes rules that no longer
// exist. Ingest is operator-triggered: failures are folded into the returned
// summary rather than raised, because the operator needs the detail more than
// the process needs a crash.
func (p *RetrievalPipeline) Ingest(ctx context.Context, records []models.DocumentRecord) string {
	log.Printf("PIPELINE: Ingesting %d records...", len(records))

	for start := 0; start < len(records); start += p.batchSize {
		end := min(start+p.batchSize, len(records))
		batch := records[start:end]

		texts := make([]string, 0, len(batch))
		for _, record := range batch {
			texts = append(texts, record.Text)
		}

		vectors, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			log.Printf("PIPELINE ERROR: embedding batch %d-%d: %v", start, end, err)
			return fmt.Sprintf("Error during ingest: %v", err)
		}

		entries := make([]models.IndexEntry, 0, len(batch))
		for i, record := range batch {
			entries = append(entries, models.IndexEntry{
				ID:       strconv.Itoa(start + i),
				Vector:   vectors[i],
				Category: record.Category,
				Name:     record.Name,
				Text:     record.Text,
			})
		}

		if err := p.index.Upsert(ctx, entries); err != nil {
			log.Printf("PIPELINE ERROR: upserting batch %d-%d: %v", start, end, err)
			return fmt.Sprintf("Error during ingest: %v", err)
		}
	}

	if err := p.index.Trim(ctx, len(records)); err != nil {
		log.Printf("PIPELINE ERROR: trimming stale entries: %v", err)
		return fmt.Sprintf("Error during ingest: %v", err)
	}

	log.Printf("PIPELINE: Ingest completed successfully.")
	return fmt.Sprintf("Ingested %d records successfully.", len(records))
}

// Query embeds the query text, retrieves the top-k nearest entries, and
// concatenates their fields into one newline-delimited context block, most
// similar first. The result is opaque text: it is the unit handed back to the
// reasoning agent as a tool result.
func (p *RetrievalPipeline) Query(ctx context.Context, queryText string, topK int) (string, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := p.embedder.EmbedOne(ctx, queryText)
	if err != nil {
		return "", fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := p.index.Query(ctx, vector, topK)
	if err != nil {
		return "", fmt.Errorf("failed to query index: %w", err)
	}

	blocks := make([]string, 0, len(matches))
	for _, match := range matches {
		blocks = append(blocks, fmt.Sprintf("Licensing: %s\nName: %s\nContent: %s",
			match.Category, match.Name, match.Text))
	}

	log.Printf("PIPELINE: Query %q matched %d entries", queryText, len(matches))
	return strings.Join(blocks, "\n\n"), nil
}
