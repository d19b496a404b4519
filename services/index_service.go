package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github/itish2003/compliance-rag/config"
	"github/itish2003/compliance-rag/models"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
)

// VectorIndex is the managed similarity store. Upsert overwrites entries by
// id with no cross-entry atomicity; Query returns up to topK matches ranked
// most-similar first. Trim removes the positional tail left behind when a
// re-ingested record sequence is shorter than the previous one; without it a
// deleted rule would stay retrievable forever.
type VectorIndex interface {
	Upsert(ctx context.Context, entries []models.IndexEntry) error
	Query(ctx context.Context, vector []float32, topK int) ([]models.QueryMatch, error)
	Count(ctx context.Context) (int, error)
	Trim(ctx context.Context, keep int) error
}

// chromaIndex adapts a Chroma collection to the VectorIndex contract.
type chromaIndex struct {
	collection chromago.Collection
}

// EnsureIndex connects to the named collection, creating it if absent.
// Idempotent: the ingest path can run repeatedly without precondition checks.
// Dimension and similarity space are recorded in the collection metadata at
// creation time; both must match the query-time configuration or similarity
// scores are meaningless.
func EnsureIndex(ctx context.Context, client chromago.Client, cfg config.IndexConfig) (VectorIndex, error) {
	collection, err := client.GetOrCreateCollection(
		ctx,
		cfg.Name,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("hnsw:space", cfg.Metric),
				chromago.NewIntAttribute("dimension", int64(cfg.Dimension)),
				chromago.NewStringAttribute("created_by", "compliance_rag"),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create collection %q: %w", cfg.Name, err)
	}
	log.Printf("INDEX: Connected to collection %q (dim=%d, space=%s)", cfg.Name, cfg.Dimension, cfg.Metric)
	return &chromaIndex{collection: collection}, nil
}

// ConnectIndex connects to an existing collection and fails when it does not
// exist. Query paths use this so a read can never create an empty index by
// accident.
func ConnectIndex(ctx context.Context, client chromago.Client, name string) (VectorIndex, error) {
	collection, err := client.GetCollection(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("collection %q does not exist or is unreachable: %w", name, err)
	}
	return &chromaIndex{collection: collection}, nil
}

// Upsert implements VectorIndex. Entries are written by id; re-writing the
// same id overwrites the stored row.
func (c *chromaIndex) Upsert(ctx context.Context, entries []models.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	ids := make([]chromago.DocumentID, 0, len(entries))
	texts := make([]string, 0, len(entries))
	embeds := make([]embeddings.Embedding, 0, len(entries))
	metadatas := make([]chromago.DocumentMetadata, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, chromago.DocumentID(entry.ID))
		texts = append(texts, entry.Text)
		embeds = append(embeds, embeddings.NewEmbeddingFromFloat32(entry.Vector))
		metadatas = append(metadatas, chromago.NewDocumentMetadata(
			chromago.NewStringAttribute("licensing", entry.Category),
			chromago.NewStringAttribute("name", entry.Name),
		))
	}

	err := c.collection.Upsert(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(embeds...),
		chromago.WithMetadatas(metadatas...),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert %d entries: %w", len(entries), err)
	}
	return nil
}

// Query implements VectorIndex.
func (c *chromaIndex) Query(ctx context.Context, vector []float32, topK int) ([]models.QueryMatch, error) {
	results, err := c.collection.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(topK),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	var matches []models.QueryMatch
	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	if len(documentGroups) == 0 {
		return matches, nil
	}

	for i, doc := range documentGroups[0] {
		match := models.QueryMatch{Text: doc.ContentString()}
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) && metadataGroups[0][i] != nil {
			meta := metadataMap(metadataGroups[0][i])
			if v, ok := meta["licensing"].(string); ok {
				match.Category = v
			}
			if v, ok := meta["name"].(string); ok {
				match.Name = v
			}
		}
		matches = append(matches, match)
	}
	return matches, nil
}

// Trim implements VectorIndex. Entry ids are positions in the record
// sequence, so after a full ingest of N records everything at id >= N is a
// leftover from a previous, longer run and gets deleted by id.
func (c *chromaIndex) Trim(ctx context.Context, keep int) error {
	count, err := c.Count(ctx)
	if err != nil {
		return err
	}
	if count <= keep {
		return nil
	}

	ids := make([]chromago.DocumentID, 0, count-keep)
	for i := keep; i < count; i++ {
		ids = append(ids, chromago.DocumentID(strconv.Itoa(i)))
	}
	if err := c.collection.Delete(ctx, chromago.WithIDsDelete(ids...)); err != nil {
		return fmt.Errorf("failed to delete %d stale entries: %w", len(ids), err)
	}
	log.Printf("INDEX: Trimmed %d stale entries (ids %d-%d)", len(ids), keep, count-1)
	return nil
}

// Count implements VectorIndex.
func (c *chromaIndex) Count(ctx context.Context) (int, error) {
	count, err := c.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count items in collection: %w", err)
	}
	return int(count), nil
}

// metadataMap converts a DocumentMetadata into a plain map. The metadata type
// exposes no direct accessor for all values, so round-trip through JSON.
func metadataMap(meta chromago.DocumentMetadata) map[string]interface{} {
	jsonBytes, err := json.Marshal(meta)
	if err != nil {
		log.Printf("WARN: could not marshal document metadata: %v", err)
		return map[string]interface{}{}
	}
	var out map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &out); err != nil {
		log.Printf("WARN: could not unmarshal document metadata: %v", err)
		return map[string]interface{}{}
	}
	return out
}
