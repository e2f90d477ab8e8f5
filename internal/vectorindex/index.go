// Package vectorindex stores chunk embeddings and answers similarity
// queries with exact metadata filtering and a score floor.
package vectorindex

import (
	"context"
	"sort"

	"neurabuddy/internal/domain"
	"neurabuddy/internal/logger"
	"neurabuddy/internal/util"

	"go.uber.org/zap"
)

// Index is safe for concurrent use when its backend is.
type Index struct {
	embedder   domain.EmbeddingService
	backend    Backend
	collection string
}

func New(embedder domain.EmbeddingService, backend Backend, collection string) *Index {
	return &Index{embedder: embedder, backend: backend, collection: collection}
}

// Insert embeds and stores chunks, returning one new id per chunk in input
// order. The id is also recorded as chunk_id metadata.
func (idx *Index) Insert(ctx context.Context, chunks []domain.Chunk, documentID string) ([]string, error) {
	if len(chunks) == 0 {
		return []string{}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := idx.embedder.GenerateBatch(ctx, texts)
	if err != nil {
		return nil, domain.NewUpstreamError("failed to embed chunks", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.NewInternalError("embedding count does not match chunk count", nil)
	}

	ids := make([]string, len(chunks))
	records := make([]Record, len(chunks))
	for i, c := range chunks {
		ids[i] = util.NewULID()
		meta := c.Metadata
		meta.ChunkID = ids[i]
		if documentID != "" {
			meta.DocumentID = documentID
		}
		records[i] = Record{ID: ids[i], Content: c.Content, Fields: meta.Fields(), Vector: vectors[i]}
	}

	if err := idx.backend.Put(ctx, records); err != nil {
		return nil, domain.NewUpstreamError("failed to store chunks", err)
	}
	logger.Get().Info("Inserted chunks into index",
		zap.String("collection", idx.collection),
		zap.String("document_id", documentID),
		zap.Int("count", len(ids)),
	)
	return ids, nil
}

// Search returns at most topK chunks with score >= minScore that match
// filter, ordered by descending score.
func (idx *Index) Search(ctx context.Context, query string, topK int, filter domain.Filter, minScore float64) ([]domain.ScoredChunk, error) {
	if topK <= 0 {
		return []domain.ScoredChunk{}, nil
	}
	vec, err := idx.embedder.Generate(ctx, query)
	if err != nil {
		return nil, domain.NewUpstreamError("failed to embed query", err)
	}
	records, err := idx.backend.Scan(ctx, filter)
	if err != nil {
		return nil, domain.NewUpstreamError("failed to scan index", err)
	}

	results := make([]domain.ScoredChunk, 0, len(records))
	for _, r := range records {
		score, err := util.Similarity(vec, r.Vector)
		if err != nil {
			logger.Get().Warn("Skipping chunk with incompatible embedding", zap.String("chunk_id", r.ID), zap.Error(err))
			continue
		}
		if score < minScore {
			continue
		}
		results = append(results, domain.ScoredChunk{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: domain.MetadataFromFields(r.Fields),
			Score:    score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score == results[j].Score {
			return results[i].ID < results[j].ID
		}
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Stats reports the number of stored chunks and the index generation.
func (idx *Index) Stats(ctx context.Context) (domain.IndexStats, error) {
	n, err := idx.backend.Count(ctx)
	if err != nil {
		return domain.IndexStats{}, domain.NewUpstreamError("failed to count chunks", err)
	}
	gen, err := idx.backend.Generation(ctx)
	if err != nil {
		return domain.IndexStats{}, domain.NewUpstreamError("failed to read index generation", err)
	}
	return domain.IndexStats{TotalChunks: n, CollectionName: idx.collection, Generation: gen}, nil
}

// DeleteByDocument removes every chunk inserted under documentID and
// reports whether any existed.
func (idx *Index) DeleteByDocument(ctx context.Context, documentID string) (bool, error) {
	if documentID == "" {
		return false, domain.NewInvalidInputError("document id is required")
	}
	n, err := idx.backend.DeleteWhere(ctx, domain.MetaDocumentID, documentID)
	if err != nil {
		return false, domain.NewUpstreamError("failed to delete document chunks", err)
	}
	logger.Get().Info("Deleted document chunks", zap.String("document_id", documentID), zap.Int("count", n))
	return n > 0, nil
}
