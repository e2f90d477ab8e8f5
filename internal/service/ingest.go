package service

import (
	"context"
	"errors"
	"maps"
	"os"
	"strings"

	"neurabuddy/internal/domain"
	"neurabuddy/internal/extractor"
	"neurabuddy/internal/logger"
	"neurabuddy/internal/util"

	"go.uber.org/zap"
)

const directInputSource = "direct_input"

// Segmenter splits document text into chunks.
type Segmenter interface {
	Segment(content string, sourceMeta map[string]string, source string) ([]domain.Chunk, error)
}

// DocumentIndex is the write side of the vector index.
type DocumentIndex interface {
	Insert(ctx context.Context, chunks []domain.Chunk, documentID string) ([]string, error)
	DeleteByDocument(ctx context.Context, documentID string) (bool, error)
	Stats(ctx context.Context) (domain.IndexStats, error)
}

// IngestParams names exactly one of Content, Data or FilePath. Format is
// inferred from Filename or FilePath when empty; raw Content defaults to
// text.
type IngestParams struct {
	Content    string
	Data       []byte
	FilePath   string
	Filename   string
	Format     extractor.Format
	Source     string
	DocumentID string
	Metadata   map[string]string
}

type IngestResult struct {
	DocumentID    string   `json:"document_id"`
	ChunksCreated int      `json:"chunks_created"`
	ChunkIDs      []string `json:"chunk_ids"`
}

// IngestService manages the knowledge base contents.
type IngestService interface {
	Ingest(ctx context.Context, p IngestParams) (*IngestResult, error)
	DeleteDocument(ctx context.Context, documentID string) error
	Stats(ctx context.Context) (domain.IndexStats, error)
}

type ingestService struct {
	segmenter Segmenter
	index     DocumentIndex
}

func NewIngestService(segmenter Segmenter, index DocumentIndex) IngestService {
	return &ingestService{segmenter: segmenter, index: index}
}

func (s *ingestService) Ingest(ctx context.Context, p IngestParams) (*IngestResult, error) {
	src, err := extractorSource(p)
	if err != nil {
		return nil, err
	}

	doc, err := extractor.Extract(ctx, src)
	if err != nil {
		switch {
		case errors.Is(err, extractor.ErrUnsupportedFormat), errors.Is(err, extractor.ErrNoSource):
			return nil, domain.NewInvalidInputError(err.Error())
		case errors.Is(err, os.ErrNotExist):
			return nil, domain.NewInvalidInputError("file not found").WithContext("file_path", p.FilePath)
		}
		return nil, domain.NewError(domain.CodeInvalidInput, "failed to read document", err)
	}

	meta := make(map[string]string, len(doc.Metadata)+len(p.Metadata))
	maps.Copy(meta, doc.Metadata)
	maps.Copy(meta, p.Metadata)
	source := orDefault(p.Source, orDefault(src.Name, directInputSource))

	chunks, err := s.segmenter.Segment(doc.Content, meta, source)
	if err != nil {
		return nil, domain.NewInternalError("failed to chunk document", err)
	}
	if len(chunks) == 0 {
		return nil, domain.NewInvalidInputError("document contains no indexable text")
	}

	documentID := orDefault(p.DocumentID, util.NewULID())
	ids, err := s.index.Insert(ctx, chunks, documentID)
	if err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, domain.NewUpstreamError("failed to index document", err)
	}

	logger.Get().Info("Document ingested",
		zap.String("document_id", documentID),
		zap.String("source", source),
		zap.String("format", doc.Metadata["type"]),
		zap.Int("chunks", len(ids)),
	)
	return &IngestResult{DocumentID: documentID, ChunksCreated: len(ids), ChunkIDs: ids}, nil
}

func extractorSource(p IngestParams) (extractor.Source, error) {
	given := 0
	if strings.TrimSpace(p.Content) != "" {
		given++
	}
	if len(p.Data) > 0 {
		given++
	}
	if p.FilePath != "" {
		given++
	}
	if given != 1 {
		return extractor.Source{}, domain.NewInvalidInputError("exactly one of content, file data or file path is required")
	}

	switch {
	case strings.TrimSpace(p.Content) != "":
		format := p.Format
		if format == "" {
			format = extractor.FormatText
		}
		return extractor.Source{Data: []byte(p.Content), Format: format, Name: orDefault(p.Filename, directInputSource)}, nil
	case len(p.Data) > 0:
		return extractor.Source{Data: p.Data, Format: p.Format, Name: p.Filename}, nil
	}
	return extractor.Source{Path: p.FilePath, Format: p.Format, Name: p.Filename}, nil
}

func (s *ingestService) DeleteDocument(ctx context.Context, documentID string) error {
	if strings.TrimSpace(documentID) == "" {
		return domain.NewInvalidInputError("document_id is required")
	}
	found, err := s.index.DeleteByDocument(ctx, documentID)
	if err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) {
			return err
		}
		return domain.NewUpstreamError("failed to delete document", err)
	}
	if !found {
		return domain.NewNotFoundError("document not found").WithContext("document_id", documentID)
	}
	logger.Get().Info("Document deleted", zap.String("document_id", documentID))
	return nil
}

func (s *ingestService) Stats(ctx context.Context) (domain.IndexStats, error) {
	stats, err := s.index.Stats(ctx)
	if err != nil {
		return domain.IndexStats{}, domain.NewUpstreamError("failed to read index stats", err)
	}
	return stats, nil
}
