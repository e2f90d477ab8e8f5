package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"neurabuddy/internal/domain"
	"neurabuddy/internal/extractor"
	"neurabuddy/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockIngestService struct {
	mock.Mock
}

func (m *mockIngestService) Ingest(ctx context.Context, p service.IngestParams) (*service.IngestResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestResult), args.Error(1)
}

func (m *mockIngestService) DeleteDocument(ctx context.Context, documentID string) error {
	return m.Called(ctx, documentID).Error(0)
}

func (m *mockIngestService) Stats(ctx context.Context) (domain.IndexStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.IndexStats), args.Error(1)
}

func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range []string{"b.txt", "a.md", "notes.docx", "deep/c.html", "deep/deeper/d.pdf"} {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
	return root
}

func TestCollectFiles(t *testing.T) {
	root := writeTree(t)

	files, skipped, err := collectFiles(root, false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.md"), filepath.Join(root, "b.txt")}, files)
	assert.Equal(t, []string{filepath.Join(root, "notes.docx")}, skipped)

	files, _, err = collectFiles(root, true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.md"),
		filepath.Join(root, "b.txt"),
		filepath.Join(root, "deep", "c.html"),
		filepath.Join(root, "deep", "deeper", "d.pdf"),
	}, files)
}

func TestCollectFiles_SingleFile(t *testing.T) {
	root := writeTree(t)

	files, skipped, err := collectFiles(filepath.Join(root, "b.txt"), false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "b.txt")}, files)
	assert.Empty(t, skipped)

	_, _, err = collectFiles(filepath.Join(root, "notes.docx"), false)
	assert.ErrorIs(t, err, extractor.ErrUnsupportedFormat)

	_, _, err = collectFiles(filepath.Join(root, "missing"), false)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIngestAll(t *testing.T) {
	svc := new(mockIngestService)
	svc.On("Ingest", mock.Anything, mock.MatchedBy(func(p service.IngestParams) bool {
		return p.FilePath == "docs/pons.txt" && p.Source == "pons.txt" && p.Metadata["file_path"] == "docs/pons.txt"
	})).Return(&service.IngestResult{DocumentID: "d1", ChunksCreated: 3}, nil)
	svc.On("Ingest", mock.Anything, mock.MatchedBy(func(p service.IngestParams) bool {
		return p.FilePath == "docs/broken.pdf"
	})).Return(nil, domain.NewInvalidInputError("no indexable text"))
	svc.On("Ingest", mock.Anything, mock.MatchedBy(func(p service.IngestParams) bool {
		return p.FilePath == "docs/medulla.md"
	})).Return(&service.IngestResult{DocumentID: "d2", ChunksCreated: 2}, nil)

	s := ingestAll(context.Background(), svc, []string{"docs/pons.txt", "docs/broken.pdf", "docs/medulla.md"}, "")
	assert.Equal(t, 2, s.Documents)
	assert.Equal(t, 5, s.Chunks)
	assert.Equal(t, []string{"docs/broken.pdf"}, s.Failed)
	svc.AssertExpectations(t)
}

func TestIngestAll_SourceOverrideAndCancel(t *testing.T) {
	svc := new(mockIngestService)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := ingestAll(ctx, svc, []string{"a.txt", "b.txt"}, "textbook")
	assert.Equal(t, []string{"a.txt", "b.txt"}, s.Failed)
	assert.Zero(t, s.Documents)
	svc.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)

	svc = new(mockIngestService)
	svc.On("Ingest", mock.Anything, mock.MatchedBy(func(p service.IngestParams) bool {
		return p.Source == "textbook"
	})).Return(&service.IngestResult{ChunksCreated: 1}, nil).Once()
	s = ingestAll(context.Background(), svc, []string{"a.txt"}, "textbook")
	assert.Equal(t, 1, s.Documents)
	svc.AssertExpectations(t)
}
