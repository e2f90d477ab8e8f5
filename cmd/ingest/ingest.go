package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"neurabuddy/internal/extractor"
	"neurabuddy/internal/logger"
	"neurabuddy/internal/service"

	"go.uber.org/zap"
)

type summary struct {
	Documents int
	Chunks    int
	Failed    []string
}

// collectFiles returns the supported documents under root in lexical order,
// plus the files it passed over. A file root is returned as-is when its
// extension is supported.
func collectFiles(root string, recursive bool) (files, skipped []string, err error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, err
	}
	if !info.IsDir() {
		if _, err := extractor.FormatFromName(root); err != nil {
			return nil, nil, err
		}
		return []string{root}, nil, nil
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ferr := extractor.FormatFromName(path); ferr != nil {
			skipped = append(skipped, path)
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(files)
	return files, skipped, nil
}

// ingestAll feeds each file to the ingest service, continuing past
// per-file failures. It stops early when ctx is cancelled.
func ingestAll(ctx context.Context, svc service.IngestService, files []string, source string) summary {
	log := logger.Get()
	var s summary
	for i, path := range files {
		if ctx.Err() != nil {
			s.Failed = append(s.Failed, files[i:]...)
			log.Warn("Ingestion interrupted", zap.Int("remaining", len(files)-i))
			break
		}
		label := source
		if label == "" {
			label = filepath.Base(path)
		}
		res, err := svc.Ingest(ctx, service.IngestParams{
			FilePath: path,
			Source:   label,
			Metadata: map[string]string{"file_path": path},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Warn("Ingestion cancelled", zap.String("file", path))
			} else {
				log.Error("Failed to ingest document", zap.String("file", path), zap.Error(err))
			}
			s.Failed = append(s.Failed, path)
			continue
		}
		s.Documents++
		s.Chunks += res.ChunksCreated
		log.Info("Document ingested",
			zap.String("file", path),
			zap.String("document_id", res.DocumentID),
			zap.Int("chunks", res.ChunksCreated),
		)
	}
	return s
}
