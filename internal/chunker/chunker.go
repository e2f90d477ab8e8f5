// Package chunker splits documents into token-bounded chunks and derives
// rule-based neuroanatomy metadata for each one.
package chunker

import (
	"fmt"
	"strings"

	"neurabuddy/internal/config"
	"neurabuddy/internal/domain"
	"neurabuddy/internal/logger"

	"github.com/tmc/langchaingo/textsplitter"
	"go.uber.org/zap"
)

var separators = []string{"\n\n\n", "\n\n", "\n", ". ", " ", ""}

type section struct {
	heading string
	content string
}

// Chunker is safe for concurrent use.
type Chunker struct {
	splitter textsplitter.RecursiveCharacter
}

// New builds a chunker bounded to cfg.Size tokens with cfg.Overlap tokens of
// overlap, measured with count.
func New(cfg config.ChunkingConfig, count TokenCounter) *Chunker {
	if count == nil {
		count = WordCounter
	}
	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.Size),
			textsplitter.WithChunkOverlap(cfg.Overlap),
			textsplitter.WithSeparators(separators),
			textsplitter.WithLenFunc(count),
		),
	}
}

// Segment splits content into chunks. Each chunk carries the heading of the
// section it came from and the metadata derived from its own text.
func (c *Chunker) Segment(content string, sourceMeta map[string]string, source string) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, sec := range splitSections(content) {
		pieces, err := c.splitter.SplitText(sec.content)
		if err != nil {
			return nil, fmt.Errorf("split section %q: %w", sec.heading, err)
		}
		for _, piece := range pieces {
			if strings.TrimSpace(piece) == "" {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				Content:  piece,
				Metadata: extractMetadata(piece, sec.heading, sourceMeta, source),
			})
		}
	}

	logger.Get().Info("Chunked document",
		zap.String("source", source),
		zap.Int("chunks", len(chunks)),
	)
	return chunks, nil
}

func splitSections(content string) []section {
	var sections []section
	current := section{}
	var b strings.Builder

	flush := func() {
		current.content = b.String()
		if strings.TrimSpace(current.content) != "" {
			sections = append(sections, current)
		}
		b.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); isHeading(trimmed) {
			flush()
			current = section{heading: trimmed}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	flush()

	if len(sections) == 0 && strings.TrimSpace(content) != "" {
		sections = append(sections, section{content: content})
	}
	return sections
}
