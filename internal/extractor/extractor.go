// Package extractor turns uploaded or on-disk documents into plain text for
// the chunker.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"neurabuddy/internal/logger"

	"go.uber.org/zap"
)

// Format is a supported document type.
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatPPTX Format = "pptx"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrNoSource          = errors.New("no document data or path given")
)

// ParseFormat accepts a format name; empty input yields "".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return "", nil
	case "txt", "md", "markdown":
		return FormatText, nil
	case "htm":
		return FormatHTML, nil
	case FormatText, FormatHTML, FormatPDF, FormatPPTX:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatFromName infers the format from a file extension.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".pptx":
		return FormatPPTX, nil
	case ".txt", ".md", ".text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
}

// Source is a document to extract. Data wins over Path when both are set.
// An empty Format is inferred from Name or Path.
type Source struct {
	Data   []byte
	Path   string
	Format Format
	Name   string
}

// Document is extracted, cleaned text with descriptive metadata.
type Document struct {
	Content  string
	Metadata map[string]string
}

func (s Source) label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Path
}

// Extract reads and converts src.
func Extract(ctx context.Context, src Source) (Document, error) {
	format := src.Format
	if format == "" {
		f, err := FormatFromName(src.label())
		if err != nil {
			return Document{}, err
		}
		format = f
	}

	data := src.Data
	if data == nil {
		if src.Path == "" {
			return Document{}, ErrNoSource
		}
		b, err := os.ReadFile(src.Path)
		if err != nil {
			return Document{}, fmt.Errorf("read %s: %w", src.Path, err)
		}
		data = b
	}

	meta := map[string]string{"type": string(format)}
	if l := src.label(); l != "" {
		meta["source"] = l
	}

	var (
		text string
		err  error
	)
	switch format {
	case FormatText:
		text = string(data)
	case FormatHTML:
		text, err = extractHTML(data, meta)
	case FormatPDF:
		text, err = extractPDF(ctx, data, meta)
	case FormatPPTX:
		text, err = extractPPTX(ctx, data, meta)
	default:
		return Document{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return Document{}, fmt.Errorf("extract %s: %w", format, err)
	}

	content := Clean(text)
	logger.Get().Info("Extracted document",
		zap.String("source", src.label()),
		zap.String("format", string(format)),
		zap.Int("chars", len(content)),
	)
	return Document{Content: content, Metadata: meta}, nil
}

// Clean drops blank and very short lines, bracketed reference lines and
// lines that are mostly punctuation or digits.
func Clean(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		n := len([]rune(line))
		if n < 3 {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			continue
		}
		alnum := 0
		for _, r := range line {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				alnum++
			}
		}
		if float64(alnum) < float64(n)*0.3 {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
