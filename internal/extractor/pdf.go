package extractor

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF joins the plain text of every non-empty page.
func extractPDF(ctx context.Context, data []byte, meta map[string]string) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	total := r.NumPage()
	meta["total_pages"] = strconv.Itoa(total)

	var parts, pages []string
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, text)
		pages = append(pages, strconv.Itoa(i))
	}
	meta["pages"] = strings.Join(pages, ",")
	return strings.Join(parts, "\n\n"), nil
}
