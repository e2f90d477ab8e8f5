package service

import (
	"strings"

	"neurabuddy/internal/domain"
	"neurabuddy/internal/util"
)

const (
	defaultTopic            = "neuroanatomy"
	generalKnowledgeContext = "No course material is available for this request. Use well-established neuroanatomy knowledge and stay conservative about details you are unsure of."
)

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return strings.TrimSpace(s)
}

// joinContents concatenates chunk contents, each cut to perChunk runes when
// perChunk is positive.
func joinContents(chunks []domain.ScoredChunk, perChunk int) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		content := c.Content
		if perChunk > 0 {
			content = util.Truncate(content, perChunk)
		}
		parts = append(parts, content)
	}
	return strings.Join(parts, "\n\n")
}

func transcript(turns []domain.ConversationTurn, last int) string {
	if last > 0 && len(turns) > last {
		turns = turns[len(turns)-last:]
	}
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, t.Role+": "+t.Message)
	}
	return strings.Join(lines, "\n")
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
