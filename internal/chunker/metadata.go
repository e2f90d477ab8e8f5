package chunker

import (
	"regexp"
	"strings"
	"unicode"

	"neurabuddy/internal/domain"
	"neurabuddy/internal/util"
)

const previewLength = 200

var headingPattern = regexp.MustCompile(`^(?:\d+\.?\s+)?([A-Z][A-Z\s]{3,}|[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s*$`)

// structurePatterns are tried in order, against the heading first and then
// the body. Keyword parts are case-insensitive; proper-name parts are not.
var structurePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?i:CN[ \t]*|cranial[ \t]+nerve[ \t]+)(?:XII|XI|X|IX|VIII|VII|VI|V|IV|III|II|I|1[0-2]|[1-9])\b`),
	regexp.MustCompile(`\b(?i:nucleus|nuclei)[ \t]+[A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)?`),
	regexp.MustCompile(`\b(?i:tract|pathway|fasciculus)[ \t]+[A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)?`),
	regexp.MustCompile(`\b(?i:cortex|cortical|gyrus|sulcus)[ \t]+[A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)?`),
	regexp.MustCompile(`\b(?i:ganglion|ganglia)[ \t]+[A-Z][a-z]+`),
	regexp.MustCompile(`(?i)\bthalamus\b`),
	regexp.MustCompile(`(?i)\bhypothalamus\b`),
	regexp.MustCompile(`(?i)\b(?:brainstem|medulla|pons|midbrain)\b`),
	regexp.MustCompile(`(?i)\bcerebellum\b`),
	regexp.MustCompile(`(?i)\bhippocamp(?:us|i|al formation)\b`),
	regexp.MustCompile(`(?i)\bamygdala\b`),
}

var systemKeywords = []struct {
	system   domain.System
	keywords []string
}{
	{domain.SystemLimbic, []string{"limbic", "hippocampus", "amygdala", "cingulate"}},
	{domain.SystemBrainstem, []string{"brainstem", "medulla", "pons", "midbrain"}},
	{domain.SystemCortical, []string{"cortex", "cortical", "gyrus", "sulcus", "frontal", "parietal", "temporal", "occipital"}},
	{domain.SystemCerebellar, []string{"cerebellum", "cerebellar"}},
	{domain.SystemSpinal, []string{"spinal", "cord"}},
	{domain.SystemVascular, []string{"vascular", "artery", "vein", "territory", "stroke"}},
	{domain.SystemCranialNerve, []string{"cranial nerve"}},
	{domain.SystemDevelopmental, []string{"developmental", "embryonic", "fetal"}},
}

var functionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:is\s+)?responsible\s+for\s+([^.]+)`),
	regexp.MustCompile(`(?i)(?:functions?\s+to|functions?\s+as)\s+([^.]+)`),
	regexp.MustCompile(`(?i)(?:involved\s+in|plays\s+a\s+role\s+in)\s+([^.]+)`),
}

var clinicalPattern = regexp.MustCompile(`(?i)\b(?:stroke|syndrome|lesion|deficit|clinical|pathology|symptom)\b`)

var technicalTerms = []string{
	"neurotransmitter", "synapse", "receptor", "pathway", "tract",
	"nucleus", "ganglion", "fasciculus", "commissure", "decussation",
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// isHeading reports whether a trimmed line starts a new section.
func isHeading(line string) bool {
	return line != "" && headingPattern.MatchString(line)
}

func extractMetadata(text, heading string, sourceMeta map[string]string, source string) domain.ChunkMetadata {
	structure := structureName(text, heading)
	m := domain.ChunkMetadata{
		StructureName:     structure,
		System:            classifySystem(text, structure),
		Function:          extractFunction(text),
		ClinicalRelevance: clinicalPattern.MatchString(text),
		DifficultyLevel:   estimateDifficulty(text),
		Source:            source,
		Preview:           util.Preview(text, previewLength),
		PageReference:     sourceMeta["pages"],
		SectionTitle:      sourceMeta["title"],
		SectionHeading:    heading,
	}
	for k, v := range sourceMeta {
		if k == "pages" || k == "title" {
			continue
		}
		if m.Extra == nil {
			m.Extra = make(map[string]string)
		}
		m.Extra[k] = v
	}
	return m
}

func structureName(text, heading string) string {
	if heading != "" {
		for _, p := range structurePatterns {
			if match := p.FindString(heading); match != "" {
				return capitalize(match)
			}
		}
	}
	for _, p := range structurePatterns {
		if match := p.FindString(text); match != "" {
			return capitalize(match)
		}
	}

	words := strings.Fields(text)
	for i, w := range words {
		r := []rune(w)
		if len(r) > 3 && unicode.IsUpper(r[0]) {
			end := i + 2
			if end > len(words) {
				end = len(words)
			}
			return strings.Join(words[i:end], " ")
		}
	}
	return domain.DefaultStructureName
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func classifySystem(text, structure string) domain.System {
	lower := strings.ToLower(text)
	for _, s := range systemKeywords {
		for _, kw := range s.keywords {
			if strings.Contains(lower, kw) {
				return s.system
			}
		}
		if s.system == domain.SystemCranialNerve && strings.Contains(structure, "CN") {
			return s.system
		}
	}
	return domain.SystemOther
}

func extractFunction(text string) string {
	for _, p := range functionPatterns {
		if m := p.FindStringSubmatch(text); len(m) > 1 {
			if f := strings.TrimSpace(m[1]); f != "" {
				return f
			}
		}
	}
	return "Not specified"
}

func estimateDifficulty(text string) domain.Difficulty {
	lower := strings.ToLower(text)
	technical := 0
	for _, term := range technicalTerms {
		if strings.Contains(lower, term) {
			technical++
		}
	}

	sentences := sentenceSplit.Split(text, -1)
	words := 0
	for _, s := range sentences {
		words += len(strings.Fields(s))
	}
	avg := float64(words) / float64(max(len(sentences), 1))

	switch {
	case technical > 5 || avg > 25:
		return domain.DifficultyAdvanced
	case technical > 2 || avg > 18:
		return domain.DifficultyMed
	default:
		return domain.DifficultyUndergrad
	}
}
