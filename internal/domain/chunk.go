package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Difficulty is the ordinal learner level: undergrad < med < advanced.
type Difficulty string

const (
	DifficultyUndergrad Difficulty = "undergrad"
	DifficultyMed       Difficulty = "med"
	DifficultyAdvanced  Difficulty = "advanced"
)

// Rank orders difficulties; unknown values rank below undergrad.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyUndergrad:
		return 1
	case DifficultyMed:
		return 2
	case DifficultyAdvanced:
		return 3
	}
	return 0
}

// ParseDifficulty accepts the canonical names and the introductory /
// intermediate aliases. An empty string yields undergrad.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "undergrad", "introductory":
		return DifficultyUndergrad, nil
	case "med", "intermediate":
		return DifficultyMed, nil
	case "advanced":
		return DifficultyAdvanced, nil
	}
	return "", NewInvalidInputError(fmt.Sprintf("invalid difficulty level: %q", s))
}

// System is the neuroanatomical system a chunk belongs to.
type System string

const (
	SystemLimbic        System = "limbic"
	SystemBrainstem     System = "brainstem"
	SystemCortical      System = "cortical"
	SystemCerebellar    System = "cerebellar"
	SystemSpinal        System = "spinal"
	SystemVascular      System = "vascular"
	SystemCranialNerve  System = "cranial_nerve"
	SystemDevelopmental System = "developmental"
	SystemOther         System = "other"
)

var allSystems = []System{
	SystemLimbic, SystemBrainstem, SystemCortical, SystemCerebellar, SystemSpinal,
	SystemVascular, SystemCranialNerve, SystemDevelopmental, SystemOther,
}

// ParseSystem validates an optional system name. Empty input returns "".
func ParseSystem(s string) (System, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	for _, sys := range allSystems {
		if string(sys) == s {
			return sys, nil
		}
	}
	return "", NewInvalidInputError(fmt.Sprintf("invalid system: %q", s))
}

// Metadata keys shared by the chunker, the vector index and filters.
const (
	MetaStructureName     = "structure_name"
	MetaSystem            = "system"
	MetaFunction          = "function"
	MetaClinicalRelevance = "clinical_relevance"
	MetaDifficultyLevel   = "difficulty_level"
	MetaSource            = "source"
	MetaPageReference     = "page_reference"
	MetaSectionHeading    = "section_heading"
	MetaSectionTitle      = "section_title"
	MetaPreview           = "chunk_text_preview"
	MetaChunkID           = "chunk_id"
	MetaDocumentID        = "document_id"
)

// DefaultStructureName labels chunks whose structure could not be identified.
const DefaultStructureName = "General Neuroanatomy"

// ChunkMetadata is the rule-derived description of a chunk.
type ChunkMetadata struct {
	StructureName     string            `json:"structure_name"`
	System            System            `json:"system"`
	Function          string            `json:"function"`
	ClinicalRelevance bool              `json:"clinical_relevance"`
	DifficultyLevel   Difficulty        `json:"difficulty_level"`
	Source            string            `json:"source"`
	PageReference     string            `json:"page_reference,omitempty"`
	SectionHeading    string            `json:"section_heading,omitempty"`
	SectionTitle      string            `json:"section_title,omitempty"`
	Preview           string            `json:"chunk_text_preview"`
	ChunkID           string            `json:"chunk_id,omitempty"`
	DocumentID        string            `json:"document_id,omitempty"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// Fields flattens the metadata into the string map used for storage and
// filtering. Booleans are encoded as "true"/"false".
func (m ChunkMetadata) Fields() map[string]string {
	f := make(map[string]string, len(m.Extra)+12)
	for k, v := range m.Extra {
		f[k] = v
	}
	f[MetaStructureName] = m.StructureName
	f[MetaSystem] = string(m.System)
	f[MetaFunction] = m.Function
	f[MetaClinicalRelevance] = strconv.FormatBool(m.ClinicalRelevance)
	f[MetaDifficultyLevel] = string(m.DifficultyLevel)
	f[MetaSource] = m.Source
	f[MetaPreview] = m.Preview
	optional := map[string]string{
		MetaPageReference:  m.PageReference,
		MetaSectionHeading: m.SectionHeading,
		MetaSectionTitle:   m.SectionTitle,
		MetaChunkID:        m.ChunkID,
		MetaDocumentID:     m.DocumentID,
	}
	for k, v := range optional {
		if v != "" {
			f[k] = v
		}
	}
	return f
}

// MetadataFromFields is the inverse of Fields.
func MetadataFromFields(f map[string]string) ChunkMetadata {
	m := ChunkMetadata{
		StructureName:     f[MetaStructureName],
		System:            System(f[MetaSystem]),
		Function:          f[MetaFunction],
		ClinicalRelevance: f[MetaClinicalRelevance] == "true",
		DifficultyLevel:   Difficulty(f[MetaDifficultyLevel]),
		Source:            f[MetaSource],
		PageReference:     f[MetaPageReference],
		SectionHeading:    f[MetaSectionHeading],
		SectionTitle:      f[MetaSectionTitle],
		Preview:           f[MetaPreview],
		ChunkID:           f[MetaChunkID],
		DocumentID:        f[MetaDocumentID],
	}
	for k, v := range f {
		if !isKnownMetaKey(k) {
			if m.Extra == nil {
				m.Extra = make(map[string]string)
			}
			m.Extra[k] = v
		}
	}
	return m
}

func isKnownMetaKey(k string) bool {
	switch k {
	case MetaStructureName, MetaSystem, MetaFunction, MetaClinicalRelevance, MetaDifficultyLevel,
		MetaSource, MetaPageReference, MetaSectionHeading, MetaSectionTitle, MetaPreview,
		MetaChunkID, MetaDocumentID:
		return true
	}
	return false
}

// Chunk is a bounded piece of document text with its metadata. Content is
// never empty.
type Chunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ScoredChunk is a search hit. Score is in [0, 1], higher is more similar.
type ScoredChunk struct {
	ID       string        `json:"chunk_id"`
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
	Score    float64       `json:"score"`
}

// Filter is a conjunction of exact metadata equalities.
type Filter map[string]string

// NewFilter builds a filter from the optional learner constraints. Zero
// values are omitted.
func NewFilter(difficulty Difficulty, system System, clinicalOnly bool) Filter {
	f := Filter{}
	if difficulty != "" {
		f[MetaDifficultyLevel] = string(difficulty)
	}
	if system != "" {
		f[MetaSystem] = string(system)
	}
	if clinicalOnly {
		f[MetaClinicalRelevance] = "true"
	}
	return f
}

// Matches reports whether every filter key equals the corresponding field.
func (f Filter) Matches(fields map[string]string) bool {
	for k, v := range f {
		if got, ok := fields[k]; !ok || got != v {
			return false
		}
	}
	return true
}

// IndexStats summarises the vector index. Generation changes on every
// insert or delete.
type IndexStats struct {
	TotalChunks    int    `json:"total_chunks"`
	CollectionName string `json:"collection_name"`
	Generation     int64  `json:"generation"`
}
