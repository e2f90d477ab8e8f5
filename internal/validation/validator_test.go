package validation

import (
	"strings"
	"testing"

	"neurabuddy/internal/domain"
	"neurabuddy/internal/dto"

	"github.com/stretchr/testify/assert"
)

const validULID = "01ARZ3NDEKTSV4RRFFQ69G5FAV"

func fields(errs domain.ValidationErrors) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidateIngestRequest(t *testing.T) {
	v := NewValidator()
	tests := []struct {
		name string
		req  dto.IngestRequest
		want []string
	}{
		{"content", dto.IngestRequest{Content: "The pons.", Source: "notes"}, []string{}},
		{"file path", dto.IngestRequest{FilePath: "/data/a.pdf", FileType: "pdf", Source: "book"}, []string{}},
		{"neither", dto.IngestRequest{Source: "book"}, []string{"content"}},
		{"both", dto.IngestRequest{Content: "x", FilePath: "/a", Source: "book"}, []string{"content"}},
		{"missing source", dto.IngestRequest{Content: "x"}, []string{"source"}},
		{"bad type", dto.IngestRequest{Content: "x", Source: "s", FileType: "docx"}, []string{"file_type"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fields(v.ValidateIngestRequest(tt.req)))
		})
	}
}

func TestValidateQueryRequest(t *testing.T) {
	v := NewValidator()
	assert.Empty(t, v.ValidateQueryRequest(dto.QueryRequest{Query: "What is the pons?", DifficultyLevel: "intermediate", SystemFilter: "brainstem"}))
	assert.Equal(t, []string{"query"}, fields(v.ValidateQueryRequest(dto.QueryRequest{Query: "  "})))
	assert.Equal(t, []string{"query"}, fields(v.ValidateQueryRequest(dto.QueryRequest{Query: strings.Repeat("a", maxQueryLength+1)})))
	assert.Equal(t, []string{"difficulty_level", "system_filter"},
		fields(v.ValidateQueryRequest(dto.QueryRequest{Query: "q", DifficultyLevel: "expert", SystemFilter: "digestive"})))
	assert.Equal(t, []string{"user_id"}, fields(v.ValidateQueryRequest(dto.QueryRequest{Query: "q", UserID: "has space"})))
}

func TestValidateQuizRequests(t *testing.T) {
	v := NewValidator()
	assert.Empty(t, v.ValidateQuizStartRequest(dto.QuizStartRequest{UserID: "u1"}, 20))
	assert.Equal(t, []string{"user_id", "num_questions"},
		fields(v.ValidateQuizStartRequest(dto.QuizStartRequest{NumQuestions: 21}, 20)))

	ok := dto.QuizAnswerRequest{QuizID: validULID, QuestionID: validULID, Answer: "CN VI", UserID: "u1"}
	assert.Empty(t, v.ValidateQuizAnswerRequest(ok))
	assert.Equal(t, []string{"quiz_id", "question_id", "answer", "user_id"},
		fields(v.ValidateQuizAnswerRequest(dto.QuizAnswerRequest{QuizID: "bogus"})))
}

func TestValidateStudyRequests(t *testing.T) {
	v := NewValidator()
	assert.Empty(t, v.ValidateFlashCardRequest(dto.FlashCardRequest{}))
	assert.Equal(t, []string{"num_cards"}, fields(v.ValidateFlashCardRequest(dto.FlashCardRequest{NumCards: 51})))

	assert.Equal(t, []string{"question", "correct_answer"},
		fields(v.ValidateFlashCardAnswerRequest(dto.FlashCardAnswerRequest{UserAnswer: "x"})))

	assert.Empty(t, v.ValidateSessionCompleteRequest(dto.FlashCardSessionCompleteRequest{TotalScore: 2, MaxScore: 3}))
	assert.Equal(t, []string{"total_score"},
		fields(v.ValidateSessionCompleteRequest(dto.FlashCardSessionCompleteRequest{TotalScore: 4, MaxScore: 3})))

	assert.Empty(t, v.ValidateStudyRequest(dto.StudyRequest{}, false))
	assert.Equal(t, []string{"topic"}, fields(v.ValidateStudyRequest(dto.StudyRequest{}, true)))
}

func TestValidateClinicalInteractRequest(t *testing.T) {
	v := NewValidator()
	assert.Empty(t, v.ValidateClinicalInteractRequest(dto.ClinicalInteractRequest{SessionID: validULID, UserMessage: "What are the vitals?"}))
	assert.Empty(t, v.ValidateClinicalInteractRequest(dto.ClinicalInteractRequest{SessionID: validULID, RequestHint: true}))
	assert.Equal(t, []string{"session_id", "user_message"},
		fields(v.ValidateClinicalInteractRequest(dto.ClinicalInteractRequest{SessionID: "x"})))
}

func TestValidateULID(t *testing.T) {
	v := NewValidator()
	assert.Empty(t, v.ValidateULID("id", validULID))
	assert.Equal(t, "is required", v.ValidateULID("id", "")[0].Message)
	assert.Equal(t, "has an invalid format", v.ValidateULID("id", "01ARZ3NDEKTSV4RRFFQ69G5FAU!")[0].Message)
}
