package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"neurabuddy/internal/domain"
	"neurabuddy/internal/dto"
	"neurabuddy/internal/extractor"
)

const (
	maxQueryLength   = 2000
	maxAnswerLength  = 2000
	maxMessageLength = 4000
	maxFlashCards    = 50
	maxSessionCards  = 200
)

var (
	ulidPattern       = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
	identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_.@-]{1,128}$`)
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) ValidateIngestRequest(req dto.IngestRequest) domain.ValidationErrors {
	var errs domain.ValidationErrors
	given := 0
	if strings.TrimSpace(req.Content) != "" {
		given++
	}
	if strings.TrimSpace(req.FilePath) != "" {
		given++
	}
	if given != 1 {
		errs = append(errs, domain.ValidationError{Field: "content", Message: "exactly one of content or file_path is required"})
	}
	if strings.TrimSpace(req.Source) == "" {
		errs = append(errs, domain.NewMissingFieldError("source"))
	}
	if req.FileType != "" {
		if _, err := extractor.ParseFormat(req.FileType); err != nil {
			errs = append(errs, domain.NewInvalidFormatError("file_type", req.FileType))
		}
	}
	return errs
}

func (v *Validator) ValidateQueryRequest(req dto.QueryRequest) domain.ValidationErrors {
	var errs domain.ValidationErrors
	errs = append(errs, requiredText("query", req.Query, maxQueryLength)...)
	if req.UserID != "" {
		errs = append(errs, v.ValidateUserID(req.UserID)...)
	}
	errs = append(errs, levels(req.DifficultyLevel, req.SystemFilter)...)
	return errs
}

func (v *Validator) ValidateTeachRequest(req dto.TeachRequest) domain.ValidationErrors {
	var errs domain.ValidationErrors
	if strings.TrimSpace(req.Topic) == "" {
		errs = append(errs, domain.NewMissingFieldError("topic"))
	}
	errs = append(errs, v.ValidateUserID(req.UserID)...)
	errs = append(errs, levels(req.DifficultyLevel, "")...)
	return errs
}

func (v *Validator) ValidateQuizStartRequest(req dto.QuizStartRequest, maxQuestions int) domain.ValidationErrors {
	var errs domain.ValidationErrors
	errs = append(errs, v.ValidateUserID(req.UserID)...)
	if req.NumQuestions < 0 || req.NumQuestions > maxQuestions {
		errs = append(errs, domain.NewOutOfRangeError("num_questions", req.NumQuestions, 1, maxQuestions))
	}
	errs = append(errs, levels(req.DifficultyLevel, req.SystemFilter)...)
	return errs
}

// ValidateQuizAnswerRequest validates the answer submission
func (v *Validator) ValidateQuizAnswerRequest(req dto.QuizAnswerRequest) domain.ValidationErrors {
	var errs domain.ValidationErrors
	errs = append(errs, v.ValidateULID("quiz_id", req.QuizID)...)
	errs = append(errs, v.ValidateULID("question_id", req.QuestionID)...)
	errs = append(errs, requiredText("answer", req.Answer, maxAnswerLength)...)
	errs = append(errs, v.ValidateUserID(req.UserID)...)
	return errs
}

func (v *Validator) ValidateFlashCardRequest(req dto.FlashCardRequest) domain.ValidationErrors {
	var errs domain.ValidationErrors
	if req.NumCards < 0 || req.NumCards > maxFlashCards {
		errs = append(errs, domain.NewOutOfRangeError("num_cards", req.NumCards, 1, maxFlashCards))
	}
	errs = append(errs, levels(req.DifficultyLevel, req.SystemFilter)...)
	return errs
}

func (v *Validator) ValidateFlashCardAnswerRequest(req dto.FlashCardAnswerRequest) domain.ValidationErrors {
	var errs domain.ValidationErrors
	if strings.TrimSpace(req.Question) == "" {
		errs = append(errs, domain.NewMissingFieldError("question"))
	}
	if strings.TrimSpace(req.CorrectAnswer) == "" {
		errs = append(errs, domain.NewMissingFieldError("correct_answer"))
	}
	if utf8.RuneCountInString(req.UserAnswer) > maxAnswerLength {
		errs = append(errs, domain.NewOutOfRangeError("user_answer", utf8.RuneCountInString(req.UserAnswer), 0, maxAnswerLength))
	}
	return errs
}

func (v *Validator) ValidateSessionCompleteRequest(req dto.FlashCardSessionCompleteRequest) domain.ValidationErrors {
	var errs domain.ValidationErrors
	if len(req.CardResults) > maxSessionCards {
		errs = append(errs, domain.NewOutOfRangeError("card_results", len(req.CardResults), 0, maxSessionCards))
	}
	if req.TotalScore < 0 || req.MaxScore < 0 || req.TotalScore > req.MaxScore {
		errs = append(errs, domain.ValidationError{Field: "total_score", Message: "must be between 0 and max_score", Value: req.TotalScore})
	}
	return errs
}

func (v *Validator) ValidateStudyRequest(req dto.StudyRequest, topicRequired bool) domain.ValidationErrors {
	var errs domain.ValidationErrors
	if topicRequired && strings.TrimSpace(req.Topic) == "" {
		errs = append(errs, domain.NewMissingFieldError("topic"))
	}
	errs = append(errs, levels(req.DifficultyLevel, req.SystemFilter)...)
	return errs
}

func (v *Validator) ValidateClinicalInteractRequest(req dto.ClinicalInteractRequest) domain.ValidationErrors {
	var errs domain.ValidationErrors
	errs = append(errs, v.ValidateULID("session_id", req.SessionID)...)
	if strings.TrimSpace(req.UserMessage) == "" && !req.RequestHint {
		errs = append(errs, domain.NewMissingFieldError("user_message"))
	}
	if utf8.RuneCountInString(req.UserMessage) > maxMessageLength {
		errs = append(errs, domain.NewOutOfRangeError("user_message", utf8.RuneCountInString(req.UserMessage), 1, maxMessageLength))
	}
	return errs
}

// ValidateUserID checks a caller-supplied learner identifier.
func (v *Validator) ValidateUserID(userID string) domain.ValidationErrors {
	if strings.TrimSpace(userID) == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("user_id")}
	}
	if !identifierPattern.MatchString(userID) {
		return domain.ValidationErrors{domain.NewInvalidFormatError("user_id", userID)}
	}
	return nil
}

// ValidateULID checks that an identifier minted by this service is well formed.
func (v *Validator) ValidateULID(field, id string) domain.ValidationErrors {
	if strings.TrimSpace(id) == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError(field)}
	}
	if !ulidPattern.MatchString(id) {
		return domain.ValidationErrors{domain.NewInvalidFormatError(field, id)}
	}
	return nil
}

func requiredText(field, value string, max int) domain.ValidationErrors {
	if strings.TrimSpace(value) == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError(field)}
	}
	if n := utf8.RuneCountInString(value); n > max {
		return domain.ValidationErrors{domain.NewOutOfRangeError(field, n, 1, max)}
	}
	return nil
}

func levels(difficulty, system string) domain.ValidationErrors {
	var errs domain.ValidationErrors
	if _, err := domain.ParseDifficulty(difficulty); err != nil {
		errs = append(errs, domain.NewInvalidFormatError("difficulty_level", difficulty))
	}
	if _, err := domain.ParseSystem(system); err != nil {
		errs = append(errs, domain.NewInvalidFormatError("system_filter", system))
	}
	return errs
}
