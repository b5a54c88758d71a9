package domains

import "strings"

type TemplateType string

const (
	TemplateTypeForm       TemplateType = "Form"
	TemplateTypeQuiz       TemplateType = "Quiz"
	TemplateTypeSurvey     TemplateType = "Survey"
	TemplateTypeAssessment TemplateType = "Assessment"
)

var templateTypes = []TemplateType{
	TemplateTypeForm,
	TemplateTypeQuiz,
	TemplateTypeSurvey,
	TemplateTypeAssessment,
}

type QuestionType string

const (
	QuestionTypeText           QuestionType = "Text"
	QuestionTypeLongText       QuestionType = "LongText"
	QuestionTypeSingleChoice   QuestionType = "SingleChoice"
	QuestionTypeMultipleChoice QuestionType = "MultipleChoice"
	QuestionTypeRating         QuestionType = "Rating"
	QuestionTypeBoolean        QuestionType = "Boolean"
	QuestionTypeNumber         QuestionType = "Number"
	QuestionTypeDate           QuestionType = "Date"
)

var questionTypes = []QuestionType{
	QuestionTypeText,
	QuestionTypeLongText,
	QuestionTypeSingleChoice,
	QuestionTypeMultipleChoice,
	QuestionTypeRating,
	QuestionTypeBoolean,
	QuestionTypeNumber,
	QuestionTypeDate,
}

type TemplateStatus string

const (
	StatusDraft     TemplateStatus = "Draft"
	StatusPublished TemplateStatus = "Published"
	StatusArchived  TemplateStatus = "Archived"
)

var templateStatuses = []TemplateStatus{StatusDraft, StatusPublished, StatusArchived}

// ParseTemplateType resolves free text to a TemplateType. Unknown input
// yields TemplateTypeForm and ok=false.
func ParseTemplateType(s string) (TemplateType, bool) {
	return parseEnum(s, templateTypes, TemplateTypeForm)
}

// ParseQuestionType resolves free text to a QuestionType. Unknown input
// yields QuestionTypeText and ok=false.
func ParseQuestionType(s string) (QuestionType, bool) {
	return parseEnum(s, questionTypes, QuestionTypeText)
}

// ParseTemplateStatus resolves free text to a TemplateStatus. Unknown input
// yields StatusDraft and ok=false.
func ParseTemplateStatus(s string) (TemplateStatus, bool) {
	return parseEnum(s, templateStatuses, StatusDraft)
}

func parseEnum[T ~string](s string, values []T, def T) (T, bool) {
	key := enumKey(s)
	if key == "" {
		return def, false
	}
	for _, v := range values {
		if enumKey(string(v)) == key {
			return v, true
		}
	}
	return def, false
}

// enumKey folds case and drops separators so "single_choice", "Single Choice"
// and "SINGLECHOICE" compare equal.
func enumKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case '_', '-', ' ':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
