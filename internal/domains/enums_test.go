package domains

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTemplateType(t *testing.T) {
	tests := []struct {
		in     string
		want   TemplateType
		wantOK bool
	}{
		{"quiz", TemplateTypeQuiz, true},
		{"QUIZ", TemplateTypeQuiz, true},
		{" Quiz ", TemplateTypeQuiz, true},
		{"assessment", TemplateTypeAssessment, true},
		{"zzz", TemplateTypeForm, false},
		{"", TemplateTypeForm, false},
	}
	for _, tt := range tests {
		got, ok := ParseTemplateType(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
	}
}

func TestParseQuestionType(t *testing.T) {
	tests := []struct {
		in     string
		want   QuestionType
		wantOK bool
	}{
		{"single_choice", QuestionTypeSingleChoice, true},
		{"Single Choice", QuestionTypeSingleChoice, true},
		{"MULTIPLE-CHOICE", QuestionTypeMultipleChoice, true},
		{"longtext", QuestionTypeLongText, true},
		{"date", QuestionTypeDate, true},
		{"slider", QuestionTypeText, false},
	}
	for _, tt := range tests {
		got, ok := ParseQuestionType(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
	}
}

func TestParseTemplateStatus(t *testing.T) {
	got, ok := ParseTemplateStatus("published")
	assert.True(t, ok)
	assert.Equal(t, StatusPublished, got)

	got, ok = ParseTemplateStatus("retired")
	assert.False(t, ok)
	assert.Equal(t, StatusDraft, got)
}

func TestTemplateLookups(t *testing.T) {
	tmpl := Template{Sections: []Section{
		{Order: 1, Questions: []Question{{Name: "a"}}},
		{Order: 2, Questions: []Question{{Name: "b", Options: []Option{{Name: "b-yes"}}}}},
	}}

	q, ok := tmpl.Question("b")
	assert.True(t, ok)
	_, ok = q.Option("b-yes")
	assert.True(t, ok)

	s, ok := tmpl.SectionByOrder(2)
	assert.True(t, ok)
	_, ok = s.Question("a")
	assert.False(t, ok)

	_, ok = tmpl.SectionByOrder(3)
	assert.False(t, ok)

	edit := QuestionEdit{Options: []OptionEdit{{Name: " b-yes "}, {Label: "unnamed"}}}
	_, ok = edit.Option("b-yes")
	assert.True(t, ok)
	_, ok = edit.Option("")
	assert.False(t, ok)
}
