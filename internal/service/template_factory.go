package service

import (
	"strings"
	"time"

	"questionnaire/internal/domains"
)

// Factory builds brand-new entities from edit payloads. It never touches
// storage.
type Factory struct {
	now func() time.Time
}

func NewFactory(now func() time.Time) *Factory {
	if now == nil {
		now = time.Now
	}
	return &Factory{now: now}
}

func (f *Factory) NewTemplate(edit domains.TemplateEdit, version int) domains.Template {
	templateType, _ := domains.ParseTemplateType(edit.TemplateType)
	now := f.now().UTC()
	return domains.Template{
		Name:             strings.TrimSpace(edit.Name),
		Version:          version,
		Title:            strings.TrimSpace(edit.Title),
		Description:      strings.TrimSpace(edit.Description),
		TemplateType:     templateType,
		Status:           domains.StatusDraft,
		TimeLimitSeconds: edit.TimeLimitSeconds,
		CreatedAt:        now,
		UpdatedAt:        now,
		Sections:         []domains.Section{},
	}
}

func (f *Factory) NewTemplateFromExisting(existing domains.Template, version int) domains.Template {
	now := f.now().UTC()
	return domains.Template{
		Name:             existing.Name,
		Version:          version,
		Title:            existing.Title,
		Description:      existing.Description,
		TemplateType:     existing.TemplateType,
		Status:           domains.StatusDraft,
		TimeLimitSeconds: existing.TimeLimitSeconds,
		CreatedAt:        now,
		UpdatedAt:        now,
		Sections:         []domains.Section{},
	}
}

func (f *Factory) NewQuestion(edit domains.QuestionEdit, sectionID string) domains.Question {
	questionType, _ := domains.ParseQuestionType(edit.QuestionType)
	return domains.Question{
		Name:         strings.TrimSpace(edit.Name),
		Version:      1,
		SectionID:    sectionID,
		Order:        edit.Order,
		QuestionType: questionType,
		QuestionText: strings.TrimSpace(edit.PromptText),
		IsRequired:   edit.IsRequired,
		TraitKey:     strings.TrimSpace(edit.TraitKey),
		Ws:           edit.Ws,
		MediaURL:     edit.MediaURL,
		Options:      []domains.Option{},
	}
}

// NewOption expects name to be unique already; see OptionNames.
func (f *Factory) NewOption(edit domains.OptionEdit, name string, question domains.Question) domains.Option {
	return domains.Option{
		Name:            name,
		Version:         1,
		QuestionName:    question.Name,
		QuestionVersion: question.Version,
		Order:           edit.Order,
		Label:           strings.TrimSpace(edit.Label),
		MediaURL:        edit.MediaURL,
		IsCorrect:       edit.IsCorrect,
		Score:           edit.Score,
		Weight:          edit.Weight,
		Wa:              edit.Wa,
	}
}

// applyQuestionEdit overlays edit on a version-forwarded question. A question
// type that does not parse leaves the stored type in place.
func applyQuestionEdit(q *domains.Question, edit domains.QuestionEdit) {
	if questionType, ok := domains.ParseQuestionType(edit.QuestionType); ok {
		q.QuestionType = questionType
	}
	q.Order = edit.Order
	q.QuestionText = strings.TrimSpace(edit.PromptText)
	q.IsRequired = edit.IsRequired
	q.TraitKey = strings.TrimSpace(edit.TraitKey)
	q.Ws = edit.Ws
	q.MediaURL = edit.MediaURL
}

func applyOptionEdit(o *domains.Option, edit domains.OptionEdit) {
	o.Order = edit.Order
	o.Label = strings.TrimSpace(edit.Label)
	o.MediaURL = edit.MediaURL
	o.IsCorrect = edit.IsCorrect
	o.Score = edit.Score
	o.Weight = edit.Weight
	o.Wa = edit.Wa
}
