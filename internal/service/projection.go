package service

import "questionnaire/internal/domains"

// Project maps a persisted template tree to its external view.
func Project(t domains.Template) domains.TemplateView {
	questions := 0
	for _, s := range t.Sections {
		questions += len(s.Questions)
	}
	sections := t.Sections
	if sections == nil {
		sections = []domains.Section{}
	}

	return domains.TemplateView{
		Name:             t.Name,
		Version:          t.Version,
		Title:            t.Title,
		Description:      t.Description,
		TemplateType:     t.TemplateType,
		Status:           t.Status,
		IsPublished:      t.Status == domains.StatusPublished,
		TimeLimitSeconds: t.TimeLimitSeconds,
		PublishedAt:      t.PublishedAt,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
		SectionsCount:    len(t.Sections),
		QuestionsCount:   questions,
		Sections:         sections,
	}
}
