package httptransport

import "questionnaire/internal/domains"

type QuestionEditResponse struct {
	Template domains.TemplateView `json:"template"`
	Changed  bool                 `json:"changed"`
}
