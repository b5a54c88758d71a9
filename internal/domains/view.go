package domains

import "time"

// TemplateView is the external representation of a persisted template tree.
type TemplateView struct {
	Name             string         `json:"name"`
	Version          int            `json:"version"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	TemplateType     TemplateType   `json:"template_type"`
	Status           TemplateStatus `json:"status"`
	IsPublished      bool           `json:"is_published"`
	TimeLimitSeconds int            `json:"time_limit_seconds"`
	PublishedAt      *time.Time     `json:"published_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	SectionsCount    int            `json:"sections_count"`
	QuestionsCount   int            `json:"questions_count"`
	Sections         []Section      `json:"sections"`
}

// TemplateSummary is a list row without the section tree.
type TemplateSummary struct {
	Name         string         `db:"name" json:"name"`
	Version      int            `db:"version" json:"version"`
	Title        string         `db:"title" json:"title"`
	TemplateType TemplateType   `db:"template_type" json:"template_type"`
	Status       TemplateStatus `db:"status" json:"status"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}
