package domains

import "time"

type Template struct {
	Name             string         `db:"name" json:"name"`
	Version          int            `db:"version" json:"version"`
	Title            string         `db:"title" json:"title"`
	Description      string         `db:"description" json:"description"`
	TemplateType     TemplateType   `db:"template_type" json:"template_type"`
	Status           TemplateStatus `db:"status" json:"status"`
	TimeLimitSeconds int            `db:"time_limit_seconds" json:"time_limit_seconds"`
	PublishedAt      *time.Time     `db:"published_at" json:"published_at,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
	// EditDigest identifies the request that produced this version so a
	// replayed request resolves to the same row.
	EditDigest string    `db:"edit_digest" json:"-"`
	Sections   []Section `db:"-" json:"sections"`
}

type Section struct {
	ID              string     `db:"id" json:"id"`
	TemplateName    string     `db:"template_name" json:"template_name"`
	TemplateVersion int        `db:"template_version" json:"template_version"`
	Order           int        `db:"sort_order" json:"order"`
	Title           string     `db:"title" json:"title"`
	Description     string     `db:"description" json:"description"`
	Questions       []Question `db:"-" json:"questions"`
}

type Question struct {
	Name         string       `db:"name" json:"name"`
	Version      int          `db:"version" json:"version"`
	SectionID    string       `db:"section_id" json:"section_id"`
	Order        int          `db:"sort_order" json:"order"`
	QuestionType QuestionType `db:"question_type" json:"question_type"`
	QuestionText string       `db:"question_text" json:"question_text"`
	IsRequired   bool         `db:"is_required" json:"is_required"`
	TraitKey     string       `db:"trait_key" json:"trait_key"`
	Ws           float64      `db:"ws" json:"ws"`
	MediaURL     *string      `db:"media_url" json:"media_url,omitempty"`
	Options      []Option     `db:"-" json:"options"`
}

type Option struct {
	Name            string  `db:"name" json:"name"`
	Version         int     `db:"version" json:"version"`
	QuestionName    string  `db:"question_name" json:"question_name"`
	QuestionVersion int     `db:"question_version" json:"question_version"`
	Order           int     `db:"sort_order" json:"order"`
	Label           string  `db:"label" json:"label"`
	MediaURL        *string `db:"media_url" json:"media_url,omitempty"`
	IsCorrect       bool    `db:"is_correct" json:"is_correct"`
	Score           float64 `db:"score" json:"score"`
	Weight          float64 `db:"weight" json:"weight"`
	Wa              float64 `db:"wa" json:"wa"`
}

// Question returns the question with the given name anywhere in the template.
func (t Template) Question(name string) (Question, bool) {
	for _, s := range t.Sections {
		if q, ok := s.Question(name); ok {
			return q, true
		}
	}
	return Question{}, false
}

// SectionByOrder returns the first section carrying the given order.
func (t Template) SectionByOrder(order int) (Section, bool) {
	for _, s := range t.Sections {
		if s.Order == order {
			return s, true
		}
	}
	return Section{}, false
}

func (s Section) Question(name string) (Question, bool) {
	for _, q := range s.Questions {
		if q.Name == name {
			return q, true
		}
	}
	return Question{}, false
}

func (q Question) Option(name string) (Option, bool) {
	for _, o := range q.Options {
		if o.Name == name {
			return o, true
		}
	}
	return Option{}, false
}
