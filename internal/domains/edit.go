package domains

import "strings"

// TemplateEdit is the caller supplied payload for creating or re-versioning
// a template. Enum fields are free text and parsed permissively.
type TemplateEdit struct {
	Name             string        `json:"name"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	TemplateType     string        `json:"template_type"`
	TimeLimitSeconds int           `json:"time_limit_seconds"`
	Sections         []SectionEdit `json:"sections"`
}

type SectionEdit struct {
	Order       int            `json:"order"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Questions   []QuestionEdit `json:"questions"`
}

type QuestionEdit struct {
	Name         string       `json:"name"`
	Order        int          `json:"order"`
	QuestionType string       `json:"question_type"`
	PromptText   string       `json:"prompt_text"`
	IsRequired   bool         `json:"is_required"`
	TraitKey     string       `json:"trait_key"`
	Ws           float64      `json:"ws"`
	MediaURL     *string      `json:"media_url,omitempty"`
	Options      []OptionEdit `json:"options"`
}

type OptionEdit struct {
	Name      string  `json:"name"`
	Order     int     `json:"order"`
	Label     string  `json:"label"`
	MediaURL  *string `json:"media_url,omitempty"`
	IsCorrect bool    `json:"is_correct"`
	Score     float64 `json:"score"`
	Weight    float64 `json:"weight"`
	Wa        float64 `json:"wa"`
}

// Option returns the option edit carrying the given name.
func (q QuestionEdit) Option(name string) (OptionEdit, bool) {
	if name == "" {
		return OptionEdit{}, false
	}
	for _, o := range q.Options {
		if strings.TrimSpace(o.Name) == name {
			return o, true
		}
	}
	return OptionEdit{}, false
}
