package service

import (
	"strings"

	"questionnaire/internal/domains"
)

// QuestionChanged reports whether applying edit to stored would change any
// tracked question field. Options are not inspected. An unparseable
// question type counts as unchanged.
func QuestionChanged(stored domains.Question, edit domains.QuestionEdit) bool {
	if questionType, ok := domains.ParseQuestionType(edit.QuestionType); ok && questionType != stored.QuestionType {
		return true
	}
	return stored.Order != edit.Order ||
		textChanged(stored.QuestionText, edit.PromptText) ||
		stored.IsRequired != edit.IsRequired ||
		textChanged(stored.TraitKey, edit.TraitKey) ||
		stored.Ws != edit.Ws ||
		mediaChanged(stored.MediaURL, edit.MediaURL)
}

// OptionChanged reports whether applying edit to stored would change any
// tracked option field.
func OptionChanged(stored domains.Option, edit domains.OptionEdit) bool {
	return stored.Order != edit.Order ||
		textChanged(stored.Label, edit.Label) ||
		mediaChanged(stored.MediaURL, edit.MediaURL) ||
		stored.IsCorrect != edit.IsCorrect ||
		stored.Score != edit.Score ||
		stored.Weight != edit.Weight ||
		stored.Wa != edit.Wa
}

// QuestionEditChanged extends QuestionChanged to the option list: any option
// edit that changes a stored option, or names no stored option, counts.
func QuestionEditChanged(stored domains.Question, edit domains.QuestionEdit) bool {
	if QuestionChanged(stored, edit) {
		return true
	}
	for _, oe := range edit.Options {
		o, ok := stored.Option(strings.TrimSpace(oe.Name))
		if !ok || OptionChanged(o, oe) {
			return true
		}
	}
	return false
}

func textChanged(stored, incoming string) bool {
	return strings.TrimSpace(stored) != strings.TrimSpace(incoming)
}

func mediaChanged(stored, incoming *string) bool {
	var s, i string
	if stored != nil {
		s = *stored
	}
	if incoming != nil {
		i = *incoming
	}
	return textChanged(s, i)
}
