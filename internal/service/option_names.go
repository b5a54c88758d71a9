package service

import (
	"context"
	"fmt"
	"strings"

	"questionnaire/internal/domains"
)

const maxNameSuffix = 1000

type OptionNameStore interface {
	OptionNameV1Exists(ctx context.Context, name string) (bool, error)
}

// OptionNames derives option identifiers and keeps first versions globally
// unique.
type OptionNames struct {
	store OptionNameStore
}

func NewOptionNames(store OptionNameStore) *OptionNames {
	return &OptionNames{store: store}
}

// NormalizeOptionName derives a candidate name from the edit: the explicit
// name when given, otherwise the owning question name joined with the label.
func (n *OptionNames) NormalizeOptionName(edit domains.OptionEdit, question domains.Question) string {
	if name := slugify(edit.Name); name != "" {
		return name
	}
	owner := slugify(question.Name)
	if label := slugify(edit.Label); label != "" {
		return strings.Trim(owner+"-"+label, "-")
	}
	return strings.Trim(fmt.Sprintf("%s-option-%d", owner, edit.Order), "-")
}

// EnsureUniqueOptionNameV1 returns candidate, or the first candidate-N
// (N >= 2) that no persisted option uses as its first version.
func (n *OptionNames) EnsureUniqueOptionNameV1(ctx context.Context, candidate string) (string, error) {
	name := candidate
	for i := 2; i <= maxNameSuffix; i++ {
		exists, err := n.store.OptionNameV1Exists(ctx, name)
		if err != nil {
			return "", fmt.Errorf("ensure unique option name: %w", err)
		}
		if !exists {
			return name, nil
		}
		name = fmt.Sprintf("%s-%d", candidate, i)
	}
	return "", fmt.Errorf("option name %q: %w", candidate, ErrOptionNameExhausted)
}
