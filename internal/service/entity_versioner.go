package service

import (
	"context"
	"fmt"

	"questionnaire/internal/domains"
)

type VersionStore interface {
	LatestQuestionVersion(ctx context.Context, name string) (int, error)
	LatestOptionVersion(ctx context.Context, name string) (int, error)
}

// EntityVersioner copies questions and options forward under a new version.
// Versions count per name across all templates: the next version is the
// highest persisted one plus one.
type EntityVersioner struct {
	store VersionStore
}

func NewEntityVersioner(store VersionStore) *EntityVersioner {
	return &EntityVersioner{store: store}
}

// VersionQuestion returns a content copy of old attached to newSectionID.
// The copy carries no options; callers rebuild them against the new version.
func (v *EntityVersioner) VersionQuestion(ctx context.Context, old domains.Question, newSectionID string) (domains.Question, error) {
	latest, err := v.store.LatestQuestionVersion(ctx, old.Name)
	if err != nil {
		return domains.Question{}, fmt.Errorf("version question %q: %w", old.Name, err)
	}
	if latest < old.Version {
		latest = old.Version
	}

	q := old
	q.Version = latest + 1
	q.SectionID = newSectionID
	q.MediaURL = cloneString(old.MediaURL)
	q.Options = []domains.Option{}
	return q, nil
}

func (v *EntityVersioner) VersionOption(ctx context.Context, old domains.Option, questionName string, questionVersion int) (domains.Option, error) {
	latest, err := v.store.LatestOptionVersion(ctx, old.Name)
	if err != nil {
		return domains.Option{}, fmt.Errorf("version option %q: %w", old.Name, err)
	}
	if latest < old.Version {
		latest = old.Version
	}

	o := old
	o.Version = latest + 1
	o.QuestionName = questionName
	o.QuestionVersion = questionVersion
	o.MediaURL = cloneString(old.MediaURL)
	return o, nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
