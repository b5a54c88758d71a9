// Package memstore is an in-process implementation of the template storage
// collaborator. It enforces the same (name, version) uniqueness as the
// Postgres schema and commits a template tree all-or-nothing.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"questionnaire/internal/domains"
	"questionnaire/internal/storage"
)

type key struct {
	name    string
	version int
}

type Store struct {
	mu        sync.RWMutex
	templates map[key]domains.Template
	questions map[key]struct{}
	options   map[key]struct{}
	resets    int

	// BeforeSave, when set, runs inside SaveTemplate before anything is
	// written. Returning an error aborts the save.
	BeforeSave func(ctx context.Context, t domains.Template) error
}

func New() *Store {
	return &Store{
		templates: map[key]domains.Template{},
		questions: map[key]struct{}{},
		options:   map[key]struct{}{},
	}
}

func (s *Store) FindTemplate(ctx context.Context, name string, version int) (domains.Template, error) {
	if err := ctx.Err(); err != nil {
		return domains.Template{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[key{name, version}]
	if !ok {
		return domains.Template{}, fmt.Errorf("get template %s@%d: %w", name, version, storage.ErrNotFound)
	}
	return cloneTemplate(t), nil
}

func (s *Store) FindTemplateByDigest(ctx context.Context, name, digest string) (domains.Template, error) {
	if err := ctx.Err(); err != nil {
		return domains.Template{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *domains.Template
	for k, t := range s.templates {
		if k.name != name || t.EditDigest != digest {
			continue
		}
		if found == nil || t.Version < found.Version {
			t := t
			found = &t
		}
	}
	if found == nil {
		return domains.Template{}, fmt.Errorf("find template %q by digest: %w", name, storage.ErrNotFound)
	}
	return cloneTemplate(*found), nil
}

func (s *Store) GetTemplate(ctx context.Context, name string, version int) (domains.Template, error) {
	if version <= 0 {
		latest, err := s.LatestTemplateVersion(ctx, name)
		if err != nil {
			return domains.Template{}, err
		}
		if latest == 0 {
			return domains.Template{}, fmt.Errorf("get template %q: %w", name, storage.ErrNotFound)
		}
		version = latest
	}
	return s.FindTemplate(ctx, name, version)
}

// ResetTracked only counts calls; the store keeps no tracked snapshots.
func (s *Store) ResetTracked() {
	s.mu.Lock()
	s.resets++
	s.mu.Unlock()
}

// Resets reports how many times ResetTracked was called. Used by tests to
// check that every attempt starts from fresh state.
func (s *Store) Resets() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resets
}

func (s *Store) LatestTemplateVersion(ctx context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return latestIn(ctx, s.templates, name)
}

func (s *Store) LatestQuestionVersion(ctx context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return latestIn(ctx, s.questions, name)
}

func (s *Store) LatestOptionVersion(ctx context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return latestIn(ctx, s.options, name)
}

// FindQuestion returns one persisted question version with its options.
func (s *Store) FindQuestion(ctx context.Context, name string, version int) (domains.Question, error) {
	if err := ctx.Err(); err != nil {
		return domains.Question{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.templates {
		for _, section := range t.Sections {
			for _, q := range section.Questions {
				if q.Name == name && q.Version == version {
					return cloneQuestions([]domains.Question{q})[0], nil
				}
			}
		}
	}
	return domains.Question{}, fmt.Errorf("get question %s@%d: %w", name, version, storage.ErrNotFound)
}

func (s *Store) OptionNameV1Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.options[key{name, 1}]
	return ok, nil
}

func (s *Store) SaveTemplate(ctx context.Context, t domains.Template) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.BeforeSave != nil {
		if err := s.BeforeSave(ctx, t); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[key{t.Name, t.Version}]; ok {
		return fmt.Errorf("insert template %s@%d: %w", t.Name, t.Version, storage.ErrConflict)
	}

	newQuestions := map[key]struct{}{}
	newOptions := map[key]struct{}{}
	for _, section := range t.Sections {
		for _, q := range section.Questions {
			qk := key{q.Name, q.Version}
			if _, ok := s.questions[qk]; ok {
				return fmt.Errorf("insert question %s@%d: %w", q.Name, q.Version, storage.ErrConflict)
			}
			if _, ok := newQuestions[qk]; ok {
				return fmt.Errorf("insert question %s@%d: %w", q.Name, q.Version, storage.ErrConflict)
			}
			newQuestions[qk] = struct{}{}

			for _, o := range q.Options {
				ok := key{o.Name, o.Version}
				if _, dup := s.options[ok]; dup {
					return fmt.Errorf("insert option %s@%d: %w", o.Name, o.Version, storage.ErrConflict)
				}
				if _, dup := newOptions[ok]; dup {
					return fmt.Errorf("insert option %s@%d: %w", o.Name, o.Version, storage.ErrConflict)
				}
				newOptions[ok] = struct{}{}
			}
		}
	}

	s.templates[key{t.Name, t.Version}] = cloneTemplate(t)
	for k := range newQuestions {
		s.questions[k] = struct{}{}
	}
	for k := range newOptions {
		s.options[k] = struct{}{}
	}
	return nil
}

func (s *Store) ListTemplates(ctx context.Context) ([]domains.TemplateSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := map[string]domains.Template{}
	for k, t := range s.templates {
		if cur, ok := latest[k.name]; !ok || t.Version > cur.Version {
			latest[k.name] = t
		}
	}

	out := make([]domains.TemplateSummary, 0, len(latest))
	for _, t := range latest {
		out = append(out, domains.TemplateSummary{
			Name:         t.Name,
			Version:      t.Version,
			Title:        t.Title,
			TemplateType: t.TemplateType,
			Status:       t.Status,
			UpdatedAt:    t.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) PublishTemplate(ctx context.Context, name string, version int, at time.Time) (domains.Template, error) {
	if err := ctx.Err(); err != nil {
		return domains.Template{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{name, version}
	t, ok := s.templates[k]
	if !ok {
		return domains.Template{}, fmt.Errorf("publish template %s@%d: %w", name, version, storage.ErrNotFound)
	}
	t.Status = domains.StatusPublished
	if t.PublishedAt == nil {
		published := at
		t.PublishedAt = &published
	}
	t.UpdatedAt = at
	s.templates[k] = t
	return cloneTemplate(t), nil
}

// Versions lists every persisted version of a template name in ascending
// order. It is an inspection hook for tests and debugging.
func (s *Store) Versions(name string) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var versions []int
	for k := range s.templates {
		if k.name == name {
			versions = append(versions, k.version)
		}
	}
	sort.Ints(versions)
	return versions
}

func latestIn[V any](ctx context.Context, keys map[key]V, name string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	latest := 0
	for k := range keys {
		if k.name == name && k.version > latest {
			latest = k.version
		}
	}
	return latest, nil
}

func cloneTemplate(t domains.Template) domains.Template {
	out := t
	if t.PublishedAt != nil {
		published := *t.PublishedAt
		out.PublishedAt = &published
	}
	out.Sections = make([]domains.Section, len(t.Sections))
	for i, s := range t.Sections {
		s.Questions = cloneQuestions(s.Questions)
		out.Sections[i] = s
	}
	return out
}

func cloneQuestions(questions []domains.Question) []domains.Question {
	out := make([]domains.Question, len(questions))
	for i, q := range questions {
		q.MediaURL = cloneString(q.MediaURL)
		options := make([]domains.Option, len(q.Options))
		for j, o := range q.Options {
			o.MediaURL = cloneString(o.MediaURL)
			options[j] = o
		}
		q.Options = options
		out[i] = q
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
