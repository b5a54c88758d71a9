package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"questionnaire/internal/domains"
	"questionnaire/internal/retry"
	"questionnaire/internal/storage"

	"github.com/google/uuid"
)

const (
	opCreateTemplate             = "CreateTemplate"
	opVersionTemplate            = "VersionTemplate"
	opVersionTemplateForQuestion = "VersionTemplateForQuestion"
)

// VersioningStore is the storage surface the versioner needs. Every read
// must observe committed state; none may be served from a tracked cache.
type VersioningStore interface {
	FindTemplate(ctx context.Context, name string, version int) (domains.Template, error)
	FindTemplateByDigest(ctx context.Context, name, digest string) (domains.Template, error)
	LatestTemplateVersion(ctx context.Context, name string) (int, error)
	LatestQuestionVersion(ctx context.Context, name string) (int, error)
	FindQuestion(ctx context.Context, name string, version int) (domains.Question, error)
	SaveTemplate(ctx context.Context, t domains.Template) error
	ResetTracked()
}

type OptionNamer interface {
	NormalizeOptionName(edit domains.OptionEdit, question domains.Question) string
	EnsureUniqueOptionNameV1(ctx context.Context, candidate string) (string, error)
}

type EntityVersioning interface {
	VersionQuestion(ctx context.Context, old domains.Question, newSectionID string) (domains.Question, error)
	VersionOption(ctx context.Context, old domains.Option, questionName string, questionVersion int) (domains.Option, error)
}

// Versioner produces new template versions. Persisted versions are never
// modified: every edit yields a complete new tree saved in one write.
type Versioner struct {
	store    VersioningStore
	factory  *Factory
	names    OptionNamer
	versions EntityVersioning
	policy   retry.Policy
	newID    func() string
}

func NewVersioner(store VersioningStore, factory *Factory, names OptionNamer, versions EntityVersioning, policy retry.Policy) *Versioner {
	if policy.Transient == nil {
		policy.Transient = storage.IsTransient
	}
	return &Versioner{
		store:    store,
		factory:  factory,
		names:    names,
		versions: versions,
		policy:   policy,
		newID:    uuid.NewString,
	}
}

// CreateTemplate persists version 1 of a new template. Replaying the same
// payload returns the version it created.
func (v *Versioner) CreateTemplate(ctx context.Context, edit domains.TemplateEdit) (domains.TemplateView, error) {
	name := slugify(edit.Name)
	if name == "" {
		name = slugify(edit.Title)
	}
	if name == "" {
		return domains.TemplateView{}, fmt.Errorf("%w: name or title is required", ErrInvalidTemplate)
	}
	edit.Name = name

	digest, err := editDigest(opCreateTemplate, 0, "", edit)
	if err != nil {
		return domains.TemplateView{}, v.fail(opCreateTemplate, name, 1, err)
	}

	noFetch := func(context.Context) (struct{}, error) { return struct{}{}, nil }
	view, err := retry.Do(ctx, v.policy, noFetch, func(ctx context.Context, _ struct{}) (domains.TemplateView, error) {
		v.store.ResetTracked()

		if t, ok, err := v.replay(ctx, name, digest); err != nil || ok {
			return Project(t), err
		}
		latest, err := v.store.LatestTemplateVersion(ctx, name)
		if err != nil {
			return domains.TemplateView{}, err
		}
		if latest > 0 {
			return domains.TemplateView{}, fmt.Errorf("template %q: %w", name, ErrTemplateExists)
		}

		t := v.factory.NewTemplate(edit, 1)
		b := v.newBuild(t)
		if t.Sections, err = b.sectionsFromEdit(ctx, domains.Template{}, edit.Sections); err != nil {
			return domains.TemplateView{}, err
		}
		return v.persist(ctx, opCreateTemplate, t, digest)
	})
	if err != nil {
		return domains.TemplateView{}, v.fail(opCreateTemplate, name, 1, err)
	}
	return view, nil
}

// VersionTemplate replaces the whole tree of existing with edit. Sections are
// matched to the previous version by order, questions and options by name;
// matches are carried forward under new versions, everything else is new.
func (v *Versioner) VersionTemplate(ctx context.Context, existing domains.Template, edit domains.TemplateEdit) (domains.TemplateView, error) {
	digest, err := editDigest(opVersionTemplate, existing.Version, "", edit)
	if err != nil {
		return domains.TemplateView{}, v.fail(opVersionTemplate, existing.Name, existing.Version, err)
	}

	view, err := retry.Do(ctx, v.policy, v.snapshot(existing), func(ctx context.Context, base domains.Template) (domains.TemplateView, error) {
		return v.versionOnce(ctx, opVersionTemplate, base, digest, func(ctx context.Context, next int) (domains.Template, error) {
			t := v.factory.NewTemplate(edit, next)
			t.Name = base.Name
			b := v.newBuild(t)

			var err error
			t.Sections, err = b.sectionsFromEdit(ctx, base, edit.Sections)
			return t, err
		})
	})
	if err != nil {
		return domains.TemplateView{}, v.fail(opVersionTemplate, existing.Name, existing.Version, err)
	}
	return view, nil
}

// VersionTemplateForQuestion carries the whole tree forward and applies edit
// to the question named questionName only. Options of that question named in
// edit are updated, unnamed or unknown ones are added; options missing from
// edit are kept as they are.
func (v *Versioner) VersionTemplateForQuestion(ctx context.Context, template domains.Template, questionName string, edit domains.QuestionEdit) (domains.TemplateView, error) {
	if err := validateOptionEdits(edit); err != nil {
		return domains.TemplateView{}, err
	}
	digest, err := editDigest(opVersionTemplateForQuestion, template.Version, questionName, edit)
	if err != nil {
		return domains.TemplateView{}, v.fail(opVersionTemplateForQuestion, template.Name, template.Version, err)
	}

	view, err := retry.Do(ctx, v.policy, v.snapshot(template), func(ctx context.Context, base domains.Template) (domains.TemplateView, error) {
		return v.versionOnce(ctx, opVersionTemplateForQuestion, base, digest, func(ctx context.Context, next int) (domains.Template, error) {
			return v.carryForward(ctx, base, questionName, edit, next)
		})
	})
	if err != nil {
		return domains.TemplateView{}, v.fail(opVersionTemplateForQuestion, template.Name, template.Version, err)
	}
	return view, nil
}

// snapshot fetches an untracked copy of t before every attempt.
func (v *Versioner) snapshot(t domains.Template) func(context.Context) (domains.Template, error) {
	return func(ctx context.Context) (domains.Template, error) {
		return v.store.FindTemplate(ctx, t.Name, t.Version)
	}
}

func (v *Versioner) versionOnce(
	ctx context.Context,
	op string,
	base domains.Template,
	digest string,
	build func(ctx context.Context, next int) (domains.Template, error),
) (domains.TemplateView, error) {
	v.store.ResetTracked()

	next, err := v.nextVersion(ctx, base)
	if err != nil {
		return domains.TemplateView{}, err
	}

	if t, ok, err := v.replay(ctx, base.Name, digest); err != nil || ok {
		return Project(t), err
	}
	existing, err := v.store.FindTemplate(ctx, base.Name, next)
	if err == nil {
		slog.Info("template version already exists", "op", op, "name", existing.Name, "version", existing.Version)
		return Project(existing), nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return domains.TemplateView{}, err
	}

	t, err := build(ctx, next)
	if err != nil {
		return domains.TemplateView{}, err
	}
	return v.persist(ctx, op, t, digest)
}

func (v *Versioner) nextVersion(ctx context.Context, base domains.Template) (int, error) {
	latest, err := v.store.LatestTemplateVersion(ctx, base.Name)
	if err != nil {
		return 0, err
	}
	if latest == 0 {
		latest = base.Version
	}
	return latest + 1, nil
}

// replay looks for a version already produced by the request with digest.
func (v *Versioner) replay(ctx context.Context, name, digest string) (domains.Template, bool, error) {
	t, err := v.store.FindTemplateByDigest(ctx, name, digest)
	switch {
	case err == nil:
		slog.Info("template request replayed", "name", t.Name, "version", t.Version)
		return t, true, nil
	case errors.Is(err, storage.ErrNotFound):
		return domains.Template{}, false, nil
	default:
		return domains.Template{}, false, err
	}
}

func (v *Versioner) persist(ctx context.Context, op string, t domains.Template, digest string) (domains.TemplateView, error) {
	t.EditDigest = digest
	if err := v.store.SaveTemplate(ctx, t); err != nil {
		return domains.TemplateView{}, err
	}
	slog.Info("template version saved", "op", op, "name", t.Name, "version", t.Version, "sections", len(t.Sections))
	return Project(t), nil
}

func (v *Versioner) carryForward(ctx context.Context, base domains.Template, questionName string, edit domains.QuestionEdit, next int) (domains.Template, error) {
	if _, ok := base.Question(questionName); !ok {
		return domains.Template{}, fmt.Errorf("question %q in %s@%d: %w", questionName, base.Name, base.Version, ErrQuestionNotFound)
	}

	t := v.factory.NewTemplateFromExisting(base, next)
	b := v.newBuild(t)

	for _, old := range base.Sections {
		section := b.newSection(old.Order, old.Title, old.Description)
		for _, oldQuestion := range old.Questions {
			q, err := v.versions.VersionQuestion(ctx, oldQuestion, section.ID)
			if err != nil {
				return domains.Template{}, err
			}
			edited := oldQuestion.Name == questionName
			if edited {
				applyQuestionEdit(&q, edit)
			}

			for _, oldOption := range oldQuestion.Options {
				o, err := v.versions.VersionOption(ctx, oldOption, q.Name, q.Version)
				if err != nil {
					return domains.Template{}, err
				}
				b.claim(o.Name)
				if edited {
					if oe, ok := edit.Option(oldOption.Name); ok {
						applyOptionEdit(&o, oe)
					}
				}
				q.Options = append(q.Options, o)
			}

			if edited {
				for _, oe := range edit.Options {
					if _, ok := oldQuestion.Option(strings.TrimSpace(oe.Name)); ok {
						continue
					}
					o, err := b.newOption(ctx, oe, q)
					if err != nil {
						return domains.Template{}, err
					}
					q.Options = append(q.Options, o)
				}
			}
			section.Questions = append(section.Questions, q)
		}
		t.Sections = append(t.Sections, section)
	}
	return t, nil
}

func (v *Versioner) fail(op, name string, version int, err error) error {
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrInvalidTemplate) {
		return err
	}
	slog.Error("template versioning failed", "op", op, "name", name, "version", version, "err", err)
	return &OperationError{Op: op, Name: name, Version: version, Err: err}
}

func (v *Versioner) newBuild(t domains.Template) *treeBuild {
	return &treeBuild{
		v:       v,
		name:    t.Name,
		version: t.Version,
		claimed: map[string]struct{}{},
	}
}

// treeBuild assembles the sections of one new template version and tracks
// the option names claimed while doing so.
type treeBuild struct {
	v       *Versioner
	name    string
	version int
	claimed map[string]struct{}
}

func (b *treeBuild) newSection(order int, title, description string) domains.Section {
	return domains.Section{
		ID:              b.v.newID(),
		TemplateName:    b.name,
		TemplateVersion: b.version,
		Order:           order,
		Title:           strings.TrimSpace(title),
		Description:     strings.TrimSpace(description),
		Questions:       []domains.Question{},
	}
}

func (b *treeBuild) sectionsFromEdit(ctx context.Context, prev domains.Template, edits []domains.SectionEdit) ([]domains.Section, error) {
	seen := map[string]struct{}{}
	sections := make([]domains.Section, 0, len(edits))

	for _, se := range edits {
		oldSection, _ := prev.SectionByOrder(se.Order)
		section := b.newSection(se.Order, se.Title, se.Description)

		for _, qe := range se.Questions {
			qe.Name = strings.TrimSpace(qe.Name)
			if qe.Name == "" {
				qe.Name = b.newQuestionName()
			}
			if _, dup := seen[qe.Name]; dup {
				return nil, fmt.Errorf("question %q: %w", qe.Name, ErrDuplicateQuestion)
			}
			seen[qe.Name] = struct{}{}
			if err := validateOptionEdits(qe); err != nil {
				return nil, fmt.Errorf("question %q: %w", qe.Name, err)
			}

			q, err := b.questionFromEdit(ctx, prev, oldSection, section.ID, qe)
			if err != nil {
				return nil, err
			}
			section.Questions = append(section.Questions, q)
		}
		sections = append(sections, section)
	}
	return sections, nil
}

// questionFromEdit looks for the previous question in the section matched by
// order first and in the whole previous template second, so questions moved
// between sections keep their history. A name missing from the previous
// version but persisted before continues from its latest persisted version.
func (b *treeBuild) questionFromEdit(ctx context.Context, prev domains.Template, oldSection domains.Section, sectionID string, qe domains.QuestionEdit) (domains.Question, error) {
	old, found := oldSection.Question(qe.Name)
	if !found {
		old, found = prev.Question(qe.Name)
	}
	if !found {
		var err error
		if old, found, err = b.persistedQuestion(ctx, qe.Name); err != nil {
			return domains.Question{}, err
		}
	}

	if found {
		q, err := b.v.versions.VersionQuestion(ctx, old, sectionID)
		if err != nil {
			return domains.Question{}, err
		}
		applyQuestionEdit(&q, qe)
		q.Options, err = b.optionsFromEdit(ctx, old, q, qe.Options)
		return q, err
	}

	q := b.v.factory.NewQuestion(qe, sectionID)
	var err error
	q.Options, err = b.optionsFromEdit(ctx, domains.Question{}, q, qe.Options)
	return q, err
}

func (b *treeBuild) persistedQuestion(ctx context.Context, name string) (domains.Question, bool, error) {
	latest, err := b.v.store.LatestQuestionVersion(ctx, name)
	if err != nil || latest == 0 {
		return domains.Question{}, false, err
	}
	q, err := b.v.store.FindQuestion(ctx, name, latest)
	if err != nil {
		return domains.Question{}, false, fmt.Errorf("restore question %q: %w", name, err)
	}
	return q, true, nil
}

func (b *treeBuild) optionsFromEdit(ctx context.Context, old, q domains.Question, edits []domains.OptionEdit) ([]domains.Option, error) {
	options := make([]domains.Option, 0, len(edits))
	carried := map[string]struct{}{}

	for _, oe := range edits {
		name := strings.TrimSpace(oe.Name)
		if prevOption, ok := old.Option(name); ok && name != "" {
			if _, dup := carried[name]; dup {
				return nil, fmt.Errorf("option %q of question %q: %w", name, q.Name, ErrDuplicateOption)
			}
			carried[name] = struct{}{}
			b.claim(name)

			o, err := b.v.versions.VersionOption(ctx, prevOption, q.Name, q.Version)
			if err != nil {
				return nil, err
			}
			applyOptionEdit(&o, oe)
			options = append(options, o)
			continue
		}

		o, err := b.newOption(ctx, oe, q)
		if err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, nil
}

func (b *treeBuild) newOption(ctx context.Context, oe domains.OptionEdit, q domains.Question) (domains.Option, error) {
	name, err := b.claimOptionName(ctx, b.v.names.NormalizeOptionName(oe, q))
	if err != nil {
		return domains.Option{}, err
	}
	return b.v.factory.NewOption(oe, name, q), nil
}

// claimOptionName resolves candidate against persisted first versions and
// against names already claimed in this build.
func (b *treeBuild) claimOptionName(ctx context.Context, candidate string) (string, error) {
	name := candidate
	for i := 2; i <= maxNameSuffix; i++ {
		unique, err := b.v.names.EnsureUniqueOptionNameV1(ctx, name)
		if err != nil {
			return "", err
		}
		if _, taken := b.claimed[unique]; !taken {
			b.claim(unique)
			return unique, nil
		}
		name = fmt.Sprintf("%s-%d", candidate, i)
	}
	return "", fmt.Errorf("option name %q: %w", candidate, ErrOptionNameExhausted)
}

func (b *treeBuild) claim(name string) {
	b.claimed[name] = struct{}{}
}

func (b *treeBuild) newQuestionName() string {
	return "q-" + strings.ReplaceAll(b.v.newID(), "-", "")[:12]
}

func validateOptionEdits(edit domains.QuestionEdit) error {
	seen := map[string]struct{}{}
	for _, oe := range edit.Options {
		name := strings.TrimSpace(oe.Name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("option %q: %w", name, ErrDuplicateOption)
		}
		seen[name] = struct{}{}
	}
	return nil
}
