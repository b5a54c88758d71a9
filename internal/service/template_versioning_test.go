package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"questionnaire/internal/domains"
	"questionnaire/internal/retry"
	"questionnaire/internal/storage"
	"questionnaire/internal/storage/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var testClock = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

func testPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.InitialInterval = time.Millisecond
	p.MaxInterval = 4 * time.Millisecond
	return p
}

func newTestVersioner(store *memstore.Store) *Versioner {
	return NewVersioner(store, NewFactory(testClock), NewOptionNames(store), NewEntityVersioner(store), testPolicy())
}

func onboardingEdit(title string) domains.TemplateEdit {
	return domains.TemplateEdit{
		Name:         "onboarding-quiz",
		Title:        title,
		Description:  "first week check",
		TemplateType: "quiz",
		Sections: []domains.SectionEdit{
			{
				Order: 1,
				Title: "Basics",
				Questions: []domains.QuestionEdit{
					{
						Name:         "q1",
						Order:        1,
						QuestionType: "single_choice",
						PromptText:   "Are you ready?",
						IsRequired:   true,
						Options: []domains.OptionEdit{
							{Name: "ready-yes", Order: 1, Label: "Yes", IsCorrect: true, Score: 1},
							{Name: "ready-no", Order: 2, Label: "No"},
						},
					},
					{Name: "q2", Order: 2, QuestionType: "text", PromptText: "Your team?"},
				},
			},
			{
				Order: 2,
				Title: "Feedback",
				Questions: []domains.QuestionEdit{
					{Name: "q3", Order: 1, QuestionType: "rating", PromptText: "Rate the week", Ws: 0.5, TraitKey: "mood"},
				},
			},
		},
	}
}

// seedOnboarding persists versions 1 to 3 of the onboarding template and
// returns version 3.
func seedOnboarding(t *testing.T, store *memstore.Store, v *Versioner) domains.Template {
	t.Helper()
	ctx := context.Background()

	_, err := v.CreateTemplate(ctx, onboardingEdit("Onboarding v1"))
	require.NoError(t, err)
	for _, step := range []struct {
		base  int
		title string
	}{{1, "Onboarding v2"}, {2, "Onboarding v3"}} {
		base, err := store.FindTemplate(ctx, "onboarding-quiz", step.base)
		require.NoError(t, err)
		_, err = v.VersionTemplate(ctx, base, onboardingEdit(step.title))
		require.NoError(t, err)
	}

	v3, err := store.FindTemplate(ctx, "onboarding-quiz", 3)
	require.NoError(t, err)
	return v3
}

func sectionIDs(sections []domains.Section) []string {
	ids := make([]string, 0, len(sections))
	for _, s := range sections {
		ids = append(ids, s.ID)
	}
	return ids
}

func viewQuestion(t *testing.T, view domains.TemplateView, name string) domains.Question {
	t.Helper()
	for _, s := range view.Sections {
		if q, ok := s.Question(name); ok {
			return q
		}
	}
	t.Fatalf("question %q not in %s@%d", name, view.Name, view.Version)
	return domains.Question{}
}

func TestCreateTemplate(t *testing.T) {
	store := memstore.New()
	v := newTestVersioner(store)

	view, err := v.CreateTemplate(context.Background(), onboardingEdit("  Onboarding  "))
	require.NoError(t, err)

	assert.Equal(t, "onboarding-quiz", view.Name)
	assert.Equal(t, 1, view.Version)
	assert.Equal(t, "Onboarding", view.Title)
	assert.Equal(t, domains.TemplateTypeQuiz, view.TemplateType)
	assert.Equal(t, domains.StatusDraft, view.Status)
	assert.False(t, view.IsPublished)
	assert.Equal(t, 2, view.SectionsCount)
	assert.Equal(t, 3, view.QuestionsCount)

	q1 := viewQuestion(t, view, "q1")
	assert.Equal(t, 1, q1.Version)
	assert.Equal(t, domains.QuestionTypeSingleChoice, q1.QuestionType)
	require.Len(t, q1.Options, 2)
	assert.Equal(t, "ready-yes", q1.Options[0].Name)
	assert.Equal(t, 1, q1.Options[0].Version)
	assert.Equal(t, 1, q1.Options[0].QuestionVersion)
}

func TestCreateTemplateNameFromTitle(t *testing.T) {
	v := newTestVersioner(memstore.New())

	view, err := v.CreateTemplate(context.Background(), domains.TemplateEdit{Title: "Exit Interview 2026"})
	require.NoError(t, err)
	assert.Equal(t, "exit-interview-2026", view.Name)
	assert.Equal(t, domains.TemplateTypeForm, view.TemplateType)
}

func TestCreateTemplateRequiresName(t *testing.T) {
	v := newTestVersioner(memstore.New())

	_, err := v.CreateTemplate(context.Background(), domains.TemplateEdit{Title: "  !!  "})
	require.ErrorIs(t, err, ErrInvalidTemplate)
}

func TestCreateTemplateReplayAndExisting(t *testing.T) {
	store := memstore.New()
	v := newTestVersioner(store)
	ctx := context.Background()

	first, err := v.CreateTemplate(ctx, onboardingEdit("Onboarding"))
	require.NoError(t, err)

	again, err := v.CreateTemplate(ctx, onboardingEdit("Onboarding"))
	require.NoError(t, err)
	assert.Equal(t, first.Version, again.Version)
	assert.Equal(t, sectionIDs(first.Sections), sectionIDs(again.Sections))

	_, err = v.CreateTemplate(ctx, onboardingEdit("Different title"))
	require.ErrorIs(t, err, ErrTemplateExists)
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, []int{1}, store.Versions("onboarding-quiz"))
}

// Version 3 re-submitted unchanged yields version 4 with fresh section ids
// and bumped entity versions.
func TestVersionTemplateIdenticalPayload(t *testing.T) {
	store := memstore.New()
	v := newTestVersioner(store)
	v3 := seedOnboarding(t, store, v)

	view, err := v.VersionTemplate(context.Background(), v3, onboardingEdit("Onboarding v3"))
	require.NoError(t, err)

	assert.Equal(t, 4, view.Version)
	assert.Equal(t, v3.Title, view.Title)
	require.Len(t, view.Sections, 2)
	for i, s := range view.Sections {
		assert.NotEqual(t, v3.Sections[i].ID, s.ID)
		assert.Equal(t, v3.Sections[i].Title, s.Title)
		assert.Equal(t, 4, s.TemplateVersion)
		for j, q := range s.Questions {
			old := v3.Sections[i].Questions[j]
			assert.Equal(t, old.Name, q.Name)
			assert.Equal(t, old.Version+1, q.Version)
			assert.Equal(t, s.ID, q.SectionID)
			assert.Equal(t, old.QuestionText, q.QuestionText)
			for k, o := range q.Options {
				assert.Equal(t, old.Options[k].Name, o.Name)
				assert.Equal(t, old.Options[k].Version+1, o.Version)
				assert.Equal(t, q.Version, o.QuestionVersion)
				assert.Equal(t, old.Options[k].Label, o.Label)
			}
		}
	}
	assert.Equal(t, []int{1, 2, 3, 4}, store.Versions("onboarding-quiz"))
}

// Adding an unnamed "Maybe" option to q1 of version 3.
func TestVersionTemplateForQuestionAddsOption(t *testing.T) {
	store := memstore.New()
	v := newTestVersioner(store)
	v3 := seedOnboarding(t, store, v)

	edit := domains.QuestionEdit{
		Name:         "q1",
		Order:        1,
		QuestionType: "single_choice",
		PromptText:   "Are you ready to start?",
		IsRequired:   true,
		Options: []domains.OptionEdit{
			{Name: "ready-yes", Order: 1, Label: "Yes", IsCorrect: true, Score: 1},
			{Name: "ready-no", Order: 2, Label: "No"},
			{Order: 3, Label: "Maybe"},
		},
	}
	view, err := v.VersionTemplateForQuestion(context.Background(), v3, "q1", edit)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Version)

	oldQ1, _ := v3.Question("q1")
	q1 := viewQuestion(t, view, "q1")
	assert.Equal(t, oldQ1.Version+1, q1.Version)
	assert.Equal(t, "Are you ready to start?", q1.QuestionText)

	require.Len(t, q1.Options, 3)
	for i, old := range oldQ1.Options {
		o := q1.Options[i]
		assert.Equal(t, old.Name, o.Name)
		assert.Equal(t, old.Version+1, o.Version)
		assert.Equal(t, old.Label, o.Label)
		assert.Equal(t, old.Score, o.Score)
		assert.Equal(t, old.IsCorrect, o.IsCorrect)
	}
	maybe := q1.Options[2]
	assert.Equal(t, "q1-maybe", maybe.Name)
	assert.Equal(t, 1, maybe.Version)
	assert.Equal(t, q1.Version, maybe.QuestionVersion)
}

func TestVersionTemplateForQuestionLeavesOtherQuestions(t *testing.T) {
	store := memstore.New()
	v := newTestVersioner(store)
	v3 := seedOnboarding(t, store, v)

	view, err := v.VersionTemplateForQuestion(context.Background(), v3, "q2", domains.QuestionEdit{
		Name: "q2", Order: 2, QuestionType: "long_text", PromptText: "Describe your team",
	})
	require.NoError(t, err)

	for _, name := range []string{"q1", "q3"} {
		old, _ := v3.Question(name)
		got := viewQuestion(t, view, name)

		assert.Equal(t, old.Version+1, got.Version)
		old.Version, got.Version = 0, 0
		old.SectionID, got.SectionID = "", ""
		for i := range old.Options {
			old.Options[i].Version, got.Options[i].Version = 0, 0
			old.Options[i].QuestionVersion, got.Options[i].QuestionVersion = 0, 0
		}
		assert.Equal(t, old, got, name)
	}

	q2 := viewQuestion(t, view, "q2")
	assert.Equal(t, domains.QuestionTypeLongText, q2.QuestionType)
	assert.Equal(t, "Describe your team", q2.QuestionText)
}

func TestVersionTemplateForQuestionConcurrentDuplicates(t *testing.T) {
	store := memstore.New()
	v := newTestVersioner(store)
	v3 := seedOnboarding(t, store, v)

	edit := domains.QuestionEdit{
		Name: "q1", Order: 1, QuestionType: "single_choice", PromptText: "Ready?",
		Options: []domains.OptionEdit{{Order: 3, Label: "Maybe"}},
	}

	var views [2]domains.TemplateView
	g, ctx := errgroup.WithContext(context.Background())
	for i := range views {
		i := i
		g.Go(func() error {
			view, err := v.VersionTemplateForQuestion(ctx, v3, "q1", edit)
			views[i] = view
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 4, views[0].Version)
	assert.Equal(t, views[0].Version, views[1].Version)
	assert.Equal(t, sectionIDs(views[0].Sections), sectionIDs(views[1].Sections))
	assert.Equal(t, []int{1, 2, 3, 4}, store.Versions("onboarding-quiz"))
}

func TestVersionTemplateTwiceIsIdempotent(t *testing.T) {
	store := memstore.New()
	v := newTestVersioner(store)
	ctx := context.Background()

	_, err := v.CreateTemplate(ctx, onboardingEdit("Onboarding"))
	require.NoError(t, err)
	v1, err := store.FindTemplate(ctx, "onboarding-quiz", 1)
	require.NoError(t, err)

	first, err := v.VersionTemplate(ctx, v1, onboardingEdit("Onboarding, revised"))
	require.NoError(t, err)
	second, err := v.VersionTemplate(ctx, v1, onboardingEdit("Onboarding, revised"))
	require.NoError(t, err)

	assert.Equal(t, 2, first.Version)
	assert.Equal(t, first, second)
	assert.Equal(t, []int{1, 2}, store.Versions("onboarding-quiz"))
}

func TestVersionsAreContiguous(t *testing.T) {
	store := memstore.New()
	v := newTestVersioner(store)
	ctx := context.Background()

	_, err := v.CreateTemplate(ctx, onboardingEdit("Onboarding"))
	require.NoError(t, err)

	// Every edit starts from version 1; the next version still follows the
	// latest persisted one.
	v1, err := store.FindTemplate(ctx, "onboarding-quiz", 1)
	require.NoError(t, err)
	for _, title := range []string{"A", "B", "C"} {
		_, err := v.VersionTemplate(ctx, v1, onboardingEdit(title))
		require.NoError(t, err)
	}

	assert.Equal(t, []int{1, 2, 3, 4}, store.Versions("onboarding-quiz"))
	latest, err := store.FindTemplate(ctx, "onboarding-quiz", 4)
	require.NoError(t, err)
	assert.Equal(t, "C", latest.Title)
	q1, _ := latest.Question("q1")
	assert.Equal(t, 4, q1.Version)
}

func TestNewOptionNameCollidesWithExistingFirstVersion(t *testing.T) {
	store := memstore.New()
	v := newTestVersioner(store)
	ctx := context.Background()

	_, err := v.CreateTemplate(ctx, domains.TemplateEdit{
		Name: "exit-survey",
		Sections: []domains.SectionEdit{{Order: 1, Questions: []domains.QuestionEdit{{
			Name: "notes", QuestionType: "single_choice",
			Options: []domains.OptionEdit{{Name: "free-text", Label: "Other"}},
		}}}},
	})
	require.NoError(t, err)

	view, err := v.CreateTemplate(ctx, domains.TemplateEdit{
		Name: "intake",
		Sections: []domains.SectionEdit{{Order: 1, Questions: []domains.QuestionEdit{{
			Name: "remarks", QuestionType: "single_choice",
			Options: []domains.OptionEdit{{Name: "free-text", Label: "Other"}},
		}}}},
	})
	require.NoError(t, err)

	remarks := viewQuestion(t, view, "remarks")
	require.Len(t, remarks.Options, 1)
	assert.Equal(t, "free-text-2", remarks.Options[0].Name)
	assert.Equal(t, 1, remarks.Options[0].Version)
}

func TestNewOptionsInOnePayloadGetDistinctNames(t *testing.T) {
	v := newTestVersioner(memstore.New())

	view, err := v.CreateTemplate(context.Background(), domains.TemplateEdit{
		Name: "poll",
		Sections: []domains.SectionEdit{{Order: 1, Questions: []domains.QuestionEdit{{
			Name: "pick", QuestionType: "multiple_choice",
			Options: []domains.OptionEdit{
				{Order: 1, Label: "Maybe"},
				{Order: 2, Label: "maybe"},
				{Order: 3},
			},
		}}}},
	})
	require.NoError(t, err)

	pick := viewQuestion(t, view, "pick")
	names := []string{}
	for _, o := range pick.Options {
		names = append(names, o.Name)
	}
	assert.Equal(t, []string{"pick-maybe", "pick-maybe-2", "pick-option-3"}, names)
}

func TestVersionTemplateMovedQuestionKeepsHistory(t *testing.T) {
	store := memstore.New()
	v := newTestVersioner(store)
	ctx := context.Background()

	_, err := v.CreateTemplate(ctx, onboardingEdit("Onboarding"))
	require.NoError(t, err)
	v1, err := store.FindTemplate(ctx, "onboarding-quiz", 1)
	require.NoError(t, err)

	edit := onboardingEdit("Onboarding")
	moved := edit.Sections[0].Questions[1]
	edit.Sections[0].Questions = edit.Sections[0].Questions[:1]
	edit.Sections[1].Questions = append(edit.Sections[1].Questions, moved)

	view, err := v.VersionTemplate(ctx, v1, edit)
	require.NoError(t, err)

	q2 := viewQuestion(t, view, "q2")
	assert.Equal(t, 2, q2.Version)
	assert.Equal(t, view.Sections[1].ID, q2.SectionID)
}

func TestVersionTemplateGeneratesQuestionName(t *testing.T) {
	store := memstore.New()
	v := newTestVersioner(store)
	ctx := context.Background()

	_, err := v.CreateTemplate(ctx, onboardingEdit("Onboarding"))
	require.NoError(t, err)
	v1, err := store.FindTemplate(ctx, "onboarding-quiz", 1)
	require.NoError(t, err)

	edit := onboardingEdit("Onboarding")
	edit.Sections[1].Questions = append(edit.Sections[1].Questions, domains.QuestionEdit{Order: 2, PromptText: "Anything else?"})

	view, err := v.VersionTemplate(ctx, v1, edit)
	require.NoError(t, err)
	require.Len(t, view.Sections[1].Questions, 2)

	added := view.Sections[1].Questions[1]
	assert.True(t, strings.HasPrefix(added.Name, "q-"))
	assert.Equal(t, 1, added.Version)
	assert.Equal(t, domains.QuestionTypeText, added.QuestionType)
}

func TestVersioningConflicts(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		run  func(v *Versioner, v1 domains.Template) error
		want error
	}{
		{
			name: "duplicate question",
			run: func(v *Versioner, v1 domains.Template) error {
				edit := onboardingEdit("Onboarding")
				edit.Sections[1].Questions[0].Name = "q1"
				_, err := v.VersionTemplate(ctx, v1, edit)
				return err
			},
			want: ErrDuplicateQuestion,
		},
		{
			name: "duplicate option",
			run: func(v *Versioner, v1 domains.Template) error {
				edit := onboardingEdit("Onboarding")
				edit.Sections[0].Questions[0].Options[1].Name = "ready-yes"
				_, err := v.VersionTemplate(ctx, v1, edit)
				return err
			},
			want: ErrDuplicateOption,
		},
		{
			name: "duplicate option in question edit",
			run: func(v *Versioner, v1 domains.Template) error {
				_, err := v.VersionTemplateForQuestion(ctx, v1, "q1", domains.QuestionEdit{
					Name:    "q1",
					Options: []domains.OptionEdit{{Name: "ready-no"}, {Name: "ready-no"}},
				})
				return err
			},
			want: ErrDuplicateOption,
		},
		{
			name: "unknown question",
			run: func(v *Versioner, v1 domains.Template) error {
				_, err := v.VersionTemplateForQuestion(ctx, v1, "q9", domains.QuestionEdit{Name: "q9"})
				return err
			},
			want: ErrQuestionNotFound,
		},
		{
			name: "duplicate new option on create",
			run: func(v *Versioner, v1 domains.Template) error {
				_, err := v.CreateTemplate(ctx, domains.TemplateEdit{
					Name: "other",
					Sections: []domains.SectionEdit{{Order: 1, Questions: []domains.QuestionEdit{{
						Name:    "pick",
						Options: []domains.OptionEdit{{Name: "maybe", Order: 1}, {Name: "maybe", Order: 2}},
					}}}},
				})
				return err
			},
			want: ErrDuplicateOption,
		},
		{
			name: "duplicate new option in bulk edit",
			run: func(v *Versioner, v1 domains.Template) error {
				edit := onboardingEdit("Onboarding")
				edit.Sections[0].Questions[0].Options = append(edit.Sections[0].Questions[0].Options,
					domains.OptionEdit{Name: "maybe", Order: 3},
					domains.OptionEdit{Name: " maybe ", Order: 4},
				)
				_, err := v.VersionTemplate(ctx, v1, edit)
				return err
			},
			want: ErrDuplicateOption,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memstore.New()
			v := newTestVersioner(store)
			_, err := v.CreateTemplate(ctx, onboardingEdit("Onboarding"))
			require.NoError(t, err)
			v1, err := store.FindTemplate(ctx, "onboarding-quiz", 1)
			require.NoError(t, err)

			err = tt.run(v, v1)
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, ErrConflict)

			var opErr *OperationError
			assert.False(t, errors.As(err, &opErr))
			assert.Equal(t, []int{1}, store.Versions("onboarding-quiz"))
			assert.Empty(t, store.Versions("other"))
		})
	}
}

func TestVersionTemplateRestoresRemovedQuestion(t *testing.T) {
	store := memstore.New()
	v := newTestVersioner(store)
	ctx := context.Background()

	_, err := v.CreateTemplate(ctx, onboardingEdit("Onboarding"))
	require.NoError(t, err)
	v1, err := store.FindTemplate(ctx, "onboarding-quiz", 1)
	require.NoError(t, err)

	trimmed := onboardingEdit("Onboarding")
	restoredQ1 := trimmed.Sections[0].Questions[0]
	trimmed.Sections[0].Questions = trimmed.Sections[0].Questions[1:]
	trimmed.Sections[1].Questions = nil
	_, err = v.VersionTemplate(ctx, v1, trimmed)
	require.NoError(t, err)
	v2, err := store.FindTemplate(ctx, "onboarding-quiz", 2)
	require.NoError(t, err)
	_, ok := v2.Question("q1")
	require.False(t, ok)

	restored := onboardingEdit("Onboarding")
	restoredQ1.PromptText = "Are you ready now?"
	restoredQ1.Options = append(restoredQ1.Options, domains.OptionEdit{Order: 3, Label: "Maybe"})
	restored.Sections[0].Questions[0] = restoredQ1

	view, err := v.VersionTemplate(ctx, v2, restored)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Version)

	q1 := viewQuestion(t, view, "q1")
	assert.Equal(t, 2, q1.Version)
	assert.Equal(t, "Are you ready now?", q1.QuestionText)
	assert.Equal(t, view.Sections[0].ID, q1.SectionID)
	require.Len(t, q1.Options, 3)
	assert.Equal(t, "ready-yes", q1.Options[0].Name)
	assert.Equal(t, 2, q1.Options[0].Version)
	assert.Equal(t, 2, q1.Options[0].QuestionVersion)
	assert.Equal(t, "ready-no", q1.Options[1].Name)
	assert.Equal(t, 2, q1.Options[1].Version)
	assert.Equal(t, "q1-maybe", q1.Options[2].Name)
	assert.Equal(t, 1, q1.Options[2].Version)

	q3 := viewQuestion(t, view, "q3")
	assert.Equal(t, 2, q3.Version)
	assert.Equal(t, "Rate the week", q3.QuestionText)

	assert.Equal(t, []int{1, 2, 3}, store.Versions("onboarding-quiz"))
}

func TestQuestionNameSharedAcrossTemplatesContinuesVersions(t *testing.T) {
	store := memstore.New()
	v := newTestVersioner(store)
	ctx := context.Background()

	_, err := v.CreateTemplate(ctx, onboardingEdit("Onboarding"))
	require.NoError(t, err)

	view, err := v.CreateTemplate(ctx, domains.TemplateEdit{
		Name: "other",
		Sections: []domains.SectionEdit{{Order: 1, Questions: []domains.QuestionEdit{{
			Name: "q2", QuestionType: "long_text", PromptText: "Describe your team",
		}}}},
	})
	require.NoError(t, err)

	q2 := viewQuestion(t, view, "q2")
	assert.Equal(t, 2, q2.Version)
	assert.Equal(t, domains.QuestionTypeLongText, q2.QuestionType)

	onboarding, err := store.FindTemplate(ctx, "onboarding-quiz", 1)
	require.NoError(t, err)
	original, _ := onboarding.Question("q2")
	assert.Equal(t, 1, original.Version)
	assert.Equal(t, "Your team?", original.QuestionText)
}

func TestVersionTemplateRetriesTransientSaveFailure(t *testing.T) {
	store := memstore.New()
	v := newTestVersioner(store)
	ctx := context.Background()

	_, err := v.CreateTemplate(ctx, onboardingEdit("Onboarding"))
	require.NoError(t, err)
	v1, err := store.FindTemplate(ctx, "onboarding-quiz", 1)
	require.NoError(t, err)

	saves := 0
	store.BeforeSave = func(context.Context, domains.Template) error {
		saves++
		if saves == 1 {
			return storage.ErrConflict
		}
		return nil
	}
	resets := store.Resets()

	view, err := v.VersionTemplate(ctx, v1, onboardingEdit("Onboarding, revised"))
	require.NoError(t, err)
	assert.Equal(t, 2, view.Version)
	assert.Equal(t, 2, saves)
	assert.Equal(t, resets+2, store.Resets())
}

func TestVersionTemplateWrapsFailures(t *testing.T) {
	errDisk := errors.New("disk full")

	tests := []struct {
		name      string
		hook      func(context.Context, domains.Template) error
		wantCause error
		wantSaves int
	}{
		{
			name:      "permanent",
			hook:      func(context.Context, domains.Template) error { return errDisk },
			wantCause: errDisk,
			wantSaves: 1,
		},
		{
			name:      "transient exhausted",
			hook:      func(context.Context, domains.Template) error { return storage.ErrConflict },
			wantCause: storage.ErrConflict,
			wantSaves: testPolicy().MaxAttempts,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memstore.New()
			v := newTestVersioner(store)
			ctx := context.Background()

			_, err := v.CreateTemplate(ctx, onboardingEdit("Onboarding"))
			require.NoError(t, err)
			v1, err := store.FindTemplate(ctx, "onboarding-quiz", 1)
			require.NoError(t, err)

			saves := 0
			store.BeforeSave = func(ctx context.Context, tmpl domains.Template) error {
				saves++
				return tt.hook(ctx, tmpl)
			}

			_, err = v.VersionTemplate(ctx, v1, onboardingEdit("Onboarding, revised"))

			var opErr *OperationError
			require.ErrorAs(t, err, &opErr)
			assert.Equal(t, opVersionTemplate, opErr.Op)
			assert.Equal(t, "onboarding-quiz", opErr.Name)
			assert.Equal(t, 1, opErr.Version)
			assert.ErrorIs(t, err, tt.wantCause)
			assert.NotErrorIs(t, err, ErrConflict)
			assert.Equal(t, tt.wantSaves, saves)
			assert.Equal(t, []int{1}, store.Versions("onboarding-quiz"))
		})
	}
}

func TestVersionTemplateCanceled(t *testing.T) {
	store := memstore.New()
	v := newTestVersioner(store)

	_, err := v.CreateTemplate(context.Background(), onboardingEdit("Onboarding"))
	require.NoError(t, err)
	v1, err := store.FindTemplate(context.Background(), "onboarding-quiz", 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = v.VersionTemplate(ctx, v1, onboardingEdit("Onboarding, revised"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int{1}, store.Versions("onboarding-quiz"))
}
