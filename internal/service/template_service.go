package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"questionnaire/internal/domains"
	"questionnaire/internal/retry"
)

type TemplateProvider interface {
	VersioningStore
	LatestOptionVersion(ctx context.Context, name string) (int, error)
	OptionNameV1Exists(ctx context.Context, name string) (bool, error)
	GetTemplate(ctx context.Context, name string, version int) (domains.Template, error)
	ListTemplates(ctx context.Context) ([]domains.TemplateSummary, error)
	PublishTemplate(ctx context.Context, name string, version int, at time.Time) (domains.Template, error)
}

type TemplateService struct {
	provider  TemplateProvider
	versioner *Versioner
	now       func() time.Time
}

func NewTemplateService(provider TemplateProvider, policy retry.Policy, now func() time.Time) *TemplateService {
	if now == nil {
		now = time.Now
	}
	return &TemplateService{
		provider: provider,
		versioner: NewVersioner(
			provider,
			NewFactory(now),
			NewOptionNames(provider),
			NewEntityVersioner(provider),
			policy,
		),
		now: now,
	}
}

func (h *TemplateService) CreateTemplate(ctx context.Context, edit domains.TemplateEdit) (domains.TemplateView, error) {
	return h.versioner.CreateTemplate(ctx, edit)
}

// GetTemplate returns the given version, or the latest one when version <= 0.
func (h *TemplateService) GetTemplate(ctx context.Context, name string, version int) (domains.TemplateView, error) {
	template, err := h.provider.GetTemplate(ctx, name, version)
	if err != nil {
		return domains.TemplateView{}, fmt.Errorf("get template %s@%d: %w", name, version, err)
	}
	return Project(template), nil
}

func (h *TemplateService) ListTemplates(ctx context.Context) ([]domains.TemplateSummary, error) {
	templates, err := h.provider.ListTemplates(ctx)
	if err != nil {
		slog.Error("list templates", "err", err)
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

func (h *TemplateService) PublishTemplate(ctx context.Context, name string, version int) (domains.TemplateView, error) {
	template, err := h.provider.PublishTemplate(ctx, name, version, h.now().UTC())
	if err != nil {
		return domains.TemplateView{}, fmt.Errorf("publish template %s@%d: %w", name, version, err)
	}
	slog.Info("template published", "name", name, "version", version)
	return Project(template), nil
}

func (h *TemplateService) VersionTemplate(ctx context.Context, name string, version int, edit domains.TemplateEdit) (domains.TemplateView, error) {
	existing, err := h.provider.FindTemplate(ctx, name, version)
	if err != nil {
		return domains.TemplateView{}, fmt.Errorf("version template %s@%d: %w", name, version, err)
	}
	return h.versioner.VersionTemplate(ctx, existing, edit)
}

// EditQuestion versions the template around a single question edit. The
// returned flag reports whether the edit differs from the stored question;
// an edit that changes nothing still produces a new version.
func (h *TemplateService) EditQuestion(ctx context.Context, name string, version int, question string, edit domains.QuestionEdit) (domains.TemplateView, bool, error) {
	existing, err := h.provider.FindTemplate(ctx, name, version)
	if err != nil {
		return domains.TemplateView{}, false, fmt.Errorf("edit question %s@%d: %w", name, version, err)
	}

	changed := true
	if stored, ok := existing.Question(question); ok {
		changed = QuestionEditChanged(stored, edit)
	}

	view, err := h.versioner.VersionTemplateForQuestion(ctx, existing, question, edit)
	if err != nil {
		return domains.TemplateView{}, false, err
	}
	return view, changed, nil
}
