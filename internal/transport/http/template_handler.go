package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"questionnaire/internal/domains"
	"questionnaire/internal/httpx"
	"questionnaire/internal/service"
	"questionnaire/internal/storage"
)

type TemplateHandlers struct {
	service TemplateServices
}

type TemplateServices interface {
	CreateTemplate(ctx context.Context, edit domains.TemplateEdit) (domains.TemplateView, error)
	GetTemplate(ctx context.Context, name string, version int) (domains.TemplateView, error)
	ListTemplates(ctx context.Context) ([]domains.TemplateSummary, error)
	PublishTemplate(ctx context.Context, name string, version int) (domains.TemplateView, error)
	VersionTemplate(ctx context.Context, name string, version int, edit domains.TemplateEdit) (domains.TemplateView, error)
	EditQuestion(ctx context.Context, name string, version int, question string, edit domains.QuestionEdit) (domains.TemplateView, bool, error)
}

func NewTemplateHandlers(service TemplateServices) *TemplateHandlers {
	return &TemplateHandlers{
		service: service,
	}
}

func (h *TemplateHandlers) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	edit, err := httpx.ReadBody[domains.TemplateEdit](*r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.service.CreateTemplate(r.Context(), edit)
	if err != nil {
		writeError(w, r, "create template", err)
		return
	}
	slog.Info("template created", "name", view.Name, "by", subject(r))
	httpx.JSON(w, http.StatusCreated, view)
}

func (h *TemplateHandlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.service.ListTemplates(r.Context())
	if err != nil {
		writeError(w, r, "list templates", err)
		return
	}
	httpx.JSON(w, http.StatusOK, templates)
}

func (h *TemplateHandlers) GetLatestTemplate(w http.ResponseWriter, r *http.Request) {
	name, ok := httpx.PathString(w, r, "name")
	if !ok {
		return
	}

	view, err := h.service.GetTemplate(r.Context(), name, 0)
	if err != nil {
		writeError(w, r, "get template", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *TemplateHandlers) GetTemplate(w http.ResponseWriter, r *http.Request) {
	name, version, ok := templateKey(w, r)
	if !ok {
		return
	}

	view, err := h.service.GetTemplate(r.Context(), name, version)
	if err != nil {
		writeError(w, r, "get template", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *TemplateHandlers) VersionTemplate(w http.ResponseWriter, r *http.Request) {
	name, version, ok := templateKey(w, r)
	if !ok {
		return
	}
	edit, err := httpx.ReadBody[domains.TemplateEdit](*r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.service.VersionTemplate(r.Context(), name, version, edit)
	if err != nil {
		writeError(w, r, "version template", err)
		return
	}
	slog.Info("template versioned", "name", view.Name, "from", version, "version", view.Version, "by", subject(r))
	httpx.JSON(w, http.StatusOK, view)
}

func (h *TemplateHandlers) EditQuestion(w http.ResponseWriter, r *http.Request) {
	name, version, ok := templateKey(w, r)
	if !ok {
		return
	}
	question, ok := httpx.PathString(w, r, "question")
	if !ok {
		return
	}
	edit, err := httpx.ReadBody[domains.QuestionEdit](*r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if edit.Name == "" {
		edit.Name = question
	}

	view, changed, err := h.service.EditQuestion(r.Context(), name, version, question, edit)
	if err != nil {
		writeError(w, r, "edit question", err)
		return
	}
	slog.Info("question edited", "name", view.Name, "question", question, "version", view.Version, "changed", changed, "by", subject(r))
	httpx.JSON(w, http.StatusOK, QuestionEditResponse{Template: view, Changed: changed})
}

func (h *TemplateHandlers) PublishTemplate(w http.ResponseWriter, r *http.Request) {
	name, version, ok := templateKey(w, r)
	if !ok {
		return
	}

	view, err := h.service.PublishTemplate(r.Context(), name, version)
	if err != nil {
		writeError(w, r, "publish template", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func templateKey(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	name, ok := httpx.PathString(w, r, "name")
	if !ok {
		return "", 0, false
	}
	version, ok := httpx.PathInt(w, r, "version")
	if !ok {
		return "", 0, false
	}
	return name, version, true
}

func subject(r *http.Request) string {
	sub, _ := httpx.SubjectFromContext(r.Context())
	return sub
}

func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var opErr *service.OperationError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrConflict):
		httpx.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidTemplate):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &opErr):
		slog.Error(op, "path", r.URL.Path, "err", err)
		httpx.Error(w, http.StatusServiceUnavailable, "try again later")
	default:
		slog.Error(op, "path", r.URL.Path, "err", err)
		httpx.Error(w, http.StatusInternalServerError, "internal error")
	}
}
