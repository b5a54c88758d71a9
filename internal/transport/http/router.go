package httptransport

import (
	"net/http"

	"questionnaire/internal/config"
	"questionnaire/internal/httpx"

	"github.com/gorilla/mux"
)

func Router(templates TemplateServices, cfg *config.Config) *mux.Router {
	router := mux.NewRouter()
	handlers := NewTemplateHandlers(templates)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/templates", handlers.ListTemplates).Methods(http.MethodGet)
	api.HandleFunc("/templates/{name}", handlers.GetLatestTemplate).Methods(http.MethodGet)
	api.HandleFunc("/templates/{name}/versions/{version}", handlers.GetTemplate).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(httpx.Protected(cfg.JWT.Secret))
	protected.HandleFunc("/templates", handlers.CreateTemplate).Methods(http.MethodPost)
	protected.HandleFunc("/templates/{name}/versions/{version}", handlers.VersionTemplate).Methods(http.MethodPut)
	protected.HandleFunc("/templates/{name}/versions/{version}/questions/{question}", handlers.EditQuestion).Methods(http.MethodPut)
	protected.HandleFunc("/templates/{name}/versions/{version}/publish", handlers.PublishTemplate).Methods(http.MethodPost)

	return router
}
