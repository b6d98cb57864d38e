package api

import (
	"net/http"

	"github.com/JaimeStill/document-manager/internal/documents"
	"github.com/JaimeStill/document-manager/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, runtime *Runtime, domain *Domain) {
	documentsHandler := documents.NewHandler(
		domain.Documents,
		runtime.Logger,
		runtime.Pagination,
		runtime.MaxUploadSize,
	)

	routes.Register(
		mux,
		documentsHandler.Routes(),
	)
}
