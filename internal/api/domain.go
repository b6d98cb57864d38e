package api

import (
	"github.com/JaimeStill/document-manager/internal/documents"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents documents.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	store := documents.NewStore(runtime.Database.Connection())

	return &Domain{
		Documents: documents.New(
			store,
			runtime.Storage,
			runtime.Logger,
			runtime.Pagination,
			documents.WithMaxUploadSize(runtime.MaxUploadSize),
		),
	}
}
