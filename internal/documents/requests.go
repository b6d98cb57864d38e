package documents

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NoteRequest is the body of note create and update calls.
type NoteRequest struct {
	Content string `json:"content"`
}

// MetadataRequest is the body of a metadata upsert.
type MetadataRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// TagRequest is the body of a tag add. Color is optional.
type TagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// MergeRequest lists the documents to fold into the target document.
type MergeRequest struct {
	SourceDocumentIDs []uuid.UUID `json:"source_document_ids"`
}

func (m MetadataRequest) validate() error {
	if strings.TrimSpace(m.Key) == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidInput)
	}
	return nil
}

func (t TagRequest) validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if t.Color != "" && !ValidColor(t.Color) {
		return fmt.Errorf("%w: color must be #RRGGBB", ErrInvalidInput)
	}
	return nil
}

func (m MergeRequest) validate() error {
	if len(m.SourceDocumentIDs) == 0 {
		return fmt.Errorf("%w: source_document_ids must not be empty", ErrInvalidInput)
	}
	return nil
}
