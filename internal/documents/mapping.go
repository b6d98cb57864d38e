package documents

import (
	"github.com/JaimeStill/document-manager/pkg/query"
	"github.com/JaimeStill/document-manager/pkg/repository"
)

var projection = query.NewProjectionMap("public", "documents", "d").
	Project("id", "Id").
	Project("owner_id", "OwnerId").
	Project("title", "Title").
	Project("description", "Description").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt").
	ProjectExpr("(SELECT COUNT(*) FROM public.document_files f WHERE f.document_id = d.id)", "FilesCount")

var defaultSort = query.SortField{Field: "CreatedAt", Descending: true}

// tieBreak keeps documents created in the same instant in a fixed order.
var tieBreak = query.SortField{Field: "Id", Descending: true}

const (
	documentColumns = "id, owner_id, title, description, created_at, updated_at"
	fileColumns     = "id, document_id, storage_key, original_filename, extension, content_type, size_bytes, page_count, created_at, updated_at"
	noteColumns     = "id, document_id, author_id, content, created_at, updated_at"
	metadataColumns = "id, document_id, key, value, created_at, updated_at"
	tagColumns      = "id, name, created_at, updated_at"
)

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(
		&d.ID,
		&d.OwnerID,
		&d.Title,
		&d.Description,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	return d, err
}

func scanSummary(s repository.Scanner) (Summary, error) {
	var d Summary
	err := s.Scan(
		&d.ID,
		&d.OwnerID,
		&d.Title,
		&d.Description,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.FilesCount,
	)
	d.Tags = []UserTag{}
	return d, err
}

func scanFile(s repository.Scanner) (File, error) {
	var f File
	err := s.Scan(
		&f.ID,
		&f.DocumentID,
		&f.StorageKey,
		&f.OriginalFilename,
		&f.Extension,
		&f.ContentType,
		&f.SizeBytes,
		&f.PageCount,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	return f, err
}

func scanNote(s repository.Scanner) (Note, error) {
	var n Note
	err := s.Scan(&n.ID, &n.DocumentID, &n.AuthorID, &n.Content, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

func scanMetadata(s repository.Scanner) (Metadata, error) {
	var m Metadata
	err := s.Scan(&m.ID, &m.DocumentID, &m.Key, &m.Value, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func scanTag(s repository.Scanner) (Tag, error) {
	var t Tag
	err := s.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func scanDocumentTag(s repository.Scanner) (DocumentTag, error) {
	var dt DocumentTag
	err := s.Scan(
		&dt.ID,
		&dt.DocumentID,
		&dt.TagID,
		&dt.Name,
		&dt.OwnerID,
		&dt.Color,
		&dt.CreatedAt,
		&dt.UpdatedAt,
	)
	return dt, err
}

func userTags(tags []DocumentTag) []UserTag {
	out := make([]UserTag, len(tags))
	for i, t := range tags {
		out[i] = UserTag{Name: t.Name, Color: t.Color}
	}
	return out
}
