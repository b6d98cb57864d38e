// Package documents implements the document aggregate: a document owns one
// or more uploaded files together with metadata entries, notes, and per-user
// tags. Every mutation runs inside a single store transaction.
package documents

import (
	"time"

	"github.com/google/uuid"
)

// Document is the aggregate root. It exists only while it has at least one File.
type Document struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// File is an uploaded file whose bytes live in blob storage under StorageKey.
type File struct {
	ID               uuid.UUID `json:"id"`
	DocumentID       uuid.UUID `json:"document_id"`
	StorageKey       string    `json:"storage_key"`
	OriginalFilename string    `json:"original_filename"`
	Extension        string    `json:"extension"`
	ContentType      string    `json:"content_type"`
	SizeBytes        int64     `json:"size_bytes"`
	PageCount        *int      `json:"page_count,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Metadata is a key/value entry. Keys are unique per document.
type Metadata struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	Key        string    `json:"key"`
	Value      string    `json:"value"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Note is user-authored text attached to a document.
type Note struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Tag is the canonical, globally unique tag name shared by every user.
type Tag struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentTag attaches a Tag to a document on behalf of one user, with
// that user's color. (DocumentID, TagID, OwnerID) is unique.
type DocumentTag struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	TagID      uuid.UUID `json:"tag_id"`
	Name       string    `json:"name"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Color      string    `json:"color"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UserTag is the caller's view of a tag on a document.
type UserTag struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Summary is a list row: the document, its file count, and the caller's tags.
type Summary struct {
	Document
	FilesCount int       `json:"files_count"`
	Tags       []UserTag `json:"tags"`
}

// Detail is the full aggregate as seen by one user.
type Detail struct {
	Document
	Files    []File     `json:"files"`
	Tags     []UserTag  `json:"tags"`
	Metadata []Metadata `json:"metadata"`
	Notes    []Note     `json:"notes"`
}

// Upload carries the bytes and client-supplied name of one uploaded file.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CreateCommand holds the optional document fields supplied at creation.
// A blank Title is derived from the first uploaded file.
type CreateCommand struct {
	Title       string
	Description string
}

// UpdateCommand holds the document fields that may change. Nil fields are
// left untouched.
type UpdateCommand struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// Order selects chronological direction for file and note reads.
type Order int

const (
	OldestFirst Order = iota
	NewestFirst
)
