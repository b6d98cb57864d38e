package documents

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/document-manager/pkg/pagination"
)

// Store is the transactional persistence boundary of the aggregate.
type Store interface {
	// InTx runs fn in one transaction, committing when fn returns nil and
	// rolling back otherwise.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// ListDocuments returns one page of owner's documents and the total
	// number of matches. page must already be normalized.
	ListDocuments(ctx context.Context, owner uuid.UUID, page pagination.PageRequest, filters Filters) ([]Summary, int, error)

	// ReferencedKeys reports which of keys belong to a persisted file.
	ReferencedKeys(ctx context.Context, keys []string) (map[string]bool, error)
}

// Tx exposes row-level operations valid inside one transaction. Lookups
// return the package's not-found sentinels; deletes of absent rows are no-ops
// unless stated otherwise.
type Tx interface {
	GetDocument(ctx context.Context, id uuid.UUID) (*Document, error)
	// LockDocument reads the document and holds a row lock until the
	// transaction ends, serializing file-set changes on it.
	LockDocument(ctx context.Context, id uuid.UUID) (*Document, error)
	InsertDocument(ctx context.Context, doc *Document) error
	UpdateDocument(ctx context.Context, doc *Document) error
	// DeleteDocument removes the document together with its tags,
	// metadata, notes, and files.
	DeleteDocument(ctx context.Context, id uuid.UUID) error

	InsertFiles(ctx context.Context, files []File) error
	GetFile(ctx context.Context, id uuid.UUID) (*File, error)
	CountFiles(ctx context.Context, documentID uuid.UUID) (int, error)
	ListFiles(ctx context.Context, documentID uuid.UUID, order Order) ([]File, error)
	DeleteFile(ctx context.Context, id uuid.UUID) error
	ReassignFiles(ctx context.Context, from, to uuid.UUID) error

	InsertNote(ctx context.Context, note *Note) error
	GetNote(ctx context.Context, documentID, id uuid.UUID) (*Note, error)
	UpdateNote(ctx context.Context, note *Note) error
	DeleteNote(ctx context.Context, documentID, id uuid.UUID) error
	ListNotes(ctx context.Context, documentID uuid.UUID, order Order) ([]Note, error)
	ReassignNotes(ctx context.Context, from, to uuid.UUID) error

	// UpsertMetadata inserts m or overwrites the value of the existing
	// (DocumentID, Key) row, then loads the stored row back into m.
	UpsertMetadata(ctx context.Context, m *Metadata) error
	DeleteMetadata(ctx context.Context, documentID uuid.UUID, key string) error
	ListMetadata(ctx context.Context, documentID uuid.UUID) ([]Metadata, error)

	// UpsertTag stores tag, or loads the existing tag of the same name into
	// it. The row stays locked until the transaction ends.
	UpsertTag(ctx context.Context, tag *Tag) error
	// LockTag returns the tag named name with a row lock, or ErrTagNotFound.
	LockTag(ctx context.Context, name string) (*Tag, error)
	DeleteTag(ctx context.Context, id uuid.UUID) error
	CountTagReferences(ctx context.Context, tagID uuid.UUID) (int, error)

	// InsertDocumentTag stores dt unless (DocumentID, TagID, OwnerID) already
	// exists, in which case the existing row is loaded into dt. It reports
	// whether a row was created.
	InsertDocumentTag(ctx context.Context, dt *DocumentTag) (bool, error)
	DeleteDocumentTag(ctx context.Context, documentID, tagID, owner uuid.UUID) error
	// ListDocumentTags returns the document's tags ordered by name. A nil
	// owner returns every user's tags.
	ListDocumentTags(ctx context.Context, documentID uuid.UUID, owner *uuid.UUID) ([]DocumentTag, error)
}
