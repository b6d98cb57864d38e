package documents

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/document-manager/pkg/pagination"
)

// System defines the document aggregate operations.
// Implementations coordinate blob storage with transactional persistence.
type System interface {
	List(ctx context.Context, owner uuid.UUID, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Summary], error)
	// Find returns the detail view of owner's document. Documents of other
	// owners are reported as ErrNotFound.
	Find(ctx context.Context, owner, id uuid.UUID) (*Detail, error)
	// Owned returns owner's document without its collections.
	Owned(ctx context.Context, owner, id uuid.UUID) (*Document, error)

	CreateFromFile(ctx context.Context, owner uuid.UUID, file Upload, cmd CreateCommand) (*Detail, error)
	CreateFromFiles(ctx context.Context, owner uuid.UUID, files []Upload, cmd CreateCommand) (*Detail, error)
	Update(ctx context.Context, owner, id uuid.UUID, cmd UpdateCommand) (*Document, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error

	AddFile(ctx context.Context, documentID uuid.UUID, file Upload) (*File, error)
	AddFiles(ctx context.Context, documentID uuid.UUID, files []Upload) ([]File, error)
	RemoveFile(ctx context.Context, documentID, fileID uuid.UUID) error
	ListFiles(ctx context.Context, documentID uuid.UUID, order Order) ([]File, error)
	LatestFile(ctx context.Context, documentID uuid.UUID) (*File, error)
	FileContent(ctx context.Context, documentID, fileID uuid.UUID) (*File, []byte, error)

	AddNote(ctx context.Context, documentID, author uuid.UUID, content string) (*Note, error)
	FindNote(ctx context.Context, documentID, noteID uuid.UUID) (*Note, error)
	UpdateNote(ctx context.Context, documentID, noteID uuid.UUID, content string) (*Note, error)
	RemoveNote(ctx context.Context, documentID, noteID uuid.UUID) error
	ListNotes(ctx context.Context, documentID uuid.UUID, order Order) ([]Note, error)

	AddMetadata(ctx context.Context, documentID uuid.UUID, key, value string) (*Metadata, error)
	RemoveMetadata(ctx context.Context, documentID uuid.UUID, key string) error
	ListMetadata(ctx context.Context, documentID uuid.UUID) ([]Metadata, error)

	// AddTagForUser attaches name to the document for owner. An empty color
	// selects a generated one. Re-adding an existing tag returns it unchanged.
	AddTagForUser(ctx context.Context, documentID uuid.UUID, name string, owner uuid.UUID, color string) (*DocumentTag, error)
	// RemoveTagForUser detaches name for owner and deletes the canonical
	// tag once nothing references it.
	RemoveTagForUser(ctx context.Context, documentID uuid.UUID, name string, owner uuid.UUID) error
	ListTags(ctx context.Context, documentID uuid.UUID, owner *uuid.UUID) ([]DocumentTag, error)

	// Merge moves every child of the source documents onto main and deletes
	// the sources. main itself is ignored when listed as a source.
	Merge(ctx context.Context, mainID uuid.UUID, sourceIDs []uuid.UUID) error

	// ReferencedKeys reports which blob keys still belong to a file.
	ReferencedKeys(ctx context.Context, keys []string) (map[string]bool, error)
}
