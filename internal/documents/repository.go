package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/document-manager/pkg/pagination"
	"github.com/JaimeStill/document-manager/pkg/storage"
)

// Option configures the aggregate returned by New.
type Option func(*repo)

// WithColorGenerator replaces the generator used for tags added without a color.
func WithColorGenerator(fn func() string) Option {
	return func(r *repo) { r.color = fn }
}

// WithClock replaces the time source used for timestamps.
func WithClock(fn func() time.Time) Option {
	return func(r *repo) { r.now = fn }
}

// WithMaxUploadSize rejects uploads larger than n bytes. Zero disables the check.
func WithMaxUploadSize(n int64) Option {
	return func(r *repo) { r.maxUploadSize = n }
}

type repo struct {
	store         Store
	blobs         storage.System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
	color         func() string
	now           func() time.Time
}

// New creates the document aggregate over store with file bytes kept in blobs.
func New(store Store, blobs storage.System, logger *slog.Logger, pagination pagination.Config, opts ...Option) System {
	r := &repo{
		store:      store,
		blobs:      blobs,
		logger:     logger.With("system", "documents"),
		pagination: pagination,
		color:      RandomColor,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *repo) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

func (r *repo) List(ctx context.Context, owner uuid.UUID, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Summary], error) {
	page.Normalize(r.pagination)

	docs, total, err := r.store.ListDocuments(ctx, owner, page, filters)
	if err != nil {
		return nil, err
	}

	result := pagination.NewPageResult(docs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, owner, id uuid.UUID) (*Detail, error) {
	var detail *Detail
	err := r.store.InTx(ctx, func(tx Tx) error {
		doc, err := ownedDocument(ctx, tx, owner, id)
		if err != nil {
			return err
		}
		detail, err = loadDetail(ctx, tx, doc, owner)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (r *repo) Owned(ctx context.Context, owner, id uuid.UUID) (*Document, error) {
	var doc *Document
	err := r.store.InTx(ctx, func(tx Tx) error {
		var err error
		doc, err = ownedDocument(ctx, tx, owner, id)
		return err
	})
	return doc, err
}

func ownedDocument(ctx context.Context, tx Tx, owner, id uuid.UUID) (*Document, error) {
	doc, err := tx.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != owner {
		return nil, ErrNotFound
	}
	return doc, nil
}

func loadDetail(ctx context.Context, tx Tx, doc *Document, viewer uuid.UUID) (*Detail, error) {
	files, err := tx.ListFiles(ctx, doc.ID, OldestFirst)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	tags, err := tx.ListDocumentTags(ctx, doc.ID, &viewer)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	metadata, err := tx.ListMetadata(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	notes, err := tx.ListNotes(ctx, doc.ID, NewestFirst)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	return &Detail{
		Document: *doc,
		Files:    files,
		Tags:     userTags(tags),
		Metadata: metadata,
		Notes:    notes,
	}, nil
}

func (r *repo) CreateFromFile(ctx context.Context, owner uuid.UUID, file Upload, cmd CreateCommand) (*Detail, error) {
	return r.create(ctx, owner, []Upload{file}, cmd)
}

func (r *repo) CreateFromFiles(ctx context.Context, owner uuid.UUID, files []Upload, cmd CreateCommand) (*Detail, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: at least one file is required", ErrInvalidInput)
	}
	return r.create(ctx, owner, files, cmd)
}

func (r *repo) create(ctx context.Context, owner uuid.UUID, uploads []Upload, cmd CreateCommand) (*Detail, error) {
	if owner == uuid.Nil {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}

	now := r.timestamp()
	doc := Document{
		ID:          uuid.New(),
		OwnerID:     owner,
		Title:       titleOrDerived(cmd.Title, uploads[0]),
		Description: strings.TrimSpace(cmd.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	files, err := r.prepareFiles(doc.ID, uploads, now)
	if err != nil {
		return nil, err
	}

	if err := r.storeBlobs(ctx, files, uploads); err != nil {
		return nil, err
	}

	err = r.store.InTx(ctx, func(tx Tx) error {
		if err := tx.InsertDocument(ctx, &doc); err != nil {
			return err
		}
		return tx.InsertFiles(ctx, files)
	})
	if err != nil {
		r.discardBlobs(files)
		return nil, err
	}

	r.logger.Info("document created", "id", doc.ID, "owner", owner, "files", len(files))
	return &Detail{
		Document: doc,
		Files:    files,
		Tags:     []UserTag{},
		Metadata: []Metadata{},
		Notes:    []Note{},
	}, nil
}

func (r *repo) Update(ctx context.Context, owner, id uuid.UUID, cmd UpdateCommand) (*Document, error) {
	var title string
	if cmd.Title != nil {
		title = strings.TrimSpace(*cmd.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title must not be blank", ErrInvalidInput)
		}
	}

	var doc *Document
	err := r.store.InTx(ctx, func(tx Tx) error {
		var err error
		doc, err = ownedDocument(ctx, tx, owner, id)
		if err != nil {
			return err
		}
		if cmd.Title != nil {
			doc.Title = title
		}
		if cmd.Description != nil {
			doc.Description = strings.TrimSpace(*cmd.Description)
		}
		doc.UpdatedAt = r.timestamp()
		return tx.UpdateDocument(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("document updated", "id", doc.ID)
	return doc, nil
}

func (r *repo) Delete(ctx context.Context, owner, id uuid.UUID) error {
	var files []File
	err := r.store.InTx(ctx, func(tx Tx) error {
		doc, err := tx.LockDocument(ctx, id)
		if err != nil {
			return err
		}
		if doc.OwnerID != owner {
			return ErrNotFound
		}
		if files, err = tx.ListFiles(ctx, id, OldestFirst); err != nil {
			return err
		}
		return tx.DeleteDocument(ctx, id)
	})
	if err != nil {
		return err
	}

	r.discardBlobs(files)
	r.logger.Info("document deleted", "id", id, "files", len(files))
	return nil
}

func (r *repo) AddFile(ctx context.Context, documentID uuid.UUID, file Upload) (*File, error) {
	files, err := r.AddFiles(ctx, documentID, []Upload{file})
	if err != nil {
		return nil, err
	}
	return &files[0], nil
}

// AddFiles validates every upload exactly as the single-file path does
// before storing any blob.
func (r *repo) AddFiles(ctx context.Context, documentID uuid.UUID, uploads []Upload) ([]File, error) {
	if len(uploads) == 0 {
		return nil, fmt.Errorf("%w: at least one file is required", ErrInvalidInput)
	}

	files, err := r.prepareFiles(documentID, uploads, r.timestamp())
	if err != nil {
		return nil, err
	}

	if err := r.storeBlobs(ctx, files, uploads); err != nil {
		return nil, err
	}

	err = r.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.LockDocument(ctx, documentID); err != nil {
			return err
		}
		return tx.InsertFiles(ctx, files)
	})
	if err != nil {
		r.discardBlobs(files)
		return nil, err
	}

	r.logger.Info("files added", "document", documentID, "count", len(files))
	return files, nil
}

func (r *repo) RemoveFile(ctx context.Context, documentID, fileID uuid.UUID) error {
	var removed *File
	err := r.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.LockDocument(ctx, documentID); err != nil {
			return err
		}

		file, err := tx.GetFile(ctx, fileID)
		if err != nil {
			return err
		}
		if file.DocumentID != documentID {
			return fmt.Errorf("%w: file %s does not belong to document %s", ErrInvalidOwnership, fileID, documentID)
		}

		count, err := tx.CountFiles(ctx, documentID)
		if err != nil {
			return err
		}
		if count <= 1 {
			return fmt.Errorf("%w: at least one file required", ErrInvariantViolation)
		}

		if err := tx.DeleteFile(ctx, fileID); err != nil {
			return err
		}
		removed = file
		return nil
	})
	if err != nil {
		return err
	}

	r.discardBlobs([]File{*removed})
	r.logger.Info("file removed", "document", documentID, "file", fileID)
	return nil
}

func (r *repo) ListFiles(ctx context.Context, documentID uuid.UUID, order Order) ([]File, error) {
	var files []File
	err := r.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetDocument(ctx, documentID); err != nil {
			return err
		}
		var err error
		files, err = tx.ListFiles(ctx, documentID, order)
		return err
	})
	return files, err
}

func (r *repo) LatestFile(ctx context.Context, documentID uuid.UUID) (*File, error) {
	files, err := r.ListFiles(ctx, documentID, NewestFirst)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrFileNotFound
	}
	return &files[0], nil
}

func (r *repo) FileContent(ctx context.Context, documentID, fileID uuid.UUID) (*File, []byte, error) {
	var file *File
	err := r.store.InTx(ctx, func(tx Tx) error {
		var err error
		file, err = tx.GetFile(ctx, fileID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	if file.DocumentID != documentID {
		return nil, nil, ErrFileNotFound
	}

	data, err := r.blobs.Retrieve(ctx, file.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: content missing for %s", ErrFileNotFound, fileID)
		}
		return nil, nil, fmt.Errorf("retrieve file: %w", err)
	}
	return file, data, nil
}

func (r *repo) prepareFiles(documentID uuid.UUID, uploads []Upload, now time.Time) ([]File, error) {
	files := make([]File, len(uploads))
	for i, u := range uploads {
		if err := r.validateUpload(u); err != nil {
			return nil, fmt.Errorf("file %d: %w", i+1, err)
		}

		id := uuid.New()
		name := Filename(u.Filename)
		contentType := detectContentType(u.ContentType, u.Data)

		var pageCount *int
		if contentType == contentTypePDF {
			pc, err := pdfPageCount(u.Data)
			if err != nil {
				r.logger.Warn("failed to extract pdf page count", "filename", name, "error", err)
			} else {
				pageCount = pc
			}
		}

		files[i] = File{
			ID:               id,
			DocumentID:       documentID,
			StorageKey:       storageKey(id.String(), name),
			OriginalFilename: name,
			Extension:        Extension(name),
			ContentType:      contentType,
			SizeBytes:        int64(len(u.Data)),
			PageCount:        pageCount,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
	}
	return files, nil
}

func (r *repo) validateUpload(u Upload) error {
	if strings.TrimSpace(Filename(u.Filename)) == "" {
		return fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}
	if len(u.Data) == 0 {
		return fmt.Errorf("%w: %s is empty", ErrInvalidInput, Filename(u.Filename))
	}
	if r.maxUploadSize > 0 && int64(len(u.Data)) > r.maxUploadSize {
		return fmt.Errorf("%w: %s", ErrFileTooLarge, Filename(u.Filename))
	}
	return nil
}

func (r *repo) storeBlobs(ctx context.Context, files []File, uploads []Upload) error {
	for i, f := range files {
		if err := r.blobs.Store(ctx, f.StorageKey, uploads[i].Data); err != nil {
			r.discardBlobs(files[:i])
			return fmt.Errorf("store file: %w", err)
		}
	}
	return nil
}

// discardBlobs deletes blobs whose rows are gone or were never committed.
// Failures are logged; the maintenance sweep collects what remains.
func (r *repo) discardBlobs(files []File) {
	ctx := context.Background()
	for _, f := range files {
		if err := r.blobs.Delete(ctx, f.StorageKey); err != nil {
			r.logger.Error("blob cleanup failed", "storage_key", f.StorageKey, "error", err)
		}
	}
}

func (r *repo) AddNote(ctx context.Context, documentID, author uuid.UUID, content string) (*Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: note content must not be blank", ErrInvalidInput)
	}

	now := r.timestamp()
	note := Note{
		ID:         uuid.New(),
		DocumentID: documentID,
		AuthorID:   author,
		Content:    content,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := r.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetDocument(ctx, documentID); err != nil {
			return err
		}
		return tx.InsertNote(ctx, &note)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("note added", "document", documentID, "note", note.ID)
	return &note, nil
}

func (r *repo) FindNote(ctx context.Context, documentID, noteID uuid.UUID) (*Note, error) {
	var note *Note
	err := r.store.InTx(ctx, func(tx Tx) error {
		var err error
		note, err = tx.GetNote(ctx, documentID, noteID)
		return err
	})
	return note, err
}

func (r *repo) UpdateNote(ctx context.Context, documentID, noteID uuid.UUID, content string) (*Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: note content must not be blank", ErrInvalidInput)
	}

	var note *Note
	err := r.store.InTx(ctx, func(tx Tx) error {
		var err error
		note, err = tx.GetNote(ctx, documentID, noteID)
		if err != nil {
			return err
		}
		note.Content = content
		note.UpdatedAt = r.timestamp()
		return tx.UpdateNote(ctx, note)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("note updated", "document", documentID, "note", noteID)
	return note, nil
}

// RemoveNote deletes the note if present. Removing an absent note is a no-op.
func (r *repo) RemoveNote(ctx context.Context, documentID, noteID uuid.UUID) error {
	err := r.store.InTx(ctx, func(tx Tx) error {
		return tx.DeleteNote(ctx, documentID, noteID)
	})
	if err != nil {
		return err
	}
	r.logger.Info("note removed", "document", documentID, "note", noteID)
	return nil
}

func (r *repo) ListNotes(ctx context.Context, documentID uuid.UUID, order Order) ([]Note, error) {
	var notes []Note
	err := r.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetDocument(ctx, documentID); err != nil {
			return err
		}
		var err error
		notes, err = tx.ListNotes(ctx, documentID, order)
		return err
	})
	return notes, err
}

func (r *repo) AddMetadata(ctx context.Context, documentID uuid.UUID, key, value string) (*Metadata, error) {
	var m *Metadata
	err := r.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetDocument(ctx, documentID); err != nil {
			return err
		}
		var err error
		m, err = r.upsertMetadata(ctx, tx, documentID, key, value)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("metadata set", "document", documentID, "key", m.Key)
	return m, nil
}

func (r *repo) upsertMetadata(ctx context.Context, tx Tx, documentID uuid.UUID, key, value string) (*Metadata, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: metadata key must not be blank", ErrInvalidInput)
	}

	now := r.timestamp()
	m := Metadata{
		ID:         uuid.New(),
		DocumentID: documentID,
		Key:        key,
		Value:      value,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tx.UpsertMetadata(ctx, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// RemoveMetadata deletes the entry for key if present.
func (r *repo) RemoveMetadata(ctx context.Context, documentID uuid.UUID, key string) error {
	key = strings.TrimSpace(key)
	err := r.store.InTx(ctx, func(tx Tx) error {
		return tx.DeleteMetadata(ctx, documentID, key)
	})
	if err != nil {
		return err
	}
	r.logger.Info("metadata removed", "document", documentID, "key", key)
	return nil
}

func (r *repo) ListMetadata(ctx context.Context, documentID uuid.UUID) ([]Metadata, error) {
	var entries []Metadata
	err := r.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetDocument(ctx, documentID); err != nil {
			return err
		}
		var err error
		entries, err = tx.ListMetadata(ctx, documentID)
		return err
	})
	return entries, err
}

func (r *repo) AddTagForUser(ctx context.Context, documentID uuid.UUID, name string, owner uuid.UUID, color string) (*DocumentTag, error) {
	var dt *DocumentTag
	err := r.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetDocument(ctx, documentID); err != nil {
			return err
		}
		var err error
		dt, err = r.addTag(ctx, tx, documentID, name, owner, color)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("tag added", "document", documentID, "tag", dt.Name, "owner", owner)
	return dt, nil
}

func (r *repo) addTag(ctx context.Context, tx Tx, documentID uuid.UUID, name string, owner uuid.UUID, color string) (*DocumentTag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: tag name must not be blank", ErrInvalidInput)
	}
	if color != "" && !ValidColor(color) {
		return nil, fmt.Errorf("%w: color must be #RRGGBB", ErrInvalidInput)
	}

	now := r.timestamp()
	tag := Tag{ID: uuid.New(), Name: name, CreatedAt: now, UpdatedAt: now}
	if err := tx.UpsertTag(ctx, &tag); err != nil {
		return nil, err
	}

	if color == "" {
		color = r.color()
	}

	dt := DocumentTag{
		ID:         uuid.New(),
		DocumentID: documentID,
		TagID:      tag.ID,
		Name:       tag.Name,
		OwnerID:    owner,
		Color:      color,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := tx.InsertDocumentTag(ctx, &dt); err != nil {
		return nil, err
	}
	return &dt, nil
}

// RemoveTagForUser is a no-op when the tag does not exist. The canonical
// tag is deleted once no document of any user references it.
func (r *repo) RemoveTagForUser(ctx context.Context, documentID uuid.UUID, name string, owner uuid.UUID) error {
	name = strings.TrimSpace(name)
	purged := false

	err := r.store.InTx(ctx, func(tx Tx) error {
		tag, err := tx.LockTag(ctx, name)
		if errors.Is(err, ErrTagNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := tx.DeleteDocumentTag(ctx, documentID, tag.ID, owner); err != nil {
			return err
		}

		refs, err := tx.CountTagReferences(ctx, tag.ID)
		if err != nil {
			return err
		}
		if refs == 0 {
			purged = true
			return tx.DeleteTag(ctx, tag.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("tag removed", "document", documentID, "tag", name, "owner", owner, "purged", purged)
	return nil
}

func (r *repo) ListTags(ctx context.Context, documentID uuid.UUID, owner *uuid.UUID) ([]DocumentTag, error) {
	var tags []DocumentTag
	err := r.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.GetDocument(ctx, documentID); err != nil {
			return err
		}
		var err error
		tags, err = tx.ListDocumentTags(ctx, documentID, owner)
		return err
	})
	return tags, err
}

// Merge processes sources in the given order inside one transaction. Files
// and notes are reassigned; tags and metadata are re-added to main so that a
// later source overwrites an earlier metadata value.
func (r *repo) Merge(ctx context.Context, mainID uuid.UUID, sourceIDs []uuid.UUID) error {
	sources := make([]uuid.UUID, 0, len(sourceIDs))
	for _, id := range sourceIDs {
		if id != mainID && !slices.Contains(sources, id) {
			sources = append(sources, id)
		}
	}
	if len(sources) == 0 {
		return nil
	}

	err := r.store.InTx(ctx, func(tx Tx) error {
		if err := lockInOrder(ctx, tx, append([]uuid.UUID{mainID}, sources...)); err != nil {
			return err
		}

		for _, src := range sources {
			if err := r.mergeOne(ctx, tx, mainID, src); err != nil {
				return fmt.Errorf("merge %s: %w", src, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("documents merged", "main", mainID, "sources", len(sources))
	return nil
}

// lockInOrder locks ids in byte order so that overlapping merges always
// acquire their row locks in the same sequence.
func lockInOrder(ctx context.Context, tx Tx, ids []uuid.UUID) error {
	sorted := slices.Clone(ids)
	slices.SortFunc(sorted, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	for _, id := range sorted {
		if _, err := tx.LockDocument(ctx, id); err != nil {
			return fmt.Errorf("lock %s: %w", id, err)
		}
	}
	return nil
}

// mergeOne expects main and source to be locked already.
func (r *repo) mergeOne(ctx context.Context, tx Tx, mainID, sourceID uuid.UUID) error {
	if err := tx.ReassignFiles(ctx, sourceID, mainID); err != nil {
		return fmt.Errorf("reassign files: %w", err)
	}
	if err := tx.ReassignNotes(ctx, sourceID, mainID); err != nil {
		return fmt.Errorf("reassign notes: %w", err)
	}

	tags, err := tx.ListDocumentTags(ctx, sourceID, nil)
	if err != nil {
		return fmt.Errorf("list tags: %w", err)
	}
	for _, t := range tags {
		if _, err := r.addTag(ctx, tx, mainID, t.Name, t.OwnerID, t.Color); err != nil {
			return fmt.Errorf("copy tag %s: %w", t.Name, err)
		}
	}

	entries, err := tx.ListMetadata(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("list metadata: %w", err)
	}
	for _, m := range entries {
		if _, err := r.upsertMetadata(ctx, tx, mainID, m.Key, m.Value); err != nil {
			return fmt.Errorf("copy metadata %s: %w", m.Key, err)
		}
	}

	return tx.DeleteDocument(ctx, sourceID)
}

func (r *repo) ReferencedKeys(ctx context.Context, keys []string) (map[string]bool, error) {
	return r.store.ReferencedKeys(ctx, keys)
}
