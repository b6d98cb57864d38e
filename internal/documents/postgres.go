package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/document-manager/pkg/pagination"
	"github.com/JaimeStill/document-manager/pkg/repository"
)

type pgStore struct {
	db *sql.DB
}

// NewStore creates a Store backed by the Postgres schema in internal/migrations.
func NewStore(db *sql.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	_, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, fn(&pgTx{tx: tx})
	})
	return err
}

func (s *pgStore) ListDocuments(ctx context.Context, owner uuid.UUID, page pagination.PageRequest, filters Filters) ([]Summary, int, error) {
	qb := ListQuery(owner, page, filters)

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	docs, err := repository.QueryMany(ctx, s.db, pageSQL, pageArgs, scanSummary)
	if err != nil {
		return nil, 0, fmt.Errorf("query documents: %w", err)
	}

	if err := s.attachTags(ctx, owner, docs); err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

func (s *pgStore) attachTags(ctx context.Context, owner uuid.UUID, docs []Summary) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	index := make(map[uuid.UUID]int, len(docs))
	for i, d := range docs {
		ids[i] = d.ID.String()
		index[d.ID] = i
	}

	q := `SELECT dt.document_id, t.name, dt.color
		FROM public.document_tags dt
		JOIN public.tags t ON t.id = dt.tag_id
		WHERE dt.owner_id = $1 AND dt.document_id = ANY($2::uuid[])
		ORDER BY t.name`

	rows, err := s.db.QueryContext(ctx, q, owner, ids)
	if err != nil {
		return fmt.Errorf("query document tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var docID uuid.UUID
		var tag UserTag
		if err := rows.Scan(&docID, &tag.Name, &tag.Color); err != nil {
			return fmt.Errorf("scan document tag: %w", err)
		}
		if i, ok := index[docID]; ok {
			docs[i].Tags = append(docs[i].Tags, tag)
		}
	}
	return rows.Err()
}

func (s *pgStore) ReferencedKeys(ctx context.Context, keys []string) (map[string]bool, error) {
	found := make(map[string]bool)
	if len(keys) == 0 {
		return found, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT storage_key FROM public.document_files WHERE storage_key = ANY($1::text[])`, keys)
	if err != nil {
		return nil, fmt.Errorf("query storage keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		found[key] = true
	}
	return found, rows.Err()
}

type pgTx struct {
	tx *sql.Tx
}

func orderSQL(o Order) string {
	if o == NewestFirst {
		return "created_at DESC, id DESC"
	}
	return "created_at ASC, id ASC"
}

func (t *pgTx) GetDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	q := `SELECT ` + documentColumns + ` FROM public.documents WHERE id = $1`
	doc, err := repository.QueryOne(ctx, t.tx, q, []any{id}, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &doc, nil
}

func (t *pgTx) LockDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	q := `SELECT ` + documentColumns + ` FROM public.documents WHERE id = $1 FOR UPDATE`
	doc, err := repository.QueryOne(ctx, t.tx, q, []any{id}, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &doc, nil
}

func (t *pgTx) InsertDocument(ctx context.Context, doc *Document) error {
	q := `INSERT INTO public.documents (` + documentColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := t.tx.ExecContext(ctx, q,
		doc.ID, doc.OwnerID, doc.Title, doc.Description, doc.CreatedAt, doc.UpdatedAt)
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func (t *pgTx) UpdateDocument(ctx context.Context, doc *Document) error {
	q := `UPDATE public.documents SET title = $1, description = $2, updated_at = $3 WHERE id = $4`
	err := repository.ExecExpectOne(ctx, t.tx, q, doc.Title, doc.Description, doc.UpdatedAt, doc.ID)
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func (t *pgTx) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	children := []string{
		`DELETE FROM public.document_tags WHERE document_id = $1`,
		`DELETE FROM public.document_metadata WHERE document_id = $1`,
		`DELETE FROM public.document_notes WHERE document_id = $1`,
		`DELETE FROM public.document_files WHERE document_id = $1`,
	}
	for _, q := range children {
		if _, err := t.tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("delete document children: %w", err)
		}
	}

	err := repository.ExecExpectOne(ctx, t.tx, `DELETE FROM public.documents WHERE id = $1`, id)
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func (t *pgTx) InsertFiles(ctx context.Context, files []File) error {
	q := `INSERT INTO public.document_files (` + fileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	stmt, err := t.tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("prepare file insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range files {
		_, err := stmt.ExecContext(ctx,
			f.ID, f.DocumentID, f.StorageKey, f.OriginalFilename, f.Extension,
			f.ContentType, f.SizeBytes, f.PageCount, f.CreatedAt, f.UpdatedAt)
		if err != nil {
			return repository.MapError(err, ErrNotFound, ErrDuplicate)
		}
	}
	return nil
}

func (t *pgTx) GetFile(ctx context.Context, id uuid.UUID) (*File, error) {
	q := `SELECT ` + fileColumns + ` FROM public.document_files WHERE id = $1`
	f, err := repository.QueryOne(ctx, t.tx, q, []any{id}, scanFile)
	if err != nil {
		return nil, repository.MapError(err, ErrFileNotFound, ErrDuplicate)
	}
	return &f, nil
}

func (t *pgTx) CountFiles(ctx context.Context, documentID uuid.UUID) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM public.document_files WHERE document_id = $1`, documentID).Scan(&n)
	return n, err
}

func (t *pgTx) ListFiles(ctx context.Context, documentID uuid.UUID, order Order) ([]File, error) {
	q := `SELECT ` + fileColumns + ` FROM public.document_files
		WHERE document_id = $1 ORDER BY ` + orderSQL(order)
	return repository.QueryMany(ctx, t.tx, q, []any{documentID}, scanFile)
}

func (t *pgTx) DeleteFile(ctx context.Context, id uuid.UUID) error {
	err := repository.ExecExpectOne(ctx, t.tx, `DELETE FROM public.document_files WHERE id = $1`, id)
	return repository.MapError(err, ErrFileNotFound, ErrDuplicate)
}

func (t *pgTx) ReassignFiles(ctx context.Context, from, to uuid.UUID) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE public.document_files SET document_id = $1 WHERE document_id = $2`, to, from)
	return err
}

func (t *pgTx) InsertNote(ctx context.Context, note *Note) error {
	q := `INSERT INTO public.document_notes (` + noteColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := t.tx.ExecContext(ctx, q,
		note.ID, note.DocumentID, note.AuthorID, note.Content, note.CreatedAt, note.UpdatedAt)
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func (t *pgTx) GetNote(ctx context.Context, documentID, id uuid.UUID) (*Note, error) {
	q := `SELECT ` + noteColumns + ` FROM public.document_notes WHERE id = $1 AND document_id = $2`
	n, err := repository.QueryOne(ctx, t.tx, q, []any{id, documentID}, scanNote)
	if err != nil {
		return nil, repository.MapError(err, ErrNoteNotFound, ErrDuplicate)
	}
	return &n, nil
}

func (t *pgTx) UpdateNote(ctx context.Context, note *Note) error {
	q := `UPDATE public.document_notes SET content = $1, updated_at = $2 WHERE id = $3 AND document_id = $4`
	err := repository.ExecExpectOne(ctx, t.tx, q, note.Content, note.UpdatedAt, note.ID, note.DocumentID)
	return repository.MapError(err, ErrNoteNotFound, ErrDuplicate)
}

func (t *pgTx) DeleteNote(ctx context.Context, documentID, id uuid.UUID) error {
	_, err := t.tx.ExecContext(ctx,
		`DELETE FROM public.document_notes WHERE id = $1 AND document_id = $2`, id, documentID)
	return err
}

func (t *pgTx) ListNotes(ctx context.Context, documentID uuid.UUID, order Order) ([]Note, error) {
	q := `SELECT ` + noteColumns + ` FROM public.document_notes
		WHERE document_id = $1 ORDER BY ` + orderSQL(order)
	return repository.QueryMany(ctx, t.tx, q, []any{documentID}, scanNote)
}

func (t *pgTx) ReassignNotes(ctx context.Context, from, to uuid.UUID) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE public.document_notes SET document_id = $1 WHERE document_id = $2`, to, from)
	return err
}

func (t *pgTx) UpsertMetadata(ctx context.Context, m *Metadata) error {
	q := `INSERT INTO public.document_metadata (` + metadataColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (document_id, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
		RETURNING ` + metadataColumns

	stored, err := repository.QueryOne(ctx, t.tx, q,
		[]any{m.ID, m.DocumentID, m.Key, m.Value, m.CreatedAt, m.UpdatedAt}, scanMetadata)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	*m = stored
	return nil
}

func (t *pgTx) DeleteMetadata(ctx context.Context, documentID uuid.UUID, key string) error {
	_, err := t.tx.ExecContext(ctx,
		`DELETE FROM public.document_metadata WHERE document_id = $1 AND key = $2`, documentID, key)
	return err
}

func (t *pgTx) ListMetadata(ctx context.Context, documentID uuid.UUID) ([]Metadata, error) {
	q := `SELECT ` + metadataColumns + ` FROM public.document_metadata WHERE document_id = $1 ORDER BY key`
	return repository.QueryMany(ctx, t.tx, q, []any{documentID}, scanMetadata)
}

func (t *pgTx) UpsertTag(ctx context.Context, tag *Tag) error {
	q := `INSERT INTO public.tags (` + tagColumns + `) VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING ` + tagColumns

	stored, err := repository.QueryOne(ctx, t.tx, q,
		[]any{tag.ID, tag.Name, tag.CreatedAt, tag.UpdatedAt}, scanTag)
	if err != nil {
		return repository.MapError(err, ErrTagNotFound, ErrDuplicate)
	}
	*tag = stored
	return nil
}

func (t *pgTx) LockTag(ctx context.Context, name string) (*Tag, error) {
	q := `SELECT ` + tagColumns + ` FROM public.tags WHERE name = $1 FOR UPDATE`
	tag, err := repository.QueryOne(ctx, t.tx, q, []any{name}, scanTag)
	if err != nil {
		return nil, repository.MapError(err, ErrTagNotFound, ErrDuplicate)
	}
	return &tag, nil
}

func (t *pgTx) DeleteTag(ctx context.Context, id uuid.UUID) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM public.tags WHERE id = $1`, id)
	return err
}

func (t *pgTx) CountTagReferences(ctx context.Context, tagID uuid.UUID) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM public.document_tags WHERE tag_id = $1`, tagID).Scan(&n)
	return n, err
}

const documentTagSelect = `SELECT dt.id, dt.document_id, dt.tag_id, t.name, dt.owner_id, dt.color, dt.created_at, dt.updated_at
	FROM public.document_tags dt
	JOIN public.tags t ON t.id = dt.tag_id`

func (t *pgTx) InsertDocumentTag(ctx context.Context, dt *DocumentTag) (bool, error) {
	q := `INSERT INTO public.document_tags (id, document_id, tag_id, owner_id, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (document_id, tag_id, owner_id) DO NOTHING
		RETURNING id`

	var id uuid.UUID
	err := t.tx.QueryRowContext(ctx, q,
		dt.ID, dt.DocumentID, dt.TagID, dt.OwnerID, dt.Color, dt.CreatedAt, dt.UpdatedAt).Scan(&id)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	existing, err := repository.QueryOne(ctx, t.tx,
		documentTagSelect+` WHERE dt.document_id = $1 AND dt.tag_id = $2 AND dt.owner_id = $3`,
		[]any{dt.DocumentID, dt.TagID, dt.OwnerID}, scanDocumentTag)
	if err != nil {
		return false, fmt.Errorf("load existing document tag: %w", err)
	}
	*dt = existing
	return false, nil
}

func (t *pgTx) DeleteDocumentTag(ctx context.Context, documentID, tagID, owner uuid.UUID) error {
	_, err := t.tx.ExecContext(ctx,
		`DELETE FROM public.document_tags WHERE document_id = $1 AND tag_id = $2 AND owner_id = $3`,
		documentID, tagID, owner)
	return err
}

func (t *pgTx) ListDocumentTags(ctx context.Context, documentID uuid.UUID, owner *uuid.UUID) ([]DocumentTag, error) {
	if owner == nil {
		return repository.QueryMany(ctx, t.tx,
			documentTagSelect+` WHERE dt.document_id = $1 ORDER BY t.name, dt.owner_id`,
			[]any{documentID}, scanDocumentTag)
	}
	return repository.QueryMany(ctx, t.tx,
		documentTagSelect+` WHERE dt.document_id = $1 AND dt.owner_id = $2 ORDER BY t.name`,
		[]any{documentID, *owner}, scanDocumentTag)
}
