package documents_test

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/JaimeStill/document-manager/internal/documents"
	"github.com/JaimeStill/document-manager/pkg/pagination"
)

type memData struct {
	docs    map[uuid.UUID]documents.Document
	files   map[uuid.UUID]documents.File
	notes   map[uuid.UUID]documents.Note
	meta    map[uuid.UUID]documents.Metadata
	tags    map[uuid.UUID]documents.Tag
	docTags map[uuid.UUID]documents.DocumentTag
}

func (d *memData) clone() *memData {
	return &memData{
		docs:    maps.Clone(d.docs),
		files:   maps.Clone(d.files),
		notes:   maps.Clone(d.notes),
		meta:    maps.Clone(d.meta),
		tags:    maps.Clone(d.tags),
		docTags: maps.Clone(d.docTags),
	}
}

// memStore is a transactional in-memory Store. Transactions run serially on
// a copy of the data that replaces the committed state only on success.
type memStore struct {
	mu   sync.Mutex
	data *memData

	failInsertFiles error
	// locked records LockDocument calls of committed and failed transactions.
	locked []uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{data: &memData{
		docs:    map[uuid.UUID]documents.Document{},
		files:   map[uuid.UUID]documents.File{},
		notes:   map[uuid.UUID]documents.Note{},
		meta:    map[uuid.UUID]documents.Metadata{},
		tags:    map[uuid.UUID]documents.Tag{},
		docTags: map[uuid.UUID]documents.DocumentTag{},
	}}
}

func (s *memStore) InTx(ctx context.Context, fn func(tx documents.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(&memTx{d: work, s: s}); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *memStore) ListDocuments(ctx context.Context, owner uuid.UUID, page pagination.PageRequest, filters documents.Filters) ([]documents.Summary, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.data

	var matched []documents.Document
	for _, doc := range d.docs {
		if doc.OwnerID != owner {
			continue
		}
		if filters.MetadataKey != nil && !hasMetadata(d, doc.ID, *filters.MetadataKey) {
			continue
		}
		if filters.Tag != nil && !hasTag(d, doc.ID, *filters.Tag, &owner, false) {
			continue
		}
		if page.Search != nil && *page.Search != "" {
			q := strings.ToLower(*page.Search)
			if !strings.Contains(strings.ToLower(doc.Title), q) &&
				!strings.Contains(strings.ToLower(doc.Description), q) &&
				!hasTag(d, doc.ID, q, nil, true) {
				continue
			}
		}
		matched = append(matched, doc)
	}

	slices.SortFunc(matched, func(a, b documents.Document) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(b.ID[:], a.ID[:])
	})

	total := len(matched)
	start := min((page.Page-1)*page.PageSize, total)
	end := min(start+page.PageSize, total)

	out := make([]documents.Summary, 0, end-start)
	for _, doc := range matched[start:end] {
		sum := documents.Summary{Document: doc, Tags: []documents.UserTag{}}
		for _, f := range d.files {
			if f.DocumentID == doc.ID {
				sum.FilesCount++
			}
		}
		for _, dt := range sortedDocTags(d, doc.ID, &owner) {
			sum.Tags = append(sum.Tags, documents.UserTag{Name: dt.Name, Color: dt.Color})
		}
		out = append(out, sum)
	}
	return out, total, nil
}

func (s *memStore) ReferencedKeys(ctx context.Context, keys []string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := map[string]bool{}
	for _, f := range s.data.files {
		if slices.Contains(keys, f.StorageKey) {
			found[f.StorageKey] = true
		}
	}
	return found, nil
}

func (s *memStore) documentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.docs)
}

func (s *memStore) tagNamed(name string) (documents.Tag, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.data.tags {
		if t.Name == name {
			return t, true
		}
	}
	return documents.Tag{}, false
}

func (s *memStore) childCount(documentID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, f := range s.data.files {
		if f.DocumentID == documentID {
			n++
		}
	}
	for _, x := range s.data.notes {
		if x.DocumentID == documentID {
			n++
		}
	}
	for _, x := range s.data.meta {
		if x.DocumentID == documentID {
			n++
		}
	}
	for _, x := range s.data.docTags {
		if x.DocumentID == documentID {
			n++
		}
	}
	return n
}

func hasMetadata(d *memData, documentID uuid.UUID, key string) bool {
	for _, m := range d.meta {
		if m.DocumentID == documentID && m.Key == key {
			return true
		}
	}
	return false
}

func hasTag(d *memData, documentID uuid.UUID, name string, owner *uuid.UUID, contains bool) bool {
	for _, dt := range d.docTags {
		if dt.DocumentID != documentID || (owner != nil && dt.OwnerID != *owner) {
			continue
		}
		tagName := d.tags[dt.TagID].Name
		if contains && strings.Contains(strings.ToLower(tagName), name) {
			return true
		}
		if !contains && tagName == name {
			return true
		}
	}
	return false
}

func sortedDocTags(d *memData, documentID uuid.UUID, owner *uuid.UUID) []documents.DocumentTag {
	var out []documents.DocumentTag
	for _, dt := range d.docTags {
		if dt.DocumentID != documentID || (owner != nil && dt.OwnerID != *owner) {
			continue
		}
		dt.Name = d.tags[dt.TagID].Name
		out = append(out, dt)
	}
	slices.SortFunc(out, func(a, b documents.DocumentTag) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.OwnerID.String(), b.OwnerID.String()))
	})
	return out
}

type memTx struct {
	d *memData
	s *memStore
}

func (t *memTx) GetDocument(ctx context.Context, id uuid.UUID) (*documents.Document, error) {
	doc, ok := t.d.docs[id]
	if !ok {
		return nil, documents.ErrNotFound
	}
	return &doc, nil
}

func (t *memTx) LockDocument(ctx context.Context, id uuid.UUID) (*documents.Document, error) {
	t.s.locked = append(t.s.locked, id)
	return t.GetDocument(ctx, id)
}

func (t *memTx) InsertDocument(ctx context.Context, doc *documents.Document) error {
	if _, ok := t.d.docs[doc.ID]; ok {
		return documents.ErrDuplicate
	}
	t.d.docs[doc.ID] = *doc
	return nil
}

func (t *memTx) UpdateDocument(ctx context.Context, doc *documents.Document) error {
	if _, ok := t.d.docs[doc.ID]; !ok {
		return documents.ErrNotFound
	}
	t.d.docs[doc.ID] = *doc
	return nil
}

func (t *memTx) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	if _, ok := t.d.docs[id]; !ok {
		return documents.ErrNotFound
	}
	maps.DeleteFunc(t.d.docTags, func(_ uuid.UUID, v documents.DocumentTag) bool { return v.DocumentID == id })
	maps.DeleteFunc(t.d.meta, func(_ uuid.UUID, v documents.Metadata) bool { return v.DocumentID == id })
	maps.DeleteFunc(t.d.notes, func(_ uuid.UUID, v documents.Note) bool { return v.DocumentID == id })
	maps.DeleteFunc(t.d.files, func(_ uuid.UUID, v documents.File) bool { return v.DocumentID == id })
	delete(t.d.docs, id)
	return nil
}

func (t *memTx) InsertFiles(ctx context.Context, files []documents.File) error {
	if t.s.failInsertFiles != nil {
		return t.s.failInsertFiles
	}
	for _, f := range files {
		if _, ok := t.d.docs[f.DocumentID]; !ok {
			return documents.ErrNotFound
		}
		for _, existing := range t.d.files {
			if existing.StorageKey == f.StorageKey {
				return documents.ErrDuplicate
			}
		}
		t.d.files[f.ID] = f
	}
	return nil
}

func (t *memTx) GetFile(ctx context.Context, id uuid.UUID) (*documents.File, error) {
	f, ok := t.d.files[id]
	if !ok {
		return nil, documents.ErrFileNotFound
	}
	return &f, nil
}

func (t *memTx) CountFiles(ctx context.Context, documentID uuid.UUID) (int, error) {
	n := 0
	for _, f := range t.d.files {
		if f.DocumentID == documentID {
			n++
		}
	}
	return n, nil
}

func chronological[T any](items []T, created func(T) int64, id func(T) string, order documents.Order) {
	slices.SortFunc(items, func(a, b T) int {
		c := cmp.Or(cmp.Compare(created(a), created(b)), strings.Compare(id(a), id(b)))
		if order == documents.NewestFirst {
			return -c
		}
		return c
	})
}

func (t *memTx) ListFiles(ctx context.Context, documentID uuid.UUID, order documents.Order) ([]documents.File, error) {
	out := []documents.File{}
	for _, f := range t.d.files {
		if f.DocumentID == documentID {
			out = append(out, f)
		}
	}
	chronological(out,
		func(f documents.File) int64 { return f.CreatedAt.UnixNano() },
		func(f documents.File) string { return f.ID.String() },
		order)
	return out, nil
}

func (t *memTx) DeleteFile(ctx context.Context, id uuid.UUID) error {
	if _, ok := t.d.files[id]; !ok {
		return documents.ErrFileNotFound
	}
	delete(t.d.files, id)
	return nil
}

func (t *memTx) ReassignFiles(ctx context.Context, from, to uuid.UUID) error {
	for id, f := range t.d.files {
		if f.DocumentID == from {
			f.DocumentID = to
			t.d.files[id] = f
		}
	}
	return nil
}

func (t *memTx) InsertNote(ctx context.Context, note *documents.Note) error {
	if _, ok := t.d.docs[note.DocumentID]; !ok {
		return documents.ErrNotFound
	}
	t.d.notes[note.ID] = *note
	return nil
}

func (t *memTx) GetNote(ctx context.Context, documentID, id uuid.UUID) (*documents.Note, error) {
	n, ok := t.d.notes[id]
	if !ok || n.DocumentID != documentID {
		return nil, documents.ErrNoteNotFound
	}
	return &n, nil
}

func (t *memTx) UpdateNote(ctx context.Context, note *documents.Note) error {
	if _, err := t.GetNote(ctx, note.DocumentID, note.ID); err != nil {
		return err
	}
	t.d.notes[note.ID] = *note
	return nil
}

func (t *memTx) DeleteNote(ctx context.Context, documentID, id uuid.UUID) error {
	if n, ok := t.d.notes[id]; ok && n.DocumentID == documentID {
		delete(t.d.notes, id)
	}
	return nil
}

func (t *memTx) ListNotes(ctx context.Context, documentID uuid.UUID, order documents.Order) ([]documents.Note, error) {
	out := []documents.Note{}
	for _, n := range t.d.notes {
		if n.DocumentID == documentID {
			out = append(out, n)
		}
	}
	chronological(out,
		func(n documents.Note) int64 { return n.CreatedAt.UnixNano() },
		func(n documents.Note) string { return n.ID.String() },
		order)
	return out, nil
}

func (t *memTx) ReassignNotes(ctx context.Context, from, to uuid.UUID) error {
	for id, n := range t.d.notes {
		if n.DocumentID == from {
			n.DocumentID = to
			t.d.notes[id] = n
		}
	}
	return nil
}

func (t *memTx) UpsertMetadata(ctx context.Context, m *documents.Metadata) error {
	if _, ok := t.d.docs[m.DocumentID]; !ok {
		return documents.ErrNotFound
	}
	for id, existing := range t.d.meta {
		if existing.DocumentID == m.DocumentID && existing.Key == m.Key {
			existing.Value = m.Value
			existing.UpdatedAt = m.UpdatedAt
			t.d.meta[id] = existing
			*m = existing
			return nil
		}
	}
	t.d.meta[m.ID] = *m
	return nil
}

func (t *memTx) DeleteMetadata(ctx context.Context, documentID uuid.UUID, key string) error {
	maps.DeleteFunc(t.d.meta, func(_ uuid.UUID, v documents.Metadata) bool {
		return v.DocumentID == documentID && v.Key == key
	})
	return nil
}

func (t *memTx) ListMetadata(ctx context.Context, documentID uuid.UUID) ([]documents.Metadata, error) {
	out := []documents.Metadata{}
	for _, m := range t.d.meta {
		if m.DocumentID == documentID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b documents.Metadata) int { return strings.Compare(a.Key, b.Key) })
	return out, nil
}

func (t *memTx) UpsertTag(ctx context.Context, tag *documents.Tag) error {
	for _, existing := range t.d.tags {
		if existing.Name == tag.Name {
			*tag = existing
			return nil
		}
	}
	t.d.tags[tag.ID] = *tag
	return nil
}

func (t *memTx) LockTag(ctx context.Context, name string) (*documents.Tag, error) {
	for _, existing := range t.d.tags {
		if existing.Name == name {
			return &existing, nil
		}
	}
	return nil, documents.ErrTagNotFound
}

func (t *memTx) DeleteTag(ctx context.Context, id uuid.UUID) error {
	delete(t.d.tags, id)
	return nil
}

func (t *memTx) CountTagReferences(ctx context.Context, tagID uuid.UUID) (int, error) {
	n := 0
	for _, dt := range t.d.docTags {
		if dt.TagID == tagID {
			n++
		}
	}
	return n, nil
}

func (t *memTx) InsertDocumentTag(ctx context.Context, dt *documents.DocumentTag) (bool, error) {
	if _, ok := t.d.docs[dt.DocumentID]; !ok {
		return false, documents.ErrNotFound
	}
	if _, ok := t.d.tags[dt.TagID]; !ok {
		return false, errors.New("tag row missing")
	}
	for _, existing := range t.d.docTags {
		if existing.DocumentID == dt.DocumentID && existing.TagID == dt.TagID && existing.OwnerID == dt.OwnerID {
			existing.Name = t.d.tags[existing.TagID].Name
			*dt = existing
			return false, nil
		}
	}
	t.d.docTags[dt.ID] = *dt
	return true, nil
}

func (t *memTx) DeleteDocumentTag(ctx context.Context, documentID, tagID, owner uuid.UUID) error {
	maps.DeleteFunc(t.d.docTags, func(_ uuid.UUID, v documents.DocumentTag) bool {
		return v.DocumentID == documentID && v.TagID == tagID && v.OwnerID == owner
	})
	return nil
}

func (t *memTx) ListDocumentTags(ctx context.Context, documentID uuid.UUID, owner *uuid.UUID) ([]documents.DocumentTag, error) {
	out := sortedDocTags(t.d, documentID, owner)
	if out == nil {
		out = []documents.DocumentTag{}
	}
	return out, nil
}
