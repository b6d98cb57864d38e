package documents

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/document-manager/internal/auth"
	"github.com/JaimeStill/document-manager/pkg/decode"
	"github.com/JaimeStill/document-manager/pkg/handlers"
	"github.com/JaimeStill/document-manager/pkg/pagination"
	"github.com/JaimeStill/document-manager/pkg/routes"
)

const (
	maxFilesPerRequest = 20
	maxJSONBody        = 1 << 20
	multipartMemory    = 32 << 20
)

// Handler provides HTTP endpoints for document operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// NewHandler creates a document handler with the specified configuration.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "documents"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the document endpoint route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/documents",
		Description: "Documents and their files, notes, metadata, and tags",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "POST", Pattern: "/upload-multiple", Handler: h.CreateMultiple},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "PATCH", Pattern: "/{id}", Handler: h.Update},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
			{Method: "POST", Pattern: "/{id}/merge", Handler: h.Merge},
		},
		Children: []routes.Group{
			{
				Prefix: "/{id}/files",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "", Handler: h.AddFiles},
					{Method: "GET", Pattern: "/latest", Handler: h.LatestFile},
					{Method: "GET", Pattern: "/{file_id}/content", Handler: h.FileContent},
					{Method: "DELETE", Pattern: "/{file_id}", Handler: h.RemoveFile},
				},
			},
			{
				Prefix: "/{id}/notes",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: h.ListNotes},
					{Method: "POST", Pattern: "", Handler: h.AddNote},
					{Method: "PATCH", Pattern: "/{note_id}", Handler: h.UpdateNote},
					{Method: "DELETE", Pattern: "/{note_id}", Handler: h.RemoveNote},
				},
			},
			{
				Prefix: "/{id}/metadata",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: h.ListMetadata},
					{Method: "PUT", Pattern: "", Handler: h.SetMetadata},
					{Method: "DELETE", Pattern: "/{key}", Handler: h.RemoveMetadata},
				},
			},
			{
				Prefix: "/{id}/tags",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "", Handler: h.AddTag},
					{Method: "DELETE", Pattern: "/{name}", Handler: h.RemoveTag},
				},
			},
		},
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, handlers.ErrBadPayload) {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, auth.ErrMissingToken)
	}
	return user, ok
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s is not a valid id", ErrInvalidInput, name)
	}
	return id, nil
}

// owned resolves the {id} path value to a document owned by the caller.
func (h *Handler) owned(w http.ResponseWriter, r *http.Request) (*Document, uuid.UUID, bool) {
	user, ok := h.caller(w, r)
	if !ok {
		return nil, uuid.Nil, false
	}

	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, err)
		return nil, uuid.Nil, false
	}

	doc, err := h.sys.Owned(r.Context(), user, id)
	if err != nil {
		h.fail(w, err)
		return nil, uuid.Nil, false
	}
	return doc, user, true
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), user, page, filters)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}

	detail, err := h.sys.Find(r.Context(), user, id)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, detail)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	uploads, err := h.readUploads(w, r, "file", 1)
	if err != nil {
		h.fail(w, err)
		return
	}

	cmd := CreateCommand{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}

	detail, err := h.sys.CreateFromFile(r.Context(), user, uploads[0], cmd)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, detail)
}

func (h *Handler) CreateMultiple(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	uploads, err := h.readUploads(w, r, "files", maxFilesPerRequest)
	if err != nil {
		h.fail(w, err)
		return
	}

	cmd := CreateCommand{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}

	detail, err := h.sys.CreateFromFiles(r.Context(), user, uploads, cmd)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, detail)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}

	var body map[string]any
	if err := handlers.DecodeJSON(r, maxJSONBody, &body); err != nil {
		h.fail(w, err)
		return
	}
	if err := decode.Forbid(body, "file", "files"); err != nil {
		h.fail(w, fmt.Errorf("%w: %v", ErrInvalidInput, err))
		return
	}

	cmd, err := decode.FromMap[UpdateCommand](body)
	if err != nil {
		h.fail(w, fmt.Errorf("%w: %v", ErrInvalidInput, err))
		return
	}

	doc, err := h.sys.Update(r.Context(), user, id, cmd)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, err)
		return
	}

	if err := h.sys.Delete(r.Context(), user, id); err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondNoContent(w)
}

func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	doc, user, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req MergeRequest
	if err := handlers.DecodeJSON(r, maxJSONBody, &req); err != nil {
		h.fail(w, err)
		return
	}
	if err := req.validate(); err != nil {
		h.fail(w, err)
		return
	}

	for _, src := range req.SourceDocumentIDs {
		if _, err := h.sys.Owned(r.Context(), user, src); err != nil {
			if errors.Is(err, ErrNotFound) {
				h.fail(w, fmt.Errorf("%w: document %s is not available for merge", ErrInvalidInput, src))
				return
			}
			h.fail(w, err)
			return
		}
	}

	if err := h.sys.Merge(r.Context(), doc.ID, req.SourceDocumentIDs); err != nil {
		h.fail(w, err)
		return
	}

	detail, err := h.sys.Find(r.Context(), user, doc.ID)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, detail)
}

func (h *Handler) AddFiles(w http.ResponseWriter, r *http.Request) {
	doc, _, ok := h.owned(w, r)
	if !ok {
		return
	}

	uploads, err := h.readUploads(w, r, "files", maxFilesPerRequest)
	if err != nil {
		h.fail(w, err)
		return
	}

	files, err := h.sys.AddFiles(r.Context(), doc.ID, uploads)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, files)
}

func (h *Handler) LatestFile(w http.ResponseWriter, r *http.Request) {
	doc, _, ok := h.owned(w, r)
	if !ok {
		return
	}

	file, err := h.sys.LatestFile(r.Context(), doc.ID)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, file)
}

func (h *Handler) FileContent(w http.ResponseWriter, r *http.Request) {
	doc, _, ok := h.owned(w, r)
	if !ok {
		return
	}

	fileID, err := pathID(r, "file_id")
	if err != nil {
		h.fail(w, err)
		return
	}

	file, data, err := h.sys.FileContent(r.Context(), doc.ID, fileID)
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": file.OriginalFilename}))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) RemoveFile(w http.ResponseWriter, r *http.Request) {
	doc, _, ok := h.owned(w, r)
	if !ok {
		return
	}

	fileID, err := pathID(r, "file_id")
	if err != nil {
		h.fail(w, err)
		return
	}

	if err := h.sys.RemoveFile(r.Context(), doc.ID, fileID); err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondNoContent(w)
}

func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	doc, _, ok := h.owned(w, r)
	if !ok {
		return
	}

	order := NewestFirst
	if r.URL.Query().Get("order") == "oldest" {
		order = OldestFirst
	}

	notes, err := h.sys.ListNotes(r.Context(), doc.ID, order)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, notes)
}

func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	doc, user, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req NoteRequest
	if err := handlers.DecodeJSON(r, maxJSONBody, &req); err != nil {
		h.fail(w, err)
		return
	}

	note, err := h.sys.AddNote(r.Context(), doc.ID, user, req.Content)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, note)
}

// authoredNote resolves {note_id} and requires the caller to be its author.
func (h *Handler) authoredNote(w http.ResponseWriter, r *http.Request) (*Note, bool) {
	doc, user, ok := h.owned(w, r)
	if !ok {
		return nil, false
	}

	noteID, err := pathID(r, "note_id")
	if err != nil {
		h.fail(w, err)
		return nil, false
	}

	note, err := h.sys.FindNote(r.Context(), doc.ID, noteID)
	if err != nil {
		h.fail(w, err)
		return nil, false
	}
	if note.AuthorID != user {
		h.fail(w, fmt.Errorf("%w: only the author may change a note", ErrInvalidOwnership))
		return nil, false
	}
	return note, true
}

func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	note, ok := h.authoredNote(w, r)
	if !ok {
		return
	}

	var req NoteRequest
	if err := handlers.DecodeJSON(r, maxJSONBody, &req); err != nil {
		h.fail(w, err)
		return
	}

	updated, err := h.sys.UpdateNote(r.Context(), note.DocumentID, note.ID, req.Content)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, updated)
}

func (h *Handler) RemoveNote(w http.ResponseWriter, r *http.Request) {
	note, ok := h.authoredNote(w, r)
	if !ok {
		return
	}

	if err := h.sys.RemoveNote(r.Context(), note.DocumentID, note.ID); err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondNoContent(w)
}

func (h *Handler) ListMetadata(w http.ResponseWriter, r *http.Request) {
	doc, _, ok := h.owned(w, r)
	if !ok {
		return
	}

	entries, err := h.sys.ListMetadata(r.Context(), doc.ID)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, entries)
}

func (h *Handler) SetMetadata(w http.ResponseWriter, r *http.Request) {
	doc, _, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req MetadataRequest
	if err := handlers.DecodeJSON(r, maxJSONBody, &req); err != nil {
		h.fail(w, err)
		return
	}
	if err := req.validate(); err != nil {
		h.fail(w, err)
		return
	}

	m, err := h.sys.AddMetadata(r.Context(), doc.ID, req.Key, req.Value)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, m)
}

func (h *Handler) RemoveMetadata(w http.ResponseWriter, r *http.Request) {
	doc, _, ok := h.owned(w, r)
	if !ok {
		return
	}

	if err := h.sys.RemoveMetadata(r.Context(), doc.ID, r.PathValue("key")); err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondNoContent(w)
}

func (h *Handler) AddTag(w http.ResponseWriter, r *http.Request) {
	doc, user, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req TagRequest
	if err := handlers.DecodeJSON(r, maxJSONBody, &req); err != nil {
		h.fail(w, err)
		return
	}
	if err := req.validate(); err != nil {
		h.fail(w, err)
		return
	}

	tag, err := h.sys.AddTagForUser(r.Context(), doc.ID, req.Name, user, req.Color)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, tag)
}

func (h *Handler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	doc, user, ok := h.owned(w, r)
	if !ok {
		return
	}

	if err := h.sys.RemoveTagForUser(r.Context(), doc.ID, r.PathValue("name"), user); err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondNoContent(w)
}

// readUploads parses a multipart body and reads up to limit files from field.
func (h *Handler) readUploads(w http.ResponseWriter, r *http.Request, field string, limit int) ([]Upload, error) {
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize*int64(limit)+multipartMemory)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrFileTooLarge
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	if len(headers) > limit {
		return nil, fmt.Errorf("%w: at most %d files per request", ErrInvalidInput, limit)
	}

	uploads := make([]Upload, 0, len(headers))
	for _, fh := range headers {
		if h.maxUploadSize > 0 && fh.Size > h.maxUploadSize {
			return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, fh.Filename)
		}
		data, err := readPart(fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}
