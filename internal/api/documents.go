package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/perchapp/perch/internal/documents"
	"github.com/perchapp/perch/internal/knowledge"
)

const maxUploadBytes = 10 << 20 // 10 MiB per uploaded file

// DocumentService is the documents surface the handler needs.
type DocumentService interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) (knowledge.Document, error)
	IngestURL(ctx context.Context, pageURL string) (knowledge.Document, error)
	List(ctx context.Context, limit, offset int) ([]knowledge.Document, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

type documentHandler struct {
	svc    DocumentService
	logger *slog.Logger
}

// documentInfo is a document without its content, for listings.
type documentInfo struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType,omitempty"`
	SizeBytes   int64     `json:"sizeBytes"`
	CreatedAt   string    `json:"createdAt"`
}

func toDocumentInfo(d knowledge.Document) documentInfo {
	return documentInfo{
		ID:          d.ID,
		Name:        d.Name,
		ContentType: d.ContentType,
		SizeBytes:   d.SizeBytes,
		CreatedAt:   d.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// searchResult is one similarity hit.
type searchResult struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Content    string    `json:"content"`
	Similarity float64   `json:"similarity"`
}

func (h *documentHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_upload", "expected multipart form with a file field", h.logger)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "missing_file", "file field is required", h.logger)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "read_failed", "failed to read uploaded file", h.logger)
		return
	}

	doc, err := h.svc.Upload(r.Context(), header.Filename, data, header.Header.Get("Content-Type"))
	if isBadRequest(err, documents.ErrEmptyName, documents.ErrEmptyFile, documents.ErrUnsupportedType, knowledge.ErrEmptyContent) {
		WriteError(w, http.StatusBadRequest, "invalid_document", err.Error(), h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "upload_failed", "failed to upload document", h.logger)
		return
	}

	WriteJSON(w, http.StatusCreated, toDocumentInfo(doc))
}

type ingestURLRequest struct {
	URL string `json:"url"`
}

func (h *documentHandler) ingestURL(w http.ResponseWriter, r *http.Request) {
	var req ingestURLRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", err.Error(), h.logger)
		return
	}

	doc, err := h.svc.IngestURL(r.Context(), req.URL)
	if isBadRequest(err, documents.ErrInvalidURL, documents.ErrEmptyResult) {
		WriteError(w, http.StatusBadRequest, "invalid_url", err.Error(), h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusBadGateway, "fetch_failed", "failed to fetch page", h.logger)
		return
	}

	WriteJSON(w, http.StatusCreated, toDocumentInfo(doc))
}

func (h *documentHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", defaultPageLimit, maxPageLimit)
	offset := parseIntParam(r, "offset", 0, 1<<30)

	docs, total, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "list_failed", "failed to list documents", h.logger)
		return
	}

	infos := make([]documentInfo, 0, len(docs))
	for _, d := range docs {
		infos = append(infos, toDocumentInfo(d))
	}

	WriteJSON(w, http.StatusOK, newListResponse(infos, total))
}

func (h *documentHandler) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		WriteError(w, http.StatusBadRequest, "empty_query", "q parameter is required", h.logger)
		return
	}
	k := parseIntParam(r, "k", knowledge.DefaultTopK, knowledge.MaxTopK)

	results, err := h.svc.Search(r.Context(), query, knowledge.WithTopK(k))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "search_failed", "failed to search documents", h.logger)
		return
	}

	hits := make([]searchResult, 0, len(results))
	for _, res := range results {
		hits = append(hits, searchResult{
			ID:         res.Document.ID,
			Name:       res.Document.Name,
			Content:    res.Document.Content,
			Similarity: res.Similarity,
		})
	}

	WriteJSON(w, http.StatusOK, newListResponse(hits, len(hits)))
}

func (h *documentHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error(), h.logger)
		return
	}

	err = h.svc.Delete(r.Context(), id)
	if errors.Is(err, knowledge.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", "document not found", h.logger)
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "delete_failed", "failed to delete document", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
