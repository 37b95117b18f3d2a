package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vaultfs/filevault/pkg/filevault"
)

// CreateFileRequest is the upload request body. ParentID accepts an
// entry id or 0 for root; Data carries base64 content and is required
// unless Type is folder.
type CreateFileRequest struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	ParentID json.RawMessage `json:"parentId"`
	IsPublic bool            `json:"isPublic"`
	Data     string          `json:"data"`
}

// CreateFile runs the upload pipeline for the authenticated user.
func (h *Handler) CreateFile(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var req CreateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		renderErrorMessage(w, r, http.StatusBadRequest, "Bad Request")
		return
	}

	parentID, err := parseParentID(req.ParentID)
	if err != nil {
		renderErrorMessage(w, r, http.StatusBadRequest, "Parent not found")
		return
	}

	entry, err := h.service.CreateEntry(r.Context(), filevault.CreateEntryRequest{
		OwnerID:  user.ID,
		Name:     req.Name,
		Kind:     filevault.EntryKind(req.Type),
		ParentID: parentID,
		Public:   req.IsPublic,
		Data:     req.Data,
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.logger.Info("file created", "entry_id", entry.ID, "kind", entry.Kind, "owner_id", user.ID)
	renderJSON(w, r, http.StatusCreated, newFileView(entry))
}

// GetFile returns one of the authenticated user's entries.
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	id, err := filevault.ParseID(chi.URLParam(r, "id"))
	if err != nil || id.IsRoot() {
		renderErrorMessage(w, r, http.StatusNotFound, "Not found")
		return
	}

	entry, err := h.service.GetEntry(r.Context(), user.ID, id)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	renderJSON(w, r, http.StatusOK, newFileView(entry))
}

// ListFiles returns a page of the user's entries under parentId.
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	parentID, err := filevault.ParseID(r.URL.Query().Get("parentId"))
	if err != nil {
		renderErrorMessage(w, r, http.StatusBadRequest, "Invalid parentId")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	entries, err := h.service.ListEntries(r.Context(), filevault.ListEntriesRequest{
		OwnerID:  user.ID,
		ParentID: parentID,
		Page:     page,
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	renderJSON(w, r, http.StatusOK, newFileViews(entries))
}

// Publish makes an entry public.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	h.setVisibility(w, r, true)
}

// Unpublish makes an entry owner-only.
func (h *Handler) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.setVisibility(w, r, false)
}

func (h *Handler) setVisibility(w http.ResponseWriter, r *http.Request, public bool) {
	user := userFrom(r.Context())

	id, err := filevault.ParseID(chi.URLParam(r, "id"))
	if err != nil || id.IsRoot() {
		renderErrorMessage(w, r, http.StatusNotFound, "Not found")
		return
	}

	entry, err := h.service.SetVisibility(r.Context(), user.ID, id, public)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	renderJSON(w, r, http.StatusOK, newFileView(entry))
}

// GetFileData streams an entry's content, or a thumbnail variant when
// size is given. Public entries need no token.
func (h *Handler) GetFileData(w http.ResponseWriter, r *http.Request) {
	id, err := filevault.ParseID(chi.URLParam(r, "id"))
	if err != nil || id.IsRoot() {
		renderErrorMessage(w, r, http.StatusNotFound, "Not found")
		return
	}

	width := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		width, err = strconv.Atoi(raw)
		if err != nil {
			renderErrorMessage(w, r, http.StatusNotFound, "Not found")
			return
		}
	}

	rc, entry, err := h.service.Download(r.Context(), filevault.DownloadRequest{
		ID:          id,
		RequesterID: h.optionalRequester(r),
		Width:       width,
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentTypeFor(entry.Name))
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Error("failed to stream file data", "entry_id", entry.ID, "error", err)
	}
}

func contentTypeFor(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// parseParentID accepts the JSON forms 0, "0", "" and "<uuid>".
func parseParentID(raw json.RawMessage) (filevault.ID, error) {
	if len(raw) == 0 {
		return filevault.Root, nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return filevault.ParseID(asString)
	}

	var asNumber int64
	if err := json.Unmarshal(raw, &asNumber); err == nil && asNumber == 0 {
		return filevault.Root, nil
	}

	return filevault.Root, filevault.ErrInvalidID
}
