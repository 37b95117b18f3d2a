package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/vaultfs/filevault/pkg/filevault"
)

// FileView is the client representation of a file entry. Storage paths
// are never exposed; the root parent renders as "0".
type FileView struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsPublic bool   `json:"isPublic"`
	ParentID string `json:"parentId"`
}

func newFileView(entry *filevault.FileEntry) FileView {
	return FileView{
		ID:       entry.ID.String(),
		UserID:   entry.OwnerID.String(),
		Name:     entry.Name,
		Type:     string(entry.Kind),
		IsPublic: entry.Public,
		ParentID: entry.ParentID.String(),
	}
}

func newFileViews(entries []*filevault.FileEntry) []FileView {
	views := make([]FileView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, newFileView(entry))
	}
	return views
}

type errorResponse struct {
	Error string `json:"error"`
}

func renderJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func renderErrorMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	renderJSON(w, r, status, errorResponse{Error: msg})
}

// renderError maps the error taxonomy onto HTTP outcomes. "Exists but
// forbidden" intentionally renders the same 404 as "does not exist".
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, filevault.ErrUnauthorized):
		renderErrorMessage(w, r, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, filevault.ErrUserExists):
		renderErrorMessage(w, r, http.StatusBadRequest, "Already exist")
	case errors.Is(err, filevault.ErrParentNotFound):
		renderErrorMessage(w, r, http.StatusBadRequest, "Parent not found")
	case errors.Is(err, filevault.ErrParentNotFolder):
		renderErrorMessage(w, r, http.StatusBadRequest, "Parent is not a folder")
	case errors.Is(err, filevault.ErrFolderNoContent):
		renderErrorMessage(w, r, http.StatusBadRequest, "A folder doesn't have content")
	case errors.Is(err, filevault.ErrEntryNotFound), errors.Is(err, filevault.ErrVariantNotFound):
		renderErrorMessage(w, r, http.StatusNotFound, "Not found")
	case filevault.IsValidation(err):
		renderErrorMessage(w, r, http.StatusBadRequest, validationMessage(err))
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		renderErrorMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}

func validationMessage(err error) string {
	var ve *filevault.ValidationError
	if !errors.As(err, &ve) {
		return "Bad Request"
	}
	if ve.Reason == "missing" {
		switch ve.Field {
		case "name":
			return "Missing name"
		case "type":
			return "Missing type"
		case "data":
			return "Missing data"
		case "email":
			return "Missing email"
		case "password":
			return "Missing password"
		}
	}
	if ve.Field == "type" {
		return "Missing type"
	}
	return "Invalid " + ve.Field
}
