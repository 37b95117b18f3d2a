package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/vaultfs/filevault/pkg/filevault"
)

// Handler exposes the filevault service over HTTP.
type Handler struct {
	service filevault.Service
	logger  *slog.Logger
}

// NewHandler creates an API handler for the given service.
func NewHandler(service filevault.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes returns the router for all API endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/status", h.GetStatus)
	r.Get("/stats", h.GetStats)

	r.Post("/users", h.RegisterUser)
	r.Get("/connect", h.Connect)
	r.Get("/disconnect", h.Disconnect)

	r.Group(func(r chi.Router) {
		r.Use(h.requireUser)
		r.Get("/users/me", h.GetMe)
		r.Post("/files", h.CreateFile)
		r.Get("/files", h.ListFiles)
		r.Get("/files/{id}", h.GetFile)
		r.Put("/files/{id}/publish", h.Publish)
		r.Put("/files/{id}/unpublish", h.Unpublish)
	})

	// No session required: public entries are readable by anyone.
	r.Get("/files/{id}/data", h.GetFileData)

	return r
}

// GetStatus reports reachability of the backing stores.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, r, http.StatusOK, h.service.Health(r.Context()))
}

// GetStats reports user and file counts.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderJSON(w, r, http.StatusOK, stats)
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// RegisterUser creates a new account.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		renderErrorMessage(w, r, http.StatusBadRequest, "Bad Request")
		return
	}

	user, err := h.service.RegisterUser(r.Context(), filevault.RegisterUserRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	renderJSON(w, r, http.StatusCreated, userView{ID: user.ID.String(), Email: user.Email})
}

// Connect exchanges Basic credentials for a session token.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok {
		renderErrorMessage(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	token, err := h.service.Connect(r.Context(), email, password)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	renderJSON(w, r, http.StatusOK, map[string]string{"token": token})
}

// Disconnect revokes the session token.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(TokenHeader)
	if token == "" {
		renderErrorMessage(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.service.Disconnect(r.Context(), token); err != nil {
		h.renderError(w, r, err)
		return
	}

	render.NoContent(w, r)
}

// GetMe returns the authenticated user.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	renderJSON(w, r, http.StatusOK, userView{ID: user.ID.String(), Email: user.Email})
}
