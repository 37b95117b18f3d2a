package api

import (
	"context"
	"net/http"

	"github.com/vaultfs/filevault/pkg/filevault"
)

// TokenHeader carries the session token on authenticated requests.
const TokenHeader = "X-Token"

type contextKey string

const userContextKey contextKey = "filevault.user"

// requireUser resolves the X-Token header to a user and stores it on the
// request context, or ends the request with 401.
func (h *Handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(TokenHeader)
		if token == "" {
			renderErrorMessage(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		user, err := h.service.UserForToken(r.Context(), token)
		if err != nil {
			h.renderError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFrom returns the authenticated user stored by requireUser.
func userFrom(ctx context.Context) *filevault.User {
	user, _ := ctx.Value(userContextKey).(*filevault.User)
	return user
}

// optionalRequester resolves the token if present; absent or invalid
// tokens yield the unauthenticated requester (Root). Used by the
// download path, where public entries need no session.
func (h *Handler) optionalRequester(r *http.Request) filevault.ID {
	token := r.Header.Get(TokenHeader)
	if token == "" {
		return filevault.Root
	}
	user, err := h.service.UserForToken(r.Context(), token)
	if err != nil {
		return filevault.Root
	}
	return user.ID
}
