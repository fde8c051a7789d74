package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stockkeep/apiserver/internal/services"
	"github.com/stockkeep/apiserver/types"
)

const maxBodyBytes = 1 << 20

type contextKey string

const contextIdentityKey contextKey = "identity"

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse acknowledges an operation that returns no entity.
type MessageResponse struct {
	Message string `json:"message"`
}

// WithIdentity stores the authenticated caller in ctx.
func WithIdentity(ctx context.Context, identity types.Identity) context.Context {
	return context.WithValue(ctx, contextIdentityKey, identity)
}

// IdentityFromContext returns the caller stored by RequireAuth.
func IdentityFromContext(ctx context.Context) (types.Identity, bool) {
	identity, ok := ctx.Value(contextIdentityKey).(types.Identity)
	if !ok || identity.UserID < 1 {
		return types.Identity{}, false
	}
	return identity, true
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return false
	}
	return true
}

// writeServiceError maps a service error to exactly one status and a short
// message. Unclassified errors are storage failures: their cause is logged
// and never sent to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, notFound, failure string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, services.ErrDuplicateEmail):
		writeError(w, http.StatusBadRequest, "email already registered")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, services.ErrMissingToken):
		writeError(w, http.StatusUnauthorized, "missing token")
	case errors.Is(err, services.ErrExpiredToken):
		writeError(w, http.StatusForbidden, "token expired")
	case errors.Is(err, services.ErrInvalidToken):
		writeError(w, http.StatusForbidden, "invalid token")
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	default:
		logger.ErrorContext(r.Context(), failure,
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, failure)
	}
}

func parseIDParam(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
