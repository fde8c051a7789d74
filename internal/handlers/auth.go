package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/stockkeep/apiserver/internal/services"
	"github.com/stockkeep/apiserver/types"
)

// TokenVerifier resolves a bearer token to the identity it was issued for.
type TokenVerifier interface {
	VerifyToken(token string) (types.Identity, error)
}

// AuthHandler provides registration, login and profile endpoints.
type AuthHandler struct {
	authService *services.AuthService
	logger      *slog.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(authService *services.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, authService *services.AuthService, authMiddleware func(http.Handler) http.Handler, logger *slog.Logger) {
	handler := NewAuthHandler(authService, logger)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.With(authMiddleware).Get("/me", handler.Me)
}

// RequireAuth gates a route on a valid bearer token. A missing token is
// answered with 401 and a token that fails verification with 403; clients
// rely on the two codes being distinct.
func RequireAuth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := verifier.VerifyToken(bearerToken(r))
			if err != nil {
				logger.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "reason", err)
				writeServiceError(w, r, logger, err, "", "failed to authenticate")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// Register creates a new user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.Register(r.Context(), req.Fullname, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "", "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{Message: "user created", User: user})
}

// Login verifies credentials and returns a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "", "failed to authenticate")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Message: "login successful", AuthResult: result})
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	user, err := h.authService.CurrentUser(r.Context(), identity)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "user not found", "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type RegisterRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Message string     `json:"message"`
	User    types.User `json:"user"`
}

type LoginResponse struct {
	Message string `json:"message"`
	services.AuthResult
}

// bearerToken returns the second whitespace-separated field of the
// Authorization header, or "" if there is none. The scheme is not checked:
// "Token abc" yields "abc", which then fails verification.
func bearerToken(r *http.Request) string {
	fields := strings.Fields(r.Header.Get("Authorization"))
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}
