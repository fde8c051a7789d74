package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stockkeep/apiserver/internal/services"
	"github.com/stockkeep/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.DiscardHandler)

type stubVerifier struct {
	tokens map[string]types.Identity
	errs   map[string]error
	seen   []string
}

func (s *stubVerifier) VerifyToken(token string) (types.Identity, error) {
	s.seen = append(s.seen, token)
	if token == "" {
		return types.Identity{}, services.ErrMissingToken
	}
	if err, ok := s.errs[token]; ok {
		return types.Identity{}, err
	}
	if identity, ok := s.tokens[token]; ok {
		return identity, nil
	}
	return types.Identity{}, services.ErrInvalidToken
}

func TestRequireAuth(t *testing.T) {
	verifier := &stubVerifier{
		tokens: map[string]types.Identity{"good": {UserID: 7, Email: "a@x.com"}},
		errs:   map[string]error{"old": services.ErrExpiredToken},
	}

	var got types.Identity
	protected := RequireAuth(verifier, discardLogger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"scheme only", "Bearer", http.StatusUnauthorized},
		{"other scheme", "Token not-a-jwt", http.StatusForbidden},
		{"other scheme with valid token", "Token good", http.StatusNoContent},
		{"bad token", "Bearer forged", http.StatusForbidden},
		{"expired token", "Bearer old", http.StatusForbidden},
		{"valid token", "Bearer good", http.StatusNoContent},
		{"extra whitespace", "  bearer   good  ", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got = types.Identity{}
			req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			protected.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusNoContent {
				assert.Equal(t, types.Identity{UserID: 7, Email: "a@x.com"}, got)
			} else {
				var body ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.NotEmpty(t, body.Error)
			}
		})
	}
}

func TestIdentityFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := IdentityFromContext(req.Context())
	assert.False(t, ok)

	_, ok = IdentityFromContext(WithIdentity(req.Context(), types.Identity{}))
	assert.False(t, ok)
}

func TestWriteServiceError(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{&services.ValidationError{Message: "name is required"}, http.StatusBadRequest, "name is required"},
		{services.ErrDuplicateEmail, http.StatusBadRequest, "email already registered"},
		{services.ErrInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
		{services.ErrMissingToken, http.StatusUnauthorized, "missing token"},
		{services.ErrInvalidToken, http.StatusForbidden, "invalid token"},
		{services.ErrExpiredToken, http.StatusForbidden, "token expired"},
		{services.ErrNotFound, http.StatusNotFound, "product not found"},
		{errors.New(`pq: relation "products" does not exist`), http.StatusInternalServerError, "failed to list products"},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
			rec := httptest.NewRecorder()

			writeServiceError(rec, req, discardLogger, tc.err, "product not found", "failed to list products")

			assert.Equal(t, tc.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.message, body.Error)
		})
	}
}
