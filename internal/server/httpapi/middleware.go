package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/minkvault/mink/internal/common"
	"github.com/minkvault/mink/internal/server/auth"
	"github.com/minkvault/mink/internal/server/users"
)

type contextKey int

const (
	ctxKeyUserID contextKey = iota
	ctxKeyRole
	ctxKeyEncryptionKey
)

// userID returns the authenticated account ID from the request context.
func userID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKeyUserID).(string)
	return id
}

// encryptionKey returns the per-request derived key. Only present on routes
// behind requireKey.
func encryptionKey(r *http.Request) []byte {
	key, _ := r.Context().Value(ctxKeyEncryptionKey).([]byte)
	return key
}

// requestLogger logs one line per request after it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info(r.Context(), "http request",
			"method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// recoverer converts handler panics into 500 responses so one bad request
// cannot take the server down.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				s.logger.Error(r.Context(), "handler panic", "panic", p, "path", r.URL.Path)
				s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requireAuth verifies the bearer token and stores the account identity in
// the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			s.writeError(w, r, common.ErrUnauthorized)
			return
		}

		claims, err := auth.ParseToken(s.secretKey, tokenString)
		if err != nil {
			s.writeError(w, r, common.ErrUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxKeyRole, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireKey derives the caller's encryption key from the X-Password header
// and the stored salt, and wipes it when the handler returns. The password is
// not re-verified against the login hash here: a wrong password derives a key
// that fails AEAD authentication on the first decrypt.
func (s *Server) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		password := r.Header.Get("X-Password")
		if password == "" {
			s.writeError(w, r, common.ErrUnauthorized)
			return
		}

		user, err := s.users.GetByID(r.Context(), userID(r))
		if err != nil {
			s.writeError(w, r, common.ErrUnauthorized)
			return
		}

		key, err := s.users.DeriveKey(password, user)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		defer common.WipeByteArray(key)

		ctx := context.WithValue(r.Context(), ctxKeyEncryptionKey, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin allows only accounts carrying the admin role.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, _ := r.Context().Value(ctxKeyRole).(string)
		if role != users.RoleAdmin {
			s.writeError(w, r, common.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
