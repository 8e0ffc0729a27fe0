// Package httpapi exposes the vault over a JSON HTTP API. Routes needing
// plaintext access sit behind two layers: a bearer token proving identity and
// an X-Password header from which the per-request encryption key is derived.
package httpapi

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/minkvault/mink/internal/logging"
	"github.com/minkvault/mink/internal/server/bookmarks"
	"github.com/minkvault/mink/internal/server/notes"
	"github.com/minkvault/mink/internal/server/users"
)

// Server holds the services behind the HTTP API.
type Server struct {
	users         *users.Service
	notes         *notes.Service
	bookmarks     *bookmarks.Service
	secretKey     []byte
	tokenValidity time.Duration
	logger        logging.Logger
}

func NewServer(userSvc *users.Service, noteSvc *notes.Service, bookmarkSvc *bookmarks.Service,
	secretKey []byte, tokenValidity time.Duration, logger logging.Logger) *Server {
	return &Server{
		users:         userSvc,
		notes:         noteSvc,
		bookmarks:     bookmarkSvc,
		secretKey:     secretKey,
		tokenValidity: tokenValidity,
		logger:        logger,
	}
}

// Router builds the route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(s.recoverer)
	r.Use(s.requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/auth/me", s.handleMe)
			r.Post("/auth/change-password", s.handleChangePassword)
			r.Post("/auth/clear-data", s.handleClearData)

			r.Delete("/notes/{id}", s.handleDeleteNote)
			r.Delete("/folders/{id}", s.handleDeleteFolder)
			r.Delete("/bookmarks/{id}", s.handleDeleteBookmark)

			r.Group(func(r chi.Router) {
				r.Use(s.requireKey)

				r.Get("/notes", s.handleListNotes)
				r.Post("/notes", s.handleCreateNote)
				r.Get("/notes/{id}", s.handleGetNote)
				r.Put("/notes/{id}", s.handleUpdateNote)

				r.Get("/folders", s.handleListFolders)
				r.Post("/folders", s.handleCreateFolder)
				r.Put("/folders/{id}", s.handleUpdateFolder)

				r.Get("/bookmarks", s.handleListBookmarks)
				r.Post("/bookmarks", s.handleCreateBookmark)
				r.Get("/bookmarks/{id}", s.handleGetBookmark)
				r.Put("/bookmarks/{id}", s.handleUpdateBookmark)

				r.Get("/bookmarks/export", s.handleExport)
				r.Post("/bookmarks/import/preview", s.handleImportPreview)
				r.Post("/bookmarks/import/confirm", s.handleImportConfirm)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(s.requireAdmin)

				r.Get("/users", s.handleAdminListUsers)
				r.Post("/users", s.handleAdminCreateUser)
				r.Put("/users/{id}", s.handleAdminUpdateUser)
				r.Delete("/users/{id}", s.handleAdminDeleteUser)
				r.Post("/users/{id}/reset-password", s.handleAdminResetPassword)
				r.Post("/users/{id}/clear-data", s.handleAdminClearData)
			})
		})
	})

	return r
}
