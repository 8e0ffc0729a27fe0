package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/minkvault/mink/internal/vault"
)

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := s.bookmarks.ListFolders(r.Context(), userID(r), encryptionKey(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, folders)
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var folder vault.Folder
	if err := decodeBody(r, &folder); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.bookmarks.CreateFolder(r.Context(), userID(r), encryptionKey(r), &folder)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateFolder(w http.ResponseWriter, r *http.Request) {
	var folder vault.Folder
	if err := decodeBody(r, &folder); err != nil {
		s.writeError(w, r, err)
		return
	}
	folder.ID = chi.URLParam(r, "id")

	updated, err := s.bookmarks.UpdateFolder(r.Context(), userID(r), encryptionKey(r), &folder)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := s.bookmarks.DeleteFolder(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := s.bookmarks.ListBookmarks(r.Context(), userID(r), encryptionKey(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, bookmarks)
}

func (s *Server) handleGetBookmark(w http.ResponseWriter, r *http.Request) {
	bookmark, err := s.bookmarks.GetBookmark(r.Context(), userID(r), chi.URLParam(r, "id"), encryptionKey(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, bookmark)
}

func (s *Server) handleCreateBookmark(w http.ResponseWriter, r *http.Request) {
	var bookmark vault.Bookmark
	if err := decodeBody(r, &bookmark); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.bookmarks.CreateBookmark(r.Context(), userID(r), encryptionKey(r), &bookmark)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateBookmark(w http.ResponseWriter, r *http.Request) {
	var bookmark vault.Bookmark
	if err := decodeBody(r, &bookmark); err != nil {
		s.writeError(w, r, err)
		return
	}
	bookmark.ID = chi.URLParam(r, "id")

	updated, err := s.bookmarks.UpdateBookmark(r.Context(), userID(r), encryptionKey(r), &bookmark)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteBookmark(w http.ResponseWriter, r *http.Request) {
	if err := s.bookmarks.DeleteBookmark(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	export, err := s.bookmarks.Export(r.Context(), userID(r), encryptionKey(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="bookmarks.html"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(export))
}

type importRequest struct {
	Source      string            `json:"source"`
	Resolutions map[string]string `json:"resolutions,omitempty"`
}

func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	preview, err := s.bookmarks.PreviewImport(r.Context(), userID(r), encryptionKey(r), req.Source)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, preview)
}

func (s *Server) handleImportConfirm(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.bookmarks.ConfirmImport(r.Context(), userID(r), encryptionKey(r), req.Source, req.Resolutions)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}
