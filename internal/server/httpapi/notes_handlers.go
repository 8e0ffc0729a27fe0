package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/minkvault/mink/internal/vault"
)

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	archived := r.URL.Query().Get("archived") == "true"

	notes, err := s.notes.List(r.Context(), userID(r), encryptionKey(r), archived)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, notes)
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	note, err := s.notes.Get(r.Context(), userID(r), chi.URLParam(r, "id"), encryptionKey(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, note)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var note vault.Note
	if err := decodeBody(r, &note); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.notes.Create(r.Context(), userID(r), encryptionKey(r), &note)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var note vault.Note
	if err := decodeBody(r, &note); err != nil {
		s.writeError(w, r, err)
		return
	}
	note.ID = chi.URLParam(r, "id")

	updated, err := s.notes.Update(r.Context(), userID(r), encryptionKey(r), &note)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := s.notes.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
