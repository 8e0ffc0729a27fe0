package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	infos, err := s.users.ListUsers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, infos)
}

type adminCreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) handleAdminCreateUser(w http.ResponseWriter, r *http.Request) {
	var req adminCreateUserRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.CreateUser(r.Context(), req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toUserResponse(user))
}

type adminUpdateUserRequest struct {
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

func (s *Server) handleAdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req adminUpdateUserRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.users.UpdateUser(r.Context(), userID(r), chi.URLParam(r, "id"), req.Role, req.IsActive); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.users.DeleteUser(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type adminResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

func (s *Server) handleAdminResetPassword(w http.ResponseWriter, r *http.Request) {
	var req adminResetPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.users.ResetPassword(r.Context(), chi.URLParam(r, "id"), req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "password reset"})
}

func (s *Server) handleAdminClearData(w http.ResponseWriter, r *http.Request) {
	if err := s.users.ClearUserData(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "data cleared"})
}
