package httpapi

import (
	"net/http"

	"github.com/minkvault/mink/internal/server/auth"
	"github.com/minkvault/mink/internal/server/users"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func toUserResponse(u *users.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

func (s *Server) session(u *users.User) (sessionResponse, error) {
	token, err := auth.GenerateToken(s.secretKey, u.ID, u.Role, s.tokenValidity)
	if err != nil {
		return sessionResponse{}, err
	}
	return sessionResponse{Token: token, User: toUserResponse(u)}, nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.session(user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.session(user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.GetByID(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toUserResponse(user))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	reencrypted, err := s.users.ChangePassword(r.Context(), userID(r), req.CurrentPassword, req.NewPassword)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"reencrypted_count": reencrypted})
}

type clearDataRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleClearData(w http.ResponseWriter, r *http.Request) {
	var req clearDataRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.users.ClearData(r.Context(), userID(r), req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "data cleared"})
}
