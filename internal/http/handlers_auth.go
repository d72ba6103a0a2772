package http

import (
	"errors"
	"net/http"

	"github.com/ggonsajang/comcard/internal/log"
	"github.com/ggonsajang/comcard/internal/session"
)

const sessionCookie = "comcard_session"

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	token, err := s.deps.Auth.Login(r.Context(), req.Password)
	switch {
	case errors.Is(err, session.ErrEmptyPassword):
		writeError(w, r, http.StatusUnprocessableEntity, "validation", err.Error())
		return
	case errors.Is(err, session.ErrWrongPassword):
		log.FromContext(r.Context()).WarnContext(r.Context(), "Login rejected",
			log.NewFields().WithOperation(log.OpLogin).WithClientIP(clientIP(r)).ToSlice()...)
		writeError(w, r, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	case err != nil:
		writeInternal(w, r, "Login failed", err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Session opened",
		log.NewFields().WithOperation(log.OpLogin).WithClientIP(clientIP(r)).ToSlice()...)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token.Value,
		Path:     "/",
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   s.deps.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, token)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		if err := s.deps.Auth.Logout(r.Context(), token); err != nil {
			writeInternal(w, r, "Logout failed", err)
			return
		}
		log.FromContext(r.Context()).InfoContext(r.Context(), "Session closed", log.FieldOperation, log.OpLogout)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.deps.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "로그인이 필요합니다.")
			return
		}
		err := s.deps.Auth.Authenticated(r.Context(), token)
		switch {
		case err == nil:
			next.ServeHTTP(w, r)
		case errors.Is(err, session.ErrNotAuthenticated), errors.Is(err, session.ErrInvalidToken):
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "로그인이 필요합니다.")
		default:
			writeInternal(w, r, "Session check failed", err)
		}
	})
}
