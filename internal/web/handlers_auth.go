package web

import (
	"errors"
	"net/http"

	"github.com/claude/coachdesk/internal/api"
)

// userMessage turns a backend failure into the banner text shown to
// the user: the backend's own detail when it sent one, else a generic
// fallback.
func userMessage(err error, fallback string) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sess := s.sessionFromCookie(r); sess != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.page(w, r, "login.html", "Sign in", nil)
}

func (s *Server) handleCoachLogin(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	auth, err := s.backend.CoachLogin(r.Context(), username, password)
	if err != nil {
		s.log.Warn("coach login failed", "username", username, "error", err)
		s.setFlash(w, "error", userMessage(err, "Login failed"))
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	sess, err := s.sessions.Create(auth.User, auth.AccessToken, "coach")
	if err != nil {
		s.log.Error("session create failed", "error", err)
		s.setFlash(w, "error", "Login failed")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	s.setSessionCookie(w, sess.ID)
	http.Redirect(w, r, "/coach", http.StatusSeeOther)
}

func (s *Server) handleClientLogin(w http.ResponseWriter, r *http.Request) {
	clientID := r.FormValue("client_id")

	auth, err := s.backend.ClientLogin(r.Context(), clientID)
	if err != nil {
		s.log.Warn("client login failed", "error", err)
		s.setFlash(w, "error", userMessage(err, "Login failed"))
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	sess, err := s.sessions.Create(auth.User, auth.AccessToken, "client")
	if err != nil {
		s.log.Error("session create failed", "error", err)
		s.setFlash(w, "error", "Login failed")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	s.setSessionCookie(w, sess.ID)
	http.Redirect(w, r, "/me", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := s.sessionFromCookie(r); sess != nil {
		if err := s.sessions.Delete(sess.ID); err != nil {
			s.log.Error("session delete failed", "error", err)
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
