// Package web is the browser surface: server-rendered pages for the
// coach dashboard and the client workout logger. Every view reads
// through the backend API into template data; forms serialize to an
// API call and redirect back on success.
package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"

	"github.com/claude/coachdesk/internal/api"
	"github.com/claude/coachdesk/internal/session"
)

// Server holds dependencies for the page handlers.
type Server struct {
	backend  *api.Client
	sessions *session.Store
	render   *renderer
	log      *slog.Logger
	router   chi.Router
	csrfKey  []byte
	// insecureCookies disables the Secure cookie flag for plain-HTTP
	// dev serving.
	insecureCookies bool
}

// Options tune the server beyond its hard dependencies.
type Options struct {
	CSRFKey         []byte
	InsecureCookies bool
}

// New creates a Server with all routes configured.
func New(backend *api.Client, sessions *session.Store, log *slog.Logger, opts Options) (*Server, error) {
	rnd, err := newRenderer()
	if err != nil {
		return nil, err
	}
	s := &Server{
		backend:         backend,
		sessions:        sessions,
		render:          rnd,
		log:             log,
		router:          chi.NewRouter(),
		csrfKey:         opts.CSRFKey,
		insecureCookies: opts.InsecureCookies,
	}
	s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	if s.insecureCookies {
		// Without this the CSRF check assumes TLS and rejects every
		// plain-HTTP form post: http origins fail the https same-origin
		// comparison and posts without a Referer get ErrNoReferer.
		s.router.Use(plaintextHTTP)
	}
	s.router.Use(csrf.Protect(s.csrfKey,
		csrf.Secure(!s.insecureCookies),
		csrf.Path("/"),
	))

	s.router.Get("/", s.handleRoot)
	s.router.Get("/login", s.handleLoginPage)
	s.router.Post("/login/coach", s.handleCoachLogin)
	s.router.Post("/login/client", s.handleClientLogin)
	s.router.Post("/logout", s.handleLogout)

	// Coach surface
	s.router.Route("/coach", func(r chi.Router) {
		r.Use(s.RequireRole("coach"))
		r.Get("/", s.handleDashboard)
		r.Get("/clients", s.handleClients)
		r.Post("/clients", s.handleCreateClient)
		r.Post("/clients/{clientID}/update", s.handleUpdateClient)
		r.Post("/clients/{clientID}/delete", s.handleDeleteClient)
		r.Get("/clients/{clientID}/progress", s.handleClientProgress)
		r.Get("/exercises", s.handleExercises)
		r.Post("/exercises", s.handleCreateExercise)
		r.Post("/exercises/{exerciseID}/tips", s.handleUpdateTips)
		r.Get("/routines", s.handleRoutines)
		r.Get("/routines/new", s.handleRoutineForm)
		r.Get("/routines/{routineID}/edit", s.handleRoutineForm)
		r.Post("/routines", s.handleSaveRoutine)
		r.Get("/measurements/{clientID}", s.handleMeasurements)
		r.Post("/measurements/{clientID}", s.handleAddMeasurement)
		r.Get("/comparison", s.handleComparison)
	})

	// Client surface
	s.router.Route("/me", func(r chi.Router) {
		r.Use(s.RequireRole("client"))
		r.Get("/", s.handleMyRoutine)
		r.Get("/workout", s.handleWorkout)
		r.Post("/workout/start", s.handleStartWorkout)
		r.Post("/workout/exercises", s.handleAddExercise)
		r.Post("/workout/exercises/{exIdx}/sets", s.handleAddSet)
		r.Post("/workout/exercises/{exIdx}/sets/{setIdx}/update", s.handleUpdateSet)
		r.Post("/workout/exercises/{exIdx}/sets/{setIdx}/remove", s.handleRemoveSet)
		r.Post("/workout/notes", s.handleWorkoutNotes)
		r.Post("/workout/finish", s.handleFinishWorkout)
		r.Post("/workout/discard", s.handleDiscardWorkout)
		r.Get("/history", s.handleHistory)
		r.Get("/stats", s.handleStats)
	})
}

// handleRoot sends the visitor to their surface, or to login.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFromCookie(r)
	switch {
	case sess == nil:
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case sess.UserType == "coach":
		http.Redirect(w, r, "/coach", http.StatusSeeOther)
	default:
		http.Redirect(w, r, "/me", http.StatusSeeOther)
	}
}

// apiFor returns a backend client acting as the session's user.
func (s *Server) apiFor(sess *session.Session) *api.Client {
	return s.backend.WithToken(sess.Token)
}

// plaintextHTTP marks requests as served over plain HTTP so the CSRF
// origin checks compare http schemes instead of assuming TLS.
func plaintextHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}
