package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/claude/coachdesk/internal/api"
)

// dashboardData backs coach_dashboard.html.
type dashboardData struct {
	Error     string
	Dashboard *api.Dashboard
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	d, err := s.apiFor(sess).Dashboard(r.Context())
	if err != nil {
		s.log.Error("dashboard load failed", "error", err)
		s.page(w, r, "coach_dashboard.html", "Dashboard", dashboardData{Error: userMessage(err, "Error loading dashboard")})
		return
	}
	s.page(w, r, "coach_dashboard.html", "Dashboard", dashboardData{Dashboard: d})
}

// clientsData backs coach_clients.html.
type clientsData struct {
	Error   string
	Clients []api.ClientAccount
}

func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	clients, err := s.apiFor(sess).Clients(r.Context())
	if err != nil {
		s.log.Error("clients load failed", "error", err)
		s.page(w, r, "coach_clients.html", "Clients", clientsData{Error: userMessage(err, "Error loading clients")})
		return
	}
	s.page(w, r, "coach_clients.html", "Clients", clientsData{Clients: clients})
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))

	if _, err := s.apiFor(sess).CreateClient(r.Context(), name, email); err != nil {
		s.log.Error("create client failed", "error", err)
		s.setFlash(w, "error", userMessage(err, "Error adding client"))
		http.Redirect(w, r, "/coach/clients", http.StatusSeeOther)
		return
	}
	s.setFlash(w, "success", "Client added")
	http.Redirect(w, r, "/coach/clients", http.StatusSeeOther)
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	clientID := chi.URLParam(r, "clientID")
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))

	if _, err := s.apiFor(sess).UpdateClient(r.Context(), clientID, name, email); err != nil {
		s.log.Error("update client failed", "client_id", clientID, "error", err)
		s.setFlash(w, "error", userMessage(err, "Error updating client"))
	} else {
		s.setFlash(w, "success", "Client updated")
	}
	http.Redirect(w, r, "/coach/clients", http.StatusSeeOther)
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	clientID := chi.URLParam(r, "clientID")

	if err := s.apiFor(sess).DeleteClient(r.Context(), clientID); err != nil {
		s.log.Error("delete client failed", "client_id", clientID, "error", err)
		s.setFlash(w, "error", userMessage(err, "Error removing client"))
	} else {
		s.setFlash(w, "success", "Client removed")
	}
	http.Redirect(w, r, "/coach/clients", http.StatusSeeOther)
}

// progressData backs coach_client_progress.html.
type progressData struct {
	Error    string
	Progress *api.ClientProgress
}

func (s *Server) handleClientProgress(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	clientID := chi.URLParam(r, "clientID")

	p, err := s.apiFor(sess).ClientProgress(r.Context(), clientID)
	if err != nil {
		s.log.Error("client progress load failed", "client_id", clientID, "error", err)
		s.page(w, r, "coach_client_progress.html", "Client progress", progressData{Error: userMessage(err, "Error loading progress")})
		return
	}
	s.page(w, r, "coach_client_progress.html", p.Client.Name, progressData{Progress: p})
}

// exercisesData backs coach_exercises.html.
type exercisesData struct {
	Error     string
	Exercises []api.Exercise
	Query     string
}

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	query := strings.TrimSpace(r.URL.Query().Get("query"))

	var (
		exercises []api.Exercise
		err       error
	)
	if query != "" {
		exercises, err = s.apiFor(sess).SearchExercises(r.Context(), query)
	} else {
		exercises, err = s.apiFor(sess).Exercises(r.Context())
	}
	if err != nil {
		s.log.Error("exercises load failed", "error", err)
		s.page(w, r, "coach_exercises.html", "Exercises", exercisesData{Error: userMessage(err, "Error loading exercises"), Query: query})
		return
	}
	s.page(w, r, "coach_exercises.html", "Exercises", exercisesData{Exercises: exercises, Query: query})
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	name := strings.TrimSpace(r.FormValue("name"))
	muscleGroup := strings.TrimSpace(r.FormValue("muscle_group"))
	tips := r.FormValue("tips")

	if _, err := s.apiFor(sess).CreateExercise(r.Context(), name, muscleGroup, tips); err != nil {
		s.log.Error("create exercise failed", "error", err)
		s.setFlash(w, "error", userMessage(err, "Error adding exercise"))
	} else {
		s.setFlash(w, "success", "Exercise added")
	}
	http.Redirect(w, r, "/coach/exercises", http.StatusSeeOther)
}

func (s *Server) handleUpdateTips(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	exerciseID := chi.URLParam(r, "exerciseID")
	tips := r.FormValue("tips")

	if _, err := s.apiFor(sess).UpdateExerciseTips(r.Context(), exerciseID, tips); err != nil {
		s.log.Error("update tips failed", "exercise_id", exerciseID, "error", err)
		s.setFlash(w, "error", userMessage(err, "Error updating tips"))
	} else {
		s.setFlash(w, "success", "Tips updated")
	}
	http.Redirect(w, r, "/coach/exercises", http.StatusSeeOther)
}

// routinesData backs coach_routines.html.
type routinesData struct {
	Error    string
	Routines []api.Routine
	// ClientNames maps client IDs to names for the assignment column.
	ClientNames map[string]string
}

func (s *Server) handleRoutines(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	backend := s.apiFor(sess)

	routines, err := backend.Routines(r.Context())
	if err != nil {
		s.log.Error("routines load failed", "error", err)
		s.page(w, r, "coach_routines.html", "Routines", routinesData{Error: userMessage(err, "Error loading routines")})
		return
	}

	data := routinesData{Routines: routines, ClientNames: map[string]string{}}
	if clients, err := backend.Clients(r.Context()); err == nil {
		for _, c := range clients {
			data.ClientNames[c.ID] = c.Name
		}
	}
	s.page(w, r, "coach_routines.html", "Routines", data)
}

// routineFormData backs coach_routine_form.html, for both the new and
// edit flows.
type routineFormData struct {
	Error     string
	Routine   *api.Routine
	Exercises []api.Exercise
	Clients   []api.ClientAccount
}

func (s *Server) handleRoutineForm(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	backend := s.apiFor(sess)
	routineID := chi.URLParam(r, "routineID")

	data := routineFormData{}

	exercises, err := backend.Exercises(r.Context())
	if err != nil {
		s.log.Error("exercise catalog load failed", "error", err)
		s.page(w, r, "coach_routine_form.html", "Routine", routineFormData{Error: userMessage(err, "Error loading exercises")})
		return
	}
	data.Exercises = exercises

	if clients, err := backend.Clients(r.Context()); err == nil {
		data.Clients = clients
	}

	if routineID != "" {
		routines, err := backend.Routines(r.Context())
		if err != nil {
			s.page(w, r, "coach_routine_form.html", "Edit routine", routineFormData{Error: userMessage(err, "Error loading routine")})
			return
		}
		for i := range routines {
			if routines[i].ID == routineID {
				data.Routine = &routines[i]
				break
			}
		}
		if data.Routine == nil {
			s.setFlash(w, "error", "Routine not found")
			http.Redirect(w, r, "/coach/routines", http.StatusSeeOther)
			return
		}
	}

	title := "New routine"
	if data.Routine != nil {
		title = "Edit routine"
	}
	s.page(w, r, "coach_routine_form.html", title, data)
}

// handleSaveRoutine creates or replaces a routine from the builder
// form. Exercise rows arrive as parallel indexed fields.
func (s *Server) handleSaveRoutine(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		s.setFlash(w, "error", "Invalid form")
		http.Redirect(w, r, "/coach/routines", http.StatusSeeOther)
		return
	}

	routineID := r.FormValue("routine_id")
	routine := api.NewRoutine{
		Name:            strings.TrimSpace(r.FormValue("name")),
		AssignedClients: r.Form["assigned_clients"],
	}

	// Exercise names come from the catalog, not the form, so a stale
	// page can't submit a mismatched name.
	names := map[string]string{}
	if catalog, err := s.apiFor(sess).Exercises(r.Context()); err == nil {
		for _, e := range catalog {
			names[e.ID] = e.Name
		}
	}

	ids := r.Form["exercise_id"]
	for i, id := range ids {
		if id == "" {
			continue
		}
		ex := api.RoutineExercise{ExerciseID: id, ExerciseName: names[id]}
		ex.TargetSets = formInt(r.Form, "target_sets", i)
		ex.TargetReps = formAt(r.Form, "target_reps", i)
		ex.TargetWeight = formFloat(r.Form, "target_weight", i)
		ex.RestSeconds = formInt(r.Form, "rest_seconds", i)
		routine.Exercises = append(routine.Exercises, ex)
	}

	if routine.Name == "" || len(routine.Exercises) == 0 {
		s.setFlash(w, "error", "A routine needs a name and at least one exercise")
		http.Redirect(w, r, "/coach/routines/new", http.StatusSeeOther)
		return
	}

	var err error
	if routineID == "" {
		_, err = s.apiFor(sess).CreateRoutine(r.Context(), routine)
	} else {
		_, err = s.apiFor(sess).UpdateRoutine(r.Context(), routineID, routine)
	}
	if err != nil {
		s.log.Error("save routine failed", "error", err)
		s.setFlash(w, "error", userMessage(err, "Error saving routine"))
		http.Redirect(w, r, "/coach/routines", http.StatusSeeOther)
		return
	}
	s.setFlash(w, "success", "Routine saved")
	http.Redirect(w, r, "/coach/routines", http.StatusSeeOther)
}

// measurementsData backs coach_measurements.html.
type measurementsData struct {
	Error        string
	ClientID     string
	Measurements []api.Measurement
}

func (s *Server) handleMeasurements(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	clientID := chi.URLParam(r, "clientID")

	measurements, err := s.apiFor(sess).Measurements(r.Context(), clientID)
	if err != nil {
		s.log.Error("measurements load failed", "client_id", clientID, "error", err)
		s.page(w, r, "coach_measurements.html", "Measurements", measurementsData{Error: userMessage(err, "Error loading measurements"), ClientID: clientID})
		return
	}
	s.page(w, r, "coach_measurements.html", "Measurements", measurementsData{ClientID: clientID, Measurements: measurements})
}

func (s *Server) handleAddMeasurement(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	clientID := chi.URLParam(r, "clientID")

	m := api.NewMeasurement{
		WeightKg:          parseFloatOrZero(r.FormValue("weight_kg")),
		BodyFatPercentage: parseFloatOrZero(r.FormValue("body_fat_percentage")),
		Measurements: api.BodyMeasurements{
			Chest:     parseFloatOrZero(r.FormValue("chest")),
			Waist:     parseFloatOrZero(r.FormValue("waist")),
			Arms:      parseFloatOrZero(r.FormValue("arms")),
			Thighs:    parseFloatOrZero(r.FormValue("thighs")),
			Shoulders: parseFloatOrZero(r.FormValue("shoulders")),
		},
	}

	if _, err := s.apiFor(sess).AddMeasurement(r.Context(), clientID, m); err != nil {
		s.log.Error("add measurement failed", "client_id", clientID, "error", err)
		s.setFlash(w, "error", userMessage(err, "Error adding measurement"))
	} else {
		s.setFlash(w, "success", "Measurement recorded")
	}
	http.Redirect(w, r, "/coach/measurements/"+clientID, http.StatusSeeOther)
}

// comparisonData backs coach_comparison.html.
type comparisonData struct {
	Error string
	Rows  []api.ClientComparison
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	rows, err := s.apiFor(sess).ProgressComparison(r.Context())
	if err != nil {
		s.log.Error("comparison load failed", "error", err)
		s.page(w, r, "coach_comparison.html", "Progress comparison", comparisonData{Error: userMessage(err, "Error loading comparison")})
		return
	}
	s.page(w, r, "coach_comparison.html", "Progress comparison", comparisonData{Rows: rows})
}

// Form field helpers for the indexed routine-builder rows. Missing or
// non-numeric values coerce to zero, matching the logger's behavior.

func formAt(form map[string][]string, key string, i int) string {
	vs := form[key]
	if i >= len(vs) {
		return ""
	}
	return vs[i]
}

func formInt(form map[string][]string, key string, i int) int {
	n, err := strconv.Atoi(strings.TrimSpace(formAt(form, key, i)))
	if err != nil {
		return 0
	}
	return n
}

func formFloat(form map[string][]string, key string, i int) float64 {
	return parseFloatOrZero(formAt(form, key, i))
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
