package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/claude/coachdesk/internal/api"
	"github.com/claude/coachdesk/internal/session"
	"github.com/claude/coachdesk/internal/setlog"
)

// myRoutineData backs client_routine.html.
type myRoutineData struct {
	Error   string
	Routine *api.Routine
}

func (s *Server) handleMyRoutine(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	routine, err := s.apiFor(sess).AssignedRoutine(r.Context())
	if err != nil {
		s.log.Error("routine load failed", "error", err)
		s.page(w, r, "client_routine.html", "My routine", myRoutineData{Error: userMessage(err, "Error loading routine")})
		return
	}
	s.page(w, r, "client_routine.html", "My routine", myRoutineData{Routine: routine})
}

// workoutData backs client_workout.html: either the start screen (no
// draft) or the active logger.
type workoutData struct {
	Error      string
	Draft      *session.Draft
	HasRoutine bool
	// Catalog feeds the add-exercise select in the active logger.
	Catalog []api.Exercise
	MaxSets int
}

func (s *Server) handleWorkout(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	data := workoutData{MaxSets: setlog.MaxSets}

	draft, err := s.sessions.LoadDraft(sess.ID)
	switch {
	case errors.Is(err, session.ErrNotFound):
		// No workout in progress: show the start screen.
		routine, err := s.apiFor(sess).AssignedRoutine(r.Context())
		if err != nil {
			s.log.Error("routine load failed", "error", err)
			data.Error = userMessage(err, "Error loading routine")
		}
		data.HasRoutine = routine != nil
	case err != nil:
		s.log.Error("draft load failed", "error", err)
		data.Error = "Error loading workout in progress"
	default:
		data.Draft = draft
		if catalog, err := s.apiFor(sess).Exercises(r.Context()); err == nil {
			data.Catalog = catalog
		}
	}

	s.page(w, r, "client_workout.html", "Workout", data)
}

func (s *Server) handleStartWorkout(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	draft := &session.Draft{}
	if r.FormValue("mode") == "routine" {
		routine, err := s.apiFor(sess).AssignedRoutine(r.Context())
		if err != nil {
			s.log.Error("routine load failed", "error", err)
			s.setFlash(w, "error", userMessage(err, "Error loading routine"))
			http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
			return
		}
		if routine == nil {
			s.setFlash(w, "error", "No routine assigned yet")
			http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
			return
		}
		draft.RoutineID = routine.ID
		draft.RoutineName = routine.Name
		draft.FromRoutine = true
		draft.TargetReps = map[string]string{}
		for _, ex := range routine.Exercises {
			draft.Exercises = append(draft.Exercises, api.WorkoutExercise{
				ExerciseID:   ex.ExerciseID,
				ExerciseName: ex.ExerciseName,
			})
			draft.TargetReps[ex.ExerciseID] = ex.TargetReps
		}
	}

	if err := s.sessions.SaveDraft(sess.ID, draft); err != nil {
		s.log.Error("draft save failed", "error", err)
		s.setFlash(w, "error", "Error starting workout")
	}
	http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
}

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	exerciseID := r.FormValue("exercise_id")

	draft, err := s.sessions.LoadDraft(sess.ID)
	if err != nil {
		http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
		return
	}

	catalog, err := s.apiFor(sess).Exercises(r.Context())
	if err != nil {
		s.log.Error("exercise catalog load failed", "error", err)
		s.setFlash(w, "error", userMessage(err, "Error loading exercises"))
		http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
		return
	}

	var picked *api.Exercise
	for i := range catalog {
		if catalog[i].ID == exerciseID {
			picked = &catalog[i]
			break
		}
	}
	if picked == nil {
		s.setFlash(w, "error", "Unknown exercise")
		http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
		return
	}

	draft.Exercises = append(draft.Exercises, api.WorkoutExercise{
		ExerciseID:   picked.ID,
		ExerciseName: picked.Name,
	})
	if err := s.sessions.SaveDraft(sess.ID, draft); err != nil {
		s.log.Error("draft save failed", "error", err)
		s.setFlash(w, "error", "Error updating workout")
	}
	http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
}

// draftExercise resolves the {exIdx} URL param against the draft.
func draftExercise(r *http.Request, draft *session.Draft) (int, bool) {
	idx, err := strconv.Atoi(chi.URLParam(r, "exIdx"))
	if err != nil || idx < 0 || idx >= len(draft.Exercises) {
		return 0, false
	}
	return idx, true
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	draft, err := s.sessions.LoadDraft(sess.ID)
	if err != nil {
		http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
		return
	}
	idx, ok := draftExercise(r, draft)
	if !ok {
		http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
		return
	}

	ex := &draft.Exercises[idx]
	sets, err := setlog.Add(ex.Sets, draft.TargetRepsFor(ex.ExerciseID))
	if errors.Is(err, setlog.ErrMaxSets) {
		s.setFlash(w, "warning", "An exercise can have at most 5 sets")
		http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
		return
	}
	if err != nil {
		s.log.Error("add set failed", "error", err)
		s.setFlash(w, "error", "Error adding set")
		http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
		return
	}
	ex.Sets = sets

	if err := s.sessions.SaveDraft(sess.ID, draft); err != nil {
		s.log.Error("draft save failed", "error", err)
		s.setFlash(w, "error", "Error updating workout")
	}
	http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
}

// handleUpdateSet applies the posted numeric fields to one set. Each
// known field present in the form is updated independently; non-numeric
// input coerces to 0.
func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	draft, err := s.sessions.LoadDraft(sess.ID)
	if err != nil {
		http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
		return
	}
	idx, ok := draftExercise(r, draft)
	if !ok {
		http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
		return
	}
	setIdx, err := strconv.Atoi(chi.URLParam(r, "setIdx"))
	if err != nil {
		http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
		return
	}
	ex := &draft.Exercises[idx]
	for _, field := range []string{"weight_kg", "reps", "rir"} {
		if _, present := r.PostForm[field]; !present {
			continue
		}
		if err := setlog.UpdateField(ex.Sets, setIdx, field, r.PostForm.Get(field)); err != nil {
			s.log.Warn("set update rejected", "field", field, "error", err)
			s.setFlash(w, "error", "Error updating set")
			http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
			return
		}
	}

	if err := s.sessions.SaveDraft(sess.ID, draft); err != nil {
		s.log.Error("draft save failed", "error", err)
		s.setFlash(w, "error", "Error updating workout")
	}
	http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
}

func (s *Server) handleRemoveSet(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	draft, err := s.sessions.LoadDraft(sess.ID)
	if err != nil {
		http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
		return
	}
	idx, ok := draftExercise(r, draft)
	if !ok {
		http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
		return
	}
	setIdx, err := strconv.Atoi(chi.URLParam(r, "setIdx"))
	if err != nil {
		http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
		return
	}

	ex := &draft.Exercises[idx]
	sets, err := setlog.Remove(ex.Sets, setIdx)
	if err != nil {
		s.log.Warn("set remove rejected", "error", err)
		s.setFlash(w, "error", "Error removing set")
		http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
		return
	}
	ex.Sets = sets

	if err := s.sessions.SaveDraft(sess.ID, draft); err != nil {
		s.log.Error("draft save failed", "error", err)
		s.setFlash(w, "error", "Error updating workout")
	}
	http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
}

func (s *Server) handleWorkoutNotes(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	draft, err := s.sessions.LoadDraft(sess.ID)
	if err != nil {
		http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
		return
	}

	draft.Notes = r.FormValue("notes")
	if mins, err := strconv.Atoi(r.FormValue("duration_minutes")); err == nil {
		draft.DurationMinutes = mins
	} else {
		draft.DurationMinutes = 0
	}

	if err := s.sessions.SaveDraft(sess.ID, draft); err != nil {
		s.log.Error("draft save failed", "error", err)
		s.setFlash(w, "error", "Error updating workout")
	}
	http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
}

// handleFinishWorkout submits the draft to the backend. The draft is
// cleared only after the backend accepts it; a failed save leaves the
// draft intact so the user can retry.
func (s *Server) handleFinishWorkout(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	draft, err := s.sessions.LoadDraft(sess.ID)
	if err != nil {
		s.setFlash(w, "error", "No workout in progress")
		http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
		return
	}

	payload := api.NewWorkout{
		RoutineID:       draft.RoutineID,
		RoutineName:     draft.RoutineName,
		Notes:           draft.Notes,
		DurationMinutes: draft.DurationMinutes,
	}
	if draft.FromRoutine {
		// Routine flow: untouched routine exercises are dropped, and
		// at least one exercise must have logged sets.
		for _, ex := range draft.Exercises {
			if len(ex.Sets) > 0 {
				payload.Exercises = append(payload.Exercises, ex)
			}
		}
		if len(payload.Exercises) == 0 {
			s.setFlash(w, "error", "Log at least one set before saving")
			http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
			return
		}
	} else {
		payload.Exercises = draft.Exercises
		if len(payload.Exercises) == 0 {
			s.setFlash(w, "error", "Add at least one exercise before saving")
			http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
			return
		}
	}

	if _, err := s.apiFor(sess).LogWorkout(r.Context(), payload); err != nil {
		s.log.Error("workout save failed", "error", err)
		s.setFlash(w, "error", userMessage(err, "Error saving workout"))
		http.Redirect(w, r, "/me/workout", http.StatusSeeOther)
		return
	}

	if err := s.sessions.ClearDraft(sess.ID); err != nil {
		s.log.Error("draft clear failed", "error", err)
	}
	s.setFlash(w, "success", "Workout saved")
	http.Redirect(w, r, "/me/history", http.StatusSeeOther)
}

func (s *Server) handleDiscardWorkout(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if err := s.sessions.ClearDraft(sess.ID); err != nil {
		s.log.Error("draft clear failed", "error", err)
	}
	http.Redirect(w, r, "/me", http.StatusSeeOther)
}

// historyData backs client_history.html.
type historyData struct {
	Error    string
	Workouts []api.Workout
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	workouts, err := s.apiFor(sess).Workouts(r.Context())
	if err != nil {
		s.log.Error("history load failed", "error", err)
		s.page(w, r, "client_history.html", "History", historyData{Error: userMessage(err, "Error loading history")})
		return
	}
	s.page(w, r, "client_history.html", "History", historyData{Workouts: workouts})
}

// statsData backs client_stats.html.
type statsData struct {
	Error string
	Stats *api.Stats
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	stats, err := s.apiFor(sess).ClientStats(r.Context())
	if err != nil {
		s.log.Error("stats load failed", "error", err)
		s.page(w, r, "client_stats.html", "Stats", statsData{Error: userMessage(err, "Error loading stats")})
		return
	}
	s.page(w, r, "client_stats.html", "Stats", statsData{Stats: stats})
}
