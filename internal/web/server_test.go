package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/claude/coachdesk/internal/api"
	"github.com/claude/coachdesk/internal/session"
)

// testBackend fakes the coaching backend with just enough endpoints
// for the page handlers under test.
type testBackend struct {
	mu      sync.Mutex
	mux     *http.ServeMux
	routine *api.Routine
	failLog bool
	logged  []api.NewWorkout
}

func newTestBackend() *testBackend {
	b := &testBackend{mux: http.NewServeMux()}

	b.mux.HandleFunc("POST /api/auth/coach/login", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("username") != "coach" || q.Get("password") != "pw" {
			writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		json.NewEncoder(w).Encode(api.AuthResponse{
			AccessToken: "coach-token",
			TokenType:   "bearer",
			User:        api.User{ID: "u1", Name: "Coach Dana", Role: "coach"},
		})
	})
	b.mux.HandleFunc("POST /api/auth/client/login", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("client_id") != "c1" {
			writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		json.NewEncoder(w).Encode(api.AuthResponse{
			AccessToken: "client-token",
			TokenType:   "bearer",
			User:        api.User{ID: "c1", Name: "Alex", Role: "client"},
		})
	})
	b.mux.HandleFunc("GET /api/coach/dashboard", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.Dashboard{
			Coach:        api.User{ID: "u1", Name: "Coach Dana", Role: "coach"},
			TotalClients: 1,
		})
	})
	b.mux.HandleFunc("GET /api/exercises", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]api.Exercise{
			{ID: "ex1", Name: "Bench Press", MuscleGroup: "chest"},
			{ID: "ex2", Name: "Squat", MuscleGroup: "legs"},
		})
	})
	b.mux.HandleFunc("GET /api/client/routine", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		routine := b.routine
		b.mu.Unlock()
		json.NewEncoder(w).Encode(api.AssignedRoutine{Routine: routine})
	})
	b.mux.HandleFunc("GET /api/client/workouts", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]api.Workout{})
	})
	b.mux.HandleFunc("POST /api/client/workouts", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.failLog {
			writeDetail(w, http.StatusInternalServerError, "Database unavailable")
			return
		}
		var payload api.NewWorkout
		json.NewDecoder(r.Body).Decode(&payload)
		b.logged = append(b.logged, payload)
		json.NewEncoder(w).Encode(api.Workout{ID: "w1", Date: time.Now(), Exercises: payload.Exercises})
	})

	return b
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func (b *testBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mux.ServeHTTP(w, r)
}

// fixture wires a fake backend, a temp session store, and the web
// server behind a cookie-carrying client.
type fixture struct {
	t       *testing.T
	ts      *httptest.Server
	client  *http.Client
	store   *session.Store
	backend *testBackend
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	backend := newTestBackend()
	backendSrv := httptest.NewServer(backend)
	t.Cleanup(backendSrv.Close)

	store, err := session.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(api.New(backendSrv.URL, 5*time.Second), store, log, Options{
		CSRFKey:         []byte("0123456789abcdef0123456789abcdef"),
		InsecureCookies: true,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New() error = %v", err)
	}

	return &fixture{
		t:       t,
		ts:      ts,
		client:  &http.Client{Jar: jar},
		store:   store,
		backend: backend,
	}
}

var csrfTokenRe = regexp.MustCompile(`name="gorilla\.csrf\.Token" value="([^"]+)"`)

// get fetches a page and returns its body.
func (f *fixture) get(path string) string {
	f.t.Helper()
	resp, err := f.client.Get(f.ts.URL + path)
	if err != nil {
		f.t.Fatalf("GET %s error = %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

// post submits a form with a fresh CSRF token and returns the final
// page body after redirects.
func (f *fixture) post(path string, form url.Values) string {
	f.t.Helper()

	m := csrfTokenRe.FindStringSubmatch(f.get("/login"))
	if m == nil {
		f.t.Fatal("no CSRF token in login page")
	}
	if form == nil {
		form = url.Values{}
	}
	form.Set("gorilla.csrf.Token", m[1])

	resp, err := f.client.PostForm(f.ts.URL+path, form)
	if err != nil {
		f.t.Fatalf("POST %s error = %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

// sessionID reads the session cookie the server set for this client.
func (f *fixture) sessionID() string {
	f.t.Helper()
	u, _ := url.Parse(f.ts.URL)
	for _, c := range f.client.Jar.Cookies(u) {
		if c.Name == "coachdesk_session" {
			return c.Value
		}
	}
	return ""
}

func (f *fixture) loginCoach() {
	f.t.Helper()
	f.post("/login/coach", url.Values{"username": {"coach"}, "password": {"pw"}})
	if f.sessionID() == "" {
		f.t.Fatal("coach login did not set a session cookie")
	}
}

func (f *fixture) loginClient() {
	f.t.Helper()
	f.post("/login/client", url.Values{"client_id": {"c1"}})
	if f.sessionID() == "" {
		f.t.Fatal("client login did not set a session cookie")
	}
}

func (f *fixture) draft() *session.Draft {
	f.t.Helper()
	d, err := f.store.LoadDraft(f.sessionID())
	if err != nil {
		f.t.Fatalf("LoadDraft() error = %v", err)
	}
	return d
}

func TestCoachLoginCreatesSession(t *testing.T) {
	f := newFixture(t)

	body := f.post("/login/coach", url.Values{"username": {"coach"}, "password": {"pw"}})
	if !strings.Contains(body, "Dashboard") {
		t.Errorf("after login, body missing dashboard, got %q", body)
	}

	sess, err := f.store.Get(f.sessionID())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sess.Token != "coach-token" {
		t.Errorf("Token = %q, want %q", sess.Token, "coach-token")
	}
	if sess.UserType != "coach" {
		t.Errorf("UserType = %q, want %q", sess.UserType, "coach")
	}
	if sess.User.Name != "Coach Dana" {
		t.Errorf("User.Name = %q, want %q", sess.User.Name, "Coach Dana")
	}
}

func TestLoginFailureStoresNoSession(t *testing.T) {
	f := newFixture(t)

	body := f.post("/login/coach", url.Values{"username": {"coach"}, "password": {"wrong"}})
	if !strings.Contains(body, "Invalid credentials") {
		t.Errorf("body missing backend error detail, got %q", body)
	}
	if id := f.sessionID(); id != "" {
		t.Errorf("session cookie set after failed login: %q", id)
	}
}

func TestRequireRole(t *testing.T) {
	f := newFixture(t)

	// Anonymous visitors land on the login page.
	body := f.get("/coach")
	if !strings.Contains(body, "Sign in") {
		t.Errorf("anonymous /coach did not reach login, got %q", body)
	}

	// A client session must not reach the coach surface.
	f.loginClient()
	resp, err := f.client.Get(f.ts.URL + "/coach")
	if err != nil {
		t.Fatalf("GET /coach error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("client GET /coach status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
}

func TestBlankWorkoutFlow(t *testing.T) {
	f := newFixture(t)
	f.loginClient()

	f.post("/me/workout/start", url.Values{"mode": {"blank"}})
	f.post("/me/workout/exercises", url.Values{"exercise_id": {"ex1"}})

	d := f.draft()
	if len(d.Exercises) != 1 || d.Exercises[0].ExerciseName != "Bench Press" {
		t.Fatalf("draft exercises = %+v, want one Bench Press", d.Exercises)
	}

	// First set gets zero defaults in a blank workout.
	f.post("/me/workout/exercises/0/sets", nil)
	d = f.draft()
	got := d.Exercises[0].Sets
	want := api.Set{SetNumber: 1, WeightKg: 0, Reps: 0, RIR: 2}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("first set = %+v, want %+v", got, want)
	}

	// Edits carry forward to the next added set.
	f.post("/me/workout/exercises/0/sets/0/update", url.Values{
		"weight_kg": {"60"}, "reps": {"8"}, "rir": {"1"},
	})
	f.post("/me/workout/exercises/0/sets", nil)
	d = f.draft()
	if got := d.Exercises[0].Sets[1]; got != (api.Set{SetNumber: 2, WeightKg: 60, Reps: 8, RIR: 1}) {
		t.Errorf("copied set = %+v", got)
	}

	// Non-numeric input coerces to zero.
	f.post("/me/workout/exercises/0/sets/1/update", url.Values{"weight_kg": {"abc"}})
	d = f.draft()
	if got := d.Exercises[0].Sets[1].WeightKg; got != 0 {
		t.Errorf("coerced weight = %v, want 0", got)
	}

	// The cap is five sets per exercise.
	for range 3 {
		f.post("/me/workout/exercises/0/sets", nil)
	}
	body := f.post("/me/workout/exercises/0/sets", nil)
	if !strings.Contains(body, "at most 5 sets") {
		t.Errorf("over-cap add did not warn, got %q", body)
	}
	d = f.draft()
	if len(d.Exercises[0].Sets) != 5 {
		t.Fatalf("sets after cap = %d, want 5", len(d.Exercises[0].Sets))
	}

	// Removing a middle set renumbers the rest 1..N.
	f.post("/me/workout/exercises/0/sets/2/remove", nil)
	d = f.draft()
	sets := d.Exercises[0].Sets
	if len(sets) != 4 {
		t.Fatalf("sets after remove = %d, want 4", len(sets))
	}
	for i, set := range sets {
		if set.SetNumber != i+1 {
			t.Errorf("sets[%d].SetNumber = %d, want %d", i, set.SetNumber, i+1)
		}
	}

	// Finishing submits to the backend and clears the draft.
	f.post("/me/workout/notes", url.Values{"notes": {"felt strong"}, "duration_minutes": {"45"}})
	body = f.post("/me/workout/finish", nil)
	if !strings.Contains(body, "Workout saved") {
		t.Errorf("finish did not confirm, got %q", body)
	}
	if len(f.backend.logged) != 1 {
		t.Fatalf("backend logged %d workouts, want 1", len(f.backend.logged))
	}
	logged := f.backend.logged[0]
	if logged.Notes != "felt strong" || logged.DurationMinutes != 45 {
		t.Errorf("logged notes/duration = %q/%d", logged.Notes, logged.DurationMinutes)
	}
	if _, err := f.store.LoadDraft(f.sessionID()); err != session.ErrNotFound {
		t.Errorf("LoadDraft() after finish error = %v, want ErrNotFound", err)
	}
}

func TestFinishEmptyBlankWorkoutRejected(t *testing.T) {
	f := newFixture(t)
	f.loginClient()

	f.post("/me/workout/start", url.Values{"mode": {"blank"}})
	body := f.post("/me/workout/finish", nil)
	if !strings.Contains(body, "Add at least one exercise") {
		t.Errorf("empty finish did not reject, got %q", body)
	}
	if len(f.backend.logged) != 0 {
		t.Errorf("backend logged %d workouts, want 0", len(f.backend.logged))
	}
}

func TestRoutineWorkoutDefaultsAndFilter(t *testing.T) {
	f := newFixture(t)
	f.backend.routine = &api.Routine{
		ID:   "r1",
		Name: "Push Day",
		Exercises: []api.RoutineExercise{
			{ExerciseID: "ex1", ExerciseName: "Bench Press", TargetSets: 3, TargetReps: "8-12"},
			{ExerciseID: "ex2", ExerciseName: "Squat", TargetSets: 3, TargetReps: "5"},
		},
	}
	f.loginClient()

	f.post("/me/workout/start", url.Values{"mode": {"routine"}})
	d := f.draft()
	if !d.FromRoutine || d.RoutineName != "Push Day" {
		t.Fatalf("draft = %+v, want routine workout", d)
	}
	if len(d.Exercises) != 2 {
		t.Fatalf("draft exercises = %d, want 2", len(d.Exercises))
	}

	// Untouched finish is rejected: no sets logged anywhere.
	body := f.post("/me/workout/finish", nil)
	if !strings.Contains(body, "Log at least one set") {
		t.Errorf("empty routine finish did not reject, got %q", body)
	}

	// First set defaults reps to the lower bound of the target range.
	f.post("/me/workout/exercises/0/sets", nil)
	d = f.draft()
	if got := d.Exercises[0].Sets[0]; got != (api.Set{SetNumber: 1, WeightKg: 0, Reps: 8, RIR: 2}) {
		t.Errorf("routine first set = %+v", got)
	}

	// Finishing keeps only exercises with logged sets.
	f.post("/me/workout/finish", nil)
	if len(f.backend.logged) != 1 {
		t.Fatalf("backend logged %d workouts, want 1", len(f.backend.logged))
	}
	logged := f.backend.logged[0]
	if logged.RoutineID != "r1" {
		t.Errorf("RoutineID = %q, want %q", logged.RoutineID, "r1")
	}
	if len(logged.Exercises) != 1 || logged.Exercises[0].ExerciseID != "ex1" {
		t.Errorf("logged exercises = %+v, want only ex1", logged.Exercises)
	}
}

func TestFinishFailureKeepsDraft(t *testing.T) {
	f := newFixture(t)
	f.loginClient()

	f.post("/me/workout/start", url.Values{"mode": {"blank"}})
	f.post("/me/workout/exercises", url.Values{"exercise_id": {"ex2"}})
	f.post("/me/workout/exercises/0/sets", nil)

	f.backend.failLog = true
	body := f.post("/me/workout/finish", nil)
	if !strings.Contains(body, "Database unavailable") {
		t.Errorf("failed finish did not surface backend error, got %q", body)
	}

	// The draft survives so the user can retry.
	d := f.draft()
	if len(d.Exercises) != 1 || len(d.Exercises[0].Sets) != 1 {
		t.Errorf("draft after failed save = %+v, want intact", d.Exercises)
	}

	f.backend.failLog = false
	f.post("/me/workout/finish", nil)
	if len(f.backend.logged) != 1 {
		t.Errorf("backend logged %d workouts after retry, want 1", len(f.backend.logged))
	}
}

// TestSecureModeOverTLS runs the server the way the tailnet deployment
// does: TLS listener, Secure cookies, strict CSRF origin checks.
// Browsers send a Referer on same-origin form posts, so the test does
// too.
func TestSecureModeOverTLS(t *testing.T) {
	backend := newTestBackend()
	backendSrv := httptest.NewServer(backend)
	t.Cleanup(backendSrv.Close)

	store, err := session.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(api.New(backendSrv.URL, 5*time.Second), store, log, Options{
		CSRFKey:         []byte("0123456789abcdef0123456789abcdef"),
		InsecureCookies: false,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ts := httptest.NewTLSServer(srv)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New() error = %v", err)
	}
	client := ts.Client()
	client.Jar = jar

	resp, err := client.Get(ts.URL + "/login")
	if err != nil {
		t.Fatalf("GET /login error = %v", err)
	}
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	m := csrfTokenRe.FindStringSubmatch(string(page))
	if m == nil {
		t.Fatal("no CSRF token in login page")
	}

	form := url.Values{
		"username":           {"coach"},
		"password":           {"pw"},
		"gorilla.csrf.Token": {m[1]},
	}
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/login/coach", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", ts.URL+"/login")

	noRedirect := *client
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	resp, err = noRedirect.Do(req)
	if err != nil {
		t.Fatalf("POST /login/coach error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}

	var sessCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "coachdesk_session" {
			sessCookie = c
		}
	}
	if sessCookie == nil {
		t.Fatal("no session cookie set")
	}
	if !sessCookie.Secure {
		t.Error("session cookie not marked Secure in TLS mode")
	}

	// The jar holds the Secure cookie for the https origin, so the
	// coach surface is reachable.
	resp, err = client.Get(ts.URL + "/coach")
	if err != nil {
		t.Fatalf("GET /coach error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "Dashboard") {
		t.Errorf("/coach body missing dashboard, got %q", body)
	}
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.loginCoach()
	id := f.sessionID()

	f.post("/logout", nil)
	if _, err := f.store.Get(id); err != session.ErrNotFound {
		t.Errorf("Get() after logout error = %v, want ErrNotFound", err)
	}
	body := f.get("/coach")
	if !strings.Contains(body, "Sign in") {
		t.Errorf("logged-out /coach did not reach login, got %q", body)
	}
}
