// Package api is the typed client for the coaching backend's REST API.
// The backend owns all business logic and persistence; CoachDesk only
// reads and writes through these endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is a non-2xx response from the backend, carrying the
// backend's detail message so handlers can show it to the user.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
}

// Client calls the coaching backend over HTTP. The zero token is valid
// for public endpoints (health, exercise catalog, login); authenticated
// endpoints need a client created via WithToken.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a Client targeting the given base URL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithToken returns a copy of the client that sends the given bearer
// token on every request.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// do issues a request and decodes the JSON response into out (when out
// is non-nil). Query params go on the URL, body is JSON-encoded.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("api: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Detail: errorDetail(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("api: decode %s: %w", path, err)
		}
	}
	return nil
}

// errorDetail extracts the backend's {"detail": "..."} message, falling
// back to the raw body.
func errorDetail(body []byte) string {
	var e struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Detail != "" {
		return e.Detail
	}
	return strings.TrimSpace(string(body))
}

// Health pings the backend.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil, nil)
}

// CoachLogin authenticates a coach by username and password.
// The backend takes credentials as query parameters.
func (c *Client) CoachLogin(ctx context.Context, username, password string) (*AuthResponse, error) {
	params := url.Values{}
	params.Set("username", username)
	params.Set("password", password)

	var auth AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/coach/login", params, nil, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

// ClientLogin authenticates a client by their client ID.
func (c *Client) ClientLogin(ctx context.Context, clientID string) (*AuthResponse, error) {
	params := url.Values{}
	params.Set("client_id", clientID)

	var auth AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/client/login", params, nil, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

// Clients lists the coach's roster.
func (c *Client) Clients(ctx context.Context) ([]ClientAccount, error) {
	var clients []ClientAccount
	if err := c.do(ctx, http.MethodGet, "/api/coach/clients", nil, nil, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// CreateClient adds a client to the roster.
func (c *Client) CreateClient(ctx context.Context, name, email string) (*ClientAccount, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("email", email)

	var client ClientAccount
	if err := c.do(ctx, http.MethodPost, "/api/coach/clients", params, nil, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

// UpdateClient changes a roster entry's name and email.
func (c *Client) UpdateClient(ctx context.Context, clientID, name, email string) (*ClientAccount, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("email", email)

	var client ClientAccount
	if err := c.do(ctx, http.MethodPut, "/api/coach/clients/"+clientID, params, nil, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

// DeleteClient removes a client from the roster.
func (c *Client) DeleteClient(ctx context.Context, clientID string) error {
	return c.do(ctx, http.MethodDelete, "/api/coach/clients/"+clientID, nil, nil, nil)
}

// Dashboard fetches the coach's landing summary.
func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	if err := c.do(ctx, http.MethodGet, "/api/coach/dashboard", nil, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ClientProgress fetches one client's workouts, measurements and stats.
func (c *Client) ClientProgress(ctx context.Context, clientID string) (*ClientProgress, error) {
	var p ClientProgress
	if err := c.do(ctx, http.MethodGet, "/api/coach/client/"+clientID+"/progress", nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Exercises lists the exercise catalog.
func (c *Client) Exercises(ctx context.Context) ([]Exercise, error) {
	var exercises []Exercise
	if err := c.do(ctx, http.MethodGet, "/api/exercises", nil, nil, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// SearchExercises filters the catalog by name substring.
func (c *Client) SearchExercises(ctx context.Context, query string) ([]Exercise, error) {
	params := url.Values{}
	params.Set("query", query)

	var exercises []Exercise
	if err := c.do(ctx, http.MethodGet, "/api/exercises/search", params, nil, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// CreateExercise adds a catalog entry with optional form tips.
func (c *Client) CreateExercise(ctx context.Context, name, muscleGroup, tips string) (*Exercise, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("muscle_group", muscleGroup)
	if tips != "" {
		params.Set("tips", tips)
	}

	var ex Exercise
	if err := c.do(ctx, http.MethodPost, "/api/coach/exercises", params, nil, &ex); err != nil {
		return nil, err
	}
	return &ex, nil
}

// UpdateExerciseTips replaces the tips on a catalog entry.
func (c *Client) UpdateExerciseTips(ctx context.Context, exerciseID, tips string) (*Exercise, error) {
	params := url.Values{}
	params.Set("tips", tips)

	var ex Exercise
	if err := c.do(ctx, http.MethodPut, "/api/coach/exercises/"+exerciseID, params, nil, &ex); err != nil {
		return nil, err
	}
	return &ex, nil
}

// Routines lists the coach's routines.
func (c *Client) Routines(ctx context.Context) ([]Routine, error) {
	var routines []Routine
	if err := c.do(ctx, http.MethodGet, "/api/coach/routines", nil, nil, &routines); err != nil {
		return nil, err
	}
	return routines, nil
}

// CreateRoutine creates a routine and assigns it to clients.
func (c *Client) CreateRoutine(ctx context.Context, routine NewRoutine) (*Routine, error) {
	var created Routine
	if err := c.do(ctx, http.MethodPost, "/api/coach/routines", nil, routine, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateRoutine replaces a routine's contents and assignments.
func (c *Client) UpdateRoutine(ctx context.Context, routineID string, routine NewRoutine) (*Routine, error) {
	var updated Routine
	if err := c.do(ctx, http.MethodPut, "/api/coach/routines/"+routineID, nil, routine, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Measurements lists a client's body measurements, newest first.
func (c *Client) Measurements(ctx context.Context, clientID string) ([]Measurement, error) {
	var measurements []Measurement
	if err := c.do(ctx, http.MethodGet, "/api/coach/measurements/"+clientID, nil, nil, &measurements); err != nil {
		return nil, err
	}
	return measurements, nil
}

// AddMeasurement records a measurement for a client.
func (c *Client) AddMeasurement(ctx context.Context, clientID string, m NewMeasurement) (*Measurement, error) {
	var created Measurement
	if err := c.do(ctx, http.MethodPost, "/api/coach/measurements/"+clientID, nil, m, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ProgressComparison fetches the side-by-side client comparison.
func (c *Client) ProgressComparison(ctx context.Context) ([]ClientComparison, error) {
	var rows []ClientComparison
	if err := c.do(ctx, http.MethodGet, "/api/coach/progress-comparison", nil, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// AssignedRoutine fetches the logged-in client's routine.
// Returns nil when the coach has not assigned one.
func (c *Client) AssignedRoutine(ctx context.Context) (*Routine, error) {
	var resp AssignedRoutine
	if err := c.do(ctx, http.MethodGet, "/api/client/routine", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Routine, nil
}

// Workouts lists the logged-in client's workout history, newest first.
func (c *Client) Workouts(ctx context.Context) ([]Workout, error) {
	var workouts []Workout
	if err := c.do(ctx, http.MethodGet, "/api/client/workouts", nil, nil, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

// LogWorkout submits a completed workout.
func (c *Client) LogWorkout(ctx context.Context, w NewWorkout) (*Workout, error) {
	var created Workout
	if err := c.do(ctx, http.MethodPost, "/api/client/workouts", nil, w, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ClientStats fetches the logged-in client's aggregate stats.
func (c *Client) ClientStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.do(ctx, http.MethodGet, "/api/client/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
