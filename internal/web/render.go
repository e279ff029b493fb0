package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/csrf"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/claude/coachdesk/internal/api"
)

//go:embed templates/*.html
var templatesFS embed.FS

// renderer executes page templates against a shared base layout.
type renderer struct {
	base *template.Template
}

func newRenderer() (*renderer, error) {
	base, err := template.New("base").Funcs(templateFuncs()).ParseFS(templatesFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}
	return &renderer{base: base}, nil
}

// PageData is the envelope every page template receives.
type PageData struct {
	Title       string
	User        api.User
	UserType    string
	LoggedIn    bool
	CurrentPath string
	Flash       *Flash
	CSRFField   template.HTML
	Data        any
}

// page renders a full page inside the base layout. The page template is
// parsed into a clone of the base so each page's "content" block stays
// independent.
func (s *Server) page(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	pd := PageData{
		Title:       title,
		CurrentPath: r.URL.Path,
		Flash:       s.popFlash(w, r),
		CSRFField:   csrf.TemplateField(r),
		Data:        data,
	}
	if sess := SessionFromContext(r.Context()); sess != nil {
		pd.User = sess.User
		pd.UserType = sess.UserType
		pd.LoggedIn = true
	} else if sess := s.sessionFromCookie(r); sess != nil {
		pd.User = sess.User
		pd.UserType = sess.UserType
		pd.LoggedIn = true
	}

	tmpl, err := s.render.base.Clone()
	if err != nil {
		s.log.Error("template clone failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if _, err := tmpl.ParseFS(templatesFS, "templates/"+name); err != nil {
		s.log.Error("template parse failed", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base", pd); err != nil {
		s.log.Error("template execute failed", "template", name, "error", err)
	}
}

var (
	tipsMarkdown = goldmark.New()
	tipsPolicy   = bluemonday.UGCPolicy()
)

// markdown renders coach-authored tips to sanitized HTML.
func markdown(src string) template.HTML {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := tipsMarkdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(tipsPolicy.SanitizeBytes(buf.Bytes()))
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"markdown": markdown,
		"fmtDate": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Format("2006-01-02")
		},
		"fmtWeight": func(kg float64) string {
			if kg == float64(int(kg)) {
				return fmt.Sprintf("%d kg", int(kg))
			}
			return fmt.Sprintf("%.1f kg", kg)
		},
		"fmtFloat": func(v float64) string {
			return fmt.Sprintf("%.1f", v)
		},
		"volume": func(w api.Workout) float64 {
			var total float64
			for _, ex := range w.Exercises {
				for _, set := range ex.Sets {
					total += set.WeightKg * float64(set.Reps)
				}
			}
			return total
		},
		"setCount": func(w api.Workout) int {
			n := 0
			for _, ex := range w.Exercises {
				n += len(ex.Sets)
			}
			return n
		},
		// iterate yields 0..n-1 for templates that need blank rows.
		"iterate": func(n int) []int {
			out := make([]int, n)
			for i := range out {
				out[i] = i
			}
			return out
		},
		"assigned": func(routine *api.Routine, clientID string) bool {
			if routine == nil {
				return false
			}
			for _, id := range routine.AssignedClients {
				if id == clientID {
					return true
				}
			}
			return false
		},
	}
}
