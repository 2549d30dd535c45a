package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// AccessToken is the bearer token issued by the fake token endpoint
const AccessToken = "fake-access-token"

var termPattern = regexp.MustCompile(`^\d{6}$`)

// StudentsAPI is a fake students service: it serves StudentsSwagger, issues
// client-credentials tokens and answers resource requests for StudentID.
type StudentsAPI struct {
	*httptest.Server

	TokenRequests atomic.Int32

	mu       sync.Mutex
	delay    map[string]time.Duration
	mutators map[string]func(body map[string]any)
	requests []string
}

// NewStudentsAPI starts the fake API and closes it when the test ends
func NewStudentsAPI(t testing.TB) *StudentsAPI {
	t.Helper()

	api := &StudentsAPI{
		delay:    make(map[string]time.Duration),
		mutators: make(map[string]func(map[string]any)),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte(StudentsSwagger))
	})

	r.Post("/oauth2/token", api.token)

	r.Route("/v1/students/{osuId}", func(r chi.Router) {
		r.Use(api.requireToken)
		r.Get("/{resource}", api.resource)
	})

	api.Server = httptest.NewServer(r)
	t.Cleanup(api.Close)
	return api
}

// Delay slows every response for resource
func (a *StudentsAPI) Delay(resource string, d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.delay[resource] = d
}

// Mutate rewrites successful bodies for resource before they are sent
func (a *StudentsAPI) Mutate(resource string, fn func(body map[string]any)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mutators[resource] = fn
}

// Requests returns the request URIs served so far
func (a *StudentsAPI) Requests() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.requests...)
}

func (a *StudentsAPI) token(w http.ResponseWriter, r *http.Request) {
	a.TokenRequests.Add(1)
	if err := r.ParseForm(); err != nil ||
		r.PostForm.Get("grant_type") != "client_credentials" ||
		r.PostForm.Get("client_id") != "test-client" ||
		r.PostForm.Get("client_secret") != "test-secret" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid_client"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": AccessToken,
		"token_type":   "Bearer",
		"expires_in":   3599,
	})
}

func (a *StudentsAPI) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+AccessToken {
			writeJSON(w, http.StatusUnauthorized, errorEnvelope("401", "Unauthorized", "Invalid access token."))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *StudentsAPI) resource(w http.ResponseWriter, r *http.Request) {
	osuID := chi.URLParam(r, "osuId")
	resource := chi.URLParam(r, "resource")

	a.mu.Lock()
	a.requests = append(a.requests, r.URL.RequestURI())
	delay := a.delay[resource]
	mutate := a.mutators[resource]
	a.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if resource == "class-schedule" {
		term := r.URL.Query().Get("term")
		if term == "" {
			writeJSON(w, http.StatusBadRequest, errorEnvelope("400", "Bad Request", TermRequiredError))
			return
		}
		if !termPattern.MatchString(term) {
			writeJSON(w, http.StatusBadRequest, errorEnvelope("400", "Bad Request", TermInvalidError))
			return
		}
	}

	if osuID != StudentID {
		writeJSON(w, http.StatusNotFound, errorEnvelope("404", "Not Found", NotFoundDetail))
		return
	}

	self := "http://" + r.Host + r.URL.RequestURI()
	var body map[string]any
	switch resource {
	case "gpa":
		body = gpaBody(self)
	case "academic-status":
		body = academicStatusBody(self)
	case "holds":
		body = holdsBody(self)
	case "class-schedule":
		body = classScheduleBody(self, r.URL.Query().Get("term"))
	default:
		writeJSON(w, http.StatusNotFound, errorEnvelope("404", "Not Found", NotFoundDetail))
		return
	}

	if mutate != nil {
		mutate(body)
	}
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func errorEnvelope(status, title, detail string) map[string]any {
	return map[string]any{
		"errors": []any{
			map[string]any{
				"status": status,
				"title":  title,
				"code":   "1" + status,
				"detail": detail,
				"links": map[string]any{
					"about": "https://developer.example.edu/documentation/error-reference#1" + status,
				},
			},
		},
	}
}

func resourceObject(id, kind, self string, attributes map[string]any) map[string]any {
	return map[string]any{
		"id":         id,
		"type":       kind,
		"attributes": attributes,
		"links":      map[string]any{"self": self},
	}
}

// decimal keeps the fraction on the wire; float64 4 would encode as 4.
func decimal(f float64) json.Number {
	return json.Number(strconv.FormatFloat(f, 'f', 2, 64))
}

func gpaLevel(level string, gpa float64) map[string]any {
	return map[string]any{
		"gpa":                  decimal(gpa),
		"gpaCreditHours":       60,
		"gpaType":              "Institution",
		"creditHoursAttempted": 64,
		"qualityPoints":        decimal(gpa * 60),
		"level":                level,
	}
}

func gpaBody(self string) map[string]any {
	return map[string]any{
		"links": map[string]any{"self": self},
		"data": resourceObject(StudentID, "gpa", self, map[string]any{
			"gpaLevels": []any{gpaLevel("Undergraduate", 3.25), gpaLevel("Graduate", 4)},
		}),
	}
}

func academicStatusBody(self string) map[string]any {
	base := strings.SplitN(self, "?", 2)[0]
	var data []any
	for _, term := range []string{"201801", "201803"} {
		data = append(data, resourceObject(StudentID+"-"+term, "academic-status", base+"?term="+term, map[string]any{
			"academicStanding": "Good Standing",
			"term":             term,
			"termDescription":  "Fall " + term[:4],
			"gpa":              []any{gpaLevel("Undergraduate", 3.1)},
		}))
	}
	return map[string]any{"links": map[string]any{"self": self}, "data": data}
}

func holdsBody(self string) map[string]any {
	return map[string]any{
		"links": map[string]any{"self": self},
		"data": resourceObject(StudentID, "holds", self, map[string]any{
			"holds": []any{
				map[string]any{
					"fromDate":          "2019-01-07",
					"toDate":            "2099-12-31",
					"description":       "Library fine",
					"reason":            nil,
					"processesAffected": []any{"Registration", "Transcripts"},
				},
			},
		}),
	}
}

func classScheduleBody(self, term string) map[string]any {
	var data []any
	if term == ScheduleTerm {
		for _, crn := range []string{"12345", "23456"} {
			data = append(data, resourceObject(StudentID+"-"+term+"-"+crn, "class-schedule", self, map[string]any{
				"term":                  term,
				"courseReferenceNumber": crn,
				"courseTitle":           "Intro to Testing",
				"creditHours":           decimal(4),
				"registrationStatus":    "Registered",
				"scheduleStart":         "2019-01-07T08:00:00Z",
			}))
		}
	}
	if data == nil {
		data = []any{}
	}
	return map[string]any{"links": map[string]any{"self": self}, "data": data}
}
