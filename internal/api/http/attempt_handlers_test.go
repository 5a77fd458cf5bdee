package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	apihttp "github.com/mindprobe/mindprobe-api/internal/api/http"
	"github.com/mindprobe/mindprobe-api/internal/assessment"
	"github.com/mindprobe/mindprobe-api/internal/interpret"
	"github.com/mindprobe/mindprobe-api/internal/rbac"
	"github.com/mindprobe/mindprobe-api/internal/scoring"
)

// asUser stamps the request context the way the JWT middleware does.
func asUser(sub, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := rbac.WithSubject(r.Context(), sub)
			ctx = rbac.WithRole(ctx, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newTestRouter(t *testing.T, store assessment.Store, sub, role string) *chi.Mux {
	t.Helper()
	r := chi.NewRouter()
	r.Use(asUser(sub, role))
	r.Post("/tests/{testID}/start", apihttp.StartAttemptHandler(store))
	r.Post("/attempts/{attemptID}/submit", apihttp.SubmitAnswersHandler(store))
	r.Get("/attempts/{attemptID}", apihttp.GetAttemptHandler(store))
	r.Get("/my-results", apihttp.MyResultsHandler(store))
	return r
}

func seededStore(t *testing.T) assessment.Store {
	t.Helper()
	st := assessment.NewInMemoryStore(scoring.NewDefaultEngine())
	def := assessment.TestDefinition{
		ID:    "t1",
		Title: "Mood",
		Type:  assessment.TypeLikert,
		Questions: []assessment.Question{
			{Text: "I feel calm"},
			{Text: "I feel focused"},
		},
		Interpretation: interpret.Config{"overall": {
			{Min: 0, Max: 50, Interpretation: "Low"},
			{Min: 51, Max: 100, Interpretation: "High"},
		}},
	}
	if err := st.PutTest(context.Background(), def); err != nil {
		t.Fatalf("seed test: %v", err)
	}
	return st
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: bad json body %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, out
}

func TestStartSubmitGetFlow(t *testing.T) {
	st := seededStore(t)
	r := newTestRouter(t, st, "u1", "user")

	rec, out := doJSON(t, r, http.MethodPost, "/tests/t1/start", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d body=%s", rec.Code, rec.Body)
	}
	if out["message"] != "test started" {
		t.Fatalf("start message = %v", out["message"])
	}
	attempt := out["attempt"].(map[string]any)
	attemptID := attempt["id"].(string)

	// starting again resumes the same attempt with a 200
	rec, out = doJSON(t, r, http.MethodPost, "/tests/t1/start", "")
	if rec.Code != http.StatusOK || out["message"] != "test already started" {
		t.Fatalf("restart: status=%d body=%s", rec.Code, rec.Body)
	}
	if out["attempt"].(map[string]any)["id"] != attemptID {
		t.Fatalf("restart returned a different attempt")
	}

	rec, out = doJSON(t, r, http.MethodPost, "/attempts/"+attemptID+"/submit",
		`{"answers":[{"question_index":0,"answer_value":5},{"question_index":1,"answer_value":3}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d body=%s", rec.Code, rec.Body)
	}
	done := out["attempt"].(map[string]any)
	scores := done["scores"].(map[string]any)
	if scores["percentage"].(float64) != 80.0 {
		t.Fatalf("scores = %v", scores)
	}
	if done["interpretation"].(map[string]any)["overall"] != "High" {
		t.Fatalf("interpretation = %v", done["interpretation"])
	}

	rec, _ = doJSON(t, r, http.MethodGet, "/attempts/"+attemptID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get attempt status = %d", rec.Code)
	}

	rec, _ = doJSON(t, r, http.MethodGet, "/my-results", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("my-results status = %d", rec.Code)
	}
	var list []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list) != 1 {
		t.Fatalf("my-results body = %s (err=%v)", rec.Body, err)
	}
}

func TestSubmitValidationErrorShape(t *testing.T) {
	st := seededStore(t)
	r := newTestRouter(t, st, "u1", "user")

	_, out := doJSON(t, r, http.MethodPost, "/tests/t1/start", "")
	attemptID := out["attempt"].(map[string]any)["id"].(string)

	rec, out := doJSON(t, r, http.MethodPost, "/attempts/"+attemptID+"/submit",
		`{"answers":[{"question_index":0,"answer_value":9},{"question_index":1,"answer_value":3}]}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	if out["message"] != "invalid answers" {
		t.Fatalf("message = %v", out["message"])
	}
	errs := out["errors"].([]any)
	if len(errs) != 1 {
		t.Fatalf("errors = %v", errs)
	}
	first := errs[0].(map[string]any)
	if first["question_index"].(float64) != 0 {
		t.Fatalf("problem = %v", first)
	}
}

func TestSubmitTwiceIsBadRequest(t *testing.T) {
	st := seededStore(t)
	r := newTestRouter(t, st, "u1", "user")

	_, out := doJSON(t, r, http.MethodPost, "/tests/t1/start", "")
	attemptID := out["attempt"].(map[string]any)["id"].(string)

	body := `{"answers":[{"question_index":0,"answer_value":4},{"question_index":1,"answer_value":4}]}`
	if rec, _ := doJSON(t, r, http.MethodPost, "/attempts/"+attemptID+"/submit", body); rec.Code != http.StatusOK {
		t.Fatalf("first submit status = %d", rec.Code)
	}
	rec, _ := doJSON(t, r, http.MethodPost, "/attempts/"+attemptID+"/submit", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second submit status = %d, want 400", rec.Code)
	}
}

func TestAttemptOwnershipEnforced(t *testing.T) {
	st := seededStore(t)
	owner := newTestRouter(t, st, "u1", "user")
	other := newTestRouter(t, st, "u2", "user")
	admin := newTestRouter(t, st, "boss", "admin")

	_, out := doJSON(t, owner, http.MethodPost, "/tests/t1/start", "")
	attemptID := out["attempt"].(map[string]any)["id"].(string)

	// another user can neither submit nor read it
	rec, _ := doJSON(t, other, http.MethodPost, "/attempts/"+attemptID+"/submit",
		`{"answers":[{"question_index":0,"answer_value":1},{"question_index":1,"answer_value":1}]}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign submit status = %d, want 403", rec.Code)
	}
	rec, _ = doJSON(t, other, http.MethodGet, "/attempts/"+attemptID, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign read status = %d, want 403", rec.Code)
	}

	// admins hold attempt:view-all
	rec, _ = doJSON(t, admin, http.MethodGet, "/attempts/"+attemptID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("admin read status = %d, want 200", rec.Code)
	}
}

func TestStartUnknownTestIs404(t *testing.T) {
	st := seededStore(t)
	r := newTestRouter(t, st, "u1", "user")
	rec, _ := doJSON(t, r, http.MethodPost, "/tests/ghost/start", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSubmitRejectsMalformedJSON(t *testing.T) {
	st := seededStore(t)
	r := newTestRouter(t, st, "u1", "user")
	rec, _ := doJSON(t, r, http.MethodPost, "/attempts/x/submit", `{"answers":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
