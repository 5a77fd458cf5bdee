package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mindprobe/mindprobe-api/internal/assessment"
)

// testUpsertRequest is the admin authoring payload. scoring_logic and
// result_interpretation arrive as free-form JSON and are validated into
// structured configs before the definition is stored.
type testUpsertRequest struct {
	CategoryID       string                `json:"category_id"`
	Title            string                `json:"title"`
	Description      string                `json:"description"`
	TestType         string                `json:"test_type"`
	TimeLimitMinutes int                   `json:"time_limit_minutes"`
	Questions        []assessment.Question `json:"questions"`
	ScoringLogic     json.RawMessage       `json:"scoring_logic"`
	Interpretation   json.RawMessage       `json:"result_interpretation"`
}

func (req *testUpsertRequest) toDefinition(id string) (assessment.TestDefinition, error) {
	t := assessment.TestDefinition{
		ID:               id,
		CategoryID:       req.CategoryID,
		Title:            req.Title,
		Description:      req.Description,
		Type:             assessment.TestType(req.TestType),
		TimeLimitMinutes: req.TimeLimitMinutes,
		Questions:        req.Questions,
	}
	if err := assessment.ValidateDefinition(&t); err != nil {
		return assessment.TestDefinition{}, err
	}
	scoring, err := assessment.ParseScoringConfig(req.ScoringLogic, len(t.Questions))
	if err != nil {
		return assessment.TestDefinition{}, err
	}
	interp, err := assessment.ParseInterpretationConfig(req.Interpretation)
	if err != nil {
		return assessment.TestDefinition{}, err
	}
	t.Scoring = scoring
	t.Interpretation = interp
	return t, nil
}

func ListTestsHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := assessment.ListOpts{
			Q:          strings.TrimSpace(r.URL.Query().Get("q")),
			CategoryID: strings.TrimSpace(r.URL.Query().Get("category_id")),
			Limit:      parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:     parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		list, err := store.ListTests(r.Context(), opts)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GetTestHandler serves the taker-safe view: scoring and interpretation
// config are stripped.
func GetTestHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := store.GetTest(r.Context(), chi.URLParam(r, "testID"))
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// GetTestAdminHandler serves the full definition, for admin editing.
func GetTestAdminHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := store.GetTestAdmin(r.Context(), chi.URLParam(r, "testID"))
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func CreateTestHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req testUpsertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		t, err := req.toDefinition(uuid.NewString())
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		if err := store.PutTest(r.Context(), t); err != nil {
			writeStoreErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

func UpdateTestHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "testID")
		if _, err := store.GetTestAdmin(r.Context(), id); err != nil {
			writeStoreErr(w, err)
			return
		}
		var req testUpsertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		t, err := req.toDefinition(id)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		if err := store.PutTest(r.Context(), t); err != nil {
			writeStoreErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func DeleteTestHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteTest(r.Context(), chi.URLParam(r, "testID")); err != nil {
			writeStoreErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
