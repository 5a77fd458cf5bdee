package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindprobe/mindprobe-api/internal/assessment"
	"github.com/mindprobe/mindprobe-api/internal/rbac"
)

// POST /tests/{testID}/start
// Idempotent: a second start before completion returns the same attempt.
func StartAttemptHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		a, resumed, err := store.StartAttempt(r.Context(), chi.URLParam(r, "testID"), sub)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		status := http.StatusCreated
		msg := "test started"
		if resumed {
			status = http.StatusOK
			msg = "test already started"
		}
		writeJSON(w, status, map[string]any{"attempt": a, "message": msg})
	}
}

// POST /attempts/{attemptID}/submit  { "answers": [{question_index, answer_value|answer_text}] }
// Submission is whole-replace; completion is exactly-once.
func SubmitAnswersHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Answers []assessment.Answer `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		sub := rbac.SubjectFromContext(r.Context())
		a, err := store.CompleteAttempt(r.Context(), chi.URLParam(r, "attemptID"), sub, req.Answers)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"attempt": a, "message": "test completed"})
	}
}

// GET /attempts/{attemptID} — owner-only unless the role can view all.
func GetAttemptHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := store.GetAttempt(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		sub := rbac.SubjectFromContext(r.Context())
		role := rbac.RoleFromContext(r.Context())
		if a.UserID != sub && !rbac.Default.Has(role, "attempt:view-all") {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// GET /my-results?test_id=...&limit=50&offset=0
func MyResultsHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		list, err := store.ListResults(r.Context(), assessment.ResultListOpts{
			UserID: sub,
			TestID: r.URL.Query().Get("test_id"),
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
