package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mindprobe/mindprobe-api/internal/assessment"
)

func ListCategoriesHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats, err := store.ListCategories(r.Context())
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cats)
	}
}

func GetCategoryHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := store.GetCategory(r.Context(), chi.URLParam(r, "categoryID"))
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func CreateCategoryHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c assessment.Category
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if c.Name == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		c.ID = uuid.NewString()
		if err := store.PutCategory(r.Context(), c); err != nil {
			writeStoreErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func UpdateCategoryHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "categoryID")
		existing, err := store.GetCategory(r.Context(), id)
		if err != nil {
			writeStoreErr(w, err)
			return
		}
		var c assessment.Category
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if c.Name == "" {
			c.Name = existing.Name
		}
		c.ID = id
		c.CreatedAt = existing.CreatedAt
		if err := store.PutCategory(r.Context(), c); err != nil {
			writeStoreErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func DeleteCategoryHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteCategory(r.Context(), chi.URLParam(r, "categoryID")); err != nil {
			writeStoreErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
