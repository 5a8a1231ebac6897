package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/course-portal/internal/platform/api"
	"github.com/example/course-portal/internal/store"
)

// ListSemesters handles GET /v1/semesters
func ListSemesters(catalog store.CatalogStore, cache Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const key = "semesters"
		if v, ok := cache.Get(key); ok {
			api.WriteJSON(w, http.StatusOK, v)
			return
		}
		semesters, err := catalog.ListSemesters(r.Context())
		if err != nil {
			api.Internal(w, "")
			return
		}
		cache.Set(key, semesters)
		api.WriteJSON(w, http.StatusOK, semesters)
	}
}

// CurrentSemester handles GET /v1/semesters/current
func CurrentSemester(catalog store.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sem, err := catalog.CurrentSemester(r.Context(), time.Now().UTC())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, "NOT_FOUND", "no semesters on record", "")
				return
			}
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, sem)
	}
}

// ListCourses handles GET /v1/semesters/{semester_id}/courses?query=
func ListCourses(catalog store.CatalogStore, cache Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		semesterID := strings.TrimSpace(chi.URLParam(r, "semester_id"))
		if semesterID == "" {
			api.BadRequest(w, "MISSING_ID", "semester_id is required", "", nil)
			return
		}
		query := strings.TrimSpace(r.URL.Query().Get("query"))

		key := "courses:" + semesterID + ":" + strings.ToLower(query)
		if v, ok := cache.Get(key); ok {
			api.WriteJSON(w, http.StatusOK, v)
			return
		}
		courses, err := catalog.ListCourses(r.Context(), semesterID, query)
		if err != nil {
			api.Internal(w, "")
			return
		}
		cache.Set(key, courses)
		api.WriteJSON(w, http.StatusOK, courses)
	}
}

// ListTeachers handles GET /v1/teachers
func ListTeachers(catalog store.CatalogStore, cache Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const key = "teachers"
		if v, ok := cache.Get(key); ok {
			api.WriteJSON(w, http.StatusOK, v)
			return
		}
		teachers, err := catalog.ListTeachers(r.Context())
		if err != nil {
			api.Internal(w, "")
			return
		}
		cache.Set(key, teachers)
		api.WriteJSON(w, http.StatusOK, teachers)
	}
}

// GetTeacher handles GET /v1/teachers/{teacher_id}
func GetTeacher(catalog store.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teacherID := strings.TrimSpace(chi.URLParam(r, "teacher_id"))
		if teacherID == "" {
			api.BadRequest(w, "MISSING_ID", "teacher_id is required", "", nil)
			return
		}
		t, err := catalog.GetTeacher(r.Context(), teacherID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, "NOT_FOUND", "teacher not found", "")
				return
			}
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, t)
	}
}

// ListSections handles GET /v1/courses/{course_id}/sections
func ListSections(catalog store.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := strings.TrimSpace(chi.URLParam(r, "course_id"))
		if courseID == "" {
			api.BadRequest(w, "MISSING_ID", "course_id is required", "", nil)
			return
		}
		sections, err := catalog.ListSections(r.Context(), courseID)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, sections)
	}
}

// GetSection handles GET /v1/sections/{section_id}
func GetSection(catalog store.CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sectionID := strings.TrimSpace(chi.URLParam(r, "section_id"))
		if sectionID == "" {
			api.BadRequest(w, "MISSING_ID", "section_id is required", "", nil)
			return
		}
		detail, err := catalog.GetSection(r.Context(), sectionID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, "NOT_FOUND", "section not found", "")
				return
			}
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, detail)
	}
}
