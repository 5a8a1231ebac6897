package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/course-portal/internal/store"
)

func TestListCourses_UsesCache(t *testing.T) {
	cat := store.NewInMemoryCatalogStore()
	cat.AddCourse(store.Course{ID: "c-1", SemesterID: "sem-1", Code: "CS101", Name: "Intro"})
	cache := NewTTLCache(60, nil, "")

	handler := ListCourses(cat, cache)
	req := setupReq(http.MethodGet, "/v1/semesters/sem-1/courses", "",
		map[string]string{"semester_id": "sem-1"}, "")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	// A course added after the first read stays invisible until the TTL
	// lapses, proving the cached value is served.
	cat.AddCourse(store.Course{ID: "c-2", SemesterID: "sem-1", Code: "CS102", Name: "More"})
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, setupReq(http.MethodGet, "/v1/semesters/sem-1/courses", "",
		map[string]string{"semester_id": "sem-1"}, ""))

	var courses []store.Course
	if err := json.NewDecoder(rr.Body).Decode(&courses); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(courses) != 1 {
		t.Fatalf("expected cached single course, got %d", len(courses))
	}
}

func TestGetSection_Handler(t *testing.T) {
	cat := calendarCatalog(t)
	handler := GetSection(cat)

	req := setupReq(http.MethodGet, "/v1/sections/s-1", "",
		map[string]string{"section_id": "s-1"}, "")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var detail store.SectionDetail
	if err := json.NewDecoder(rr.Body).Decode(&detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detail.Course.Code != "CS101" || len(detail.Schedules) != 1 {
		t.Fatalf("unexpected detail %+v", detail)
	}

	req = setupReq(http.MethodGet, "/v1/sections/none", "",
		map[string]string{"section_id": "none"}, "")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestCurrentSemester_Handler(t *testing.T) {
	cat := store.NewInMemoryCatalogStore()
	handler := CurrentSemester(cat)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, setupReq(http.MethodGet, "/v1/semesters/current", "", nil, ""))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on empty catalog, got %d", rr.Code)
	}

	cat.AddSemester(store.Semester{
		ID: "sem-1", Code: "2025B", Name: "Fall 2025",
		StartsOn: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		EndsOn:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, setupReq(http.MethodGet, "/v1/semesters/current", "", nil, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var sem store.Semester
	if err := json.NewDecoder(rr.Body).Decode(&sem); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sem.ID != "sem-1" {
		t.Fatalf("unexpected semester %+v", sem)
	}
}
