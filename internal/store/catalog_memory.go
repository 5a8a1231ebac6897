package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// InMemoryCatalogStore is a development-only in-memory implementation,
// seeded through the Add* helpers.
type InMemoryCatalogStore struct {
	mu        sync.RWMutex
	semesters map[string]Semester
	teachers  map[string]Teacher
	courses   map[string]Course
	sections  map[string]Section
	schedules map[string][]Schedule // sectionID -> meetings
}

func NewInMemoryCatalogStore() *InMemoryCatalogStore {
	return &InMemoryCatalogStore{
		semesters: make(map[string]Semester),
		teachers:  make(map[string]Teacher),
		courses:   make(map[string]Course),
		sections:  make(map[string]Section),
		schedules: make(map[string][]Schedule),
	}
}

func (s *InMemoryCatalogStore) AddSemester(sem Semester) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.semesters[sem.ID] = sem
}

func (s *InMemoryCatalogStore) AddTeacher(t Teacher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teachers[t.ID] = t
}

func (s *InMemoryCatalogStore) AddCourse(c Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[c.ID] = c
}

func (s *InMemoryCatalogStore) AddSection(sec Section) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[sec.ID] = sec
}

func (s *InMemoryCatalogStore) AddSchedule(sch Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[sch.SectionID] = append(s.schedules[sch.SectionID], sch)
}

func (s *InMemoryCatalogStore) ListSemesters(_ context.Context) ([]Semester, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Semester, 0, len(s.semesters))
	for _, sem := range s.semesters {
		out = append(out, sem)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsOn.After(out[j].StartsOn) })
	return out, nil
}

func (s *InMemoryCatalogStore) CurrentSemester(_ context.Context, now time.Time) (Semester, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var current *Semester
	var latest *Semester
	for id := range s.semesters {
		sem := s.semesters[id]
		if latest == nil || sem.StartsOn.After(latest.StartsOn) {
			cp := sem
			latest = &cp
		}
		if !sem.StartsOn.After(now) && !sem.EndsOn.Before(now) {
			if current == nil || sem.StartsOn.After(current.StartsOn) {
				cp := sem
				current = &cp
			}
		}
	}
	if current != nil {
		return *current, nil
	}
	if latest != nil {
		return *latest, nil
	}
	return Semester{}, ErrNotFound
}

func (s *InMemoryCatalogStore) ListCourses(_ context.Context, semesterID, query string) ([]Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.ToLower(query)
	out := []Course{}
	for _, c := range s.courses {
		if c.SemesterID != semesterID {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(c.Code), query) &&
			!strings.Contains(strings.ToLower(c.Name), query) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *InMemoryCatalogStore) ListTeachers(_ context.Context) ([]Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Teacher, 0, len(s.teachers))
	for _, t := range s.teachers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryCatalogStore) GetTeacher(_ context.Context, teacherID string) (Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.teachers[teacherID]
	if !ok {
		return Teacher{}, ErrNotFound
	}
	return t, nil
}

func (s *InMemoryCatalogStore) ListSections(_ context.Context, courseID string) ([]Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Section{}
	for _, sec := range s.sections {
		if sec.CourseID == courseID {
			out = append(out, sec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *InMemoryCatalogStore) GetSection(_ context.Context, sectionID string) (SectionDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sec, ok := s.sections[sectionID]
	if !ok {
		return SectionDetail{}, ErrNotFound
	}
	course, ok := s.courses[sec.CourseID]
	if !ok {
		return SectionDetail{}, ErrNotFound
	}
	schedules := append([]Schedule(nil), s.schedules[sectionID]...)
	sort.Slice(schedules, func(i, j int) bool {
		if !schedules[i].Date.Equal(schedules[j].Date) {
			return schedules[i].Date.Before(schedules[j].Date)
		}
		return schedules[i].StartMinute < schedules[j].StartMinute
	})
	return SectionDetail{Section: sec, Course: course, Schedules: schedules}, nil
}
