package store

import (
	"context"
	"time"
)

// Semester is one academic term.
type Semester struct {
	ID       string    `json:"id"`
	Code     string    `json:"code"`
	Name     string    `json:"name"`
	StartsOn time.Time `json:"starts_on"`
	EndsOn   time.Time `json:"ends_on"`
}

// Teacher is a catalog teacher record.
type Teacher struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Title      string `json:"title,omitempty"`
	Department string `json:"department,omitempty"`
}

// Course is one course offering within a semester.
type Course struct {
	ID         string `json:"id"`
	SemesterID string `json:"semester_id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	Credits    int    `json:"credits"`
}

// Section is one teaching section of a course.
type Section struct {
	ID       string    `json:"id"`
	CourseID string    `json:"course_id"`
	Code     string    `json:"code"`
	Capacity int       `json:"capacity"`
	Teachers []Teacher `json:"teachers,omitempty"`
}

// Schedule is a single class meeting. Times are minutes from midnight local
// to the campus timezone.
type Schedule struct {
	ID          string    `json:"id"`
	SectionID   string    `json:"section_id"`
	TeacherID   *string   `json:"teacher_id,omitempty"`
	LessonType  string    `json:"lesson_type,omitempty"`
	Room        string    `json:"room,omitempty"`
	Building    string    `json:"building,omitempty"`
	Campus      string    `json:"campus,omitempty"`
	Date        time.Time `json:"date"`
	StartMinute int       `json:"start_minute"`
	EndMinute   int       `json:"end_minute"`
}

// SectionDetail is a section with its course and full meeting list.
type SectionDetail struct {
	Section   Section    `json:"section"`
	Course    Course     `json:"course"`
	Schedules []Schedule `json:"schedules"`
}

// CatalogStore defines read access to the course catalog. Catalog data is
// loaded by an out-of-band importer; the portal only reads it.
type CatalogStore interface {
	ListSemesters(ctx context.Context) ([]Semester, error)
	// CurrentSemester picks the semester containing now, falling back to the
	// most recent one.
	CurrentSemester(ctx context.Context, now time.Time) (Semester, error)
	ListCourses(ctx context.Context, semesterID, query string) ([]Course, error)
	ListTeachers(ctx context.Context) ([]Teacher, error)
	GetTeacher(ctx context.Context, teacherID string) (Teacher, error)
	ListSections(ctx context.Context, courseID string) ([]Section, error)
	GetSection(ctx context.Context, sectionID string) (SectionDetail, error)
}
