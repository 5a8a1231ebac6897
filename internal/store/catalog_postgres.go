package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCatalogStore reads the catalog from Postgres.
type PostgresCatalogStore struct {
	pool *pgxpool.Pool
}

func NewPostgresCatalogStore(pool *pgxpool.Pool) *PostgresCatalogStore {
	return &PostgresCatalogStore{pool: pool}
}

func (s *PostgresCatalogStore) ListSemesters(ctx context.Context) ([]Semester, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, code, name, starts_on, ends_on FROM semesters ORDER BY starts_on DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Semester
	for rows.Next() {
		var sem Semester
		if err := rows.Scan(&sem.ID, &sem.Code, &sem.Name, &sem.StartsOn, &sem.EndsOn); err != nil {
			return nil, err
		}
		out = append(out, sem)
	}
	return out, rows.Err()
}

func (s *PostgresCatalogStore) CurrentSemester(ctx context.Context, now time.Time) (Semester, error) {
	var sem Semester
	err := s.pool.QueryRow(ctx, `
SELECT id::text, code, name, starts_on, ends_on
FROM semesters
WHERE starts_on <= $1 AND ends_on >= $1
ORDER BY starts_on DESC
LIMIT 1`, now).Scan(&sem.ID, &sem.Code, &sem.Name, &sem.StartsOn, &sem.EndsOn)
	if errors.Is(err, pgx.ErrNoRows) {
		// Between terms: fall back to the latest semester on record.
		err = s.pool.QueryRow(ctx, `
SELECT id::text, code, name, starts_on, ends_on
FROM semesters ORDER BY starts_on DESC LIMIT 1`).
			Scan(&sem.ID, &sem.Code, &sem.Name, &sem.StartsOn, &sem.EndsOn)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return Semester{}, ErrNotFound
	}
	if err != nil {
		return Semester{}, err
	}
	return sem, nil
}

func (s *PostgresCatalogStore) ListCourses(ctx context.Context, semesterID, query string) ([]Course, error) {
	q := `SELECT id::text, semester_id::text, code, name, credits FROM courses WHERE semester_id = $1`
	args := []any{semesterID}
	if query != "" {
		q += ` AND (code ILIKE '%' || $2 || '%' OR name ILIKE '%' || $2 || '%')`
		args = append(args, query)
	}
	q += ` ORDER BY code`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.SemesterID, &c.Code, &c.Name, &c.Credits); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresCatalogStore) ListTeachers(ctx context.Context) ([]Teacher, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, name, title, department FROM teachers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Teacher
	for rows.Next() {
		var t Teacher
		if err := rows.Scan(&t.ID, &t.Name, &t.Title, &t.Department); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresCatalogStore) GetTeacher(ctx context.Context, teacherID string) (Teacher, error) {
	var t Teacher
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, name, title, department FROM teachers WHERE id = $1`, teacherID).
		Scan(&t.ID, &t.Name, &t.Title, &t.Department)
	if errors.Is(err, pgx.ErrNoRows) {
		return Teacher{}, ErrNotFound
	}
	if err != nil {
		return Teacher{}, err
	}
	return t, nil
}

func (s *PostgresCatalogStore) ListSections(ctx context.Context, courseID string) ([]Section, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, course_id::text, code, capacity FROM sections WHERE course_id = $1 ORDER BY code`,
		courseID)
	if err != nil {
		return nil, err
	}
	sections, err := scanSections(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachTeachers(ctx, sections); err != nil {
		return nil, err
	}
	return sections, nil
}

func (s *PostgresCatalogStore) GetSection(ctx context.Context, sectionID string) (SectionDetail, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, course_id::text, code, capacity FROM sections WHERE id = $1`, sectionID)
	if err != nil {
		return SectionDetail{}, err
	}
	sections, err := scanSections(rows)
	if err != nil {
		return SectionDetail{}, err
	}
	if len(sections) == 0 {
		return SectionDetail{}, ErrNotFound
	}
	if err := s.attachTeachers(ctx, sections); err != nil {
		return SectionDetail{}, err
	}
	sec := sections[0]

	var course Course
	err = s.pool.QueryRow(ctx,
		`SELECT id::text, semester_id::text, code, name, credits FROM courses WHERE id = $1`,
		sec.CourseID).Scan(&course.ID, &course.SemesterID, &course.Code, &course.Name, &course.Credits)
	if err != nil {
		return SectionDetail{}, err
	}

	schedRows, err := s.pool.Query(ctx, `
SELECT id::text, section_id::text, teacher_id::text, lesson_type, room, building, campus,
       date, start_minute, end_minute
FROM schedules
WHERE section_id = $1
ORDER BY date, start_minute`, sectionID)
	if err != nil {
		return SectionDetail{}, err
	}
	defer schedRows.Close()

	var schedules []Schedule
	for schedRows.Next() {
		var sch Schedule
		if err := schedRows.Scan(&sch.ID, &sch.SectionID, &sch.TeacherID, &sch.LessonType,
			&sch.Room, &sch.Building, &sch.Campus, &sch.Date, &sch.StartMinute, &sch.EndMinute); err != nil {
			return SectionDetail{}, err
		}
		schedules = append(schedules, sch)
	}
	if err := schedRows.Err(); err != nil {
		return SectionDetail{}, err
	}

	return SectionDetail{Section: sec, Course: course, Schedules: schedules}, nil
}

func scanSections(rows pgx.Rows) ([]Section, error) {
	defer rows.Close()

	var out []Section
	for rows.Next() {
		var sec Section
		if err := rows.Scan(&sec.ID, &sec.CourseID, &sec.Code, &sec.Capacity); err != nil {
			return nil, err
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}

func (s *PostgresCatalogStore) attachTeachers(ctx context.Context, sections []Section) error {
	if len(sections) == 0 {
		return nil
	}
	ids := make([]string, len(sections))
	index := make(map[string]*Section, len(sections))
	for i := range sections {
		ids[i] = sections[i].ID
		index[sections[i].ID] = &sections[i]
	}

	rows, err := s.pool.Query(ctx, `
SELECT st.section_id::text, t.id::text, t.name, t.title, t.department
FROM section_teachers st
JOIN teachers t ON t.id = st.teacher_id
WHERE st.section_id = ANY($1)
ORDER BY t.name`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var sectionID string
		var t Teacher
		if err := rows.Scan(&sectionID, &t.ID, &t.Name, &t.Title, &t.Department); err != nil {
			return err
		}
		if sec, ok := index[sectionID]; ok {
			sec.Teachers = append(sec.Teachers, t)
		}
	}
	return rows.Err()
}
