// Package ics renders class meetings as iCalendar feeds consumable by
// Google Calendar, Apple Calendar and friends.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/course-portal/internal/store"
)

const prodID = "-//course-portal//schedule//EN"

// Meeting is one calendar event to render.
type Meeting struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// FromSection flattens a section's meetings into calendar events. The event
// summary carries the course code so feeds from several sections stay
// readable side by side.
func FromSection(detail store.SectionDetail) []Meeting {
	meetings := make([]Meeting, 0, len(detail.Schedules))
	for _, sch := range detail.Schedules {
		m := Meeting{
			UID:     fmt.Sprintf("schedule-%s@course-portal", sch.ID),
			Summary: fmt.Sprintf("%s %s", detail.Course.Code, detail.Course.Name),
			Start:   meetingTime(sch.Date, sch.StartMinute),
			End:     meetingTime(sch.Date, sch.EndMinute),
		}
		if sch.LessonType != "" {
			m.Summary = fmt.Sprintf("%s (%s)", m.Summary, sch.LessonType)
		}
		m.Location = location(sch)
		meetings = append(meetings, m)
	}
	return meetings
}

// Render serializes meetings as a VCALENDAR document.
func Render(calendarName string, meetings []Meeting) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)
	if calendarName != "" {
		cal.SetXWRCalName(calendarName)
	}

	for _, m := range meetings {
		ev := cal.AddEvent(m.UID)
		ev.SetSummary(m.Summary)
		ev.SetStartAt(m.Start)
		ev.SetEndAt(m.End)
		ev.SetDtStampTime(m.Start)
		if m.Location != "" {
			ev.SetLocation(m.Location)
		}
		if m.Description != "" {
			ev.SetDescription(m.Description)
		}
	}
	return cal.Serialize()
}

func meetingTime(date time.Time, minute int) time.Time {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return day.Add(time.Duration(minute) * time.Minute)
}

func location(sch store.Schedule) string {
	loc := sch.Room
	if sch.Building != "" {
		if loc != "" {
			loc += ", "
		}
		loc += sch.Building
	}
	if sch.Campus != "" {
		if loc != "" {
			loc += ", "
		}
		loc += sch.Campus
	}
	return loc
}
