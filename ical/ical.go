// Package ical converts tasks and schedules to iCalendar, so the upcoming
// view can be subscribed to from any calendar client.
package ical

import (
	"bytes"
	"fmt"
	"time"

	goical "github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"github.com/lfroes/jarvis/agenda"
	"github.com/lfroes/jarvis/recurrence"
	"github.com/lfroes/jarvis/storage"
)

const productID = "-//JARVIS//Task Core//PT-BR"

// RuleToRRule serializes a structured rule as the value part of an RFC 5545
// RRULE property.
func RuleToRRule(r recurrence.Rule) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}

	opt := rrule.ROption{Interval: r.Interval}
	switch r.Freq {
	case recurrence.Daily:
		opt.Freq = rrule.DAILY
	case recurrence.Weekly:
		opt.Freq = rrule.WEEKLY
	case recurrence.Monthly:
		opt.Freq = rrule.MONTHLY
	case recurrence.Yearly:
		opt.Freq = rrule.YEARLY
	}
	for _, wd := range r.SortedWeekdays() {
		opt.Byweekday = append(opt.Byweekday, goWeekdayToRRule(wd))
	}

	if _, err := rrule.NewRRule(opt); err != nil {
		return "", fmt.Errorf("build rrule: %w", err)
	}
	return opt.String(), nil
}

func goWeekdayToRRule(w time.Weekday) rrule.Weekday {
	// rrule counts from Monday=0, time.Weekday from Sunday=0.
	switch w {
	case time.Sunday:
		return rrule.SU
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	default:
		return rrule.SA
	}
}

// TaskToComponent renders one task as a VTODO component.
func TaskToComponent(task storage.Task) (*goical.Component, error) {
	todo := goical.NewComponent(goical.CompToDo)
	todo.Props.SetText(goical.PropUID, task.ID)
	todo.Props.SetText(goical.PropSummary, task.Title)
	if task.Notes != "" {
		todo.Props.SetText(goical.PropDescription, task.Notes)
	}
	if due, ok := task.DueDate.Get(); ok {
		todo.Props.SetDateTime(goical.PropDue, due)
	}
	if task.Completed {
		todo.Props.SetText(goical.PropStatus, "COMPLETED")
		if at, ok := task.CompletedAt.Get(); ok {
			todo.Props.SetDateTime(goical.PropCompleted, at)
		}
	} else {
		todo.Props.SetText(goical.PropStatus, "NEEDS-ACTION")
	}
	if rule, ok := task.Recurrence.Get(); ok && !task.IsOccurrence {
		value, err := RuleToRRule(rule)
		if err != nil {
			return nil, fmt.Errorf("serialize recurrence of task %s: %w", task.ID, err)
		}
		todo.Props.SetText(goical.PropRecurrenceRule, value)
	}
	return todo, nil
}

// TaskToICS renders one task as a complete VCALENDAR document.
func TaskToICS(task storage.Task) (string, error) {
	comp, err := TaskToComponent(task)
	if err != nil {
		return "", err
	}
	return encode([]*goical.Component{comp})
}

// ScheduleToICS renders a window's schedule as one VCALENDAR feed. Recurring
// tasks appear once with their RRULE; synthesized occurrence copies are
// skipped because the RRULE on the original already implies them.
func ScheduleToICS(days []agenda.Day) (string, error) {
	var components []*goical.Component
	seen := make(map[string]bool)
	for _, day := range days {
		for _, entry := range day.Entries {
			if entry.IsOccurrence || seen[entry.ID] {
				continue
			}
			seen[entry.ID] = true
			comp, err := TaskToComponent(entry)
			if err != nil {
				return "", err
			}
			components = append(components, comp)
		}
	}
	return encode(components)
}

func encode(components []*goical.Component) (string, error) {
	cal := goical.NewCalendar()
	cal.Props.SetText(goical.PropVersion, "2.0")
	cal.Props.SetText(goical.PropProductID, productID)
	for _, comp := range components {
		if comp.Props.Get(goical.PropDateTimeStamp) == nil {
			comp.Props.SetDateTime(goical.PropDateTimeStamp, time.Now())
		}
		cal.Children = append(cal.Children, comp)
	}

	var buf bytes.Buffer
	if err := goical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.String(), nil
}
