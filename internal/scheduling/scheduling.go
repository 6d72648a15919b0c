// Package scheduling provides the calendar-slot and round-robin assignment
// collaborators consumed by the conversation flows. Both are specified at
// their interface boundary; the in-memory implementations here are the
// process defaults.
package scheduling

import (
	"sync"
	"time"
)

// Slot is one offerable appointment window.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Label renders a slot the way the assistant speaks it.
func (s Slot) Label() string {
	return s.Start.Format("Monday at 3:04 PM")
}

// Calendar produces upcoming open appointment slots.
type Calendar interface {
	NextSlots(n int) []Slot
}

// Assigner hands out the next agent in rotation.
type Assigner interface {
	NextAgent() string
}

// BusinessHoursCalendar offers slots on the hour within a business-hours
// window, starting the next business day.
type BusinessHoursCalendar struct {
	OpenHour  int // first offerable hour, 24h clock
	CloseHour int // first non-offerable hour
	Now       func() time.Time
}

// NewBusinessHoursCalendar returns a calendar offering 10:00-16:00 slots.
func NewBusinessHoursCalendar() *BusinessHoursCalendar {
	return &BusinessHoursCalendar{OpenHour: 10, CloseHour: 16, Now: time.Now}
}

func (c *BusinessHoursCalendar) NextSlots(n int) []Slot {
	if n <= 0 {
		return nil
	}

	day := c.Now().AddDate(0, 0, 1)
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, 1)
	}

	slots := make([]Slot, 0, n)
	hour := c.OpenHour
	for len(slots) < n {
		if hour >= c.CloseHour {
			day = day.AddDate(0, 0, 1)
			for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
				day = day.AddDate(0, 0, 1)
			}
			hour = c.OpenHour
		}
		start := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
		slots = append(slots, Slot{Start: start, End: start.Add(time.Hour)})
		hour += 2
	}
	return slots
}

// RoundRobinAssigner cycles through a fixed agent roster.
type RoundRobinAssigner struct {
	mu     sync.Mutex
	agents []string
	next   int
}

// NewRoundRobinAssigner builds an assigner over the configured roster. An
// empty roster yields an assigner that returns "our team".
func NewRoundRobinAssigner(agents []string) *RoundRobinAssigner {
	return &RoundRobinAssigner{agents: agents}
}

func (a *RoundRobinAssigner) NextAgent() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.agents) == 0 {
		return "our team"
	}
	agent := a.agents[a.next%len(a.agents)]
	a.next++
	return agent
}
