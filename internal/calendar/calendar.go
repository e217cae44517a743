// Package calendar treats a loaded row sequence as the trading calendar and
// maps detection dates to concrete execution dates.
package calendar

import (
	"sort"
	"time"

	"position-engine/internal/models"
)

// Calendar is the set of trading days present in one dataset. A day counts as
// a trading day exactly when the dataset has a row for it.
type Calendar struct {
	days  []time.Time
	index map[time.Time]int
}

// New builds a calendar from row dates. Dates must be ascending; the calendar
// does not sort them.
func New(dates []time.Time) *Calendar {
	c := &Calendar{
		days:  make([]time.Time, len(dates)),
		index: make(map[time.Time]int, len(dates)),
	}
	for i, d := range dates {
		day := models.Day(d)
		c.days[i] = day
		if _, seen := c.index[day]; !seen {
			c.index[day] = i
		}
	}
	return c
}

// FromSeries builds a calendar from a series' row dates.
func FromSeries(s *models.Series) *Calendar {
	return New(s.Dates())
}

// Len returns the number of trading days.
func (c *Calendar) Len() int {
	return len(c.days)
}

// Day returns the trading day at row i.
func (c *Calendar) Day(i int) time.Time {
	return c.days[i]
}

// Count returns the number of trading days in [start, end], inclusive.
// start after end yields 0.
func (c *Calendar) Count(start, end time.Time) int {
	start, end = models.Day(start), models.Day(end)
	if start.After(end) {
		return 0
	}
	lo := sort.Search(len(c.days), func(i int) bool { return !c.days[i].Before(start) })
	hi := sort.Search(len(c.days), func(i int) bool { return c.days[i].After(end) })
	if hi < lo {
		return 0
	}
	return hi - lo
}

// Contains reports whether date is a trading day.
func (c *Calendar) Contains(date time.Time) bool {
	_, ok := c.index[models.Day(date)]
	return ok
}

// IndexOf returns the row index of date, or -1 if it is not a trading day.
func (c *Calendar) IndexOf(date time.Time) int {
	if i, ok := c.index[models.Day(date)]; ok {
		return i
	}
	return -1
}
