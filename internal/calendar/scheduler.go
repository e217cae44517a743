package calendar

import (
	"time"

	"position-engine/internal/models"
)

// DeferralRule decides which Friday a detection executes on.
type DeferralRule string

const (
	// NearFriday executes Mon/Tue detections this Friday and Wed/Thu/Fri
	// detections next Friday.
	NearFriday DeferralRule = "near_friday"
	// WideFriday executes Mon/Tue/Fri detections this Friday (a Friday
	// detection executes the same day) and Wed/Thu detections next Friday.
	WideFriday DeferralRule = "wide_friday"
)

// Schedule computes the calendar Friday a detection executes on. It does not
// check that the Friday is a trading day; see Resolve.
func Schedule(detection time.Time, rule DeferralRule) time.Time {
	day := models.Day(detection)
	toFriday := (int(time.Friday) - int(day.Weekday()) + 7) % 7

	switch day.Weekday() {
	case time.Monday, time.Tuesday:
		// this week
	case time.Wednesday, time.Thursday:
		toFriday += 7
	case time.Friday:
		if rule == NearFriday {
			toFriday += 7
		}
	default:
		// Weekend detections roll to the coming Friday.
	}
	return day.AddDate(0, 0, toFriday)
}

// Slot is a resolved execution date.
type Slot struct {
	Date  time.Time
	Index int
	// OK is false when Date has no row in the calendar; the action is lost.
	OK bool
}

// Resolve schedules a detection and checks the result against the calendar.
func Resolve(cal *Calendar, detection time.Time, rule DeferralRule) Slot {
	date := Schedule(detection, rule)
	idx := cal.IndexOf(date)
	return Slot{Date: date, Index: idx, OK: idx >= 0}
}
