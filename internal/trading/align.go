package trading

import (
	"time"

	"position-engine/internal/models"
)

// Project maps a weekly ledger onto a daily date axis. Each daily row takes
// the total of the latest weekly row on or before it, so a weekly change
// lands on the matching date (or the next daily row when that date is
// missing) and the total is carried forward in between.
func Project(weekly *Ledger, daily []time.Time, limit float64) (*Ledger, error) {
	projected, err := NewLedger(weekly.Name(), daily, weekly.Initial(), limit, Unrounded)
	if err != nil {
		return nil, err
	}

	wdates := weekly.Dates()
	w := -1
	prev := weekly.Initial()
	for i, d := range daily {
		day := models.Day(d)
		for w+1 < weekly.Len() && !models.Day(wdates[w+1]).After(day) {
			w++
		}
		total := weekly.Total(w)
		if _, err := projected.Apply(i, total-prev); err != nil {
			return nil, err
		}
		prev = projected.Current()
	}
	return projected, nil
}

// WeekIndex maps each daily row to the weekly row with the same date, or -1.
func WeekIndex(weekly, daily []time.Time) []int {
	byDay := make(map[time.Time]int, len(weekly))
	for i, d := range weekly {
		byDay[models.Day(d)] = i
	}
	idx := make([]int, len(daily))
	for i, d := range daily {
		if w, ok := byDay[models.Day(d)]; ok {
			idx[i] = w
		} else {
			idx[i] = -1
		}
	}
	return idx
}

// Resample builds a weekly series from daily rows, keeping the last row of
// each ISO week. Indicators other than the close are not carried over.
func Resample(daily *models.Series) *models.Series {
	weekly := &models.Series{Name: daily.Name + " (weekly)"}
	for i, row := range daily.Rows {
		last := i == len(daily.Rows)-1
		if !last {
			y1, w1 := row.Date.ISOWeek()
			y2, w2 := daily.Rows[i+1].Date.ISOWeek()
			last = y1 != y2 || w1 != w2
		}
		if last {
			weekly.Rows = append(weekly.Rows, models.TradingRow{
				Date:       row.Date,
				Close:      row.Close,
				Indicators: make(map[string]float64),
			})
		}
	}
	return weekly
}
