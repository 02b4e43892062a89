package dto

import (
	"time"

	"staybook/internal/domain/availability"
)

type CalendarDay struct {
	Date      string `json:"date"`
	Available bool   `json:"available"`
	Source    string `json:"source"`
}

type Calendar struct {
	From string        `json:"from"`
	To   string        `json:"to"`
	Days []CalendarDay `json:"days"`
}

func MapCalendar(from, to time.Time, days map[time.Time]availability.CalendarDay) Calendar {
	sorted := availability.Sorted(days)
	out := make([]CalendarDay, 0, len(sorted))
	for _, d := range sorted {
		out = append(out, CalendarDay{
			Date:      d.Date.Format(time.DateOnly),
			Available: d.Available,
			Source:    string(d.Source),
		})
	}
	return Calendar{From: from.Format(time.DateOnly), To: to.Format(time.DateOnly), Days: out}
}
