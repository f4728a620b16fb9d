package timeline

import (
	"time"

	"hubble-sync/internal/usecase/pins"
)

const (
	// pastLimit — насколько в прошлое таймлайн принимает пины.
	pastLimit = 48 * time.Hour
	// futureLimit — насколько в будущее, с запасом на високосный год.
	futureLimit = 366 * 24 * time.Hour
)

// dayDifference считает разницу календарных дней между now и at в зоне loc.
func dayDifference(now, at time.Time, loc *time.Location) int {
	n := now.In(loc)
	a := at.In(loc)
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	return int(day.Sub(today).Hours() / 24)
}

// sequenceIndex возвращает индекс повторяющегося события, если оно в видимом окне ±2 дня.
func sequenceIndex(now, at time.Time, loc *time.Location) (int, bool) {
	if at.IsZero() {
		return 0, false
	}
	diff := dayDifference(now, at, loc)
	if diff < pins.MinSequence || diff > pins.MaxSequence {
		return 0, false
	}
	return diff, true
}

// inTimelineRange проверяет окно разовых событий: не раньше двух суток назад и не позже года.
func inTimelineRange(now, at time.Time) bool {
	if at.IsZero() {
		return false
	}
	return !at.Before(now.Add(-pastLimit)) && !at.After(now.Add(futureLimit))
}
