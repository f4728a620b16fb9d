package events

import (
	"errors"
	"time"

	"hubble-sync/internal/domain"
)

const (
	// SequenceLen — число точек в последовательности: две до, сегодня и две после.
	SequenceLen = 5
	// searchLimitDays ограничивает поиск вперёд и назад.
	searchLimitDays = 30
	// nextOffset сдвигает старт поиска следующего события, чтобы не найти тот же момент.
	nextOffset = time.Minute
)

// Sequence — пять моментов события. Нулевое время означает, что событие не найдено.
type Sequence [SequenceLen]time.Time

// searchFunc ищет событие от start вперёд или назад.
type searchFunc func(start time.Time, backward bool) (time.Time, error)

// buildSequence находит событие "сегодня" поиском вперёд от seed, две
// предыдущие точки поиском назад и две следующие поиском вперёд со сдвигом на минуту.
// ErrEventNotFound превращается в пустую точку, остальные ошибки возвращаются.
func buildSequence(seed time.Time, search searchFunc) (Sequence, error) {
	var seq Sequence

	today, err := find(search, seed, false)
	if err != nil {
		return seq, err
	}
	if today.IsZero() {
		return seq, nil
	}
	seq[2] = today

	prev := today
	for i := 1; i >= 0; i-- {
		found, err := find(search, prev, true)
		if err != nil {
			return seq, err
		}
		if found.IsZero() {
			break
		}
		seq[i] = found
		prev = found
	}

	next := today
	for i := 3; i < SequenceLen; i++ {
		found, err := find(search, next.Add(nextOffset), false)
		if err != nil {
			return seq, err
		}
		if found.IsZero() {
			break
		}
		seq[i] = found
		next = found
	}
	return seq, nil
}

func find(search searchFunc, start time.Time, backward bool) (time.Time, error) {
	t, err := search(start, backward)
	if errors.Is(err, domain.ErrEventNotFound) {
		return time.Time{}, nil
	}
	return t, err
}
