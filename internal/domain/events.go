package domain

import (
	"sort"
	"time"
)

// EventKind определяет вариант события.
type EventKind string

const (
	EventRiseSet           EventKind = "riseSet"
	EventTwilight          EventKind = "twilight"
	EventSolarNoonMidnight EventKind = "solarNoonMidnight"
	EventSeasonal          EventKind = "seasonal"
	EventTransit           EventKind = "transit"
	EventEclipse           EventKind = "eclipse"
	EventLunarApsis        EventKind = "lunarApsis"
)

// Event — общий интерфейс всех вариантов событий.
type Event interface {
	Kind() EventKind
	// At возвращает основной момент события: для прохождения это начало,
	// для затмения максимум, для остальных сам момент.
	At() time.Time
}

// Direction задаёт направление пересечения горизонта или высоты.
type Direction string

const (
	DirectionRise Direction = "rise"
	DirectionSet  Direction = "set"
)

// MoonPhase — номер и название фазы Луны на момент восхода.
type MoonPhase struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// RiseSetEvent — восход или заход тела.
type RiseSetEvent struct {
	Body      string     `json:"body"`
	Type      Direction  `json:"type"`
	Time      time.Time  `json:"time"`
	MoonPhase *MoonPhase `json:"moon_phase,omitempty"`
}

func (e RiseSetEvent) Kind() EventKind { return EventRiseSet }
func (e RiseSetEvent) At() time.Time   { return e.Time }

// TwilightSubtype — разновидность сумерек.
type TwilightSubtype string

const (
	TwilightCivil        TwilightSubtype = "civil"
	TwilightNautical     TwilightSubtype = "nautical"
	TwilightAstronomical TwilightSubtype = "astronomical"
)

// Altitude возвращает высоту Солнца, задающую сумерки.
func (s TwilightSubtype) Altitude() (float64, bool) {
	switch s {
	case TwilightCivil:
		return -6, true
	case TwilightNautical:
		return -12, true
	case TwilightAstronomical:
		return -18, true
	}
	return 0, false
}

// TwilightPhase — рассвет или сумерки вечером.
type TwilightPhase string

const (
	TwilightDawn TwilightPhase = "dawn"
	TwilightDusk TwilightPhase = "dusk"
)

// TwilightEvent — пересечение Солнцем высоты сумерек.
type TwilightEvent struct {
	Subtype TwilightSubtype `json:"subtype"`
	Type    TwilightPhase   `json:"type"`
	Time    time.Time       `json:"time"`
}

func (e TwilightEvent) Kind() EventKind { return EventTwilight }
func (e TwilightEvent) At() time.Time   { return e.Time }

// SolarCulmination — истинный полдень или полночь.
type SolarCulmination string

const (
	SolarNoon     SolarCulmination = "noon"
	SolarMidnight SolarCulmination = "midnight"
)

// SolarNoonMidnightEvent — прохождение Солнцем часового угла 0 или 12.
type SolarNoonMidnightEvent struct {
	Type SolarCulmination `json:"type"`
	Time time.Time        `json:"time"`
}

func (e SolarNoonMidnightEvent) Kind() EventKind { return EventSolarNoonMidnight }
func (e SolarNoonMidnightEvent) At() time.Time   { return e.Time }

// SeasonType — одно из четырёх сезонных событий.
type SeasonType string

const (
	MarchEquinox     SeasonType = "marchEquinox"
	JuneSolstice     SeasonType = "juneSolstice"
	SeptemberEquinox SeasonType = "septemberEquinox"
	DecemberSolstice SeasonType = "decemberSolstice"
)

// IsEquinox сообщает, является ли событие равноденствием.
func (s SeasonType) IsEquinox() bool {
	return s == MarchEquinox || s == SeptemberEquinox
}

// SeasonalEvent — ближайшее равноденствие или солнцестояние.
type SeasonalEvent struct {
	Type SeasonType `json:"type"`
	Date time.Time  `json:"date"`
	Year int        `json:"year"`
}

func (e SeasonalEvent) Kind() EventKind { return EventSeasonal }
func (e SeasonalEvent) At() time.Time   { return e.Date }

// TransitEvent — ближайшее прохождение Меркурия или Венеры.
type TransitEvent struct {
	Body   string    `json:"body"`
	Start  time.Time `json:"start"`
	Peak   time.Time `json:"peak"`
	Finish time.Time `json:"finish"`
}

func (e TransitEvent) Kind() EventKind { return EventTransit }
func (e TransitEvent) At() time.Time   { return e.Start }

// EclipseType различает лунные и солнечные затмения.
type EclipseType string

const (
	EclipseLunar EclipseType = "lunar"
	EclipseSolar EclipseType = "solar"
)

// LunarEclipseDetail — границы фаз лунного затмения. Нулевое время означает отсутствие фазы.
type LunarEclipseDetail struct {
	PartialBegin time.Time `json:"partial_begin"`
	TotalBegin   time.Time `json:"total_begin"`
	TotalEnd     time.Time `json:"total_end"`
	PartialEnd   time.Time `json:"partial_end"`
}

// EclipseCenter задан только для полных и кольцеобразных солнечных затмений.
type EclipseCenter struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Obscuration float64 `json:"obscuration"`
}

// SolarEclipseDetail — параметры глобального солнечного затмения.
type SolarEclipseDetail struct {
	Distance float64        `json:"distance"`
	Center   *EclipseCenter `json:"center,omitempty"`
}

// EclipseEvent — ближайшее затмение. Заполнен ровно один из Lunar и Solar.
type EclipseEvent struct {
	Type        EclipseType         `json:"type"`
	EclipseKind string              `json:"kind"`
	Peak        time.Time           `json:"peak"`
	Lunar       *LunarEclipseDetail `json:"lunar,omitempty"`
	Solar       *SolarEclipseDetail `json:"solar,omitempty"`
}

func (e EclipseEvent) Kind() EventKind { return EventEclipse }
func (e EclipseEvent) At() time.Time   { return e.Peak }

// ApsisKind — перигей или апогей.
type ApsisKind string

const (
	Perigee ApsisKind = "perigee"
	Apogee  ApsisKind = "apogee"
)

// LunarApsisEvent — ближайшая апсида лунной орбиты.
type LunarApsisEvent struct {
	Type       ApsisKind `json:"kind"`
	Time       time.Time `json:"time"`
	DistanceKM float64   `json:"distance"`
}

func (e LunarApsisEvent) Kind() EventKind { return EventLunarApsis }
func (e LunarApsisEvent) At() time.Time   { return e.Time }

// EventSet — события, сгруппированные по категориям и упорядоченные по времени.
type EventSet struct {
	RiseSet           []RiseSetEvent           `json:"riseSetEvents"`
	Twilight          []TwilightEvent          `json:"twilightEvents"`
	SolarNoonMidnight []SolarNoonMidnightEvent `json:"solarNoonMidnightEvents"`
	Seasonal          []SeasonalEvent          `json:"seasonalEvents"`
	Transit           []TransitEvent           `json:"transitEvents"`
	Eclipse           []EclipseEvent           `json:"eclipseEvents"`
	LunarApsis        []LunarApsisEvent        `json:"lunarApsisEvents"`
}

// NewEventSet создаёт набор с пустыми, а не nil, группами.
func NewEventSet() EventSet {
	return EventSet{
		RiseSet:           []RiseSetEvent{},
		Twilight:          []TwilightEvent{},
		SolarNoonMidnight: []SolarNoonMidnightEvent{},
		Seasonal:          []SeasonalEvent{},
		Transit:           []TransitEvent{},
		Eclipse:           []EclipseEvent{},
		LunarApsis:        []LunarApsisEvent{},
	}
}

// Sort упорядочивает каждую группу по основному моменту.
func (s *EventSet) Sort() {
	sort.SliceStable(s.RiseSet, func(i, j int) bool { return s.RiseSet[i].Time.Before(s.RiseSet[j].Time) })
	sort.SliceStable(s.Twilight, func(i, j int) bool { return s.Twilight[i].Time.Before(s.Twilight[j].Time) })
	sort.SliceStable(s.SolarNoonMidnight, func(i, j int) bool {
		return s.SolarNoonMidnight[i].Time.Before(s.SolarNoonMidnight[j].Time)
	})
	sort.SliceStable(s.Seasonal, func(i, j int) bool { return s.Seasonal[i].Date.Before(s.Seasonal[j].Date) })
	sort.SliceStable(s.Transit, func(i, j int) bool { return s.Transit[i].Start.Before(s.Transit[j].Start) })
	sort.SliceStable(s.Eclipse, func(i, j int) bool { return s.Eclipse[i].Peak.Before(s.Eclipse[j].Peak) })
	sort.SliceStable(s.LunarApsis, func(i, j int) bool { return s.LunarApsis[i].Time.Before(s.LunarApsis[j].Time) })
}

// All возвращает все события одним списком в порядке категорий.
func (s EventSet) All() []Event {
	out := make([]Event, 0, s.Len())
	for _, e := range s.RiseSet {
		out = append(out, e)
	}
	for _, e := range s.Twilight {
		out = append(out, e)
	}
	for _, e := range s.SolarNoonMidnight {
		out = append(out, e)
	}
	for _, e := range s.Seasonal {
		out = append(out, e)
	}
	for _, e := range s.Transit {
		out = append(out, e)
	}
	for _, e := range s.Eclipse {
		out = append(out, e)
	}
	for _, e := range s.LunarApsis {
		out = append(out, e)
	}
	return out
}

// Len возвращает общее число событий.
func (s EventSet) Len() int {
	return len(s.RiseSet) + len(s.Twilight) + len(s.SolarNoonMidnight) + len(s.Seasonal) +
		len(s.Transit) + len(s.Eclipse) + len(s.LunarApsis)
}
