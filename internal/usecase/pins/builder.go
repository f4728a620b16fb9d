package pins

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"hubble-sync/internal/domain"
)

const (
	// pinTimeLayout — момент события в пине, как у toISOString.
	pinTimeLayout = "2006-01-02T15:04:05.000Z"
	// lastUpdatedLayout — отметка обновления без долей секунды, иначе часы показывают её криво.
	lastUpdatedLayout = "2006-01-02T15:04:05Z"
	testPinLead       = time.Hour
)

// Builder собирает пины из событий. Часы нужны только для lastUpdated.
type Builder struct {
	clock domain.Clock
}

// NewBuilder создаёт сборщик пинов.
func NewBuilder(clock domain.Clock) *Builder {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &Builder{clock: clock}
}

// Build собирает пин для события. seq используется только для повторяющихся событий.
func (b *Builder) Build(event domain.Event, seq int) (domain.Pin, error) {
	switch e := event.(type) {
	case domain.RiseSetEvent:
		return b.RiseSet(e, seq), nil
	case domain.TwilightEvent:
		return b.Twilight(e, seq), nil
	case domain.SolarNoonMidnightEvent:
		return b.SolarNoonMidnight(e, seq), nil
	case domain.SeasonalEvent:
		return b.Seasonal(e), nil
	case domain.TransitEvent:
		return b.Transit(e), nil
	case domain.EclipseEvent:
		return b.Eclipse(e), nil
	case domain.LunarApsisEvent:
		return b.LunarApsis(e), nil
	default:
		return domain.Pin{}, fmt.Errorf("неизвестный тип события %T", event)
	}
}

// RiseSet собирает пин восхода или захода.
func (b *Builder) RiseSet(e domain.RiseSetEvent, seq int) domain.Pin {
	var title string
	if e.Body == "Sun" || e.Body == "Moon" {
		title = e.Body + string(e.Type)
	} else {
		verb := "Sets"
		if e.Type == domain.DirectionRise {
			verb = "Rises"
		}
		title = capitalizeFirst(e.Body) + " " + verb
	}
	pin := b.pin(WithSequence(RiseSetBase(e.Body, e.Type), seq), e.Time, riseSetStyleKey(e), title, "", e.Body)
	if e.MoonPhase != nil {
		pin.Layout.Subtitle = e.MoonPhase.Name
	}
	return pin
}

// Twilight собирает пин сумерек: "Civil dawn", "Nautical dusk".
func (b *Builder) Twilight(e domain.TwilightEvent, seq int) domain.Pin {
	title := capitalizeFirst(string(e.Subtype)) + " " + string(e.Type)
	styleKey := string(e.Subtype) + capitalizeFirst(string(e.Type))
	return b.pin(WithSequence(TwilightBase(e.Subtype, e.Type), seq), e.Time, styleKey, title, "", "Sun")
}

// SolarNoonMidnight собирает пин истинного полдня или полночи.
func (b *Builder) SolarNoonMidnight(e domain.SolarNoonMidnightEvent, seq int) domain.Pin {
	title, styleKey := "Solar Midnight", styleSolarMidnight
	if e.Type == domain.SolarNoon {
		title, styleKey = "Solar Noon", styleSolarNoon
	}
	return b.pin(WithSequence(SolarBase(e.Type), seq), e.Time, styleKey, title, "", "Sun")
}

// Seasonal собирает пин равноденствия или солнцестояния, год идёт в подзаголовок.
func (b *Builder) Seasonal(e domain.SeasonalEvent) domain.Pin {
	styleKey := styleSolstice
	if e.Type.IsEquinox() {
		styleKey = styleEquinox
	}
	return b.pin(SeasonalID(e.Type), e.Date, styleKey, seasonalTitle(e.Type), strconv.Itoa(e.Year), "Sun")
}

// Transit собирает пин прохождения по диску Солнца, время пина — начало.
func (b *Builder) Transit(e domain.TransitEvent) domain.Pin {
	return b.pin(IDTransit, e.Start, styleTransit, e.Body+" Transit", "Begins", e.Body)
}

// Eclipse собирает пин затмения: "Total lunar Eclipse".
func (b *Builder) Eclipse(e domain.EclipseEvent) domain.Pin {
	body := "Moon"
	if e.Type == domain.EclipseSolar {
		body = "Sun"
	}
	title := capitalizeFirst(e.EclipseKind) + " " + string(e.Type) + " Eclipse"
	return b.pin(IDEclipse, e.Peak, styleEclipse, title, "", body)
}

// LunarApsis собирает пин перигея или апогея с расстоянием в подзаголовке.
func (b *Builder) LunarApsis(e domain.LunarApsisEvent) domain.Pin {
	title := "Lunar " + capitalizeFirst(string(e.Type))
	return b.pin(IDLunarApsis, e.Time, styleLunarApsis, title, formatKilometers(e.DistanceKM), "Moon")
}

// TestPin собирает отладочный пин на час вперёд.
func (b *Builder) TestPin() domain.Pin {
	now := b.clock.Now().UTC()
	return domain.Pin{
		ID:   domain.TestPinID,
		Time: now.Add(testPinLead).Format(pinTimeLayout),
		Layout: domain.PinLayout{
			Type:            domain.PinLayoutGeneric,
			BackgroundColor: "#000000",
			Title:           "Test Pin",
			Subtitle:        "For Testing",
			Body:            "Here is a test pin with random numbers: " + strconv.FormatFloat(rand.Float64(), 'f', -1, 64),
			TinyIcon:        domain.SystemIconPrefix + "NOTIFICATION_FLAG",
			LastUpdated:     now.Format(lastUpdatedLayout),
		},
		Actions: []domain.PinAction{
			{Title: "Open App", Type: domain.ActionOpenWatchApp, LaunchCode: domain.LaunchCodeTestPin},
		},
	}
}

func (b *Builder) pin(id string, at time.Time, styleKey, title, subtitle, body string) domain.Pin {
	style := StyleFor(styleKey)
	return domain.Pin{
		ID:   id,
		Time: at.UTC().Format(pinTimeLayout),
		Layout: domain.PinLayout{
			Type:            domain.PinLayoutGeneric,
			Title:           title,
			Subtitle:        subtitle,
			PrimaryColor:    style.Foreground,
			SecondaryColor:  style.Foreground,
			BackgroundColor: style.Background,
			TinyIcon:        domain.SystemIconPrefix + style.Icon,
			LastUpdated:     b.clock.Now().UTC().Format(lastUpdatedLayout),
		},
		Actions: actions(body),
	}
}

// actions — три действия пина: карточка тела, приложение, обновление.
func actions(body string) []domain.PinAction {
	return []domain.PinAction{
		{Title: body + " Details", Type: domain.ActionOpenWatchApp, LaunchCode: domain.LaunchCodeBodyBase + domain.PinBodyIndex(body)},
		{Title: "Open Hubble", Type: domain.ActionOpenWatchApp, LaunchCode: domain.LaunchCodeOpenApp},
		{Title: "Refresh events", Type: domain.ActionOpenWatchApp, LaunchCode: domain.LaunchCodeRefresh},
	}
}

func riseSetStyleKey(e domain.RiseSetEvent) string {
	rise := e.Type == domain.DirectionRise
	switch e.Body {
	case "Sun":
		if rise {
			return styleSunRise
		}
		return styleSunSet
	case "Moon":
		if rise {
			return styleMoonRise
		}
		return styleMoonSet
	default:
		if rise {
			return styleBodyRise
		}
		return styleBodySet
	}
}

func seasonalTitle(t domain.SeasonType) string {
	switch t {
	case domain.MarchEquinox:
		return "March Equinox"
	case domain.JuneSolstice:
		return "June Solstice"
	case domain.SeptemberEquinox:
		return "September Equinox"
	case domain.DecemberSolstice:
		return "December Solstice"
	default:
		return string(t)
	}
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// formatKilometers округляет до целых и разделяет тысячи запятой: 363177.4 -> "363,177 km".
func formatKilometers(km float64) string {
	n := int64(math.Round(km))
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	digits := strconv.FormatInt(n, 10)
	var sb strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	return sign + sb.String() + " km"
}
