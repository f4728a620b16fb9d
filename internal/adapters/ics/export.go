package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"hubble-sync/internal/domain"
	"hubble-sync/internal/usecase/pins"
)

const productID = "-//hubble-sync//events//EN"

// Exporter переводит набор событий в календарь iCalendar.
type Exporter struct {
	builder *pins.Builder
	clock   domain.Clock
}

// NewExporter создаёт экспортёр. Заголовки берутся из построителя пинов.
func NewExporter(builder *pins.Builder, clock domain.Clock) *Exporter {
	return &Exporter{builder: builder, clock: clock}
}

// Export возвращает сериализованный календарь с событиями набора.
func (e *Exporter) Export(set domain.EventSet) (string, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("Hubble Sync")

	stamp := e.clock.Now().UTC()
	for _, event := range set.All() {
		pin, err := e.builder.Build(event, 0)
		if err != nil {
			return "", fmt.Errorf("событие %s: %w", event.Kind(), err)
		}
		vevent := cal.AddEvent(eventUID(event))
		vevent.SetDtStampTime(stamp)
		vevent.SetStartAt(event.At().UTC())
		vevent.SetEndAt(endOf(event).UTC())
		vevent.SetSummary(summary(pin))
		if pin.Layout.Body != "" {
			vevent.SetDescription(pin.Layout.Body)
		}
		vevent.AddProperty(ical.ComponentPropertyCategories, string(event.Kind()))
	}
	return cal.Serialize(), nil
}

func summary(pin domain.Pin) string {
	if pin.Layout.Subtitle == "" {
		return pin.Layout.Title
	}
	return pin.Layout.Title + " (" + pin.Layout.Subtitle + ")"
}

// endOf возвращает конец события; мгновенные события длятся одну минуту.
func endOf(event domain.Event) time.Time {
	switch v := event.(type) {
	case domain.TransitEvent:
		if v.Finish.After(v.Start) {
			return v.Finish
		}
	case domain.EclipseEvent:
		if v.Lunar != nil && v.Lunar.PartialEnd.After(v.Peak) {
			return v.Lunar.PartialEnd
		}
	}
	return event.At().Add(time.Minute)
}

func eventUID(event domain.Event) string {
	var subject string
	switch v := event.(type) {
	case domain.RiseSetEvent:
		subject = strings.ToLower(v.Body) + "-" + string(v.Type)
	case domain.TwilightEvent:
		subject = string(v.Subtype) + "-" + string(v.Type)
	case domain.SolarNoonMidnightEvent:
		subject = string(v.Type)
	case domain.SeasonalEvent:
		subject = string(v.Type)
	case domain.TransitEvent:
		subject = strings.ToLower(v.Body)
	case domain.EclipseEvent:
		subject = string(v.Type)
	case domain.LunarApsisEvent:
		subject = string(v.Type)
	}
	return fmt.Sprintf("%s-%s-%d@hubble-sync", event.Kind(), subject, event.At().Unix())
}
