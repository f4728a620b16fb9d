package domain

import (
	"errors"
	"testing"
)

func TestMoonPhaseIndex(t *testing.T) {
	cases := []struct {
		angle float64
		want  int
		name  string
	}{
		{0, 0, "New Moon"},
		{22.4, 0, "New Moon"},
		{22.5, 1, "Waxing Crescent"},
		{90, 2, "First Quarter"},
		{179, 4, "Full Moon"},
		{270, 6, "Third Quarter"},
		{337.4, 7, "Waning Crescent"},
		{359.9, 0, "New Moon"},
	}
	for _, tc := range cases {
		got := MoonPhaseIndex(tc.angle)
		if got != tc.want {
			t.Fatalf("угол %.1f: ожидали %d, получили %d", tc.angle, tc.want, got)
		}
		if MoonPhaseName(got) != tc.name {
			t.Fatalf("угол %.1f: ожидали %q, получили %q", tc.angle, tc.name, MoonPhaseName(got))
		}
	}
}

func TestBodyTable(t *testing.T) {
	if len(BodyNames) != 29 {
		t.Fatalf("ожидали 29 тел, получили %d", len(BodyNames))
	}
	if name, _ := BodyName(SunBodyID); name != "Sun" {
		t.Fatalf("id 9 должен быть Sun, получили %s", name)
	}
	if _, err := BodyName(29); !errors.Is(err, ErrUnknownBody) {
		t.Fatalf("ожидали ErrUnknownBody, получили %v", err)
	}
	if CanRiseSet(10) || !CanRiseSet(0) {
		t.Fatalf("восход считается только для id 0..9")
	}
	if eq, ok := ConstellationCoords(22); !ok || eq.RA != 83.7 {
		t.Fatalf("id 22 должен быть Orion, получили %+v", eq)
	}
	if _, ok := ConstellationCoords(5); ok {
		t.Fatalf("планеты не созвездия")
	}
}

func TestPinBodyIndex(t *testing.T) {
	if PinBodyIndex("Sun") != 9 || PinBodyIndex("Moon") != 0 || PinBodyIndex("Pluto") != 8 {
		t.Fatalf("неверная таблица индексов пинов")
	}
	if PinBodyIndex("Orion") != 0 {
		t.Fatalf("неизвестное тело должно давать 0")
	}
}
