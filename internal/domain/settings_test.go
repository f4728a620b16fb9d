package domain

import "testing"

func TestNormalizeSettingsExpandsGroups(t *testing.T) {
	raw := map[string]any{
		"CFG_SUN_EVENTS":    []any{true, false, false, true, true, true, true, false},
		"CFG_MOON_EVENTS":   []any{float64(0), float64(1)},
		"CFG_PLANET_EVENTS": []any{1, 0, 0, 0, 0, 0, 0, 0},
		"CFG_SUN_RISE_SET":  false,
	}
	s, err := NormalizeSettings(raw)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, ok := s[CfgSunEventsGroup]; ok {
		t.Fatalf("группа должна быть раскрыта")
	}
	if !s.Enabled(CfgSunAstronomicalDawnDusk) || s.Enabled(CfgSunNauticalDawnDusk) {
		t.Fatalf("неверное раскрытие CFG_SUN_EVENTS")
	}
	if s.Enabled(CfgSunRiseSet) {
		t.Fatalf("явный ключ должен иметь приоритет над группой")
	}
	if s.Enabled(CfgSunSolarTransits) {
		t.Fatalf("ожидали выключенные прохождения")
	}
	if s.Enabled(CfgMoonRiseSet) || !s.Enabled(CfgMoonApogeePerigee) {
		t.Fatalf("неверное раскрытие CFG_MOON_EVENTS")
	}
	if planets := s.Planets(); !planets[0] || planets[1] {
		t.Fatalf("неверные флаги планет: %v", planets)
	}
}

func TestNormalizeSettingsRejectsGarbage(t *testing.T) {
	if _, err := NormalizeSettings(map[string]any{"CFG_SUN_RISE_SET": map[string]any{}}); err == nil {
		t.Fatalf("ожидали ошибку для вложенного объекта")
	}
}

func TestSettingsDefaults(t *testing.T) {
	var s Settings
	if !s.Enabled(CfgSunEclipses) {
		t.Fatalf("отсутствующий ключ включён по умолчанию")
	}
	for i, on := range s.Planets() {
		if on {
			t.Fatalf("планета %d должна быть выключена по умолчанию", i)
		}
	}
}

func TestSettingsEqual(t *testing.T) {
	a := Settings{CfgSunRiseSet: true, CfgPlanetEvents: []bool{true, false}}
	cases := []struct {
		name string
		b    Settings
		want bool
	}{
		{"одинаковые", Settings{CfgPlanetEvents: []bool{true, false}, CfgSunRiseSet: true}, true},
		{"другое значение", Settings{CfgSunRiseSet: false, CfgPlanetEvents: []bool{true, false}}, false},
		{"другой массив", Settings{CfgSunRiseSet: true, CfgPlanetEvents: []bool{true, true}}, false},
		{"лишний ключ", Settings{CfgSunRiseSet: true, CfgPlanetEvents: []bool{true, false}, CfgSunEclipses: true}, false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SettingsEqual(a, tc.b); got != tc.want {
				t.Fatalf("ожидали %v, получили %v", tc.want, got)
			}
		})
	}
	if !SettingsEqual(nil, nil) {
		t.Fatalf("два nil равны")
	}
}

func TestSettingsCloneIsDeep(t *testing.T) {
	a := Settings{CfgPlanetEvents: []bool{true, false}}
	b := a.Clone()
	a[CfgPlanetEvents].([]bool)[0] = false
	if !b[CfgPlanetEvents].([]bool)[0] {
		t.Fatalf("копия не должна меняться вместе с оригиналом")
	}
}

func TestFingerprintIsOrderIndependent(t *testing.T) {
	a := Settings{CfgSunRiseSet: true, CfgMoonRiseSet: false, CfgPlanetEvents: []bool{false, true}}
	b := Settings{CfgPlanetEvents: []bool{false, true}, CfgMoonRiseSet: false, CfgSunRiseSet: true}
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("отпечаток зависит от порядка ключей")
	}
	if got := a.Fingerprint(); got != "false|false,true|true" {
		t.Fatalf("неожиданный отпечаток %q", got)
	}
}

func TestFavorites(t *testing.T) {
	flags := make([]bool, len(BodyNames))
	flags[0] = true
	flags[9] = true
	flags[28] = true
	got := Settings{CfgFavorites: flags}.Favorites()
	if len(got) != 3 || got[0] != "Moon" || got[1] != "Sun" || got[2] != "Lyra" {
		t.Fatalf("неожиданные избранные: %v", got)
	}
}
