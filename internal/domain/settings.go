package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Ключи настроек, которые приходят со страницы конфигурации.
const (
	CfgSunRiseSet              = "CFG_SUN_RISE_SET"
	CfgSunCivilDawnDusk        = "CFG_SUN_CIVIL_DAWN_DUSK"
	CfgSunNauticalDawnDusk     = "CFG_SUN_NAUTICAL_DAWN_DUSK"
	CfgSunAstronomicalDawnDusk = "CFG_SUN_ASTRONOMICAL_DAWN_DUSK"
	CfgSunSolarNoonMidnight    = "CFG_SUN_SOLAR_NOON_MIDNIGHT"
	CfgSunSolstices            = "CFG_SUN_SOLSTICES"
	CfgSunEquinoxes            = "CFG_SUN_EQUINOXES"
	CfgSunEclipses             = "CFG_SUN_ECLIPSES"
	CfgSunSolarTransits        = "CFG_SUN_SOLAR_TRANSITS"
	CfgMoonRiseSet             = "CFG_MOON_RISE_SET"
	CfgMoonApogeePerigee       = "CFG_MOON_APOGEE_PERIGEE"
	CfgPlanetEvents            = "CFG_PLANET_EVENTS"
	CfgFavorites               = "CFG_FAVORITES"
	CfgSunEventsGroup          = "CFG_SUN_EVENTS"
	CfgMoonEventsGroup         = "CFG_MOON_EVENTS"
	planetCount                = 8
)

// sunGroupKeys — порядок флажков группы CFG_SUN_EVENTS.
var sunGroupKeys = []string{
	CfgSunAstronomicalDawnDusk,
	CfgSunNauticalDawnDusk,
	CfgSunCivilDawnDusk,
	CfgSunRiseSet,
	CfgSunSolstices,
	CfgSunEquinoxes,
	CfgSunEclipses,
	CfgSunSolarTransits,
}

// moonGroupKeys — порядок флажков группы CFG_MOON_EVENTS.
var moonGroupKeys = []string{CfgMoonRiseSet, CfgMoonApogeePerigee}

// Settings — плоский набор переключателей. Значения только bool или []bool.
type Settings map[string]any

// NormalizeSettings приводит произвольный словарь к Settings.
// Числа 0/1 считаются булевыми значениями, группы CFG_SUN_EVENTS и CFG_MOON_EVENTS
// раскрываются в плоские ключи, если те не заданы явно.
func NormalizeSettings(raw map[string]any) (Settings, error) {
	if raw == nil {
		return nil, nil
	}
	out := make(Settings, len(raw))
	for key, value := range raw {
		norm, err := normalizeValue(value)
		if err != nil {
			return nil, fmt.Errorf("setting %s: %w", key, err)
		}
		out[key] = norm
	}
	expandGroup(out, CfgSunEventsGroup, sunGroupKeys)
	expandGroup(out, CfgMoonEventsGroup, moonGroupKeys)
	return out, nil
}

func expandGroup(s Settings, group string, keys []string) {
	flags, ok := s[group].([]bool)
	if !ok {
		return
	}
	for i, key := range keys {
		if i >= len(flags) {
			break
		}
		if _, exists := s[key]; !exists {
			s[key] = flags[i]
		}
	}
	delete(s, group)
}

func normalizeValue(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case []bool:
		return append([]bool(nil), v...), nil
	case []any:
		out := make([]bool, len(v))
		for i, item := range v {
			b, err := toBool(item)
			if err != nil {
				return nil, err
			}
			out[i] = b
		}
		return out, nil
	default:
		return toBool(v)
	}
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("unsupported value %q", v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("unsupported value type %T", value)
	}
}

// Enabled возвращает флаг категории. Отсутствующий ключ считается включённым.
func (s Settings) Enabled(key string) bool {
	if v, ok := s[key].(bool); ok {
		return v
	}
	return true
}

// Planets возвращает флаги восхода и захода планет. По умолчанию все выключены.
func (s Settings) Planets() [planetCount]bool {
	var out [planetCount]bool
	flags, _ := s[CfgPlanetEvents].([]bool)
	copy(out[:], flags)
	return out
}

// Favorites возвращает имена тел, отмеченных в CFG_FAVORITES.
func (s Settings) Favorites() []string {
	flags, _ := s[CfgFavorites].([]bool)
	var out []string
	for i, on := range flags {
		if on && i < len(BodyNames) {
			out = append(out, BodyNames[i])
		}
	}
	return out
}

// Clone возвращает глубокую копию.
func (s Settings) Clone() Settings {
	if s == nil {
		return nil
	}
	out := make(Settings, len(s))
	for key, value := range s {
		if flags, ok := value.([]bool); ok {
			out[key] = append([]bool(nil), flags...)
			continue
		}
		out[key] = value
	}
	return out
}

// SettingsEqual сравнивает настройки структурно: те же ключи и те же значения.
func SettingsEqual(a, b Settings) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	for key, av := range a {
		bv, ok := b[key]
		if !ok {
			return false
		}
		af, aIsSlice := av.([]bool)
		bf, bIsSlice := bv.([]bool)
		if aIsSlice || bIsSlice {
			if !aIsSlice || !bIsSlice || len(af) != len(bf) {
				return false
			}
			for i := range af {
				if af[i] != bf[i] {
					return false
				}
			}
			continue
		}
		if av != bv {
			return false
		}
	}
	return true
}

// Fingerprint строит детерминированный отпечаток: значения по отсортированным
// ключам через "|", элементы массивов через ",".
func (s Settings) Fingerprint() string {
	if s == nil {
		return ""
	}
	keys := make([]string, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, key := range keys {
		switch v := s[key].(type) {
		case []bool:
			items := make([]string, len(v))
			for j, b := range v {
				items[j] = strconv.FormatBool(b)
			}
			parts[i] = strings.Join(items, ",")
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(parts, "|")
}
