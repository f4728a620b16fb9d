package timeline

import "hubble-sync/internal/domain"

// categoryPatterns — префиксы идентификаторов пинов для каждого переключателя.
var categoryPatterns = []struct {
	key      string
	patterns []string
}{
	{domain.CfgSunRiseSet, []string{"sun-rise", "sun-set"}},
	{domain.CfgSunCivilDawnDusk, []string{"civil-dawn", "civil-dusk"}},
	{domain.CfgSunNauticalDawnDusk, []string{"nautical-dawn", "nautical-dusk"}},
	{domain.CfgSunAstronomicalDawnDusk, []string{"astronomical-dawn", "astronomical-dusk"}},
	{domain.CfgSunSolarNoonMidnight, []string{"solar-noon", "solar-midnight"}},
	{domain.CfgSunSolstices, []string{"solstice"}},
	{domain.CfgSunEquinoxes, []string{"equinox"}},
	{domain.CfgSunEclipses, []string{"eclipse"}},
	{domain.CfgSunSolarTransits, []string{"planetary-transit"}},
	{domain.CfgMoonRiseSet, []string{"moon-rise", "moon-set"}},
	{domain.CfgMoonApogeePerigee, []string{"moon-apsis"}},
}

// DisabledPatterns возвращает префиксы пинов категорий, которые были включены
// в old и выключены в next. Планеты сравниваются поэлементно.
func DisabledPatterns(old, next domain.Settings) []string {
	var out []string
	for _, c := range categoryPatterns {
		if old.Enabled(c.key) && !next.Enabled(c.key) {
			out = append(out, c.patterns...)
		}
	}
	oldPlanets, nextPlanets := old.Planets(), next.Planets()
	for i, name := range domain.PlanetNames {
		if oldPlanets[i] && !nextPlanets[i] {
			key := domain.PinKey(name)
			out = append(out, key+"-rise", key+"-set")
		}
	}
	return out
}
