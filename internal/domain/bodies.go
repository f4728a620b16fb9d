package domain

import "strings"

const (
	// SentinelHour кодирует отсутствие восхода или захода в поле часа.
	SentinelHour = 31
	// SentinelMinute кодирует отсутствие восхода или захода в поле минут.
	SentinelMinute = 63
	// SunBodyID — идентификатор Солнца в таблице протокола.
	SunBodyID = 9
	// MoonBodyID — идентификатор Луны в таблице протокола.
	MoonBodyID = 0
	// FirstConstellationID — первый идентификатор созвездия.
	FirstConstellationID = 10
)

// BodyNames — таблица тел протокола. Порядок совпадает с прошивкой часов.
var BodyNames = []string{
	"Moon",
	"Mercury",
	"Venus",
	"Mars",
	"Jupiter",
	"Saturn",
	"Uranus",
	"Neptune",
	"Pluto",
	"Sun",
	"Aries",
	"Taurus",
	"Gemini",
	"Cancer",
	"Leo",
	"Virgo",
	"Libra",
	"Scorpius",
	"Sagittarius",
	"Capricornus",
	"Aquarius",
	"Pisces",
	"Orion",
	"Ursa Major",
	"Ursa Minor",
	"Cassiopeia",
	"Cygnus",
	"Crux",
	"Lyra",
}

// Equatorial — экваториальные координаты в градусах.
type Equatorial struct {
	RA  float64
	Dec float64
}

// constellationCoords выровнены по BodyNames начиная с FirstConstellationID.
var constellationCoords = []Equatorial{
	{RA: 39.75, Dec: 20.8},
	{RA: 70.5, Dec: 15.8},
	{RA: 105.0, Dec: 22.5},
	{RA: 129.75, Dec: 20.0},
	{RA: 160.05, Dec: 15.0},
	{RA: 201.3, Dec: -3.0},
	{RA: 228.0, Dec: -15.5},
	{RA: 253.05, Dec: -26.5},
	{RA: 285.0, Dec: -25.0},
	{RA: 315.0, Dec: -18.0},
	{RA: 334.5, Dec: -10.5},
	{RA: 7.5, Dec: 10.0},
	{RA: 83.7, Dec: 0.0},
	{RA: 165.0, Dec: 50.0},
	{RA: 225.0, Dec: 75.0},
	{RA: 15.0, Dec: 60.0},
	{RA: 309.0, Dec: 42.0},
	{RA: 187.5, Dec: -60.0},
	{RA: 283.5, Dec: 38.5},
}

// PlanetNames — порядок элементов массива CFG_PLANET_EVENTS.
var PlanetNames = []string{"Mercury", "Venus", "Mars", "Jupiter", "Saturn", "Uranus", "Neptune", "Pluto"}

// MoonPhaseNames — названия восьми фаз Луны.
var MoonPhaseNames = []string{
	"New Moon",
	"Waxing Crescent",
	"First Quarter",
	"Waxing Gibbous",
	"Full Moon",
	"Waning Gibbous",
	"Third Quarter",
	"Waning Crescent",
}

// BodyName возвращает имя тела по идентификатору протокола.
func BodyName(id int) (string, error) {
	if id < 0 || id >= len(BodyNames) {
		return "", ErrUnknownBody
	}
	return BodyNames[id], nil
}

// CanRiseSet сообщает, считается ли для тела восход и заход.
func CanRiseSet(id int) bool {
	return id >= 0 && id <= SunBodyID
}

// ConstellationCoords возвращает координаты созвездия.
func ConstellationCoords(id int) (Equatorial, bool) {
	idx := id - FirstConstellationID
	if idx < 0 || idx >= len(constellationCoords) {
		return Equatorial{}, false
	}
	return constellationCoords[idx], true
}

// pinBodyIndex — индексы тел для кодов запуска в действиях пина.
var pinBodyIndex = map[string]int{
	"Moon":    0,
	"Mercury": 1,
	"Venus":   2,
	"Mars":    3,
	"Jupiter": 4,
	"Saturn":  5,
	"Uranus":  6,
	"Neptune": 7,
	"Pluto":   8,
	"Sun":     9,
}

// PinBodyIndex возвращает индекс тела для действий пина, 0 для неизвестных имён.
func PinBodyIndex(body string) int {
	return pinBodyIndex[body]
}

// MoonPhaseIndex переводит фазовый угол 0..360 в номер фазы 0..7.
func MoonPhaseIndex(angle float64) int {
	shifted := angle + 22.5
	for shifted < 0 {
		shifted += 360
	}
	for shifted >= 360 {
		shifted -= 360
	}
	return int(shifted / 45)
}

// MoonPhaseName возвращает название фазы по номеру.
func MoonPhaseName(index int) string {
	if index < 0 || index >= len(MoonPhaseNames) {
		return ""
	}
	return MoonPhaseNames[index]
}

// PinKey возвращает имя тела в нижнем регистре для идентификаторов пинов.
func PinKey(body string) string {
	return strings.ToLower(strings.ReplaceAll(body, " ", "-"))
}
