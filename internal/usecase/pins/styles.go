package pins

// Style — цвета и иконка пина.
type Style struct {
	Foreground string
	Background string
	Icon       string
}

// Ключи стилей.
const (
	styleSunRise          = "sunRise"
	styleSunSet           = "sunSet"
	styleMoonRise         = "moonRise"
	styleMoonSet          = "moonSet"
	styleBodyRise         = "bodyRise"
	styleBodySet          = "bodySet"
	styleAstronomicalDawn = "astronomicalDawn"
	styleAstronomicalDusk = "astronomicalDusk"
	styleNauticalDawn     = "nauticalDawn"
	styleNauticalDusk     = "nauticalDusk"
	styleCivilDawn        = "civilDawn"
	styleCivilDusk        = "civilDusk"
	styleSolarNoon        = "solarNoon"
	styleSolarMidnight    = "solarMidnight"
	styleEquinox          = "equinox"
	styleSolstice         = "solstice"
	styleEclipse          = "eclipse"
	styleTransit          = "transit"
	styleLunarApsis       = "lunarApsis"
)

var styles = map[string]Style{
	styleSunRise:          {Foreground: "#000000", Background: "#FFFF00", Icon: "SUNRISE"},
	styleSunSet:           {Foreground: "#000000", Background: "#FFAA00", Icon: "SUNSET"},
	styleBodyRise:         {Foreground: "#000000", Background: "#AAAA55", Icon: "NOTIFICATION_FLAG"},
	styleBodySet:          {Foreground: "#FFFFFF", Background: "#555500", Icon: "NOTIFICATION_FLAG"},
	styleMoonRise:         {Foreground: "#FFFFFF", Background: "#AA55FF", Icon: "NOTIFICATION_FLAG"},
	styleMoonSet:          {Foreground: "#FFFFFF", Background: "#AA00FF", Icon: "NOTIFICATION_FLAG"},
	styleAstronomicalDawn: {Foreground: "#FFFFFF", Background: "#AA00AA", Icon: "GENERIC_CONFIRMATION"},
	styleAstronomicalDusk: {Foreground: "#FFFFFF", Background: "#AA00AA", Icon: "GENERIC_CONFIRMATION"},
	styleNauticalDawn:     {Foreground: "#FFFFFF", Background: "#AA00FF", Icon: "NOTIFICATION_LIGHTHOUSE"},
	styleNauticalDusk:     {Foreground: "#FFFFFF", Background: "#AA00FF", Icon: "NOTIFICATION_LIGHTHOUSE"},
	styleCivilDawn:        {Foreground: "#000000", Background: "#AA55FF", Icon: "NOTIFICATION_GENERIC"},
	styleCivilDusk:        {Foreground: "#000000", Background: "#AA55FF", Icon: "NOTIFICATION_GENERIC"},
	styleSolarNoon:        {Foreground: "#000000", Background: "#FFFF55", Icon: "TIMELINE_SUN"},
	styleSolarMidnight:    {Foreground: "#000000", Background: "#AAAA55", Icon: "TIMELINE_SUN"},
	styleEquinox:          {Foreground: "#000000", Background: "#55FFAA", Icon: "TIMELINE_SUN"},
	styleSolstice:         {Foreground: "#000000", Background: "#00FFFF", Icon: "TIMELINE_SUN"},
	styleEclipse:          {Foreground: "#FFFFFF", Background: "#5555FF", Icon: "TIMELINE_SUN"},
	styleTransit:          {Foreground: "#000000", Background: "#FFFF00", Icon: "TIMELINE_SUN"},
	styleLunarApsis:       {Foreground: "#000000", Background: "#5555FF", Icon: "NOTIFICATION_FLAG"},
}

// StyleFor возвращает стиль по ключу. Неизвестный ключ даёт стиль обычного тела.
func StyleFor(key string) Style {
	if s, ok := styles[key]; ok {
		return s
	}
	return styles[styleBodyRise]
}
