package pins

import (
	"strconv"
	"strings"

	"hubble-sync/internal/domain"
)

// Постоянные идентификаторы разовых событий. Такие события случаются редко,
// поэтому в таймлайне одновременно живёт не больше одного пина каждого вида.
const (
	IDEquinox    = "equinox"
	IDSolstice   = "solstice"
	IDTransit    = "planetary-transit"
	IDEclipse    = "eclipse"
	IDLunarApsis = "moon-apsis"
)

const (
	// MinSequence и MaxSequence ограничивают индекс повторяющегося события.
	MinSequence = -2
	MaxSequence = 2
)

// RecurringBases — базы идентификаторов повторяющихся событий.
var RecurringBases = []string{
	"sun-rise", "sun-set", "moon-rise", "moon-set",
	"mercury-rise", "mercury-set", "venus-rise", "venus-set",
	"mars-rise", "mars-set", "jupiter-rise", "jupiter-set",
	"saturn-rise", "saturn-set", "uranus-rise", "uranus-set",
	"neptune-rise", "neptune-set", "pluto-rise", "pluto-set",
	"civil-dawn", "civil-dusk", "nautical-dawn", "nautical-dusk",
	"astronomical-dawn", "astronomical-dusk",
	"solar-noon", "solar-midnight",
}

// OneTimeIDs — идентификаторы разовых событий.
var OneTimeIDs = []string{IDEquinox, IDSolstice, IDTransit, IDEclipse, IDLunarApsis}

// RiseSetBase — база идентификатора восхода или захода тела.
func RiseSetBase(body string, dir domain.Direction) string {
	return domain.PinKey(body) + "-" + string(dir)
}

// TwilightBase — база идентификатора сумерек.
func TwilightBase(subtype domain.TwilightSubtype, phase domain.TwilightPhase) string {
	return string(subtype) + "-" + string(phase)
}

// SolarBase — база идентификатора истинного полдня или полночи.
func SolarBase(kind domain.SolarCulmination) string {
	return "solar-" + string(kind)
}

// SeasonalID возвращает идентификатор равноденствия или солнцестояния.
func SeasonalID(t domain.SeasonType) string {
	if t.IsEquinox() {
		return IDEquinox
	}
	return IDSolstice
}

// WithSequence добавляет индекс последовательности к базе: "venus-rise" и 2 дают "venus-rise2".
func WithSequence(base string, seq int) string {
	return base + strconv.Itoa(seq)
}

// AllPossiblePinIDs перечисляет все идентификаторы, которые мог создать синхронизатор.
func AllPossiblePinIDs() []string {
	ids := make([]string, 0, len(RecurringBases)*(MaxSequence-MinSequence+1)+len(OneTimeIDs))
	for _, base := range RecurringBases {
		for seq := MinSequence; seq <= MaxSequence; seq++ {
			ids = append(ids, WithSequence(base, seq))
		}
	}
	return append(ids, OneTimeIDs...)
}

// IDsForPatterns возвращает идентификаторы, начинающиеся с любого из шаблонов, без повторов.
func IDsForPatterns(patterns []string) []string {
	if len(patterns) == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, id := range AllPossiblePinIDs() {
		for _, p := range patterns {
			if !strings.HasPrefix(id, p) {
				continue
			}
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				out = append(out, id)
			}
			break
		}
	}
	return out
}
