package domain

import (
	"math"
	"time"
)

// Observer описывает точку наблюдения.
type Observer struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Height    float64 `json:"height" yaml:"height"`
}

// Validate проверяет, что координаты лежат в допустимых пределах.
func (o Observer) Validate() error {
	if math.IsNaN(o.Latitude) || math.IsNaN(o.Longitude) {
		return ErrNoObserver
	}
	if o.Latitude < -90 || o.Latitude > 90 || o.Longitude < -180 || o.Longitude > 180 {
		return ErrInvalidObserver
	}
	return nil
}

// Horizontal содержит горизонтальные координаты тела.
type Horizontal struct {
	Azimuth  float64 `json:"azimuth"`
	Altitude float64 `json:"altitude"`
}

// Illumination содержит видимую звёздную величину тела.
type Illumination struct {
	Magnitude float64 `json:"mag"`
}

// Seasons содержит моменты равноденствий и солнцестояний года.
type Seasons struct {
	MarchEquinox     time.Time `json:"mar_equinox"`
	JuneSolstice     time.Time `json:"jun_solstice"`
	SeptemberEquinox time.Time `json:"sep_equinox"`
	DecemberSolstice time.Time `json:"dec_solstice"`
}

// TransitInfo описывает прохождение планеты по диску Солнца.
type TransitInfo struct {
	Start  time.Time `json:"start"`
	Peak   time.Time `json:"peak"`
	Finish time.Time `json:"finish"`
}

// LunarEclipseInfo описывает лунное затмение. Нулевое время означает отсутствие фазы.
type LunarEclipseInfo struct {
	Kind         string    `json:"kind"`
	Peak         time.Time `json:"peak"`
	PartialBegin time.Time `json:"partial_begin"`
	TotalBegin   time.Time `json:"total_begin"`
	TotalEnd     time.Time `json:"total_end"`
	PartialEnd   time.Time `json:"partial_end"`
}

// GlobalSolarEclipseInfo описывает солнечное затмение в глобальном смысле.
type GlobalSolarEclipseInfo struct {
	Kind        string    `json:"kind"`
	Peak        time.Time `json:"peak"`
	Distance    float64   `json:"distance"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Obscuration float64   `json:"obscuration"`
}

// ApsisInfo описывает апсиду лунной орбиты. Kind 0 — перигей.
type ApsisInfo struct {
	Time       time.Time `json:"time"`
	Kind       int       `json:"kind"`
	DistanceKM float64   `json:"dist_km"`
}

// BodyState — сырые значения для экрана деталей тела до упаковки.
type BodyState struct {
	BodyID    int
	Azimuth   float64
	Altitude  float64
	Rise      *time.Time
	Set       *time.Time
	Magnitude float64
	Phase     int
}

// BodyPackage — целочисленные поля пакета в том виде, в каком их видят часы.
type BodyPackage struct {
	BodyID     int `json:"body_id"`
	Azimuth    int `json:"azimuth"`
	Altitude   int `json:"altitude"`
	RiseHour   int `json:"rise_hour"`
	RiseMinute int `json:"rise_minute"`
	SetHour    int `json:"set_hour"`
	SetMinute  int `json:"set_minute"`
	Luminance  int `json:"luminance_x10"`
	Phase      int `json:"phase"`
}

// HasRise сообщает, содержит ли пакет время восхода.
func (p BodyPackage) HasRise() bool {
	return p.RiseHour != SentinelHour && p.RiseMinute != SentinelMinute
}

// HasSet сообщает, содержит ли пакет время захода.
func (p BodyPackage) HasSet() bool {
	return p.SetHour != SentinelHour && p.SetMinute != SentinelMinute
}

// Profile хранит настройки устройства, для которого синхронизируется таймлайн.
type Profile struct {
	Observer *Observer `json:"observer,omitempty" yaml:"observer,omitempty"`
	Timezone string    `json:"timezone" yaml:"timezone"`
	Settings Settings  `json:"settings" yaml:"settings"`
}
