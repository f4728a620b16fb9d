package bodymsg

import (
	"errors"
	"fmt"
	"math"
	"time"

	"hubble-sync/internal/domain"
)

// Версии протокола пакета тела.
const (
	// Version1 — 7 байт: id(5) фаза(3) азимут(9) высота(8) восход(5+6) заход(5+6) яркость(9).
	Version1 = 1
	// Version2 — 8 байт: id(8) азимут(9) высота(8) восход(5+6) заход(5+6) яркость(9) фаза(3) выравнивание(5).
	Version2 = 2

	V1Len = 7
	V2Len = 8
)

// Ширина полей в битах.
const (
	bitsIDv1     = 5
	bitsIDv2     = 8
	bitsPhase    = 3
	bitsAzimuth  = 9
	bitsAltitude = 8
	bitsHour     = 5
	bitsMinute   = 6
	bitsLum      = 9
	bitsPad      = 5
)

// ErrBadLength возвращается для пакета неподдерживаемой длины.
var ErrBadLength = errors.New("bodymsg: неверная длина пакета")

// Pack округляет и ограничивает значения состояния до полей пакета.
// Время восхода и захода берётся в зоне loc.
func Pack(state domain.BodyState, loc *time.Location) (domain.BodyPackage, error) {
	if _, err := domain.BodyName(state.BodyID); err != nil {
		return domain.BodyPackage{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	pkg := domain.BodyPackage{
		BodyID:     state.BodyID,
		Azimuth:    clamp(round(state.Azimuth), 0, 360),
		Altitude:   clamp(round(state.Altitude), -90, 90),
		RiseHour:   domain.SentinelHour,
		RiseMinute: domain.SentinelMinute,
		SetHour:    domain.SentinelHour,
		SetMinute:  domain.SentinelMinute,
		Luminance:  clamp(round(state.Magnitude*10), -256, 255),
	}
	if state.Rise != nil {
		local := state.Rise.In(loc)
		pkg.RiseHour, pkg.RiseMinute = local.Hour(), local.Minute()
	}
	if state.Set != nil {
		local := state.Set.In(loc)
		pkg.SetHour, pkg.SetMinute = local.Hour(), local.Minute()
	}
	if state.BodyID == domain.MoonBodyID {
		pkg.Phase = clamp(state.Phase, 0, 7)
	}
	return pkg, nil
}

// Encode упаковывает пакет в байты выбранной версии.
func Encode(version int, pkg domain.BodyPackage) ([]byte, error) {
	if _, err := domain.BodyName(pkg.BodyID); err != nil {
		return nil, err
	}
	switch version {
	case Version1:
		return EncodeV1(pkg), nil
	case Version2:
		return EncodeV2(pkg), nil
	default:
		return nil, fmt.Errorf("bodymsg: неизвестная версия протокола %d", version)
	}
}

// EncodeV1 упаковывает пакет в 7 байт.
func EncodeV1(pkg domain.BodyPackage) []byte {
	w := newBitWriter(V1Len)
	w.write(uint32(clamp(pkg.BodyID, 0, 31)), bitsIDv1)
	w.write(uint32(clamp(pkg.Phase, 0, 7)), bitsPhase)
	writeCommon(w, pkg)
	return w.buf
}

// EncodeV2 упаковывает пакет в 8 байт.
func EncodeV2(pkg domain.BodyPackage) []byte {
	w := newBitWriter(V2Len)
	w.write(uint32(clamp(pkg.BodyID, 0, 255)), bitsIDv2)
	writeCommon(w, pkg)
	w.write(uint32(clamp(pkg.Phase, 0, 7)), bitsPhase)
	w.write(0, bitsPad)
	return w.buf
}

func writeCommon(w *bitWriter, pkg domain.BodyPackage) {
	w.write(uint32(clamp(pkg.Azimuth, 0, 360)), bitsAzimuth)
	w.write(encodeSigned(clamp(pkg.Altitude, -90, 90), bitsAltitude), bitsAltitude)
	w.write(uint32(clamp(pkg.RiseHour, 0, 31)), bitsHour)
	w.write(uint32(clamp(pkg.RiseMinute, 0, 63)), bitsMinute)
	w.write(uint32(clamp(pkg.SetHour, 0, 31)), bitsHour)
	w.write(uint32(clamp(pkg.SetMinute, 0, 63)), bitsMinute)
	w.write(encodeSigned(clamp(pkg.Luminance, -256, 255), bitsLum), bitsLum)
}

// Decode распаковывает пакет так же, как часы. Версия определяется по длине.
func Decode(data []byte) (domain.BodyPackage, int, error) {
	var version int
	switch len(data) {
	case V1Len:
		version = Version1
	case V2Len:
		version = Version2
	default:
		return domain.BodyPackage{}, 0, fmt.Errorf("%w: %d", ErrBadLength, len(data))
	}

	r := &bitReader{buf: data}
	var pkg domain.BodyPackage
	if version == Version1 {
		pkg.BodyID = int(r.read(bitsIDv1))
		pkg.Phase = int(r.read(bitsPhase))
	} else {
		pkg.BodyID = int(r.read(bitsIDv2))
	}
	if pkg.BodyID >= len(domain.BodyNames) {
		return domain.BodyPackage{}, 0, domain.ErrUnknownBody
	}
	pkg.Azimuth = int(r.read(bitsAzimuth))
	pkg.Altitude = decodeSigned(r.read(bitsAltitude), bitsAltitude)
	pkg.RiseHour = int(r.read(bitsHour))
	pkg.RiseMinute = int(r.read(bitsMinute))
	pkg.SetHour = int(r.read(bitsHour))
	pkg.SetMinute = int(r.read(bitsMinute))
	pkg.Luminance = decodeSigned(r.read(bitsLum), bitsLum)
	if version == Version2 {
		pkg.Phase = int(r.read(bitsPhase))
	}
	return pkg, version, nil
}

// round повторяет Math.round: половина округляется вверх.
func round(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Floor(v + 0.5))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
