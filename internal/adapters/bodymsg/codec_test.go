package bodymsg

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"hubble-sync/internal/domain"
)

func ptr(t time.Time) *time.Time { return &t }

func samplePackage() domain.BodyPackage {
	return domain.BodyPackage{
		BodyID:     domain.MoonBodyID,
		Azimuth:    271,
		Altitude:   -12,
		RiseHour:   5,
		RiseMinute: 42,
		SetHour:    19,
		SetMinute:  7,
		Luminance:  -127,
		Phase:      4,
	}
}

func TestRoundTrip(t *testing.T) {
	for _, version := range []int{Version1, Version2} {
		data, err := Encode(version, samplePackage())
		if err != nil {
			t.Fatalf("v%d: не ожидали ошибку: %v", version, err)
		}
		got, gotVersion, err := Decode(data)
		if err != nil {
			t.Fatalf("v%d: не ожидали ошибку: %v", version, err)
		}
		if gotVersion != version || got != samplePackage() {
			t.Fatalf("v%d: пакет изменился: %+v", version, got)
		}
	}
}

func TestLengths(t *testing.T) {
	if n := len(EncodeV1(samplePackage())); n != 7 {
		t.Fatalf("v1 должен быть 7 байт, получили %d", n)
	}
	if n := len(EncodeV2(samplePackage())); n != 8 {
		t.Fatalf("v2 должен быть 8 байт, получили %d", n)
	}
}

func TestV2BitLayout(t *testing.T) {
	pkg := domain.BodyPackage{BodyID: 9, Azimuth: 1, Altitude: 0, RiseHour: 0, RiseMinute: 0, SetHour: 0, SetMinute: 0, Luminance: 0, Phase: 0}
	data := EncodeV2(pkg)
	want := []byte{9, 1, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(data, want) {
		t.Fatalf("ожидали %v, получили %v", want, data)
	}
	// Altitude -1 занимает биты 17..24 целиком.
	data = EncodeV2(domain.BodyPackage{BodyID: 0, Altitude: -1})
	if data[2] != 0xFE || data[3]&0x01 != 0x01 {
		t.Fatalf("неверная раскладка высоты: %08b %08b", data[2], data[3])
	}
}

func TestPackClampsAndRounds(t *testing.T) {
	high, err := Pack(domain.BodyState{BodyID: 3, Azimuth: -5, Altitude: 95, Magnitude: 99}, time.UTC)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	limit, _ := Pack(domain.BodyState{BodyID: 3, Azimuth: 0, Altitude: 90, Magnitude: 25.5}, time.UTC)
	if !bytes.Equal(EncodeV2(high), EncodeV2(limit)) {
		t.Fatalf("95° должно кодироваться как 90°, азимут -5 как 0")
	}
	if high.Azimuth != 0 || high.Altitude != 90 || high.Luminance != 255 {
		t.Fatalf("неожиданные значения %+v", high)
	}

	half, _ := Pack(domain.BodyState{BodyID: 3, Azimuth: 10.5, Altitude: -10.5, Magnitude: -0.25}, time.UTC)
	if half.Azimuth != 11 || half.Altitude != -10 || half.Luminance != -2 {
		t.Fatalf("округление должно идти вверх на половине: %+v", half)
	}
}

func TestPackSentinels(t *testing.T) {
	pkg, _ := Pack(domain.BodyState{BodyID: 9, Set: ptr(time.Date(2025, 6, 21, 20, 31, 0, 0, time.UTC))}, time.UTC)
	if pkg.RiseHour != 31 || pkg.RiseMinute != 63 {
		t.Fatalf("без восхода ожидали 31/63, получили %d/%d", pkg.RiseHour, pkg.RiseMinute)
	}
	if pkg.SetHour != 20 || pkg.SetMinute != 31 {
		t.Fatalf("неверное время захода %d:%d", pkg.SetHour, pkg.SetMinute)
	}
	decoded, _, err := Decode(EncodeV2(pkg))
	if err != nil || decoded.HasRise() || !decoded.HasSet() {
		t.Fatalf("признаки восхода и захода потерялись: %+v, %v", decoded, err)
	}
}

func TestPackUsesLocalTime(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	pkg, _ := Pack(domain.BodyState{BodyID: 9, Rise: ptr(time.Date(2025, 6, 21, 3, 15, 0, 0, time.UTC))}, loc)
	if pkg.RiseHour != 5 || pkg.RiseMinute != 15 {
		t.Fatalf("ожидали 5:15 по местному, получили %d:%d", pkg.RiseHour, pkg.RiseMinute)
	}
}

func TestPackPhaseOnlyForMoon(t *testing.T) {
	pkg, _ := Pack(domain.BodyState{BodyID: 4, Phase: 5}, time.UTC)
	if pkg.Phase != 0 {
		t.Fatalf("фаза бывает только у Луны, получили %d", pkg.Phase)
	}
}

func TestEncodeIsPure(t *testing.T) {
	state := domain.BodyState{BodyID: 0, Azimuth: 123.4, Altitude: 45.6, Magnitude: -12.7, Phase: 4}
	a, _ := Pack(state, time.UTC)
	b, _ := Pack(state, time.UTC)
	if !bytes.Equal(EncodeV2(a), EncodeV2(b)) {
		t.Fatalf("одинаковый вход дал разные байты")
	}
}

func TestUnknownBody(t *testing.T) {
	if _, err := Pack(domain.BodyState{BodyID: 29}, time.UTC); !errors.Is(err, domain.ErrUnknownBody) {
		t.Fatalf("ожидали ErrUnknownBody, получили %v", err)
	}
	if _, err := Encode(Version2, domain.BodyPackage{BodyID: -1}); !errors.Is(err, domain.ErrUnknownBody) {
		t.Fatalf("ожидали ErrUnknownBody, получили %v", err)
	}
	data := EncodeV2(domain.BodyPackage{BodyID: 40})
	if _, _, err := Decode(data); !errors.Is(err, domain.ErrUnknownBody) {
		t.Fatalf("распаковщик должен отклонять id вне таблицы, получили %v", err)
	}
}

func TestDecodeRejectsLength(t *testing.T) {
	if _, _, err := Decode(make([]byte, 6)); !errors.Is(err, ErrBadLength) {
		t.Fatalf("ожидали ErrBadLength, получили %v", err)
	}
}

func TestRequestRoundTrip(t *testing.T) {
	for id := range domain.BodyNames {
		got, ok, err := DecodeRequest(EncodeRequest(id))
		if err != nil || !ok || got != id {
			t.Fatalf("id %d: получили %d, %v, %v", id, got, ok, err)
		}
	}
	if _, ok, _ := DecodeRequest(map[string]any{"OTHER": 1}); ok {
		t.Fatalf("без REQUEST_BODY запроса нет")
	}
	if got, ok, _ := DecodeRequest(map[string]any{KeyRequestBody: float64(22)}); !ok || got != 22 {
		t.Fatalf("число из JSON должно читаться, получили %d", got)
	}
	if _, _, err := DecodeRequest(map[string]any{KeyRequestBody: 1.5}); err == nil {
		t.Fatalf("дробный id должен давать ошибку")
	}
}
