package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"hubble-sync/internal/adapters/bodymsg"
	"hubble-sync/internal/adapters/ics"
	"hubble-sync/internal/domain"
	"hubble-sync/internal/infra/cache"
	"hubble-sync/internal/infra/queue"
	"hubble-sync/internal/usecase/bodyinfo"
	"hubble-sync/internal/usecase/pins"
	"hubble-sync/internal/usecase/profile"
	"hubble-sync/internal/usecase/timeline"
)

var testNow = time.Date(2025, 6, 21, 12, 0, 0, 0, time.UTC)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return testNow }

type stubEphemeris struct {
	domain.Ephemeris
}

func (stubEphemeris) Horizontal(ctx context.Context, body string, obs domain.Observer, at time.Time) (domain.Horizontal, error) {
	return domain.Horizontal{Azimuth: 180, Altitude: 45}, nil
}

func (stubEphemeris) SearchRiseSet(ctx context.Context, body string, obs domain.Observer, direction int, start time.Time, limitDays float64) (time.Time, error) {
	return time.Time{}, domain.ErrEventNotFound
}

func (stubEphemeris) Illumination(ctx context.Context, body string, at time.Time) (domain.Illumination, error) {
	return domain.Illumination{Magnitude: -26.7}, nil
}

func (stubEphemeris) MoonPhase(ctx context.Context, at time.Time) (float64, error) {
	return 0, nil
}

type stubEvents struct {
	set domain.EventSet
}

func (s stubEvents) Events(ctx context.Context, obs domain.Observer, ref time.Time, settings domain.Settings) (domain.EventSet, error) {
	return s.set, nil
}

type memoryProfiles struct {
	profile domain.Profile
}

func (m *memoryProfiles) Load() (domain.Profile, error) { return m.profile, nil }

func (m *memoryProfiles) Save(p domain.Profile) error {
	m.profile = p
	return nil
}

type harness struct {
	router   chi.Router
	queue    *queue.MemoryPinQueue
	profiles *memoryProfiles
}

func newHarness(t *testing.T, token string, p domain.Profile) *harness {
	t.Helper()
	clock := fixedClock{}
	set := domain.NewEventSet()
	set.RiseSet = append(set.RiseSet, domain.RiseSetEvent{Body: "Sun", Type: domain.DirectionSet, Time: testNow.Add(6 * time.Hour)})

	profiles := &memoryProfiles{profile: p}
	q := queue.NewMemoryPinQueue(64)
	builder := pins.NewBuilder(clock)
	push := timeline.NewPushCache(clock, cache.NewPushStore(cache.NewMemory()), zerolog.Nop())
	tl := timeline.NewService(stubEvents{set: set}, builder, q, push, clock, time.UTC, zerolog.Nop())
	profileSvc := profile.NewService(profiles, zerolog.Nop(), tl)

	h := NewHandler(Deps{
		Profile:  profileSvc,
		Events:   stubEvents{set: set},
		Timeline: tl,
		Bodies:   bodyinfo.NewService(stubEphemeris{}, zerolog.Nop()),
		Exporter: ics.NewExporter(builder, clock),
		Clock:    clock,
		Location: time.UTC,
		Version:  bodymsg.Version2,
	}, zerolog.Nop())
	r := chi.NewRouter()
	h.Routes(r, token)
	return &harness{router: r, queue: q, profiles: profiles}
}

func (h *harness) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func withObserver() domain.Profile {
	return domain.Profile{Observer: &domain.Observer{Latitude: 52.37, Longitude: 4.89}, Timezone: "UTC"}
}

func TestDeviceMessage(t *testing.T) {
	h := newHarness(t, "", withObserver())

	rec := h.do(http.MethodPost, "/v1/device/messages", `{"OTHER":1}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("без REQUEST_BODY ожидали 204, получили %d", rec.Code)
	}

	rec = h.do(http.MethodPost, "/v1/device/messages", `{"REQUEST_BODY":9}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d: %s", rec.Code, rec.Body)
	}
	var resp map[string][]int
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("ответ не JSON: %v", err)
	}
	values := resp[bodymsg.KeyBodyPackage]
	if len(values) != bodymsg.V2Len {
		t.Fatalf("ожидали %d байт, получили %d", bodymsg.V2Len, len(values))
	}
	data := make([]byte, len(values))
	for i, v := range values {
		data[i] = byte(v)
	}
	pkg, _, err := bodymsg.Decode(data)
	if err != nil {
		t.Fatalf("пакет не распаковывается: %v", err)
	}
	if pkg.BodyID != 9 || pkg.Azimuth != 180 || pkg.Altitude != 45 || pkg.Luminance != -256 || pkg.HasRise() {
		t.Fatalf("неожиданный пакет %+v", pkg)
	}

	rec = h.do(http.MethodPost, "/v1/device/messages", `{"REQUEST_BODY":40}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("неизвестное тело должно давать 400, получили %d", rec.Code)
	}
}

func TestDeviceMessageWithoutObserver(t *testing.T) {
	h := newHarness(t, "", domain.Profile{})
	rec := h.do(http.MethodPost, "/v1/device/messages", `{"REQUEST_BODY":0}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("без наблюдателя ожидали 409, получили %d", rec.Code)
	}
}

func TestBodyPreview(t *testing.T) {
	h := newHarness(t, "", withObserver())
	rec := h.do(http.MethodGet, "/v1/bodies/9", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}
	var preview bodyPreview
	if err := json.Unmarshal(rec.Body.Bytes(), &preview); err != nil {
		t.Fatalf("ответ не JSON: %v", err)
	}
	if preview.Name != "Sun" || preview.Version != bodymsg.Version2 || preview.HasSet {
		t.Fatalf("неожиданный предпросмотр %+v", preview)
	}
	if rec := h.do(http.MethodGet, "/v1/bodies/abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("нечисловой id должен давать 400, получили %d", rec.Code)
	}
}

func TestRefresh(t *testing.T) {
	h := newHarness(t, "", domain.Profile{})
	rec := h.do(http.MethodPost, "/v1/refresh", "")
	if !strings.Contains(rec.Body.String(), `"pins":-1`) {
		t.Fatalf("без наблюдателя ожидали -1, получили %s", rec.Body)
	}

	h = newHarness(t, "", withObserver())
	rec = h.do(http.MethodPost, "/v1/refresh", "")
	if !strings.Contains(rec.Body.String(), `"pins":1`) {
		t.Fatalf("ожидали один пин, получили %s", rec.Body)
	}
	if h.queue.Len() != 1 {
		t.Fatalf("в очереди должна быть одна команда, получили %d", h.queue.Len())
	}

	rec = h.do(http.MethodPost, "/v1/refresh", "")
	if !strings.Contains(rec.Body.String(), `"pins":0`) {
		t.Fatalf("повтор в пределах TTL должен пропускаться, получили %s", rec.Body)
	}
	rec = h.do(http.MethodPost, "/v1/refresh?force=1", "")
	if !strings.Contains(rec.Body.String(), `"pins":1`) {
		t.Fatalf("force должен сбрасывать кэш отправки, получили %s", rec.Body)
	}
}

func TestTestPin(t *testing.T) {
	h := newHarness(t, "", withObserver())
	rec := h.do(http.MethodPost, "/v1/pins/test", "")
	if rec.Code != http.StatusAccepted || !strings.Contains(rec.Body.String(), domain.TestPinID) {
		t.Fatalf("неожиданный ответ %d: %s", rec.Code, rec.Body)
	}
	if rec := h.do(http.MethodDelete, "/v1/pins/test", ""); rec.Code != http.StatusAccepted {
		t.Fatalf("ожидали 202, получили %d", rec.Code)
	}
	if h.queue.Len() != 2 {
		t.Fatalf("ожидали две команды, получили %d", h.queue.Len())
	}
}

func TestProfileEndpoints(t *testing.T) {
	h := newHarness(t, "", domain.Profile{})

	rec := h.do(http.MethodPut, "/v1/settings", `{"CFG_SUN_ECLIPSES":0,"CFG_FAVORITES":[1,0,0,0,0,0,0,0,0,1]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d: %s", rec.Code, rec.Body)
	}
	if h.profiles.profile.Settings.Enabled(domain.CfgSunEclipses) {
		t.Fatalf("настройки не сохранены: %v", h.profiles.profile.Settings)
	}
	rec = h.do(http.MethodGet, "/v1/favorites", "")
	if !strings.Contains(rec.Body.String(), `["Moon","Sun"]`) {
		t.Fatalf("неожиданные избранные: %s", rec.Body)
	}
	if rec := h.do(http.MethodPut, "/v1/settings", `{"X":{"a":1}}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("вложенный словарь должен давать 400, получили %d", rec.Code)
	}

	if rec := h.do(http.MethodPut, "/v1/observer", `{"latitude":95,"longitude":0}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("широта вне диапазона должна давать 400, получили %d", rec.Code)
	}
	if rec := h.do(http.MethodPut, "/v1/observer", `{"latitude":40.7,"longitude":-74}`); rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}

	rec = h.do(http.MethodPut, "/v1/timezone", `{"timezone":"europe/amsterdam"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Europe/Amsterdam") {
		t.Fatalf("часовой пояс не нормализован: %d %s", rec.Code, rec.Body)
	}
	if rec := h.do(http.MethodPut, "/v1/timezone", `{"timezone":"nowhere"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("неизвестный пояс должен давать 400, получили %d", rec.Code)
	}
}

func TestEventsEndpoints(t *testing.T) {
	h := newHarness(t, "", withObserver())
	rec := h.do(http.MethodGet, "/v1/events", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"riseSetEvents"`) {
		t.Fatalf("неожиданный ответ %d: %s", rec.Code, rec.Body)
	}
	rec = h.do(http.MethodGet, "/v1/events.ics", "")
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/calendar") || !strings.Contains(rec.Body.String(), "BEGIN:VEVENT") {
		t.Fatalf("ожидали календарь, получили %q", rec.Body)
	}

	h = newHarness(t, "", domain.Profile{})
	if rec := h.do(http.MethodGet, "/v1/events", ""); rec.Code != http.StatusConflict {
		t.Fatalf("без наблюдателя ожидали 409, получили %d", rec.Code)
	}
}

func TestRoutesRequireToken(t *testing.T) {
	h := newHarness(t, "secret", withObserver())
	if rec := h.do(http.MethodGet, "/v1/settings", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("без токена ожидали 401, получили %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/settings", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("с токеном ожидали 200, получили %d", rec.Code)
	}
}
