package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"hubble-sync/internal/adapters/bodymsg"
	"hubble-sync/internal/adapters/ics"
	"hubble-sync/internal/domain"
	httpinfra "hubble-sync/internal/infra/http"
	"hubble-sync/internal/infra/metrics"
	"hubble-sync/internal/usecase/bodyinfo"
	"hubble-sync/internal/usecase/profile"
	"hubble-sync/internal/usecase/timeline"
)

// RefreshFailed — число пинов в ответе при полном отказе синхронизации.
const RefreshFailed = -1

// Resetter сбрасывает кэш событий при принудительном обновлении.
type Resetter interface {
	Reset()
}

// Deps — зависимости обработчиков.
type Deps struct {
	Profile   *profile.Service
	Events    domain.EventProvider
	Timeline  *timeline.Service
	Bodies    *bodyinfo.Service
	Exporter  *ics.Exporter
	EventsTTL Resetter
	Clock     domain.Clock
	Location  *time.Location
	Version   int
}

// Handler обслуживает HTTP API синхронизатора.
type Handler struct {
	deps Deps
	log  zerolog.Logger
}

// NewHandler создаёт обработчики API.
func NewHandler(deps Deps, logger zerolog.Logger) *Handler {
	if deps.Clock == nil {
		deps.Clock = domain.SystemClock{}
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Version == 0 {
		deps.Version = bodymsg.Version2
	}
	return &Handler{deps: deps, log: logger}
}

// Routes регистрирует маршруты /v1 за проверкой токена.
func (h *Handler) Routes(r chi.Router, token string) {
	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(httpinfra.TokenAuthMiddleware(token))

		v1.Get("/events", h.getEvents)
		v1.Get("/events.ics", h.getEventsICS)
		v1.Post("/device/messages", h.postDeviceMessage)
		v1.Get("/bodies/{id}", h.getBody)
		v1.Post("/refresh", h.postRefresh)
		v1.Post("/pins/test", h.postTestPin)
		v1.Delete("/pins/test", h.deleteTestPin)
		v1.Delete("/pins", h.deleteAllPins)
		v1.Get("/settings", h.getSettings)
		v1.Put("/settings", h.putSettings)
		v1.Put("/observer", h.putObserver)
		v1.Put("/timezone", h.putTimezone)
		v1.Get("/favorites", h.getFavorites)
	})
}

func (h *Handler) logger(r *http.Request) zerolog.Logger {
	return h.log.With().Str("request_id", httpinfra.RequestID(r)).Logger()
}

func (h *Handler) location() *time.Location {
	return h.deps.Profile.Location(h.deps.Location)
}

func (h *Handler) observerProfile(w http.ResponseWriter) (domain.Profile, bool) {
	p, err := h.deps.Profile.Profile()
	if err != nil {
		httpinfra.WriteError(w, http.StatusInternalServerError, err)
		return domain.Profile{}, false
	}
	if p.Observer == nil {
		httpinfra.WriteError(w, http.StatusConflict, domain.ErrNoObserver)
		return domain.Profile{}, false
	}
	return p, true
}

func (h *Handler) eventSet(ctx context.Context, w http.ResponseWriter, r *http.Request) (domain.EventSet, bool) {
	p, ok := h.observerProfile(w)
	if !ok {
		return domain.EventSet{}, false
	}
	set, err := h.deps.Events.Events(ctx, *p.Observer, h.deps.Clock.Now(), p.Settings)
	if err != nil {
		logger := h.logger(r)
		logger.Error().Err(err).Msg("api: не удалось получить события")
		httpinfra.WriteError(w, http.StatusBadGateway, err)
		return domain.EventSet{}, false
	}
	return set, true
}

func (h *Handler) getEvents(w http.ResponseWriter, r *http.Request) {
	set, ok := h.eventSet(r.Context(), w, r)
	if !ok {
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, set)
}

func (h *Handler) getEventsICS(w http.ResponseWriter, r *http.Request) {
	set, ok := h.eventSet(r.Context(), w, r)
	if !ok {
		return
	}
	doc, err := h.deps.Exporter.Export(set)
	if err != nil {
		httpinfra.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

// bodyBytes собирает и кодирует пакет тела для текущего момента.
func (h *Handler) bodyBytes(ctx context.Context, w http.ResponseWriter, bodyID int) (domain.BodyPackage, []byte, bool) {
	p, ok := h.observerProfile(w)
	if !ok {
		return domain.BodyPackage{}, nil, false
	}
	state, err := h.deps.Bodies.State(ctx, bodyID, p.Observer, h.deps.Clock.Now())
	if err != nil {
		httpinfra.WriteError(w, statusFor(err), err)
		return domain.BodyPackage{}, nil, false
	}
	pkg, err := bodymsg.Pack(state, h.location())
	if err != nil {
		httpinfra.WriteError(w, statusFor(err), err)
		return domain.BodyPackage{}, nil, false
	}
	data, err := bodymsg.Encode(h.deps.Version, pkg)
	if err != nil {
		httpinfra.WriteError(w, statusFor(err), err)
		return domain.BodyPackage{}, nil, false
	}
	metrics.IncBodyPackage(h.deps.Version)
	return pkg, data, true
}

func (h *Handler) postDeviceMessage(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, fmt.Errorf("invalid message: %w", err))
		return
	}
	bodyID, ok, err := bodymsg.DecodeRequest(payload)
	if err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	_, data, ok := h.bodyBytes(r.Context(), w, bodyID)
	if !ok {
		return
	}
	logger := h.logger(r)
	logger.Debug().Int("body_id", bodyID).Int("bytes", len(data)).Msg("api: пакет тела отправлен")
	httpinfra.WriteJSON(w, http.StatusOK, bodymsg.EncodeResponse(data))
}

type bodyPreview struct {
	Version int                `json:"version"`
	Bytes   []int              `json:"bytes"`
	Package domain.BodyPackage `json:"package"`
	Name    string             `json:"name"`
	HasRise bool               `json:"has_rise"`
	HasSet  bool               `json:"has_set"`
}

func (h *Handler) getBody(w http.ResponseWriter, r *http.Request) {
	bodyID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, domain.ErrUnknownBody)
		return
	}
	_, data, ok := h.bodyBytes(r.Context(), w, bodyID)
	if !ok {
		return
	}
	decoded, version, err := bodymsg.Decode(data)
	if err != nil {
		httpinfra.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	name, _ := domain.BodyName(decoded.BodyID)
	values := make([]int, len(data))
	for i, b := range data {
		values[i] = int(b)
	}
	httpinfra.WriteJSON(w, http.StatusOK, bodyPreview{
		Version: version,
		Bytes:   values,
		Package: decoded,
		Name:    name,
		HasRise: decoded.HasRise(),
		HasSet:  decoded.HasSet(),
	})
}

func (h *Handler) postRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger(r)
	if r.URL.Query().Get("force") == "1" {
		h.deps.Timeline.PushCache().Reset(ctx)
		if h.deps.EventsTTL != nil {
			h.deps.EventsTTL.Reset()
		}
		logger.Info().Msg("api: кэши сброшены перед обновлением")
	}
	p, err := h.deps.Profile.Profile()
	if err != nil || p.Observer == nil {
		if err == nil {
			err = domain.ErrNoObserver
		}
		logger.Warn().Err(err).Msg("api: обновление невозможно")
		httpinfra.WriteJSON(w, http.StatusOK, map[string]int{"pins": RefreshFailed})
		return
	}
	n, err := h.deps.Timeline.Sync(ctx, *p.Observer, h.deps.Clock.Now(), p.Settings)
	if err != nil {
		logger.Error().Err(err).Msg("api: синхронизация не удалась")
		n = RefreshFailed
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string]int{"pins": n})
}

func (h *Handler) postTestPin(w http.ResponseWriter, r *http.Request) {
	pin, err := h.deps.Timeline.PushTestPin(r.Context())
	if err != nil {
		httpinfra.WriteError(w, http.StatusServiceUnavailable, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusAccepted, pin)
}

func (h *Handler) deleteTestPin(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Timeline.DeleteTestPin(r.Context()); err != nil {
		httpinfra.WriteError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) deleteAllPins(w http.ResponseWriter, r *http.Request) {
	n := h.deps.Timeline.DeleteAll(r.Context())
	h.deps.Timeline.PushCache().Reset(r.Context())
	httpinfra.WriteJSON(w, http.StatusAccepted, map[string]int{"deleted": n})
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Profile.Profile()
	if err != nil {
		httpinfra.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	settings := p.Settings
	if settings == nil {
		settings = domain.Settings{}
	}
	httpinfra.WriteJSON(w, http.StatusOK, settings)
}

func (h *Handler) putSettings(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, fmt.Errorf("invalid settings: %w", err))
		return
	}
	settings, err := h.deps.Profile.UpdateSettings(raw)
	if err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, settings)
}

func (h *Handler) putObserver(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var obs domain.Observer
	if err := json.NewDecoder(r.Body).Decode(&obs); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, fmt.Errorf("invalid observer: %w", err))
		return
	}
	if err := h.deps.Profile.UpdateObserver(obs); err != nil {
		httpinfra.WriteError(w, statusFor(err), err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, obs)
}

type timezoneRequest struct {
	Timezone string `json:"timezone"`
}

func (h *Handler) putTimezone(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req timezoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, fmt.Errorf("invalid timezone: %w", err))
		return
	}
	tz, err := h.deps.Profile.UpdateTimezone(req.Timezone)
	if err != nil {
		httpinfra.WriteError(w, statusFor(err), err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, timezoneRequest{Timezone: tz})
}

func (h *Handler) getFavorites(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Profile.Profile()
	if err != nil {
		httpinfra.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	favorites := p.Settings.Favorites()
	if favorites == nil {
		favorites = []string{}
	}
	httpinfra.WriteJSON(w, http.StatusOK, map[string][]string{"favorites": favorites})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownBody),
		errors.Is(err, domain.ErrInvalidObserver),
		errors.Is(err, profile.ErrInvalidTimezone):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoObserver):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
