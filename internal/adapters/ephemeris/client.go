package ephemeris

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hubble-sync/internal/domain"
	"hubble-sync/internal/infra/metrics"
)

const defaultBaseURL = "http://localhost:8090"

// Client обращается к внешнему сервису эфемерид по HTTP/JSON.
type Client struct {
	http    *http.Client
	baseURL string
}

var _ domain.Ephemeris = (*Client)(nil)

// NewClient создаёт клиента эфемерид.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{http: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

type observerDTO struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Height    float64 `json:"height"`
}

func toDTO(obs domain.Observer) observerDTO {
	return observerDTO{Latitude: obs.Latitude, Longitude: obs.Longitude, Height: obs.Height}
}

// searchResult — общий ответ поисковых запросов.
type searchResult struct {
	Found bool      `json:"found"`
	Time  time.Time `json:"time"`
}

type apiErrorResponse struct {
	Error string `json:"error"`
}

// Horizontal возвращает азимут и высоту тела.
func (c *Client) Horizontal(ctx context.Context, body string, obs domain.Observer, at time.Time) (domain.Horizontal, error) {
	req := map[string]any{"body": body, "observer": toDTO(obs), "time": at.UTC()}
	var out domain.Horizontal
	err := c.post(ctx, "horizontal", "/v1/horizontal", req, &out)
	return out, err
}

// HorizontalFromEquatorial переводит экваториальные координаты в горизонтальные.
func (c *Client) HorizontalFromEquatorial(ctx context.Context, eq domain.Equatorial, obs domain.Observer, at time.Time) (domain.Horizontal, error) {
	req := map[string]any{"ra": eq.RA, "dec": eq.Dec, "observer": toDTO(obs), "time": at.UTC()}
	var out domain.Horizontal
	err := c.post(ctx, "horizontal_equatorial", "/v1/horizontal/equatorial", req, &out)
	return out, err
}

// SearchRiseSet ищет восход или заход.
func (c *Client) SearchRiseSet(ctx context.Context, body string, obs domain.Observer, direction int, start time.Time, limitDays float64) (time.Time, error) {
	req := map[string]any{"body": body, "observer": toDTO(obs), "direction": direction, "start": start.UTC(), "limit_days": limitDays}
	return c.search(ctx, "rise_set", "/v1/rise-set", req)
}

// SearchAltitude ищет пересечение высоты.
func (c *Client) SearchAltitude(ctx context.Context, body string, obs domain.Observer, direction int, start time.Time, limitDays, altitude float64) (time.Time, error) {
	req := map[string]any{"body": body, "observer": toDTO(obs), "direction": direction, "start": start.UTC(), "limit_days": limitDays, "altitude": altitude}
	return c.search(ctx, "altitude", "/v1/altitude", req)
}

// SearchHourAngle ищет момент часового угла.
func (c *Client) SearchHourAngle(ctx context.Context, body string, obs domain.Observer, hourAngle float64, start time.Time, direction int) (time.Time, error) {
	req := map[string]any{"body": body, "observer": toDTO(obs), "hour_angle": hourAngle, "start": start.UTC(), "direction": direction}
	return c.search(ctx, "hour_angle", "/v1/hour-angle", req)
}

// Illumination возвращает звёздную величину.
func (c *Client) Illumination(ctx context.Context, body string, at time.Time) (domain.Illumination, error) {
	req := map[string]any{"body": body, "time": at.UTC()}
	var out domain.Illumination
	err := c.post(ctx, "illumination", "/v1/illumination", req, &out)
	return out, err
}

// MoonPhase возвращает фазовый угол Луны.
func (c *Client) MoonPhase(ctx context.Context, at time.Time) (float64, error) {
	var out struct {
		Angle float64 `json:"angle"`
	}
	err := c.post(ctx, "moon_phase", "/v1/moon-phase", map[string]any{"time": at.UTC()}, &out)
	return out.Angle, err
}

// Seasons возвращает равноденствия и солнцестояния года.
func (c *Client) Seasons(ctx context.Context, year int) (domain.Seasons, error) {
	var out domain.Seasons
	err := c.post(ctx, "seasons", "/v1/seasons", map[string]any{"year": year}, &out)
	return out, err
}

// SearchTransit ищет ближайшее прохождение Меркурия или Венеры.
func (c *Client) SearchTransit(ctx context.Context, body string, start time.Time) (domain.TransitInfo, error) {
	var out struct {
		Found bool `json:"found"`
		domain.TransitInfo
	}
	if err := c.post(ctx, "transit", "/v1/transit", map[string]any{"body": body, "start": start.UTC()}, &out); err != nil {
		return domain.TransitInfo{}, err
	}
	if !out.Found {
		return domain.TransitInfo{}, domain.ErrEventNotFound
	}
	return out.TransitInfo, nil
}

// SearchLunarEclipse ищет ближайшее лунное затмение.
func (c *Client) SearchLunarEclipse(ctx context.Context, start time.Time) (domain.LunarEclipseInfo, error) {
	var out struct {
		Found bool `json:"found"`
		domain.LunarEclipseInfo
	}
	if err := c.post(ctx, "lunar_eclipse", "/v1/eclipse/lunar", map[string]any{"start": start.UTC()}, &out); err != nil {
		return domain.LunarEclipseInfo{}, err
	}
	if !out.Found {
		return domain.LunarEclipseInfo{}, domain.ErrEventNotFound
	}
	return out.LunarEclipseInfo, nil
}

// SearchGlobalSolarEclipse ищет ближайшее солнечное затмение.
func (c *Client) SearchGlobalSolarEclipse(ctx context.Context, start time.Time) (domain.GlobalSolarEclipseInfo, error) {
	var out struct {
		Found bool `json:"found"`
		domain.GlobalSolarEclipseInfo
	}
	if err := c.post(ctx, "solar_eclipse", "/v1/eclipse/solar", map[string]any{"start": start.UTC()}, &out); err != nil {
		return domain.GlobalSolarEclipseInfo{}, err
	}
	if !out.Found {
		return domain.GlobalSolarEclipseInfo{}, domain.ErrEventNotFound
	}
	return out.GlobalSolarEclipseInfo, nil
}

// SearchLunarApsis ищет ближайший перигей или апогей.
func (c *Client) SearchLunarApsis(ctx context.Context, start time.Time) (domain.ApsisInfo, error) {
	var out struct {
		Found bool `json:"found"`
		domain.ApsisInfo
	}
	if err := c.post(ctx, "lunar_apsis", "/v1/apsis/lunar", map[string]any{"start": start.UTC()}, &out); err != nil {
		return domain.ApsisInfo{}, err
	}
	if !out.Found {
		return domain.ApsisInfo{}, domain.ErrEventNotFound
	}
	return out.ApsisInfo, nil
}

func (c *Client) search(ctx context.Context, op, path string, req any) (time.Time, error) {
	var out searchResult
	if err := c.post(ctx, op, path, req, &out); err != nil {
		return time.Time{}, err
	}
	if !out.Found || out.Time.IsZero() {
		return time.Time{}, domain.ErrEventNotFound
	}
	return out.Time, nil
}

func (c *Client) post(ctx context.Context, op, path string, req, out any) (err error) {
	start := time.Now()
	defer func() {
		observed := err
		if errors.Is(err, domain.ErrEventNotFound) {
			observed = nil
		}
		metrics.ObserveNetworkRequest("ephemeris", op, path, start, observed)
	}()

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("ephemeris: marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ephemeris: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ephemeris: do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("ephemeris: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("ephemeris %s: %s", op, apiErr.Error)
		}
		return fmt.Errorf("ephemeris %s: unexpected status %d", op, resp.StatusCode)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("ephemeris: decode response: %w", err)
	}
	return nil
}
