package timeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hubble-sync/internal/domain"
	"hubble-sync/internal/infra/metrics"
)

const defaultBaseURL = "https://timeline-api.rebble.io"

// ErrNoToken возвращается, если токен пользователя таймлайна не задан.
var ErrNoToken = errors.New("timeline: user token is empty")

// StatusError — ответ таймлайна с кодом вне 2xx.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("timeline %s: unexpected status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("timeline %s: status %d: %s", e.Op, e.Status, e.Body)
}

// Client отправляет пины в публичный API таймлайна.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	limiter *rate.Limiter
}

var _ domain.TimelineClient = (*Client)(nil)

// NewClient создаёт клиента таймлайна. rps <= 0 отключает ограничение частоты.
func NewClient(baseURL, token string, rps float64, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = max(1, int(rps))
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		token:   token,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// PutPin создаёт или заменяет пин.
func (c *Client) PutPin(ctx context.Context, pin domain.Pin) error {
	if pin.ID == "" {
		return errors.New("timeline: pin id is empty")
	}
	body, err := json.Marshal(pin)
	if err != nil {
		return fmt.Errorf("timeline: marshal pin: %w", err)
	}
	return c.do(ctx, "put_pin", http.MethodPut, pin.ID, body)
}

// DeletePin удаляет пин. Отсутствующий пин не считается ошибкой.
func (c *Client) DeletePin(ctx context.Context, pinID string) error {
	err := c.do(ctx, "delete_pin", http.MethodDelete, pinID, nil)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound {
		return nil
	}
	return err
}

func (c *Client) do(ctx context.Context, op, method, pinID string, payload []byte) (err error) {
	if c.token == "" {
		return ErrNoToken
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("timeline: rate limit: %w", err)
	}

	start := time.Now()
	defer func() {
		metrics.ObserveNetworkRequest("timeline", op, "user_pins", start, err)
	}()

	endpoint := c.baseURL + "/v1/user/pins/" + url.PathEscape(pinID)
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("timeline: build request: %w", err)
	}
	req.Header.Set("X-User-Token", c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("timeline: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
}
