package currency

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/ppiankov/wayfare/internal/cache"
	"github.com/ppiankov/wayfare/internal/model"
	"github.com/ppiankov/wayfare/internal/util"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	fetchMaxRetries = 3
	fetchMaxBytes   = 1 << 20
	robotsTTL       = 24 * time.Hour
)

// fetchSleepFunc is the sleep between retries (replaced in tests)
var fetchSleepFunc = time.Sleep

// Throttle paces requests per host. *worker.Limiter satisfies it.
type Throttle interface {
	WaitWithDelay(ctx context.Context, rawURL string, delay time.Duration) error
}

// statusError is a non-2xx response
type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.code, e.status)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// HTTPSource fetches a JSON rate feed. Each fetch retries transient
// failures with exponential backoff inside a circuit breaker; the last good
// payload is cached and served when the feed is down.
type HTTPSource struct {
	url        string
	httpClient *http.Client
	userAgent  string
	breaker    *gobreaker.CircuitBreaker
	throttle   Throttle
	robots     *util.RobotsChecker
	store      cache.Cache
	logger     *zap.Logger
}

// NewHTTPSource creates a feed source from the currency config.
// throttle and store may be nil.
func NewHTTPSource(cfg model.CurrencyConfig, throttle Throttle, store cache.Cache, logger *zap.Logger) *HTTPSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	h := &HTTPSource{
		url: cfg.SourceURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		throttle:  throttle,
		store:     store,
		logger:    logger,
	}
	if cfg.RespectRobots {
		h.robots = util.NewRobotsChecker(h.httpClient, cfg.UserAgent, robotsTTL)
	}

	h.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "rate-feed",
		MaxRequests: 1,
		Interval:    10 * time.Minute,
		Timeout:     5 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return h
}

// Name returns the feed URL
func (h *HTTPSource) Name() string { return h.url }

// Fetch downloads and parses the feed, falling back to the cached payload
func (h *HTTPSource) Fetch(ctx context.Context) (*Snapshot, error) {
	body, err := h.breaker.Execute(func() (any, error) {
		return h.FetchWithRetry(ctx)
	})
	if err == nil {
		snap, perr := ParseFeed(body.([]byte), "json", time.Now(), h.url)
		if perr == nil {
			h.remember(body.([]byte))
			return snap, nil
		}
		err = perr
	}

	if snap, ok := h.cached(); ok {
		h.logger.Warn("rate feed unavailable, using cached payload",
			zap.String("url", h.url),
			zap.Time("snapshot", snap.Timestamp),
			zap.Error(err))
		return snap, nil
	}
	return nil, fmt.Errorf("fetch rate feed: %w", err)
}

// FetchWithRetry retrieves the raw feed, retrying network errors, 429 and
// 5xx with exponential backoff
func (h *HTTPSource) FetchWithRetry(ctx context.Context) ([]byte, error) {
	var lastErr error
	backoff := time.Second

	for attempt := 0; attempt < fetchMaxRetries; attempt++ {
		if attempt > 0 {
			fetchSleepFunc(backoff)
			backoff *= 2
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := h.fetch(ctx)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}
		h.logger.Debug("rate feed fetch failed, retrying",
			zap.String("url", h.url),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	return nil, lastErr
}

func (h *HTTPSource) fetch(ctx context.Context) ([]byte, error) {
	var delay time.Duration
	if h.robots != nil {
		verdict, err := h.robots.Check(ctx, h.url)
		if err != nil {
			return nil, err
		}
		if !verdict.Allowed {
			return nil, fmt.Errorf("disallowed by robots.txt: %s", h.url)
		}
		delay = verdict.CrawlDelay
	}
	if h.throttle != nil {
		if err := h.throttle.WaitWithDelay(ctx, h.url, delay); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode, status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, fetchMaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.retryable()
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return false
}

func (h *HTTPSource) remember(body []byte) {
	if h.store == nil {
		return
	}
	if err := h.store.Set(cache.Key(h.url), body, 0); err != nil {
		h.logger.Warn("cache rate payload", zap.Error(err))
	}
}

func (h *HTTPSource) cached() (*Snapshot, bool) {
	if h.store == nil {
		return nil, false
	}
	body, ok := h.store.Get(cache.Key(h.url))
	if !ok {
		return nil, false
	}
	snap, err := ParseFeed(body, "json", time.Time{}, h.url+" (cached)")
	if err != nil {
		return nil, false
	}
	return snap, true
}
