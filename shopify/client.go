package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"sku-generator/config"
	"sku-generator/logger"
)

const (
	accessTokenHeader = "X-Shopify-Access-Token"
	callLimitHeader   = "X-Shopify-Shop-Api-Call-Limit"
	dailyVariantLimit = "daily variant creation limit"
)

// Options configures the retry and pacing behaviour of a Client.
type Options struct {
	APIVersion     string
	Timeout        time.Duration
	MaxRetries     int
	BackoffBase    float64
	AfterEachDelay time.Duration
	RatePerSecond  float64
	RateBurst      int
	// BaseURL overrides https://{store}/admin/api/{version}.
	BaseURL string
}

// OptionsFromConfig maps the upload settings onto client options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		APIVersion:     cfg.Shopify.APIVersion,
		Timeout:        cfg.Upload.Timeout,
		MaxRetries:     cfg.Upload.MaxRetries,
		BackoffBase:    cfg.Upload.BackoffBase,
		AfterEachDelay: cfg.Upload.AfterEachDelay,
		RatePerSecond:  cfg.Upload.RatePerSecond,
		RateBurst:      cfg.Upload.RateBurst,
	}
}

// Client talks to the Admin REST API of one store. Every call waits on the
// store's shared limiter and goes through the retry loop in do.
type Client struct {
	store    config.StoreProfile
	opts     Options
	http     *resty.Client
	download *resty.Client
	limiter  *rate.Limiter
	logger   *zap.Logger

	throttled atomic.Int32 // consecutive 429 responses

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

// NewClient creates a client for store.
func NewClient(store config.StoreProfile, opts Options, log *zap.Logger) (*Client, error) {
	if store.ShopDomain == "" || store.AccessToken == "" {
		return nil, fmt.Errorf("store %q needs both a shop domain and an access token", store.Label)
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.BackoffBase < 1 {
		opts.BackoffBase = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s/admin/api/%s", store.ShopDomain, opts.APIVersion)
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetHeader(accessTokenHeader, store.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		store:    store,
		opts:     opts,
		http:     httpClient,
		download: resty.New().SetTimeout(opts.Timeout),
		limiter:  sharedLimiter(store.ShopDomain, store.AccessToken, opts.RatePerSecond, opts.RateBurst),
		logger:   logger.OrNop(log).With(zap.String("store", store.ShopDomain)),
		sleep:    sleepContext,
		jitter:   rand.Float64,
	}, nil
}

// Store returns the credential this client was built for.
func (c *Client) Store() config.StoreProfile {
	return c.store
}

// AdminURL is the admin page of a product.
func (c *Client) AdminURL(productID int64) string {
	return fmt.Sprintf("https://%s/admin/products/%d", c.store.ShopDomain, productID)
}

// Post sends body as JSON and decodes the response into out when non-nil.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPost, path, body, out)
}

// Put sends body as JSON and decodes the response into out when non-nil.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPut, path, body, out)
}

// Get decodes the response of path into out when non-nil.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// ShopStatus is the outcome of a connection check.
type ShopStatus struct {
	Name      string `json:"name"`
	Domain    string `json:"domain"`
	Status    int    `json:"status"`
	CallLimit string `json:"callLimit"`
}

// CheckConnection reads /shop.json with the configured credential.
func (c *Client) CheckConnection(ctx context.Context) (ShopStatus, error) {
	resp, err := c.do(ctx, http.MethodGet, "/shop.json", nil)
	if err != nil {
		return ShopStatus{}, err
	}

	var payload struct {
		Shop struct {
			Name   string `json:"name"`
			Domain string `json:"domain"`
		} `json:"shop"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return ShopStatus{}, fmt.Errorf("failed to decode shop response: %w", err)
	}
	return ShopStatus{
		Name:      payload.Shop.Name,
		Domain:    payload.Shop.Domain,
		Status:    resp.StatusCode(),
		CallLimit: resp.Header().Get(callLimitHeader),
	}, nil
}

// Download fetches a remote file without store credentials.
func (c *Client) Download(ctx context.Context, url string) ([]byte, string, error) {
	resp, err := c.download.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, "", fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode())
	}
	return resp.Body(), resp.Header().Get("Content-Type"), nil
}

// do runs one call through the limiter and the retry state machine.
func (c *Client) do(ctx context.Context, method, path string, body any) (*resty.Response, error) {
	var lastErr error

	for attempt := 0; attempt < c.opts.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		say(ctx, "📡 %s %s", method, path)
		req := c.http.R().SetContext(ctx)
		if body != nil {
			req.SetBody(body)
		}
		resp, err := req.Execute(method, path)

		var delay time.Duration
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			delay = c.backoff(attempt)
			say(ctx, "⏳ %s timeout/conn error (attempt %d/%d): %v", method, attempt+1, c.opts.MaxRetries, err)

		case resp.IsSuccess():
			c.throttled.Store(0)
			say(ctx, "📥 Response status: %d", resp.StatusCode())
			if d := CallLimitDelay(resp.Header().Get(callLimitHeader)); d > 0 {
				say(ctx, "🕒 Throttling for call limit %s. Sleeping %.1fs…", resp.Header().Get(callLimitHeader), d.Seconds())
				if err := c.sleep(ctx, d); err != nil {
					return nil, err
				}
			}
			if c.opts.AfterEachDelay > 0 {
				if err := c.sleep(ctx, c.opts.AfterEachDelay); err != nil {
					return nil, err
				}
			}
			return resp, nil

		case resp.StatusCode() == http.StatusTooManyRequests:
			text := resp.String()
			if strings.Contains(strings.ToLower(text), dailyVariantLimit) {
				c.logger.Warn("daily variant creation limit reached", zap.String("path", path))
				return nil, &QuotaError{Body: text}
			}
			lastErr = &APIError{Method: method, Path: path, Status: resp.StatusCode(), Body: text}

			prior := int(c.throttled.Add(1)) - 1
			if ra, ok := parseRetryAfter(resp.Header().Get("Retry-After")); ok {
				delay = ra
				say(ctx, "⏳ Rate limited (429). Retry-After=%.1fs", delay.Seconds())
			} else {
				delay = max(c.backoff(attempt), throttleFloor(prior))
				say(ctx, "⏳ Rate limited (429). Backing off %.1fs…", delay.Seconds())
			}

		case resp.StatusCode() >= http.StatusInternalServerError:
			lastErr = &APIError{Method: method, Path: path, Status: resp.StatusCode(), Body: resp.String()}
			delay = c.backoff(attempt)
			say(ctx, "⏳ Server error %d. Backing off %.1fs…", resp.StatusCode(), delay.Seconds())

		default:
			return nil, &APIError{Method: method, Path: path, Status: resp.StatusCode(), Body: resp.String()}
		}

		if attempt == c.opts.MaxRetries-1 {
			break
		}
		c.logger.Debug("retrying request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(lastErr))
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	c.logger.Warn("request exhausted retries",
		zap.String("method", method),
		zap.String("path", path),
		zap.Error(lastErr))
	return nil, &RetriesExhaustedError{Method: method, Path: path, Attempts: c.opts.MaxRetries, Err: lastErr}
}

// backoff is base^attempt seconds plus up to 0.6s of jitter.
func (c *Client) backoff(attempt int) time.Duration {
	secs := math.Pow(c.opts.BackoffBase, float64(attempt)) + c.jitter()*0.6
	return time.Duration(secs * float64(time.Second))
}

// throttleFloor is the minimum wait once prior consecutive 429s have been seen.
func throttleFloor(prior int) time.Duration {
	switch {
	case prior >= 6:
		return 75 * time.Second
	case prior >= 5:
		return 45 * time.Second
	case prior >= 3:
		return 15 * time.Second
	}
	return 0
}

// CallLimitDelay returns how long to pause after a response carrying the
// "used/cap" call-limit header. Above 75% of the bucket it waits for the
// bucket to drain back to half at roughly two calls per second.
func CallLimitDelay(header string) time.Duration {
	usedStr, capStr, ok := strings.Cut(header, "/")
	if !ok {
		return 0
	}
	used, err := strconv.Atoi(strings.TrimSpace(usedStr))
	if err != nil {
		return 0
	}
	limit, err := strconv.Atoi(strings.TrimSpace(capStr))
	if err != nil || limit <= 0 {
		return 0
	}
	if used < int(0.75*float64(limit)) {
		return 0
	}
	delta := max(0, used-int(0.5*float64(limit)))
	secs := max(0.5, float64(delta)/2)
	return time.Duration(secs * float64(time.Second))
}

func parseRetryAfter(v string) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
