package schedule

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/riskibarqy/cricbase/internal/domain/match"
	"github.com/riskibarqy/cricbase/internal/platform/logging"
	"github.com/riskibarqy/cricbase/internal/platform/resilience"
	"github.com/riskibarqy/cricbase/internal/usecase"
)

const (
	defaultBaseURL   = "https://assets-icc.sportz.io/cricket/v1"
	defaultPageSize  = 400
	maxResponseBytes = 8 << 20
	requestDateFmt   = "20060102"
)

// ErrTransient marks failures worth retrying: network errors, 429 and 5xx.
var ErrTransient = crerr.New("schedule transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	ClientID       string
	UserAgent      string
	Timeout        time.Duration
	MinInterval    time.Duration
	MaxRetries     int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	// CompTypes maps a category ("male/T20") to the feed's competition type id.
	CompTypes      map[string]int64
	CircuitBreaker resilience.CircuitBreakerConfig
	Clock          resilience.Clock
	Logger         *logging.Logger
}

// Client fetches schedule pages. All requests, retries included, take a
// token from one limiter so consecutive requests are never closer than
// MinInterval.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	clientID       string
	userAgent      string
	maxRetries     int
	backoffInitial time.Duration
	backoffMax     time.Duration
	compTypes      map[string]int64
	limiter        *rate.Limiter
	requests       atomic.Int64
	breaker        *resilience.CircuitBreaker
	logger         *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	backoffInitial := cfg.BackoffInitial
	if backoffInitial <= 0 {
		backoffInitial = time.Second
	}
	backoffMax := cfg.BackoffMax
	if backoffMax < backoffInitial {
		backoffMax = backoffInitial
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		clientID:       strings.TrimSpace(cfg.ClientID),
		userAgent:      strings.TrimSpace(cfg.UserAgent),
		maxRetries:     max(cfg.MaxRetries, 0),
		backoffInitial: backoffInitial,
		backoffMax:     backoffMax,
		compTypes:      cfg.CompTypes,
		limiter:        resilience.NewRequestLimiter(cfg.MinInterval),
		breaker:        resilience.BreakerFromConfig(cfg.CircuitBreaker, cfg.Clock),
		logger:         logger,
	}
}

// Requests returns how many HTTP requests the client has issued.
func (c *Client) Requests() int {
	return int(c.requests.Load())
}

func (c *Client) FetchSchedulePage(ctx context.Context, query usecase.ScheduleQuery) (usecase.SchedulePage, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = defaultPageSize
	}
	if query.To.Before(query.From) {
		return usecase.SchedulePage{}, fmt.Errorf("%w: schedule window ends before it starts", usecase.ErrInvalidInput)
	}
	compType := c.compTypes[query.Category.String()]

	values := url.Values{}
	if c.clientID != "" {
		values.Set("client_id", c.clientID)
	}
	values.Set("feed_format", "json")
	values.Set("lang", "en")
	values.Set("from_date", query.From.Format(requestDateFmt))
	values.Set("to_date", query.To.Format(requestDateFmt))
	values.Set("is_deleted", "false")
	values.Set("pagination", "true")
	values.Set("page_number", strconv.Itoa(query.Page))
	values.Set("page_size", strconv.Itoa(query.PageSize))
	values.Set("is_upcoming", "false")
	values.Set("is_live", "false")
	values.Set("is_recent", "true")
	if compType > 0 {
		values.Set("comp_type_id", strconv.FormatInt(compType, 10))
	}
	fullURL := c.baseURL + "/schedule?" + values.Encode()

	raw, err := c.fetch(ctx, fullURL)
	if err != nil {
		return usecase.SchedulePage{}, fmt.Errorf("fetch schedule %s page %d: %w", query.Category, query.Page, err)
	}

	var envelope scheduleEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return usecase.SchedulePage{}, fmt.Errorf("decode schedule payload: %w", err)
	}

	page := usecase.SchedulePage{
		Page:       query.Page,
		TotalPages: envelope.Data.TotalPages,
		Raw:        raw,
		Entries:    mapEntries(envelope.Data.Matches, query.Category, compType),
	}
	if page.TotalPages <= 0 {
		page.TotalPages = query.Page
		if len(envelope.Data.Matches) >= query.PageSize {
			page.TotalPages = query.Page + 1
		}
	}
	return page, nil
}

func mapEntries(items []scheduleMatch, category match.Category, compType int64) []usecase.ScheduledMatch {
	out := make([]usecase.ScheduledMatch, 0, len(items))
	want := ""
	if compType > 0 {
		want = strconv.FormatInt(compType, 10)
	}
	for _, item := range items {
		if want != "" && item.CompTypeID != "" && string(item.CompTypeID) != want {
			continue
		}
		date, ok := parseLocalDate(item.MatchDateLocal)
		if !ok || item.MatchID == "" {
			continue
		}
		venue, city, _ := strings.Cut(item.Venue, ",")
		if strings.TrimSpace(city) == "" {
			city = item.City
		}
		out = append(out, usecase.ScheduledMatch{
			ExternalID: string(item.MatchID),
			Category:   category,
			Date:       date,
			Team1:      strings.TrimSpace(item.TeamA),
			Team2:      strings.TrimSpace(item.TeamB),
			Venue:      joinVenue(venue, city),
			Status:     strings.TrimSpace(item.MatchStatus),
		})
	}
	return out
}

func joinVenue(name, city string) string {
	name = strings.TrimSpace(name)
	city = strings.TrimSpace(city)
	if city == "" {
		return name
	}
	return name + ", " + city
}

func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.backoffInitial
	policy.MaxInterval = c.backoffMax
	policy.MaxElapsedTime = 0
	policy.Reset()

	attempt := 0
	operation := func() ([]byte, error) {
		attempt++
		return c.do(ctx, fullURL)
	}
	notify := func(err error, wait time.Duration) {
		c.logger.WarnContext(ctx, "schedule request failed, retrying",
			"attempt", attempt,
			"wait", wait,
			"url", fullURL,
			"error", err,
		)
	}

	raw, err := backoff.RetryNotifyWithData(operation, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.maxRetries)), ctx), notify)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return raw, nil
}

// do issues one request. Errors that must not be retried are wrapped in
// backoff.Permanent.
func (c *Client) do(ctx context.Context, fullURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, backoff.Permanent(ctxErr)
		}
		// The next token lies beyond the context deadline.
		return nil, backoff.Permanent(fmt.Errorf("%w: %v", context.DeadlineExceeded, err))
	}
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "schedule circuit breaker rejected request", "state", c.breaker.State())
		return nil, backoff.Permanent(fmt.Errorf("%w: schedule source is temporarily unavailable", usecase.ErrDependencyUnavailable))
	}
	c.requests.Add(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("user-agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		c.breaker.RecordFailure()
		return nil, crerr.Mark(fmt.Errorf("send request: %w", err), ErrTransient)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_, readErr := buf.ReadFrom(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if readErr != nil {
		c.breaker.RecordFailure()
		return nil, crerr.Mark(fmt.Errorf("read response body: %w", readErr), ErrTransient)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.breaker.RecordSuccess()
		return append([]byte(nil), buf.B...), nil
	case isRetryableStatus(resp.StatusCode):
		c.breaker.RecordFailure()
		return nil, crerr.Mark(fmt.Errorf("schedule status=%d body=%s", resp.StatusCode, abbreviateBody(buf.B)), ErrTransient)
	default:
		c.breaker.RecordSuccess()
		return nil, backoff.Permanent(fmt.Errorf("schedule status=%d body=%s", resp.StatusCode, abbreviateBody(buf.B)))
	}
}

// IsTransient reports whether err was caused by a retryable failure.
func IsTransient(err error) bool {
	return err != nil && crerr.Is(err, ErrTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

var _ usecase.ScheduleSource = (*Client)(nil)
