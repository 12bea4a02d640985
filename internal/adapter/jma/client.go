// Package jma fetches and extracts daily weather observations from the
// Japan Meteorological Agency historical listing pages.
package jma

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-traffic-etl/internal/observability"
)

// DefaultBaseURL is the JMA daily listing endpoint.
const DefaultBaseURL = "https://www.data.jma.go.jp/obd/stats/etrn/view/daily_s1.php"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// ErrUnknownStation marks a location name missing from the station
// directory. It is a caller error, not upstream noise, and is returned
// before any network activity.
var ErrUnknownStation = errors.New("unknown station name")

// FetchErrorKind classifies upstream fetch failures.
type FetchErrorKind string

const (
	KindTimeout    FetchErrorKind = "timeout"
	KindTransport  FetchErrorKind = "transport"
	KindHTTPStatus FetchErrorKind = "http_status"
)

// FetchError wraps a classified failure fetching one month's page.
type FetchError struct {
	Kind     FetchErrorKind
	Location string
	Year     int
	Month    time.Month
	Status   int // set for KindHTTPStatus
	Err      error
}

func (e *FetchError) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("fetch %s %d-%02d: http status %d", e.Location, e.Year, e.Month, e.Status)
	}
	return fmt.Sprintf("fetch %s %d-%02d: %s: %v", e.Location, e.Year, e.Month, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client fetches month listing pages, pacing requests so sequential
// scraping cannot hammer the upstream service. The delay is a blocking
// sleep taken after every request that produced a response, success or not.
type Client struct {
	baseURL    string
	httpClient *http.Client
	stations   *StationDirectory
	delay      time.Duration
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a JMA page fetcher. delay is the minimum pause after
// each answered request; timeout bounds a single request.
func NewClient(baseURL string, stations *StationDirectory, delay, timeout time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		stations:   stations,
		delay:      delay,
		clock:      clock,
		metrics:    metrics,
		logger:     logger,
	}
}

// FetchMonth retrieves the raw listing page for one (location, year, month).
// The body is returned as UTF-8 bytes. Failures come back as *FetchError
// (or ErrUnknownStation); callers treat them as an empty month.
func (c *Client) FetchMonth(ctx context.Context, location string, year int, month time.Month) ([]byte, error) {
	station, ok := c.stations.Lookup(location)
	if !ok {
		return nil, fmt.Errorf("%q: %w", location, ErrUnknownStation)
	}

	params := url.Values{
		"prec_no":  {strconv.Itoa(station.PrecNo)},
		"block_no": {strconv.Itoa(station.BlockNo)},
		"year":     {strconv.Itoa(year)},
		"month":    {strconv.Itoa(int(month))},
		"day":      {""},
		"view":     {""},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	c.logger.Info("fetching month page", "location", location, "year", year, "month", int(month))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, c.classify(location, year, month, err)
	}
	defer resp.Body.Close()

	// Pay the pacing delay for every answered request, HTTP errors included.
	defer c.clock.Sleep(c.delay)

	if resp.StatusCode != http.StatusOK {
		c.metrics.PagesFetched.WithLabelValues(string(KindHTTPStatus)).Inc()
		return nil, &FetchError{Kind: KindHTTPStatus, Location: location, Year: year, Month: month, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.PagesFetched.WithLabelValues(string(KindTransport)).Inc()
		return nil, &FetchError{Kind: KindTransport, Location: location, Year: year, Month: month, Err: err}
	}

	c.metrics.PagesFetched.WithLabelValues("ok").Inc()
	return body, nil
}

// classify splits transport-level failures into timeout vs. other.
func (c *Client) classify(location string, year int, month time.Month, err error) *FetchError {
	kind := KindTransport
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		kind = KindTimeout
	} else if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}

	c.metrics.PagesFetched.WithLabelValues(string(kind)).Inc()
	return &FetchError{Kind: kind, Location: location, Year: year, Month: month, Err: err}
}
