package ticket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/railbot/train-linebot-go/internal/errors"
	"github.com/railbot/train-linebot-go/internal/logger"
	"github.com/railbot/train-linebot-go/internal/metrics"
)

// Client performs ticket lookups against the upstream API.
// Identical concurrent queries are collapsed into one HTTP request
// via singleflight.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *logger.Logger
	metrics    *metrics.Metrics
	group      singleflight.Group
}

// NewClient creates a ticket API client. The timeout bounds the whole
// request including body read; the upstream contract is a single GET
// with no retry.
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger, m *metrics.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL: baseURL,
		log:     log.WithModule("ticket"),
		metrics: m,
	}
}

// QueryTickets fetches candidate trains for q. It returns the rows in
// upstream order, ErrNoResults when the query matched nothing, or an
// UpstreamError for transport and API failures.
func (c *Client) QueryTickets(ctx context.Context, q Query) ([]Train, error) {
	result, err, shared := c.group.Do(q.Key(), func() (any, error) {
		return c.fetch(ctx, q)
	})
	if shared && c.metrics != nil {
		c.metrics.RecordSingleflightDedup()
	}
	if err != nil {
		return nil, err
	}

	trains, ok := result.([]Train)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T", result)
	}
	return trains, nil
}

func (c *Client) fetch(ctx context.Context, q Query) ([]Train, error) {
	start := time.Now()
	trains, err := c.doFetch(ctx, q)
	duration := time.Since(start).Seconds()

	if c.metrics != nil {
		status := "success"
		switch {
		case errors.Is(err, apperrors.ErrNoResults):
			status = "no_results"
		case err != nil:
			status = "error"
		}
		c.metrics.RecordTicketRequest(status, duration)
	}

	return trains, err
}

func (c *Client) doFetch(ctx context.Context, q Query) ([]Train, error) {
	params := url.Values{}
	params.Set("departure", q.Departure)
	params.Set("arrival", q.Arrival)
	params.Set("date", q.Date)
	params.Set("form", q.TrainType)
	params.Set("type", "json")

	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", apperrors.ErrTimeout, err)
		}
		return nil, apperrors.NewUpstreamError(c.baseURL, 0, "", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewUpstreamError(c.baseURL, resp.StatusCode, "", apperrors.ErrUpstreamStatus)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperrors.NewUpstreamError(c.baseURL, resp.StatusCode, "", fmt.Errorf("failed to decode response: %w", err))
	}

	if body.Code.String() != "200" {
		c.log.Warnf("ticket API returned failure code %q: %s", body.Code, body.Text)
		return nil, apperrors.NewUpstreamError(c.baseURL, resp.StatusCode, body.Code.String(), apperrors.ErrUpstreamStatus)
	}

	if len(body.Data) == 0 {
		return nil, apperrors.ErrNoResults
	}

	return body.Data, nil
}
