// Package channelmanager reads unit occupancy from the external channel manager over HTTP.
package channelmanager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"staybook/internal/domain/availability"
	"staybook/internal/domain/shared/daterange"
)

const defaultTimeout = 5 * time.Second

var ErrBaseURLRequired = errors.New("channelmanager: base url required")

// Config defines HTTP client settings.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// Location is the unit's zone; RFC 3339 timestamps are read as dates there.
	Location *time.Location
}

// Client implements availability.Source against GET {base}/availability.
type Client struct {
	base   *url.URL
	token  string
	http   *http.Client
	loc    *time.Location
	logger *slog.Logger
}

func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrBaseURLRequired
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("channelmanager: parse base url: %w", err)
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{base: base, token: cfg.Token, http: httpClient, loc: cfg.Location, logger: logger}, nil
}

type recordPayload struct {
	Date      string `json:"date"`
	Available bool   `json:"available"`
}

func (c *Client) Availability(ctx context.Context, start, end time.Time) ([]availability.Record, error) {
	endpoint := *c.base
	endpoint.Path += "/availability"
	q := endpoint.Query()
	q.Set("start", start.Format(time.DateOnly))
	q.Set("end", end.Format(time.DateOnly))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			err = fmt.Errorf("channelmanager: timeout (%s): %w", c.base.Host, context.DeadlineExceeded)
		} else {
			err = fmt.Errorf("channelmanager: unavailable (%s): %w", c.base.Host, err)
		}
		c.logError(ctx, "availability request failed", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("channelmanager: returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		c.logError(ctx, "availability returned error", err)
		return nil, err
	}

	var payload []recordPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		err = fmt.Errorf("channelmanager: decode availability: %w", err)
		c.logError(ctx, "availability decode failed", err)
		return nil, err
	}

	records := make([]availability.Record, 0, len(payload))
	for _, p := range payload {
		date, err := ParseDate(p.Date, c.loc)
		if err != nil {
			c.logError(ctx, "availability date malformed", err)
			return nil, err
		}
		records = append(records, availability.Record{Date: date, Available: p.Available})
	}
	return records, nil
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp. Timestamps take the calendar
// date they fall on in loc, or in their own offset when loc is nil. An empty value
// yields the zero time.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := daterange.Parse(value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("channelmanager: invalid date %q", value)
	}
	return daterange.DayIn(t, loc), nil
}

func (c *Client) logError(ctx context.Context, msg string, err error) {
	if c.logger != nil {
		c.logger.ErrorContext(ctx, msg, "error", err)
	}
}

var _ availability.Source = (*Client)(nil)
