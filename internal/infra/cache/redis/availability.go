// Package redis caches channel manager responses.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"staybook/internal/domain/availability"
)

const (
	defaultPrefix = "staybook:availability:"
	defaultTTL    = 2 * time.Minute
)

type cachedRecord struct {
	Date      string `json:"date"`
	Available bool   `json:"available"`
}

// CachedSource decorates an availability.Source with a Redis read-through cache keyed
// by window. Cache failures fall through to Next; only successful answers are stored.
type CachedSource struct {
	Next   availability.Source
	Client *goredis.Client
	TTL    time.Duration
	Prefix string
	Logger *slog.Logger
}

func NewCachedSource(next availability.Source, client *goredis.Client, ttl time.Duration, logger *slog.Logger) *CachedSource {
	return &CachedSource{Next: next, Client: client, TTL: ttl, Logger: logger}
}

func (s *CachedSource) Availability(ctx context.Context, start, end time.Time) ([]availability.Record, error) {
	if s.Next == nil {
		return nil, availability.ErrSourceUnavailable
	}
	if s.Client == nil {
		return s.Next.Availability(ctx, start, end)
	}
	key := s.key(start, end)
	if records, ok := s.get(ctx, key); ok {
		return records, nil
	}
	records, err := s.Next.Availability(ctx, start, end)
	if err != nil {
		return nil, err
	}
	s.set(ctx, key, records)
	return records, nil
}

func (s *CachedSource) get(ctx context.Context, key string) ([]availability.Record, bool) {
	data, err := s.Client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false
	}
	if err != nil {
		s.warn(ctx, "availability cache read failed", key, err)
		return nil, false
	}
	var cached []cachedRecord
	if err := json.Unmarshal(data, &cached); err != nil {
		s.warn(ctx, "availability cache entry corrupt", key, err)
		return nil, false
	}
	records := make([]availability.Record, 0, len(cached))
	for _, c := range cached {
		var date time.Time
		if c.Date != "" {
			parsed, err := time.Parse(time.DateOnly, c.Date)
			if err != nil {
				s.warn(ctx, "availability cache entry corrupt", key, err)
				return nil, false
			}
			date = parsed
		}
		records = append(records, availability.Record{Date: date, Available: c.Available})
	}
	return records, true
}

func (s *CachedSource) set(ctx context.Context, key string, records []availability.Record) {
	cached := make([]cachedRecord, 0, len(records))
	for _, r := range records {
		c := cachedRecord{Available: r.Available}
		if !r.Date.IsZero() {
			c.Date = r.Date.Format(time.DateOnly)
		}
		cached = append(cached, c)
	}
	data, err := json.Marshal(cached)
	if err != nil {
		s.warn(ctx, "availability cache encode failed", key, err)
		return
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if err := s.Client.Set(ctx, key, data, ttl).Err(); err != nil {
		s.warn(ctx, "availability cache write failed", key, err)
	}
}

func (s *CachedSource) key(start, end time.Time) string {
	return s.prefix() + start.Format(time.DateOnly) + ":" + end.Format(time.DateOnly)
}

func (s *CachedSource) prefix() string {
	if s.Prefix == "" {
		return defaultPrefix
	}
	return s.Prefix
}

func (s *CachedSource) warn(ctx context.Context, msg, key string, err error) {
	if s.Logger != nil {
		s.Logger.WarnContext(ctx, msg, "key", key, "error", err)
	}
}

// NewClient opens a Redis client and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

var _ availability.Source = (*CachedSource)(nil)
