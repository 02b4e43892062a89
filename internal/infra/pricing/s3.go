package pricing

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"sync"
	"time"

	domainpricing "staybook/internal/domain/pricing"
)

const sourceS3 = "s3"

var ErrNotLoaded = errors.New("pricing: configuration not loaded yet")

// ObjectFetcher reads a whole object from the bucket.
type ObjectFetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// ObjectProvider serves a pricing document stored as an S3 object and refreshes it on
// an interval. Fetch failures keep the last good document.
type ObjectProvider struct {
	Objects  ObjectFetcher
	Key      string
	Interval time.Duration
	Logger   *slog.Logger
	Observer ReloadObserver

	mu     sync.RWMutex
	cfg    domainpricing.Configuration
	loaded bool
}

// Load fetches and activates the object once.
func (p *ObjectProvider) Load(ctx context.Context) error {
	cfg, err := p.fetch(ctx)
	if p.Observer != nil {
		p.Observer.ObservePricingReload(sourceS3, err)
	}
	if err != nil {
		if p.Logger != nil {
			p.Logger.ErrorContext(ctx, "pricing object rejected", "key", p.Key, "error", err)
		}
		return err
	}
	p.mu.Lock()
	p.cfg, p.loaded = cfg, true
	p.mu.Unlock()
	return nil
}

func (p *ObjectProvider) fetch(ctx context.Context) (domainpricing.Configuration, error) {
	if p.Objects == nil {
		return domainpricing.Configuration{}, errors.New("pricing: object fetcher missing")
	}
	data, err := p.Objects.Fetch(ctx, p.Key)
	if err != nil {
		return domainpricing.Configuration{}, err
	}
	format := path.Ext(p.Key)
	if format == "" {
		format = "yaml"
	}
	doc, err := ParseDocument(data, format)
	if err != nil {
		return domainpricing.Configuration{}, err
	}
	return doc.Configuration()
}

// Run refreshes the document until ctx is cancelled.
func (p *ObjectProvider) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = p.Load(ctx)
		}
	}
}

func (p *ObjectProvider) Current(ctx context.Context) (domainpricing.Configuration, error) {
	p.mu.RLock()
	cfg, loaded := p.cfg, p.loaded
	p.mu.RUnlock()
	if !loaded {
		if err := p.Load(ctx); err != nil {
			return domainpricing.Configuration{}, errors.Join(ErrNotLoaded, err)
		}
		return p.Current(ctx)
	}
	cfg.SeasonalRules = append([]domainpricing.SeasonalRule(nil), cfg.SeasonalRules...)
	return cfg, nil
}

var _ domainpricing.ConfigProvider = (*ObjectProvider)(nil)
