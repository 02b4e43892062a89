package pricing

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	domainpricing "staybook/internal/domain/pricing"
)

const sourceFile = "file"

// FileProvider serves the pricing document from a local file and reloads it when the
// file changes. An invalid edit is logged and the previous document stays active.
type FileProvider struct {
	Logger   *slog.Logger
	Observer ReloadObserver

	v    *viper.Viper
	path string

	mu  sync.RWMutex
	cfg domainpricing.Configuration
}

func NewFileProvider(path string, logger *slog.Logger, observer ReloadObserver) (*FileProvider, error) {
	v := viper.New()
	v.SetConfigFile(path)
	p := &FileProvider{Logger: logger, Observer: observer, v: v, path: path}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Watch starts watching the file for changes.
func (p *FileProvider) Watch() {
	p.v.OnConfigChange(func(ev fsnotify.Event) {
		if err := p.Reload(); err != nil {
			return
		}
		if p.Logger != nil {
			p.Logger.Info("pricing configuration reloaded", "path", p.path, "op", ev.Op.String())
		}
	})
	p.v.WatchConfig()
}

// Reload rereads the file and swaps the active document if it is valid.
func (p *FileProvider) Reload() error {
	cfg, err := p.load()
	if p.Observer != nil {
		p.Observer.ObservePricingReload(sourceFile, err)
	}
	if err != nil {
		if p.Logger != nil {
			p.Logger.Error("pricing configuration rejected", "path", p.path, "error", err)
		}
		return err
	}
	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()
	return nil
}

func (p *FileProvider) load() (domainpricing.Configuration, error) {
	if err := p.v.ReadInConfig(); err != nil {
		return domainpricing.Configuration{}, err
	}
	doc, err := decode(p.v)
	if err != nil {
		return domainpricing.Configuration{}, err
	}
	return doc.Configuration()
}

func (p *FileProvider) Current(context.Context) (domainpricing.Configuration, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cfg := p.cfg
	cfg.SeasonalRules = append([]domainpricing.SeasonalRule(nil), cfg.SeasonalRules...)
	return cfg, nil
}

var _ domainpricing.ConfigProvider = (*FileProvider)(nil)
