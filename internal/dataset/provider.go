package dataset

import (
	"sync"

	"go.uber.org/zap"
)

// Provider lazily loads a dataset and keeps it until invalidated.
type Provider struct {
	dir    string
	logger *zap.Logger

	mu sync.Mutex
	ds *Dataset
}

// NewProvider creates a provider for the tables under dir.
func NewProvider(dir string, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{dir: dir, logger: logger}
}

// Dir is the data directory served by the provider.
func (p *Provider) Dir() string { return p.dir }

// Get returns the cached dataset, loading it on first use.
func (p *Provider) Get() (*Dataset, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ds != nil {
		return p.ds, nil
	}
	ds, err := Load(p.dir)
	if err != nil {
		p.logger.Warn("dataset load failed", zap.String("dir", p.dir), zap.Error(err))
		return nil, err
	}
	p.logger.Info("dataset loaded", zap.String("dir", p.dir), zap.Int("ufs", len(ds.UFs())))
	p.ds = ds
	return ds, nil
}

// Invalidate drops the cached dataset so the next Get reloads it.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.ds = nil
	p.mu.Unlock()
	p.logger.Debug("dataset cache invalidated", zap.String("dir", p.dir))
}
