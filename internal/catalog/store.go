// Package catalog mirrors the remotely sourced product list and company
// configuration in memory.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/joao-fontenele/botica-storefront/internal/domain"
)

var ErrConfigNotFound = errors.New("company config not found")

// Source is the remote catalog cache.
type Source interface {
	FetchCompanyConfig(ctx context.Context) (domain.CompanyConfig, error)
	FetchProducts(ctx context.Context) ([]domain.Product, error)
}

// Snapshot is an immutable view of the catalog. Callers must not modify the
// slices it holds.
type Snapshot struct {
	Config   domain.CompanyConfig
	Products []domain.Product
	// Fallback is true when the products came from the bundled sample set.
	Fallback bool
}

// Store holds the current Snapshot. Load replaces it wholesale.
type Store struct {
	source   Source
	defaults domain.CompanyConfig
	logger   *slog.Logger

	mu   sync.RWMutex
	snap Snapshot
}

func NewStore(source Source, defaults domain.CompanyConfig, logger *slog.Logger) *Store {
	return &Store{
		source:   source,
		defaults: defaults,
		logger:   logger,
		snap: Snapshot{
			Config:   defaults,
			Products: SampleProducts(),
			Fallback: true,
		},
	}
}

// Load refreshes the catalog from the source. Fetch failures are not
// returned: the store degrades to default config and sample products and
// logs a warning.
func (s *Store) Load(ctx context.Context) Snapshot {
	snap := Snapshot{Config: s.loadConfig(ctx)}

	products, err := s.fetchProducts(ctx)
	switch {
	case err != nil:
		s.logger.Warn("catalog fetch failed, using sample products", "error", err)
		snap.Products = SampleProducts()
		snap.Fallback = true
	case len(products) == 0:
		s.logger.Warn("catalog is empty, using sample products")
		snap.Products = SampleProducts()
		snap.Fallback = true
	default:
		snap.Products = Enrich(products)
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	s.logger.Info("catalog loaded", "products", len(snap.Products), "fallback", snap.Fallback)
	return snap
}

func (s *Store) loadConfig(ctx context.Context) domain.CompanyConfig {
	if s.source == nil {
		return s.defaults
	}
	cfg, err := s.source.FetchCompanyConfig(ctx)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			s.logger.Info("company config not found, using defaults")
		} else {
			s.logger.Warn("company config fetch failed, using defaults", "error", err)
		}
		return s.defaults
	}
	return MergeConfig(cfg, s.defaults)
}

// fetchProducts turns a panic in a source implementation into an error so a
// broken cache can never take the storefront down with it.
func (s *Store) fetchProducts(ctx context.Context) (products []domain.Product, err error) {
	if s.source == nil {
		return nil, errors.New("no catalog source configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("catalog source panicked: %v", r)
		}
	}()
	return s.source.FetchProducts(ctx)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Store) Config() domain.CompanyConfig {
	return s.Snapshot().Config
}

func (s *Store) Products() []domain.Product {
	return s.Snapshot().Products
}

func (s *Store) Product(id int64) (domain.Product, bool) {
	for _, p := range s.Products() {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// MergeConfig fills blank fields of cfg from defaults.
func MergeConfig(cfg, defaults domain.CompanyConfig) domain.CompanyConfig {
	if cfg.CompanyName == "" {
		cfg.CompanyName = defaults.CompanyName
	}
	if cfg.LogoURL == "" {
		cfg.LogoURL = defaults.LogoURL
	}
	if cfg.WhatsAppNumber == "" {
		cfg.WhatsAppNumber = defaults.WhatsAppNumber
	}
	if cfg.Banners == nil {
		cfg.Banners = []domain.Banner{}
	}
	return cfg
}
