package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/botica-storefront/internal/domain"
)

type fakeSource struct {
	config      domain.CompanyConfig
	configErr   error
	products    []domain.Product
	productsErr error
	panicMsg    string
}

func (f *fakeSource) FetchCompanyConfig(context.Context) (domain.CompanyConfig, error) {
	return f.config, f.configErr
}

func (f *fakeSource) FetchProducts(context.Context) ([]domain.Product, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.products, f.productsErr
}

var defaults = domain.CompanyConfig{
	CompanyName:    "GIOFARMA",
	LogoURL:        "https://example.com/logo.png",
	WhatsAppNumber: "+51 999 888 777",
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStore_Load(t *testing.T) {
	t.Run("loads and enriches remote products", func(t *testing.T) {
		src := &fakeSource{
			config: domain.CompanyConfig{CompanyName: "Botica Central"},
			products: []domain.Product{
				{ID: 10, Name: "Crema Tubo 30g", Price: 1200},
				{ID: 11, Name: "Jarabe", Price: 900, Category: "Medicamentos", SKU: "JAR-1"},
			},
		}
		store := NewStore(src, defaults, discardLogger())

		snap := store.Load(context.Background())

		assert.False(t, snap.Fallback)
		require.Len(t, snap.Products, 2)
		assert.Equal(t, "TUBO", snap.Products[0].Presentation)
		assert.Equal(t, DefaultCategory, snap.Products[0].Category)
		assert.Equal(t, DefaultSKU, snap.Products[0].SKU)
		assert.Equal(t, "Botica Central", snap.Config.CompanyName)
		assert.Equal(t, defaults.WhatsAppNumber, snap.Config.WhatsAppNumber)
		assert.NotNil(t, snap.Config.Banners)
	})

	t.Run("fetch error falls back to sample products", func(t *testing.T) {
		src := &fakeSource{productsErr: errors.New("connection refused")}
		store := NewStore(src, defaults, discardLogger())

		snap := store.Load(context.Background())

		assert.True(t, snap.Fallback)
		assert.Equal(t, SampleProducts(), snap.Products)
	})

	t.Run("panicking source falls back to sample products", func(t *testing.T) {
		src := &fakeSource{panicMsg: "boom"}
		store := NewStore(src, defaults, discardLogger())

		var snap Snapshot
		require.NotPanics(t, func() { snap = store.Load(context.Background()) })
		assert.True(t, snap.Fallback)
		assert.Len(t, snap.Products, len(sampleProducts))
	})

	t.Run("empty catalog falls back to sample products", func(t *testing.T) {
		store := NewStore(&fakeSource{}, defaults, discardLogger())
		assert.True(t, store.Load(context.Background()).Fallback)
	})

	t.Run("missing config uses defaults", func(t *testing.T) {
		src := &fakeSource{configErr: ErrConfigNotFound, products: []domain.Product{{ID: 1, Name: "A"}}}
		store := NewStore(src, defaults, discardLogger())

		assert.Equal(t, defaults, store.Load(context.Background()).Config)
	})

	t.Run("nil source degrades silently", func(t *testing.T) {
		store := NewStore(nil, defaults, discardLogger())
		snap := store.Load(context.Background())
		assert.True(t, snap.Fallback)
		assert.Equal(t, defaults, snap.Config)
	})
}

func TestStore_ReloadReplacesWholesale(t *testing.T) {
	src := &fakeSource{products: []domain.Product{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}}
	store := NewStore(src, defaults, discardLogger())
	store.Load(context.Background())

	src.products = []domain.Product{{ID: 3, Name: "C"}}
	store.Load(context.Background())

	_, ok := store.Product(1)
	assert.False(t, ok)
	p, ok := store.Product(3)
	require.True(t, ok)
	assert.Equal(t, "C", p.Name)
}

func TestStore_ServesSamplesBeforeFirstLoad(t *testing.T) {
	store := NewStore(&fakeSource{}, defaults, discardLogger())
	assert.Len(t, store.Products(), len(sampleProducts))
	assert.Equal(t, defaults, store.Config())
}
