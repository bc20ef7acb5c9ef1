package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/joao-fontenele/botica-storefront/internal/domain"
)

// StoreMetrics holds the storefront's business instruments.
type StoreMetrics struct {
	ordersPlaced     metric.Int64Counter
	checkoutFailures metric.Int64Counter
	revenue          metric.Int64Counter
	cartLines        metric.Int64Histogram
	activeSessions   metric.Int64UpDownCounter
}

func NewStoreMetrics(meter metric.Meter) (*StoreMetrics, error) {
	ordersPlaced, err := meter.Int64Counter(
		"storefront.orders.placed",
		metric.WithDescription("Orders persisted with all their lines"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders counter: %w", err)
	}

	checkoutFailures, err := meter.Int64Counter(
		"storefront.checkout.failures",
		metric.WithDescription("Checkout submissions that did not complete"),
		metric.WithUnit("{submission}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create checkout failures counter: %w", err)
	}

	revenue, err := meter.Int64Counter(
		"storefront.revenue",
		metric.WithDescription("Order totals in céntimos"),
		metric.WithUnit("{cent}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create revenue counter: %w", err)
	}

	cartLines, err := meter.Int64Histogram(
		"storefront.cart.lines",
		metric.WithDescription("Distinct lines per placed order"),
		metric.WithUnit("{line}"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 5, 8, 13, 21),
	)
	if err != nil {
		return nil, fmt.Errorf("create cart lines histogram: %w", err)
	}

	activeSessions, err := meter.Int64UpDownCounter(
		"storefront.sessions.active",
		metric.WithDescription("Shopper sessions currently held in memory"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create sessions counter: %w", err)
	}

	return &StoreMetrics{
		ordersPlaced:     ordersPlaced,
		checkoutFailures: checkoutFailures,
		revenue:          revenue,
		cartLines:        cartLines,
		activeSessions:   activeSessions,
	}, nil
}

func (m *StoreMetrics) OrderPlaced(ctx context.Context, total domain.Money, lines int) {
	m.ordersPlaced.Add(ctx, 1)
	m.revenue.Add(ctx, int64(total))
	m.cartLines.Record(ctx, int64(lines))
}

func (m *StoreMetrics) CheckoutFailed(ctx context.Context, reason string) {
	m.checkoutFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *StoreMetrics) SessionsChanged(ctx context.Context, delta int) {
	m.activeSessions.Add(ctx, int64(delta))
}
