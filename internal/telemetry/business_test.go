package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestStoreMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewStoreMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.OrderPlaced(ctx, 3990, 2)
	m.OrderPlaced(ctx, 1010, 1)
	m.CheckoutFailed(ctx, "persistence")
	m.SessionsChanged(ctx, 3)
	m.SessionsChanged(ctx, -1)

	got := collect(t, reader)

	orders, ok := got["storefront.orders.placed"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, orders.DataPoints, 1)
	assert.Equal(t, int64(2), orders.DataPoints[0].Value)

	revenue, ok := got["storefront.revenue"].(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(5000), revenue.DataPoints[0].Value)

	failures, ok := got["storefront.checkout.failures"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, failures.DataPoints, 1)
	reason, _ := failures.DataPoints[0].Attributes.Value("reason")
	assert.Equal(t, "persistence", reason.AsString())

	lines, ok := got["storefront.cart.lines"].(metricdata.Histogram[int64])
	require.True(t, ok)
	assert.Equal(t, uint64(2), lines.DataPoints[0].Count)

	sessions, ok := got["storefront.sessions.active"].(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(2), sessions.DataPoints[0].Value)
}
