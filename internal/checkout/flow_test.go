package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/botica-storefront/internal/cart"
	"github.com/joao-fontenele/botica-storefront/internal/domain"
)

type fakeWriter struct {
	id         string
	orderErr   error
	linesErr   error
	orders     []domain.Order
	lines      []domain.OrderLine
	orderCalls int
	linesCalls int
}

func (w *fakeWriter) InsertOrder(_ context.Context, order *domain.Order) (string, error) {
	w.orderCalls++
	if w.orderErr != nil {
		return "", w.orderErr
	}
	w.orders = append(w.orders, *order)
	return w.id, nil
}

func (w *fakeWriter) InsertOrderLines(_ context.Context, lines []domain.OrderLine) error {
	w.linesCalls++
	if w.linesErr != nil {
		return w.linesErr
	}
	w.lines = append(w.lines, lines...)
	return nil
}

type fakeDispatcher struct {
	events chan domain.OrderPlacedEvent
	err    error
}

func newFakeDispatcher(err error) *fakeDispatcher {
	return &fakeDispatcher{events: make(chan domain.OrderPlacedEvent, 1), err: err}
}

func (d *fakeDispatcher) Dispatch(_ context.Context, event domain.OrderPlacedEvent) error {
	d.events <- event
	return d.err
}

func (d *fakeDispatcher) wait(t *testing.T) domain.OrderPlacedEvent {
	t.Helper()
	select {
	case ev := <-d.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher was not called")
		return domain.OrderPlacedEvent{}
	}
}

type fakeRecorder struct {
	mu       sync.Mutex
	placed   []domain.Money
	failures []string
}

func (r *fakeRecorder) OrderPlaced(_ context.Context, total domain.Money, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.placed = append(r.placed, total)
}

func (r *fakeRecorder) CheckoutFailed(_ context.Context, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, reason)
}

var (
	paracetamol = domain.Product{ID: 1, Name: "Paracetamol 500mg", Price: domain.MustMoney("15.50"), Presentation: "CAJA"}
	ibuprofeno  = domain.Product{ID: 2, Name: "Ibuprofeno 400mg", Price: domain.MustMoney("8.90")}

	validForm = Form{Name: "Juan Pérez", Phone: "999 000 111", Address: "Av. Larco 123, Miraflores"}
	company   = domain.CompanyConfig{CompanyName: "GIOFARMA", WhatsAppNumber: "+51 987 654 321"}
	messaging = Messaging{BaseURL: "https://wa.me", DefaultNumber: "51900000000", DefaultCompany: "Botica"}
)

func scenarioCart() *cart.Engine {
	e := cart.NewEngine()
	k := e.Add(paracetamol, "")
	e.UpdateQuantity(k, 1)
	e.Add(ibuprofeno, "")
	return e
}

func newTestFlow(w OrderWriter, d Dispatcher, r Recorder) *Flow {
	return NewFlow(w, d, r, messaging, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFlow_Submit_Success(t *testing.T) {
	writer := &fakeWriter{id: "a3f9c1-xyz"}
	dispatcher := newFakeDispatcher(nil)
	recorder := &fakeRecorder{}
	flow := newTestFlow(writer, dispatcher, recorder)
	c := scenarioCart()

	receipt, err := flow.Submit(context.Background(), c, company, validForm)
	require.NoError(t, err)
	assert.Equal(t, StateComplete, StateOf(err))

	assert.Equal(t, "a3f9c1-xyz", receipt.OrderID)
	assert.Equal(t, "A3F9C1", receipt.Reference)
	assert.Equal(t, "39.90", receipt.Total.String())
	assert.True(t, strings.HasPrefix(receipt.Link, "https://wa.me/51987654321?text="))

	require.Len(t, writer.orders, 1)
	order := writer.orders[0]
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.MustMoney("39.90"), order.Total)
	assert.Equal(t, "Juan Pérez", order.CustomerName)
	assert.Empty(t, order.CustomerEmail)

	require.Len(t, writer.lines, 2)
	assert.Equal(t, domain.OrderLine{OrderID: "a3f9c1-xyz", ProductName: "Paracetamol 500mg", Quantity: 2, UnitPrice: 1550, Presentation: "CAJA"}, writer.lines[0])
	assert.Equal(t, domain.OrderLine{OrderID: "a3f9c1-xyz", ProductName: "Ibuprofeno 400mg", Quantity: 1, UnitPrice: 890, Presentation: domain.DefaultPresentation}, writer.lines[1])

	assert.Zero(t, c.Len(), "cart is cleared on success")

	event := dispatcher.wait(t)
	assert.Equal(t, receipt.Link, event.Link)
	assert.Equal(t, "A3F9C1", event.Reference)
	assert.Equal(t, "51987654321", event.Phone)

	assert.Equal(t, []domain.Money{3990}, recorder.placed)
}

func TestFlow_Submit_Validation(t *testing.T) {
	tests := []struct {
		name   string
		form   Form
		fields []string
	}{
		{"empty address", Form{Name: "Ana", Phone: "999"}, []string{"address"}},
		{"blank name", Form{Name: "   ", Phone: "999", Address: "Calle 1"}, []string{"name"}},
		{"all missing", Form{Email: "ana@example.com"}, []string{"name", "phone", "address"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := &fakeWriter{id: "x"}
			dispatcher := newFakeDispatcher(nil)
			flow := newTestFlow(writer, dispatcher, nil)
			c := scenarioCart()

			receipt, err := flow.Submit(context.Background(), c, company, tt.form)
			assert.Nil(t, receipt)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.fields, verr.Fields)
			assert.Equal(t, StateIdle, StateOf(err))

			assert.Zero(t, writer.orderCalls, "validation must short-circuit before any write")
			assert.Zero(t, writer.linesCalls)
			assert.Equal(t, 2, c.Len())
			assert.Empty(t, dispatcher.events)
		})
	}
}

func TestFlow_Submit_EmptyCart(t *testing.T) {
	writer := &fakeWriter{id: "x"}
	flow := newTestFlow(writer, nil, nil)

	_, err := flow.Submit(context.Background(), cart.NewEngine(), company, validForm)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, writer.orderCalls)
}

func TestFlow_Submit_TotalBeyondStorageIsRejectedBeforeWriting(t *testing.T) {
	writer := &fakeWriter{id: "x"}
	recorder := &fakeRecorder{}
	flow := newTestFlow(writer, nil, recorder)

	e := cart.NewEngine()
	key := e.Add(domain.Product{ID: 7, Name: "Equipo de Oxígeno", Price: domain.MustMoney("9999.00")}, "")
	e.UpdateQuantity(key, domain.MaxQuantity)

	_, err := flow.Submit(context.Background(), e, company, validForm)

	require.ErrorIs(t, err, ErrOrderTooLarge)
	assert.Equal(t, StateIdle, StateOf(err))
	assert.Zero(t, writer.orderCalls)
	assert.Equal(t, 1, e.Len(), "cart is kept")
	assert.Equal(t, []string{"too_large"}, recorder.failures)
}

func TestFlow_Submit_OrderWriteFails(t *testing.T) {
	writer := &fakeWriter{orderErr: errors.New("connection reset")}
	recorder := &fakeRecorder{}
	flow := newTestFlow(writer, newFakeDispatcher(nil), recorder)
	c := scenarioCart()

	_, err := flow.Submit(context.Background(), c, company, validForm)

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, ErrSubmissionFailed)
	assert.Equal(t, StateFailed, StateOf(err))
	assert.Zero(t, writer.linesCalls)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"persistence"}, recorder.failures)
}

func TestFlow_Submit_LinesWriteFailsKeepsCart(t *testing.T) {
	writer := &fakeWriter{id: "b71c-0001", linesErr: errors.New("timeout")}
	dispatcher := newFakeDispatcher(nil)
	flow := newTestFlow(writer, dispatcher, nil)
	c := scenarioCart()
	before := c.Lines()

	receipt, err := flow.Submit(context.Background(), c, company, validForm)
	assert.Nil(t, receipt)

	var pwerr *PartialWriteError
	require.ErrorAs(t, err, &pwerr)
	assert.Equal(t, "b71c-0001", pwerr.OrderID)
	assert.ErrorIs(t, err, ErrSubmissionFailed)
	assert.Equal(t, StateFailed, StateOf(err))

	assert.Equal(t, 1, writer.orderCalls, "order row is not rolled back")
	assert.Equal(t, before, c.Lines())
	assert.Empty(t, dispatcher.events)
}

func TestFlow_Submit_RetryAfterFailure(t *testing.T) {
	writer := &fakeWriter{id: "c0ffee-1", orderErr: errors.New("down")}
	flow := newTestFlow(writer, nil, nil)
	c := scenarioCart()

	_, err := flow.Submit(context.Background(), c, company, validForm)
	require.Error(t, err)

	writer.orderErr = nil
	receipt, err := flow.Submit(context.Background(), c, company, validForm)
	require.NoError(t, err)
	assert.Equal(t, "C0FFEE", receipt.Reference)
	assert.Equal(t, 2, writer.orderCalls)
}

func TestFlow_Submit_DispatchFailureDoesNotFailCheckout(t *testing.T) {
	writer := &fakeWriter{id: "d00d-1"}
	dispatcher := newFakeDispatcher(errors.New("broker down"))
	flow := newTestFlow(writer, dispatcher, nil)
	c := scenarioCart()

	_, err := flow.Submit(context.Background(), c, company, validForm)
	require.NoError(t, err)
	dispatcher.wait(t)
	assert.Zero(t, c.Len())
}

func TestFlow_Submit_FallsBackToDefaultNumber(t *testing.T) {
	writer := &fakeWriter{id: "e1-1"}
	flow := newTestFlow(writer, nil, nil)

	receipt, err := flow.Submit(context.Background(), scenarioCart(), domain.CompanyConfig{}, validForm)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(receipt.Link, "https://wa.me/51900000000?text="))

	u, err := url.Parse(receipt.Link)
	require.NoError(t, err)
	assert.Contains(t, u.Query().Get("text"), "*NUEVO PEDIDO - Botica*")
}

func TestFlow_Submit_DispatchOutlivesRequestContext(t *testing.T) {
	writer := &fakeWriter{id: "f1-1"}
	dispatcher := &ctxDispatcher{done: make(chan error, 1)}
	flow := newTestFlow(writer, dispatcher, nil)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := flow.Submit(ctx, scenarioCart(), company, validForm)
	cancel()
	require.NoError(t, err)

	select {
	case err := <-dispatcher.done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher was not called")
	}
}

type ctxDispatcher struct {
	done chan error
}

func (d *ctxDispatcher) Dispatch(ctx context.Context, _ domain.OrderPlacedEvent) error {
	time.Sleep(10 * time.Millisecond)
	d.done <- ctx.Err()
	return nil
}
