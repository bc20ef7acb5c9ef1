// Package checkout turns a session cart into a persisted order and hands the
// order summary off to the pharmacy's messaging channel.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/joao-fontenele/botica-storefront/internal/domain"
)

const dispatchTimeout = 10 * time.Second

// Form is the customer data collected at checkout.
type Form struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address" validate:"required"`
	Email   string `json:"email"`
}

func (f Form) trimmed() Form {
	return Form{
		Name:    strings.TrimSpace(f.Name),
		Phone:   strings.TrimSpace(f.Phone),
		Address: strings.TrimSpace(f.Address),
		Email:   strings.TrimSpace(f.Email),
	}
}

// Cart is the part of the cart engine checkout drains.
type Cart interface {
	Lines() []domain.CartLine
	Clear()
}

// OrderWriter persists orders. The two calls are made in sequence; the lines
// need the id returned by InsertOrder.
type OrderWriter interface {
	InsertOrder(ctx context.Context, order *domain.Order) (string, error)
	InsertOrderLines(ctx context.Context, lines []domain.OrderLine) error
}

// Dispatcher hands the deep link to whatever opens it. Its result is never
// awaited by the flow.
type Dispatcher interface {
	Dispatch(ctx context.Context, event domain.OrderPlacedEvent) error
}

// Recorder receives checkout outcomes for metrics.
type Recorder interface {
	OrderPlaced(ctx context.Context, total domain.Money, lines int)
	CheckoutFailed(ctx context.Context, reason string)
}

type Messaging struct {
	BaseURL        string
	DefaultNumber  string
	DefaultCompany string
}

type Receipt struct {
	OrderID   string       `json:"order_id"`
	Reference string       `json:"reference"`
	Total     domain.Money `json:"total"`
	Link      string       `json:"link"`
}

type Flow struct {
	orders     OrderWriter
	dispatcher Dispatcher
	recorder   Recorder
	messaging  Messaging
	validate   *validator.Validate
	logger     *slog.Logger
	now        func() time.Time
}

func NewFlow(orders OrderWriter, dispatcher Dispatcher, recorder Recorder, messaging Messaging, logger *slog.Logger) *Flow {
	if messaging.BaseURL == "" {
		messaging.BaseURL = DefaultMessagingBaseURL
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Flow{
		orders:     orders,
		dispatcher: dispatcher,
		recorder:   recorder,
		messaging:  messaging,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
		now:        time.Now,
	}
}

// Submit runs one checkout. On success the cart is cleared and the receipt
// returned. On any error the cart is left as it was so the shopper can retry.
func (f *Flow) Submit(ctx context.Context, cart Cart, cfg domain.CompanyConfig, form Form) (*Receipt, error) {
	sub := newSubmission(f.logger)
	sub.advance(StateValidating)

	form = form.trimmed()
	if err := f.validateForm(form); err != nil {
		sub.advance(StateIdle)
		f.recorder.CheckoutFailed(ctx, "validation")
		return nil, err
	}

	lines := cart.Lines()
	if len(lines) == 0 {
		sub.advance(StateIdle)
		f.recorder.CheckoutFailed(ctx, "empty_cart")
		return nil, ErrEmptyCart
	}

	var total domain.Money
	for _, l := range lines {
		total = total.Plus(l.Subtotal())
	}
	if total > domain.MaxStoredMoney {
		sub.advance(StateIdle)
		f.recorder.CheckoutFailed(ctx, "too_large")
		return nil, ErrOrderTooLarge
	}

	sub.advance(StatePersisting)

	order := &domain.Order{
		CustomerName:    form.Name,
		CustomerPhone:   form.Phone,
		CustomerAddress: form.Address,
		CustomerEmail:   form.Email,
		Total:           total,
		Status:          domain.OrderStatusPending,
		CreatedAt:       f.now().UTC(),
	}

	orderID, err := f.orders.InsertOrder(ctx, order)
	if err != nil {
		sub.advance(StateFailed)
		f.logger.Error("failed to create order", "error", err, "phone", form.Phone)
		f.recorder.CheckoutFailed(ctx, "persistence")
		return nil, &PersistenceError{Err: err}
	}
	order.ID = orderID

	orderLines := make([]domain.OrderLine, len(lines))
	for i, l := range lines {
		orderLines[i] = domain.OrderLine{
			OrderID:      orderID,
			ProductName:  l.Product.Name,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			Presentation: l.Presentation,
		}
	}

	if err := f.orders.InsertOrderLines(ctx, orderLines); err != nil {
		sub.advance(StateFailed)
		f.logger.Error("order created without lines", "error", err, "order_id", orderID)
		f.recorder.CheckoutFailed(ctx, "partial_write")
		return nil, &PartialWriteError{OrderID: orderID, Err: err}
	}

	sub.advance(StateNotifying)

	reference := Reference(orderID)
	company := cfg.CompanyName
	if company == "" {
		company = f.messaging.DefaultCompany
	}
	number := cfg.WhatsAppNumber
	if number == "" {
		number = f.messaging.DefaultNumber
	}

	message := FormatMessage(company, reference, form, lines, total)
	link := DeepLink(f.messaging.BaseURL, number, message)

	f.dispatch(ctx, domain.OrderPlacedEvent{
		OrderID:   orderID,
		Reference: reference,
		Phone:     NormalizePhone(number),
		Link:      link,
		Message:   message,
		Total:     total,
		Timestamp: order.CreatedAt,
	})

	cart.Clear()
	sub.advance(StateComplete)
	f.recorder.OrderPlaced(ctx, total, len(lines))
	f.logger.Info("order placed", "order_id", orderID, "reference", reference, "total", total.String(), "lines", len(lines))

	return &Receipt{
		OrderID:   orderID,
		Reference: reference,
		Total:     total,
		Link:      link,
	}, nil
}

func (f *Flow) validateForm(form Form) error {
	err := f.validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate checkout form: %w", err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return &ValidationError{Fields: fields}
}

// dispatch fires the handoff without waiting for it. A failed dispatch is
// logged and does not change the outcome of the checkout.
func (f *Flow) dispatch(ctx context.Context, event domain.OrderPlacedEvent) {
	if f.dispatcher == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
		defer cancel()
		if err := f.dispatcher.Dispatch(ctx, event); err != nil {
			f.logger.Warn("failed to dispatch order message", "error", err, "order_id", event.OrderID)
		}
	}()
}

type nopRecorder struct{}

func (nopRecorder) OrderPlaced(context.Context, domain.Money, int) {}
func (nopRecorder) CheckoutFailed(context.Context, string)         {}
