// Package storefront serves the shopper-facing JSON API: catalog browsing,
// the per-session cart, checkout and order lookup, plus the admin catalog
// actions.
package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/joao-fontenele/botica-storefront/internal/cart"
	"github.com/joao-fontenele/botica-storefront/internal/catalog"
	"github.com/joao-fontenele/botica-storefront/internal/checkout"
	"github.com/joao-fontenele/botica-storefront/internal/domain"
	"github.com/joao-fontenele/botica-storefront/internal/erpsync"
)

type Catalog interface {
	Config() domain.CompanyConfig
	Products() []domain.Product
	Product(id int64) (domain.Product, bool)
	Load(ctx context.Context) catalog.Snapshot
}

type Checkout interface {
	Submit(ctx context.Context, cart checkout.Cart, cfg domain.CompanyConfig, form checkout.Form) (*checkout.Receipt, error)
}

type Syncer interface {
	Trigger(ctx context.Context) (int, error)
}

type Handler struct {
	catalog  Catalog
	sessions *Sessions
	checkout Checkout
	syncer   Syncer
	logger   *slog.Logger
}

func NewHandler(catalog Catalog, sessions *Sessions, checkout Checkout, syncer Syncer, logger *slog.Logger) *Handler {
	return &Handler{
		catalog:  catalog,
		sessions: sessions,
		checkout: checkout,
		syncer:   syncer,
		logger:   logger,
	}
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) HandleConfig(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.catalog.Config())
}

func (h *Handler) HandleProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products := catalog.Filter(h.catalog.Products(), catalog.Query{
		Text:     q.Get("q"),
		Category: q.Get("category"),
	})
	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleCategories(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, catalog.Categories(h.catalog.Products()))
}

func (h *Handler) HandleProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, ok := h.catalog.Product(id)
	if !ok {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

type lineView struct {
	Key          string       `json:"key"`
	ProductID    int64        `json:"product_id"`
	Name         string       `json:"name"`
	Presentation string       `json:"presentation"`
	Quantity     int          `json:"quantity"`
	UnitPrice    domain.Money `json:"unit_price"`
	Subtotal     domain.Money `json:"subtotal"`
}

type cartView struct {
	SessionID string       `json:"session_id"`
	Lines     []lineView   `json:"lines"`
	Count     int          `json:"count"`
	Total     domain.Money `json:"total"`
}

func newCartView(sessionID string, c *cart.Engine) cartView {
	lines := c.Lines()
	view := cartView{
		SessionID: sessionID,
		Lines:     make([]lineView, len(lines)),
		Count:     c.Count(),
		Total:     c.Total(),
	}
	for i, l := range lines {
		view.Lines[i] = lineView{
			Key:          l.Key().String(),
			ProductID:    l.Product.ID,
			Name:         l.Product.Name,
			Presentation: l.Presentation,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			Subtotal:     l.Subtotal(),
		}
	}
	return view
}

// session resolves the caller's session and echoes its id.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *Session {
	sess, created := h.sessions.Resolve(r.Header.Get(SessionHeader))
	if created {
		h.logger.Debug("session created", "session_id", sess.ID)
	}
	w.Header().Set(SessionHeader, sess.ID)
	return sess
}

func (h *Handler) HandleCart(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)

	var view cartView
	sess.With(func(c *cart.Engine) {
		view = newCartView(sess.ID, c)
	})
	h.writeJSON(w, http.StatusOK, view)
}

type addItemRequest struct {
	ProductID    int64  `json:"product_id"`
	Presentation string `json:"presentation"`
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, ok := h.catalog.Product(req.ProductID)
	if !ok {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	var view cartView
	sess.With(func(c *cart.Engine) {
		c.Add(product, req.Presentation)
		view = newCartView(sess.ID, c)
	})
	h.writeJSON(w, http.StatusOK, view)
}

type updateItemRequest struct {
	Delta int `json:"delta"`
}

func (h *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)

	key, err := domain.ParseLineKey(r.PathValue("key"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid line key")
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		view  cartView
		found bool
	)
	sess.With(func(c *cart.Engine) {
		found = c.UpdateQuantity(key, req.Delta)
		view = newCartView(sess.ID, c)
	})

	if !found {
		h.writeError(w, http.StatusNotFound, "line not in cart")
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)

	key, err := domain.ParseLineKey(r.PathValue("key"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid line key")
		return
	}

	var view cartView
	sess.With(func(c *cart.Engine) {
		c.Remove(key)
		view = newCartView(sess.ID, c)
	})
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) HandleClearCart(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)

	var view cartView
	sess.With(func(c *cart.Engine) {
		c.Clear()
		view = newCartView(sess.ID, c)
	})
	h.writeJSON(w, http.StatusOK, view)
}

type validationResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

// HandleCheckout submits the session cart. The session stays locked for the
// whole submission so the cart cannot change between the order write and
// clearing it.
func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)

	var form checkout.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		receipt *checkout.Receipt
		err     error
	)
	sess.With(func(c *cart.Engine) {
		receipt, err = h.checkout.Submit(r.Context(), c, h.catalog.Config(), form)
	})

	var verr *checkout.ValidationError
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusCreated, receipt)
	case errors.As(err, &verr):
		h.writeJSON(w, http.StatusBadRequest, validationResponse{Error: verr.Error(), Fields: verr.Fields})
	case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, checkout.ErrOrderTooLarge):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrSubmissionFailed):
		h.writeError(w, http.StatusBadGateway, checkout.ErrSubmissionFailed.Error())
	default:
		h.logger.Error("checkout failed", "error", err, "session_id", sess.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// HandleReload refetches the catalog. It always succeeds; a failed fetch
// shows up as fallback=true.
func (h *Handler) HandleReload(w http.ResponseWriter, r *http.Request) {
	snap := h.catalog.Load(r.Context())
	h.writeJSON(w, http.StatusOK, map[string]any{
		"products": len(snap.Products),
		"fallback": snap.Fallback,
	})
}

// HandleSync runs the ERP product sync and then reloads the catalog.
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	count, err := h.syncer.Trigger(r.Context())
	if err != nil {
		h.logger.Error("product sync failed", "error", err)
		if errors.Is(err, erpsync.ErrSyncUnavailable) {
			h.writeError(w, http.StatusBadGateway, erpsync.ErrSyncUnavailable.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	snap := h.catalog.Load(r.Context())
	h.logger.Info("product sync complete", "synced", count, "products", len(snap.Products))
	h.writeJSON(w, http.StatusOK, map[string]any{
		"synced":   count,
		"products": len(snap.Products),
		"fallback": snap.Fallback,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
