package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/botica-storefront/internal/domain"
)

const orderColumns = `id, customer_name, customer_phone, customer_address, customer_email, total_amount, status, created_at`

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// InsertOrder stores the order header and returns its generated id. Lines are
// written separately by InsertOrderLines.
func (r *OrderRepository) InsertOrder(ctx context.Context, order *domain.Order) (string, error) {
	id := uuid.New().String()

	status := order.Status
	if status == "" {
		status = domain.OrderStatusPending
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (id, customer_name, customer_phone, customer_address, customer_email, total_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, id, order.CustomerName, order.CustomerPhone, order.CustomerAddress, nullString(order.CustomerEmail), order.Total, status, order.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}

	return id, nil
}

// InsertOrderLines writes all lines of one checkout in a single transaction:
// either every line is stored or none is.
func (r *OrderRepository) InsertOrderLines(ctx context.Context, lines []domain.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO order_items (id, order_id, product_name, quantity, price, presentation)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return fmt.Errorf("prepare order items: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, line := range lines {
		presentation := line.Presentation
		if presentation == "" {
			presentation = domain.DefaultPresentation
		}
		if _, err := stmt.ExecContext(ctx, uuid.New().String(), line.OrderID, line.ProductName, line.Quantity, line.UnitPrice, presentation); err != nil {
			return fmt.Errorf("insert order item for %s: %w", line.OrderID, err)
		}
	}

	return tx.Commit()
}

// GetByID returns nil when no order has this id. Ids that are not UUIDs
// cannot exist and are not sent to the database.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	order, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	orders := []domain.Order{*order}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}

	return &orders[0], nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, id)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

// List returns every order, newest first, with its lines.
func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

// ListByPhone returns the orders placed with exactly this phone, newest first.
func (r *OrderRepository) ListByPhone(ctx context.Context, phone string) ([]domain.Order, error) {
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders WHERE customer_phone = $1 ORDER BY created_at DESC`, phone)
}

func (r *OrderRepository) query(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// attachLines loads the lines of all given orders in one round trip.
func (r *OrderRepository) attachLines(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	index := make(map[string]int, len(orders))
	ids := make([]string, len(orders))
	for i := range orders {
		orders[i].Lines = []domain.OrderLine{}
		index[orders[i].ID] = i
		ids[i] = orders[i].ID
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_name, quantity, price, presentation
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, line_no
	`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.OrderID, &line.ProductName, &line.Quantity, &line.UnitPrice, &line.Presentation); err != nil {
			return err
		}
		i := index[line.OrderID]
		orders[i].Lines = append(orders[i].Lines, line)
	}

	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order domain.Order
		email sql.NullString
	)
	if err := row.Scan(&order.ID, &order.CustomerName, &order.CustomerPhone, &order.CustomerAddress, &email, &order.Total, &order.Status, &order.CreatedAt); err != nil {
		return nil, err
	}
	order.CustomerEmail = email.String
	return &order, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
