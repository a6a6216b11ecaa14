package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"charlie-pos/metrics"
	"charlie-pos/models"
	"charlie-pos/notify"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore answers the store actions from PostgreSQL, for terminals that run without the spreadsheet script.
type PgStore struct {
	pool     *pgxpool.Pool
	metrics  *metrics.Registry
	notifier notify.Notifier
}

// NewPgStore builds a store on pool. n may be nil; it receives the same connection-error
// notification as the JSONP client.
func NewPgStore(pool *pgxpool.Pool, m *metrics.Registry, n notify.Notifier) *PgStore {
	if n == nil {
		n = notify.Discard
	}
	return &PgStore{pool: pool, metrics: m, notifier: n}
}

func (s *PgStore) Call(ctx context.Context, action string, payload any) (resp *Response, err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeOK
		switch {
		case IsFailure(err):
			outcome = metrics.OutcomeFailure
		case err != nil:
			outcome = metrics.OutcomeError
		}
		if errors.Is(err, ErrConnection) {
			s.notifier.Notify(notify.LevelError, connectionErrorMessage)
		}
		s.metrics.ObserveStoreCall(action, outcome, time.Since(start))
	}()

	var data any
	switch action {
	case ActionGetProducts:
		data, err = s.listProducts(ctx)
	case ActionGetCategories:
		data, err = s.listCategories(ctx)
	case ActionGetPredefinedNotes:
		data, err = s.listNotes(ctx)
	case ActionCreateOrder:
		var order models.OrderRequest
		if err := decodePayload(payload, &order); err != nil {
			return nil, &FailureError{Action: action, Reason: err.Error()}
		}
		n, err := s.createOrder(ctx, &order)
		if err != nil {
			return nil, classify(action, err)
		}
		return &Response{Success: true, OrderNumber: n}, nil
	case ActionCreateProduct, ActionUpdateProduct:
		var p models.Product
		if err := decodePayload(payload, &p); err != nil {
			return nil, &FailureError{Action: action, Reason: err.Error()}
		}
		err = s.saveProduct(ctx, action == ActionUpdateProduct, p)
	case ActionDeleteProduct:
		var p idPayload
		if err := decodePayload(payload, &p); err != nil {
			return nil, &FailureError{Action: action, Reason: err.Error()}
		}
		err = s.deleteByID(ctx, `DELETE FROM products WHERE id = $1`, p.ID)
	case ActionCreateCategory, ActionUpdateCategory:
		var c models.Category
		if err := decodePayload(payload, &c); err != nil {
			return nil, &FailureError{Action: action, Reason: err.Error()}
		}
		err = s.saveCategory(ctx, action == ActionUpdateCategory, c)
	case ActionDeleteCategory:
		var p idPayload
		if err := decodePayload(payload, &p); err != nil {
			return nil, &FailureError{Action: action, Reason: err.Error()}
		}
		err = s.deleteByID(ctx, `
			DELETE FROM categories c WHERE c.id = $1
			AND NOT EXISTS (SELECT 1 FROM products p WHERE p.category = c.name)`, p.ID)
	case ActionGetOrders:
		var p ordersPayload
		if err := decodePayload(payload, &p); err != nil {
			return nil, &FailureError{Action: action, Reason: err.Error()}
		}
		data, err = s.listOrders(ctx, p.Filters)
	case ActionDeleteOrder:
		var p deleteOrderPayload
		if err := decodePayload(payload, &p); err != nil {
			return nil, &FailureError{Action: action, Reason: err.Error()}
		}
		err = s.deleteByID(ctx, `DELETE FROM orders WHERE order_number = $1`, strconv.Itoa(p.OrderNumber))
	default:
		return nil, &FailureError{Action: action, Reason: "unknown action"}
	}
	if err != nil {
		return nil, classify(action, err)
	}

	resp = &Response{Success: true}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s data: %w", action, err)
		}
		resp.Data = raw
	}
	return resp, nil
}

var errNotFound = errors.New("not found")

// classify maps server-side rejections to FailureError and everything else to ErrConnection.
func classify(action string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) || errors.Is(err, errNotFound) || errors.Is(err, strconv.ErrSyntax) {
		return &FailureError{Action: action, Reason: err.Error()}
	}
	return fmt.Errorf("%w: %s: %v", ErrConnection, action, err)
}

// decodePayload round-trips payload through JSON so both transports parse the same wire shape.
func decodePayload(payload any, dst any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", id, strconv.ErrSyntax)
	}
	return n, nil
}

func (s *PgStore) listProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, category, price, description FROM products
		ORDER BY category, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Product{}
	for rows.Next() {
		var id int64
		var p models.Product
		if err := rows.Scan(&id, &p.Name, &p.Category, &p.Price, &p.Description); err != nil {
			return nil, err
		}
		p.ID = strconv.FormatInt(id, 10)
		items = append(items, p)
	}
	return items, rows.Err()
}

func (s *PgStore) listCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Category{}
	for rows.Next() {
		var id int64
		var c models.Category
		if err := rows.Scan(&id, &c.Name); err != nil {
			return nil, err
		}
		c.ID = strconv.FormatInt(id, 10)
		items = append(items, c)
	}
	return items, rows.Err()
}

func (s *PgStore) listNotes(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT note FROM predefined_notes ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *PgStore) createOrder(ctx context.Context, o *models.OrderRequest) (int, error) {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal order items: %w", err)
	}
	var n int64
	err = s.pool.QueryRow(ctx, `
		INSERT INTO orders (
			customer_name, order_type, address, delivery_charge, payment_method,
			items, subtotal, total, ordered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING order_number`,
		o.CustomerName, string(o.OrderType), o.Address, o.DeliveryCharge, o.PaymentMethod,
		itemsJSON, o.Subtotal, o.Total, o.Date,
	).Scan(&n)
	return int(n), err
}

func (s *PgStore) saveProduct(ctx context.Context, update bool, p models.Product) error {
	if !update {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO products (name, category, price, description) VALUES ($1, $2, $3, $4)`,
			p.Name, p.Category, p.Price, p.Description,
		)
		return err
	}
	id, err := parseID(p.ID)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE products SET name = $1, category = $2, price = $3, description = $4
		WHERE id = $5`,
		p.Name, p.Category, p.Price, p.Description, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", p.ID, errNotFound)
	}
	return nil
}

// saveCategory renames products along with the category, since products reference it by name.
func (s *PgStore) saveCategory(ctx context.Context, update bool, c models.Category) error {
	if !update {
		_, err := s.pool.Exec(ctx, `INSERT INTO categories (name) VALUES ($1)`, c.Name)
		return err
	}
	id, err := parseID(c.ID)
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var old string
		err := tx.QueryRow(ctx, `SELECT name FROM categories WHERE id = $1 FOR UPDATE`, id).Scan(&old)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("category %s: %w", c.ID, errNotFound)
		}
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE categories SET name = $1 WHERE id = $2`, c.Name, id); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE products SET category = $1 WHERE category = $2`, c.Name, old)
		return err
	})
}

func (s *PgStore) deleteByID(ctx context.Context, query, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("id %s: %w", rawID, errNotFound)
	}
	return nil
}

func (s *PgStore) listOrders(ctx context.Context, f models.OrderFilters) ([]models.OrderRecord, error) {
	query := `
		SELECT order_number, customer_name, order_type, address, payment_method, total, items, ordered_at
		FROM orders WHERE 1 = 1`
	var args []any
	if f.PaymentMethod != "" {
		args = append(args, f.PaymentMethod)
		query += fmt.Sprintf(" AND payment_method = $%d", len(args))
	}
	if f.DateStart != nil {
		args = append(args, *f.DateStart)
		query += fmt.Sprintf(" AND ordered_at >= $%d", len(args))
	}
	if f.DateEnd != nil {
		args = append(args, *f.DateEnd)
		query += fmt.Sprintf(" AND ordered_at <= $%d", len(args))
	}
	query += " ORDER BY order_number DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.OrderRecord{}
	for rows.Next() {
		var (
			n         int64
			r         models.OrderRecord
			orderType string
			itemsJSON []byte
			at        time.Time
		)
		if err := rows.Scan(&n, &r.Customer, &orderType, &r.Address, &r.PaymentMethod, &r.Total, &itemsJSON, &at); err != nil {
			return nil, err
		}
		if len(itemsJSON) > 0 {
			if err := json.Unmarshal(itemsJSON, &r.Items); err != nil {
				return nil, fmt.Errorf("failed to unmarshal order items: %w", err)
			}
		}
		r.OrderNumber = int(n)
		r.RowIndex = int(n)
		r.Type = models.OrderType(orderType)
		r.RawDate = at.UTC().Format(time.RFC3339)
		r.Date = r.RawDate
		out = append(out, r)
	}
	return out, rows.Err()
}
