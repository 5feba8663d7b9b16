package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/NEARBuilders/near-merch-store-sub000/internal/domain"
	"github.com/NEARBuilders/near-merch-store-sub000/internal/repository"
	"github.com/NEARBuilders/near-merch-store-sub000/pkg/database"
	apperrors "github.com/NEARBuilders/near-merch-store-sub000/pkg/errors"
)

const orderColumns = `id, external_id, checkout_session_id, status, draft_order_ids, tracking, recipient_name, recipient_email, total_amount, currency, created_at, updated_at`

// OrderRepository implements repository.OrderRepository using PostgreSQL.
// DraftOrderIDs and Tracking are stored as JSONB; neither has relational
// consumers, they only round-trip through webhook processing.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts a new order.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	draftJSON, trackingJSON, err := marshalOrderJSON(o)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = r.pool.Exec(ctx, query,
		o.ID,
		o.ExternalID,
		o.CheckoutSessionID,
		o.Status,
		draftJSON,
		trackingJSON,
		o.RecipientName,
		o.RecipientEmail,
		o.TotalAmount,
		o.Currency,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetByID retrieves an order by its ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.getByColumn(ctx, "id", id)
}

// GetByExternalID retrieves an order by the correlation key fulfillment
// providers echo back in webhooks.
func (r *OrderRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Order, error) {
	return r.getByColumn(ctx, "external_id", externalID)
}

// GetByCheckoutSession retrieves an order by its checkout session id.
func (r *OrderRepository) GetByCheckoutSession(ctx context.Context, sessionID string) (*domain.Order, error) {
	return r.getByColumn(ctx, "checkout_session_id", sessionID)
}

func (r *OrderRepository) getByColumn(ctx context.Context, column, value string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + column + ` = $1`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return o, nil
}

// List returns orders matching the given filter with the total count.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// count(*) OVER() gives the total in the same query.
	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM orders
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrderWithCount(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, totalCount, nil
}

// ListStaleDrafts returns orders still sitting in a pre-payment state
// whose last update is older than the cutoff. Used by the cleanup job to
// cancel abandoned checkouts.
func (r *OrderRepository) ListStaleDrafts(ctx context.Context, cutoff time.Time) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status IN ($1, $2, $3) AND updated_at < $4
		ORDER BY updated_at ASC`

	rows, err := r.pool.Query(ctx, query,
		domain.OrderStatusDraftCreated,
		domain.OrderStatusPending,
		domain.OrderStatusPaymentPending,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("list stale drafts: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stale draft: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale drafts: %w", err)
	}
	return orders, nil
}

// UpdateStatus changes the status of an order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateTracking replaces the order's tracking records.
func (r *OrderRepository) UpdateTracking(ctx context.Context, id string, tracking []domain.TrackingRecord) error {
	trackingJSON, err := json.Marshal(tracking)
	if err != nil {
		return fmt.Errorf("marshal tracking: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET tracking = $1, updated_at = NOW() WHERE id = $2`,
		trackingJSON, id,
	)
	if err != nil {
		return fmt.Errorf("update order tracking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func marshalOrderJSON(o *domain.Order) (draftJSON, trackingJSON []byte, err error) {
	draftJSON, err = json.Marshal(o.DraftOrderIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal draft order ids: %w", err)
	}
	trackingJSON, err = json.Marshal(o.Tracking)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal tracking: %w", err)
	}
	return draftJSON, trackingJSON, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o            domain.Order
		draftJSON    []byte
		trackingJSON []byte
	)
	err := row.Scan(
		&o.ID,
		&o.ExternalID,
		&o.CheckoutSessionID,
		&o.Status,
		&draftJSON,
		&trackingJSON,
		&o.RecipientName,
		&o.RecipientEmail,
		&o.TotalAmount,
		&o.Currency,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalOrderJSON(&o, draftJSON, trackingJSON); err != nil {
		return nil, err
	}
	return &o, nil
}

func scanOrderWithCount(row pgx.Row, totalCount *int) (*domain.Order, error) {
	var (
		o            domain.Order
		draftJSON    []byte
		trackingJSON []byte
	)
	err := row.Scan(
		&o.ID,
		&o.ExternalID,
		&o.CheckoutSessionID,
		&o.Status,
		&draftJSON,
		&trackingJSON,
		&o.RecipientName,
		&o.RecipientEmail,
		&o.TotalAmount,
		&o.Currency,
		&o.CreatedAt,
		&o.UpdatedAt,
		totalCount,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalOrderJSON(&o, draftJSON, trackingJSON); err != nil {
		return nil, err
	}
	return &o, nil
}

func unmarshalOrderJSON(o *domain.Order, draftJSON, trackingJSON []byte) error {
	if len(draftJSON) > 0 && string(draftJSON) != "null" {
		if err := json.Unmarshal(draftJSON, &o.DraftOrderIDs); err != nil {
			return fmt.Errorf("unmarshal draft order ids: %w", err)
		}
	}
	if len(trackingJSON) > 0 && string(trackingJSON) != "null" {
		if err := json.Unmarshal(trackingJSON, &o.Tracking); err != nil {
			return fmt.Errorf("unmarshal tracking: %w", err)
		}
	}
	return nil
}
