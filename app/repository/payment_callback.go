package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-dibs/app/entity"
)

var ErrCallbackAlreadyRecorded = errors.New("callback already recorded")

type PaymentCallbackRepository struct {
	db DBTX
}

func NewPaymentCallbackRepository(db DBTX) *PaymentCallbackRepository {
	return &PaymentCallbackRepository{db: db}
}

func (r *PaymentCallbackRepository) Create(ctx context.Context, callback *entity.PaymentCallback) error {
	query := `
		INSERT INTO payment_callbacks (
			provider, order_reference, request_id, payload_json, status, payment_status, error, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		callback.Provider,
		callback.OrderReference,
		callback.RequestID,
		callback.PayloadJSON,
		callback.Status,
		nullableStringValue(callback.PaymentStatus),
		nullableStringValue(callback.Error),
		callback.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrCallbackAlreadyRecorded
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	callback.ID = uint64(id)

	return nil
}

func (r *PaymentCallbackRepository) ListByOrder(ctx context.Context, orderReference string, limit int32) ([]*entity.PaymentCallback, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, provider, order_reference, request_id, payload_json, status, payment_status, error, created_at
		FROM payment_callbacks
		WHERE order_reference = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, orderReference, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.PaymentCallback, 0)
	for rows.Next() {
		var (
			item          entity.PaymentCallback
			paymentStatus sql.NullString
			callbackErr   sql.NullString
		)
		if err := rows.Scan(
			&item.ID,
			&item.Provider,
			&item.OrderReference,
			&item.RequestID,
			&item.PayloadJSON,
			&item.Status,
			&paymentStatus,
			&callbackErr,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		item.PaymentStatus = stringPtrFromNull(paymentStatus)
		item.Error = stringPtrFromNull(callbackErr)
		items = append(items, &item)
	}

	return items, rows.Err()
}
