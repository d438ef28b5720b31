package repository

import "context"

const paymentCallbacksSchema = `
	CREATE TABLE IF NOT EXISTS payment_callbacks (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		provider VARCHAR(32) NOT NULL,
		order_reference VARCHAR(128) NOT NULL,
		request_id VARCHAR(128) NOT NULL,
		payload_json MEDIUMTEXT NOT NULL,
		status INT NOT NULL,
		payment_status VARCHAR(32) NULL,
		error VARCHAR(1024) NULL,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_payment_callbacks_request (provider, request_id),
		KEY idx_payment_callbacks_order (order_reference, id)
	)
`

func EnsureSchema(ctx context.Context, db DBTX) error {
	_, err := db.ExecContext(ctx, paymentCallbacksSchema)
	return err
}
