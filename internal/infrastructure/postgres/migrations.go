package postgres

import (
	"context"
	"fmt"
)

// schema esquema idempotente; se aplica completo en cada arranque.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                     UUID PRIMARY KEY,
		email                  VARCHAR(255) NOT NULL UNIQUE,
		password_hash          VARCHAR(255) NOT NULL,
		business_name          VARCHAR(255) NOT NULL DEFAULT '',
		phone                  VARCHAR(50),
		business_address       TEXT,
		business_logo          TEXT,
		is_active              BOOLEAN NOT NULL DEFAULT TRUE,
		email_verified         BOOLEAN NOT NULL DEFAULT FALSE,
		default_tax_rate       NUMERIC(5,2) NOT NULL DEFAULT 10,
		currency               VARCHAR(3) NOT NULL DEFAULT 'USD',
		receipt_footer_message TEXT NOT NULL DEFAULT 'Thank you for your purchase!',
		created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS receipts (
		id               UUID PRIMARY KEY,
		user_id          UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		receipt_number   VARCHAR(100) NOT NULL,
		customer_name    VARCHAR(255) NOT NULL,
		customer_email   VARCHAR(255),
		customer_phone   VARCHAR(50),
		transaction_date VARCHAR(10) NOT NULL,
		subtotal         NUMERIC NOT NULL,
		tax_rate         NUMERIC NOT NULL,
		tax              NUMERIC NOT NULL,
		total            NUMERIC NOT NULL,
		currency         VARCHAR(3) NOT NULL DEFAULT 'USD',
		payment_method   VARCHAR(50) NOT NULL DEFAULT 'Cash',
		payment_status   VARCHAR(50) NOT NULL DEFAULT 'Paid',
		status           VARCHAR(20) NOT NULL DEFAULT 'created',
		email_sent       BOOLEAN NOT NULL DEFAULT FALSE,
		email_sent_at    TIMESTAMPTZ,
		sms_sent         BOOLEAN NOT NULL DEFAULT FALSE,
		sms_sent_at      TIMESTAMPTZ,
		notes            TEXT,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_receipts_user_created ON receipts (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_receipts_user_number ON receipts (user_id, receipt_number)`,
	`CREATE TABLE IF NOT EXISTS receipt_items (
		receipt_id UUID NOT NULL REFERENCES receipts(id) ON DELETE CASCADE,
		position   INT NOT NULL,
		name       VARCHAR(255) NOT NULL,
		quantity   NUMERIC NOT NULL,
		price      NUMERIC NOT NULL,
		PRIMARY KEY (receipt_id, position)
	)`,
}

// Migrate crea tablas e índices si no existen.
func Migrate(ctx context.Context, q Querier) error {
	for i, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migración %d: %w", i+1, err)
		}
	}
	return nil
}
