package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createUsersTable,
		createConcertsTable,
		createTicketTypesTable,
		createOrdersTable,
		createOrdersSweepIndex,
		createConcertsStatusIndex,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    user_id SERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(64) NOT NULL,
    name VARCHAR(200) NOT NULL,
    role VARCHAR(20) NOT NULL DEFAULT 'user',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    registered_at TIMESTAMP NOT NULL DEFAULT NOW(),
    last_logged_in TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createConcertsTable = `
CREATE EXTENSION IF NOT EXISTS "uuid-ossp";
CREATE TABLE IF NOT EXISTS concerts (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    con_title VARCHAR(500) NOT NULL,
    con_introduction TEXT,
    con_info_status VARCHAR(20) NOT NULL DEFAULT 'draft',
    review_status VARCHAR(20),
    review_note TEXT,
    event_start_date TIMESTAMP,
    event_end_date TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createTicketTypesTable = `
CREATE TABLE IF NOT EXISTS ticket_types (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    concert_id UUID NOT NULL REFERENCES concerts(id),
    ticket_type_name VARCHAR(200) NOT NULL,
    ticket_type_price NUMERIC(12,2) NOT NULL DEFAULT 0,
    total_quantity INTEGER NOT NULL CHECK (total_quantity >= 0),
    remaining_quantity INTEGER NOT NULL CHECK (remaining_quantity >= 0),
    sold_quantity INTEGER NOT NULL DEFAULT 0,
    sell_begin_date TIMESTAMP,
    sell_end_date TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
    CHECK (remaining_quantity <= total_quantity)
);`

const createOrdersTable = `
CREATE TABLE IF NOT EXISTS orders (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    ticket_type_id UUID NOT NULL REFERENCES ticket_types(id),
    user_id INTEGER REFERENCES users(user_id),
    quantity INTEGER NOT NULL DEFAULT 1 CHECK (quantity > 0),
    order_status VARCHAR(20) NOT NULL DEFAULT 'held',
    is_locked BOOLEAN NOT NULL DEFAULT FALSE,
    lock_token VARCHAR(64),
    lock_expire_time TIMESTAMP,
    purchaser_name VARCHAR(200),
    purchaser_email VARCHAR(255),
    purchaser_phone VARCHAR(50),
    invoice_platform VARCHAR(50),
    invoice_type VARCHAR(50),
    invoice_carrier VARCHAR(100),
    invoice_status VARCHAR(50),
    invoice_number VARCHAR(50),
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createOrdersSweepIndex = `
CREATE INDEX IF NOT EXISTS idx_orders_held_lock_expire
ON orders (lock_expire_time)
WHERE order_status = 'held';`

const createConcertsStatusIndex = `
CREATE INDEX IF NOT EXISTS idx_concerts_status
ON concerts (con_info_status, event_end_date);`
