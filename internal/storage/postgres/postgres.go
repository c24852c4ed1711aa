// Package postgres provides a PostgreSQL-backed implementation of the storage.Store interface.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/storage"
)

var _ storage.Store = (*PostgresStore)(nil)

// PostgresStore implements storage.Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// New connects to the database at dsn, verifies the connection and runs migrations.
func New(ctx context.Context, dsn string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateReceipt(ctx context.Context, receipt *models.Receipt) error {
	storage.PrepareNew(receipt)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	d := receipt.Data
	_, err = tx.Exec(ctx, `
		INSERT INTO receipts (id, user_id, image_url, raw_text, merchant_name, receipt_date,
			total, tax, service_charge, discount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		receipt.ID, receipt.UserID, receipt.ImageURL, receipt.RawText, d.MerchantName, d.Date,
		d.Total.String(), d.Tax.String(), d.ServiceCharge.String(), d.Discount.String(),
		receipt.CreatedAt, receipt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", err)
	}

	batch := &pgx.Batch{}
	queueItems(batch, receipt.ID, d.Items)
	queueSplit(batch, receipt.ID, receipt.Participants, receipt.Assignments)
	if err := sendBatch(ctx, tx, batch); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetReceipt(ctx context.Context, receiptID string) (*models.Receipt, error) {
	receipt := &models.Receipt{}
	var total, tax, service, discount string
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, image_url, raw_text, merchant_name, receipt_date,
			total, tax, service_charge, discount, created_at, updated_at
		FROM receipts WHERE id = $1`,
		receiptID,
	).Scan(
		&receipt.ID, &receipt.UserID, &receipt.ImageURL, &receipt.RawText,
		&receipt.Data.MerchantName, &receipt.Data.Date,
		&total, &tax, &service, &discount,
		&receipt.CreatedAt, &receipt.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, receiptID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}

	amounts := []struct {
		dst *decimal.Decimal
		raw string
	}{
		{&receipt.Data.Total, total},
		{&receipt.Data.Tax, tax},
		{&receipt.Data.ServiceCharge, service},
		{&receipt.Data.Discount, discount},
	}
	for _, a := range amounts {
		if *a.dst, err = decimal.NewFromString(a.raw); err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", a.raw, err)
		}
	}

	if receipt.Data.Items, err = s.loadItems(ctx, receiptID); err != nil {
		return nil, err
	}
	if receipt.Participants, err = s.loadParticipants(ctx, receiptID); err != nil {
		return nil, err
	}
	if receipt.Assignments, err = s.loadAssignments(ctx, receiptID); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (s *PostgresStore) ListReceipts(ctx context.Context, userID string, limit int) ([]*models.Receipt, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id FROM receipts
		WHERE $1::text = '' OR user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan receipt ids: %w", err)
	}

	receipts := make([]*models.Receipt, 0, len(ids))
	for _, id := range ids {
		receipt, err := s.GetReceipt(ctx, id)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}
	return receipts, nil
}

func (s *PostgresStore) UpdateReceiptData(ctx context.Context, receiptID string, data models.ReceiptData) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if err := updateData(ctx, tx, receiptID, data); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		queueItems(batch, receiptID, data.Items)
		return sendBatch(ctx, tx, batch)
	})
}

func (s *PostgresStore) SaveSplit(ctx context.Context, receiptID string, participants []models.Participant, assignments []models.Assignment) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, "UPDATE receipts SET updated_at = $1 WHERE id = $2", time.Now().Unix(), receiptID)
		if err != nil {
			return fmt.Errorf("failed to touch receipt: %w", err)
		}
		if err := requireRow(tag, receiptID); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		queueSplit(batch, receiptID, participants, assignments)
		return sendBatch(ctx, tx, batch)
	})
}

// UpdateReceipt replaces contents, items and split in one transaction and one batch.
func (s *PostgresStore) UpdateReceipt(ctx context.Context, receiptID string, data models.ReceiptData, participants []models.Participant, assignments []models.Assignment) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if err := updateData(ctx, tx, receiptID, data); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		queueItems(batch, receiptID, data.Items)
		queueSplit(batch, receiptID, participants, assignments)
		return sendBatch(ctx, tx, batch)
	})
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// updateData writes the receipt header. Item rows are queued by the caller.
func updateData(ctx context.Context, tx pgx.Tx, receiptID string, data models.ReceiptData) error {
	tag, err := tx.Exec(ctx, `
		UPDATE receipts SET merchant_name = $1, receipt_date = $2, total = $3, tax = $4,
			service_charge = $5, discount = $6, updated_at = $7
		WHERE id = $8`,
		data.MerchantName, data.Date, data.Total.String(), data.Tax.String(),
		data.ServiceCharge.String(), data.Discount.String(), time.Now().Unix(),
		receiptID,
	)
	if err != nil {
		return fmt.Errorf("failed to update receipt: %w", err)
	}
	return requireRow(tag, receiptID)
}

func (s *PostgresStore) DeleteReceipt(ctx context.Context, receiptID string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM receipts WHERE id = $1", receiptID)
	if err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	return requireRow(tag, receiptID)
}

// queueItems queues a replacement of the receipt's item rows.
func queueItems(batch *pgx.Batch, receiptID string, items []models.LineItem) {
	batch.Queue("DELETE FROM items WHERE receipt_id = $1", receiptID)
	for pos, item := range items {
		batch.Queue(
			"INSERT INTO items (receipt_id, position, name, price, quantity) VALUES ($1, $2, $3, $4, $5)",
			receiptID, pos, item.Name, item.Price.String(), item.Quantity,
		)
	}
}

// queueSplit queues a replacement of the receipt's participant and assignment rows.
func queueSplit(batch *pgx.Batch, receiptID string, participants []models.Participant, assignments []models.Assignment) {
	batch.Queue("DELETE FROM participants WHERE receipt_id = $1", receiptID)
	batch.Queue("DELETE FROM assignment_occurrences WHERE receipt_id = $1", receiptID)
	for pos, p := range participants {
		batch.Queue(
			"INSERT INTO participants (receipt_id, position, participant_id, name) VALUES ($1, $2, $3, $4)",
			receiptID, pos, p.ID, p.Name,
		)
	}
	for entry, a := range assignments {
		for slot, pid := range a.ParticipantIDs {
			batch.Queue(
				"INSERT INTO assignment_occurrences (receipt_id, entry, slot, item_id, participant_id) VALUES ($1, $2, $3, $4, $5)",
				receiptID, entry, slot, a.ItemID, pid,
			)
		}
	}
}

func sendBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to write receipt rows: %w", err)
	}
	return nil
}

func (s *PostgresStore) loadItems(ctx context.Context, receiptID string) ([]models.LineItem, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT name, price, quantity FROM items WHERE receipt_id = $1 ORDER BY position",
		receiptID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	items := []models.LineItem{}
	for rows.Next() {
		var item models.LineItem
		var price string
		if err := rows.Scan(&item.Name, &price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		if item.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("failed to parse item price %q: %w", price, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) loadParticipants(ctx context.Context, receiptID string) ([]models.Participant, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT participant_id, name FROM participants WHERE receipt_id = $1 ORDER BY position",
		receiptID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	participants, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Participant, error) {
		var p models.Participant
		err := row.Scan(&p.ID, &p.Name)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan participants: %w", err)
	}
	if participants == nil {
		participants = []models.Participant{}
	}
	return participants, nil
}

func (s *PostgresStore) loadAssignments(ctx context.Context, receiptID string) ([]models.Assignment, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT entry, item_id, participant_id FROM assignment_occurrences WHERE receipt_id = $1 ORDER BY entry, slot",
		receiptID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}
	defer rows.Close()

	assignments := []models.Assignment{}
	lastEntry := int32(-1)
	for rows.Next() {
		var entry int32
		var itemID, pid string
		if err := rows.Scan(&entry, &itemID, &pid); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		if entry != lastEntry {
			assignments = append(assignments, models.Assignment{ItemID: itemID})
			lastEntry = entry
		}
		last := &assignments[len(assignments)-1]
		last.ParticipantIDs = append(last.ParticipantIDs, pid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}
	return assignments, nil
}

func requireRow(tag pgconn.CommandTag, receiptID string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, receiptID)
	}
	return nil
}
