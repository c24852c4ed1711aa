// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Foreign keys are a per-connection setting, so pass it in the DSN.
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateReceipt persists a new receipt with its items and split state.
func (s *SQLiteStore) CreateReceipt(ctx context.Context, receipt *models.Receipt) error {
	storage.PrepareNew(receipt)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	d := receipt.Data
	_, err = tx.ExecContext(ctx, `
		INSERT INTO receipts (id, user_id, image_url, raw_text, merchant_name, receipt_date,
			total, tax, service_charge, discount, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		receipt.ID, receipt.UserID, receipt.ImageURL, receipt.RawText, d.MerchantName, d.Date,
		d.Total.String(), d.Tax.String(), d.ServiceCharge.String(), d.Discount.String(),
		receipt.CreatedAt, receipt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", err)
	}

	if err := insertItems(ctx, tx, receipt.ID, d.Items); err != nil {
		return err
	}
	if err := insertSplit(ctx, tx, receipt.ID, receipt.Participants, receipt.Assignments); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetReceipt retrieves a receipt by ID, including items, participants and assignments.
func (s *SQLiteStore) GetReceipt(ctx context.Context, receiptID string) (*models.Receipt, error) {
	receipt := &models.Receipt{}
	var total, tax, service, discount string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, image_url, raw_text, merchant_name, receipt_date,
			total, tax, service_charge, discount, created_at, updated_at
		FROM receipts WHERE id = ?`,
		receiptID,
	).Scan(
		&receipt.ID, &receipt.UserID, &receipt.ImageURL, &receipt.RawText,
		&receipt.Data.MerchantName, &receipt.Data.Date,
		&total, &tax, &service, &discount,
		&receipt.CreatedAt, &receipt.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, receiptID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}

	if err := parseAmounts(&receipt.Data, total, tax, service, discount); err != nil {
		return nil, err
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

// ListReceipts returns up to limit receipts, newest first.
func (s *SQLiteStore) ListReceipts(ctx context.Context, userID string, limit int) ([]*models.Receipt, error) {
	query := "SELECT id FROM receipts ORDER BY created_at DESC, id DESC LIMIT ?"
	args := []any{limit}
	if userID != "" {
		query = "SELECT id FROM receipts WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?"
		args = []any{userID, limit}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan receipt id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipts: %w", err)
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

// UpdateReceiptData replaces the receipt contents and items, leaving the split untouched.
func (s *SQLiteStore) UpdateReceiptData(ctx context.Context, receiptID string, data models.ReceiptData) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return replaceData(ctx, tx, receiptID, data)
	})
}

// SaveSplit replaces the participants and assignments of a receipt.
func (s *SQLiteStore) SaveSplit(ctx context.Context, receiptID string, participants []models.Participant, assignments []models.Assignment) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE receipts SET updated_at = ? WHERE id = ?", time.Now().Unix(), receiptID)
		if err != nil {
			return fmt.Errorf("failed to touch receipt: %w", err)
		}
		if err := requireRow(res, receiptID); err != nil {
			return err
		}
		return replaceSplit(ctx, tx, receiptID, participants, assignments)
	})
}

// UpdateReceipt replaces contents, items and split in a single transaction.
func (s *SQLiteStore) UpdateReceipt(ctx context.Context, receiptID string, data models.ReceiptData, participants []models.Participant, assignments []models.Assignment) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := replaceData(ctx, tx, receiptID, data); err != nil {
			return err
		}
		return replaceSplit(ctx, tx, receiptID, participants, assignments)
	})
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func replaceData(ctx context.Context, tx *sql.Tx, receiptID string, data models.ReceiptData) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE receipts SET merchant_name = ?, receipt_date = ?, total = ?, tax = ?,
			service_charge = ?, discount = ?, updated_at = ?
		WHERE id = ?`,
		data.MerchantName, data.Date, data.Total.String(), data.Tax.String(),
		data.ServiceCharge.String(), data.Discount.String(), time.Now().Unix(),
		receiptID,
	)
	if err != nil {
		return fmt.Errorf("failed to update receipt: %w", err)
	}
	if err := requireRow(res, receiptID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM items WHERE receipt_id = ?", receiptID); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}
	return insertItems(ctx, tx, receiptID, data.Items)
}

func replaceSplit(ctx context.Context, tx *sql.Tx, receiptID string, participants []models.Participant, assignments []models.Assignment) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM participants WHERE receipt_id = ?", receiptID); err != nil {
		return fmt.Errorf("failed to clear participants: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM assignment_occurrences WHERE receipt_id = ?", receiptID); err != nil {
		return fmt.Errorf("failed to clear assignments: %w", err)
	}
	return insertSplit(ctx, tx, receiptID, participants, assignments)
}

// DeleteReceipt removes a receipt; items and split state cascade.
func (s *SQLiteStore) DeleteReceipt(ctx context.Context, receiptID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM receipts WHERE id = ?", receiptID)
	if err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	return requireRow(res, receiptID)
}

func insertItems(ctx context.Context, tx *sql.Tx, receiptID string, items []models.LineItem) error {
	for pos, item := range items {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO items (receipt_id, position, name, price, quantity) VALUES (?, ?, ?, ?, ?)",
			receiptID, pos, item.Name, item.Price.String(), item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
	}
	return nil
}

func insertSplit(ctx context.Context, tx *sql.Tx, receiptID string, participants []models.Participant, assignments []models.Assignment) error {
	for pos, p := range participants {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO participants (receipt_id, position, participant_id, name) VALUES (?, ?, ?, ?)",
			receiptID, pos, p.ID, p.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	for entry, a := range assignments {
		for slot, pid := range a.ParticipantIDs {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO assignment_occurrences (receipt_id, entry, slot, item_id, participant_id) VALUES (?, ?, ?, ?, ?)",
				receiptID, entry, slot, a.ItemID, pid,
			)
			if err != nil {
				return fmt.Errorf("failed to insert assignment: %w", err)
			}
		}
	}
	return nil
}

func (s *SQLiteStore) loadItems(ctx context.Context, receiptID string) ([]models.LineItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, price, quantity FROM items WHERE receipt_id = ? ORDER BY position",
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

func (s *SQLiteStore) loadParticipants(ctx context.Context, receiptID string) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT participant_id, name FROM participants WHERE receipt_id = ? ORDER BY position",
		receiptID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	participants := []models.Participant{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return participants, nil
}

func (s *SQLiteStore) loadAssignments(ctx context.Context, receiptID string) ([]models.Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT entry, item_id, participant_id FROM assignment_occurrences WHERE receipt_id = ? ORDER BY entry, slot",
		receiptID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}
	defer rows.Close()

	assignments := []models.Assignment{}
	lastEntry := -1
	for rows.Next() {
		var entry int
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

func parseAmounts(data *models.ReceiptData, total, tax, service, discount string) error {
	var err error
	if data.Total, err = decimal.NewFromString(total); err != nil {
		return fmt.Errorf("failed to parse total %q: %w", total, err)
	}
	if data.Tax, err = decimal.NewFromString(tax); err != nil {
		return fmt.Errorf("failed to parse tax %q: %w", tax, err)
	}
	if data.ServiceCharge, err = decimal.NewFromString(service); err != nil {
		return fmt.Errorf("failed to parse service charge %q: %w", service, err)
	}
	if data.Discount, err = decimal.NewFromString(discount); err != nil {
		return fmt.Errorf("failed to parse discount %q: %w", discount, err)
	}
	return nil
}

func requireRow(res sql.Result, receiptID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, receiptID)
	}
	return nil
}
