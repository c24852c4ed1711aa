// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/receiptsplit/internal/models"
)

// ErrNotFound is returned when a receipt does not exist.
var ErrNotFound = errors.New("receipt not found")

// Store defines the interface for receipt storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	// CreateReceipt persists a new receipt.
	// ID, CreatedAt and UpdatedAt are populated by the store when unset.
	CreateReceipt(ctx context.Context, receipt *models.Receipt) error

	// GetReceipt retrieves a receipt with its items, participants and assignments.
	// Returns ErrNotFound if the receipt does not exist.
	GetReceipt(ctx context.Context, receiptID string) (*models.Receipt, error)

	// ListReceipts returns the most recent receipts first, at most limit of them.
	// An empty userID lists receipts of every user.
	ListReceipts(ctx context.Context, userID string, limit int) ([]*models.Receipt, error)

	// UpdateReceiptData replaces the receipt contents (merchant, charges, items).
	// Participants and assignments are left untouched even if item positions change.
	UpdateReceiptData(ctx context.Context, receiptID string, data models.ReceiptData) error

	// SaveSplit replaces the participants and assignments of a receipt verbatim.
	SaveSplit(ctx context.Context, receiptID string, participants []models.Participant, assignments []models.Assignment) error

	// UpdateReceipt replaces the receipt contents and its split atomically:
	// either every write lands or none does.
	UpdateReceipt(ctx context.Context, receiptID string, data models.ReceiptData, participants []models.Participant, assignments []models.Assignment) error

	// DeleteReceipt removes a receipt and everything attached to it.
	DeleteReceipt(ctx context.Context, receiptID string) error

	// Close releases any resources held by the store.
	Close() error
}

// PrepareNew fills the fields a store assigns on creation: a UUID, the
// creation and update timestamps, and a merchant name derived from the
// creation date when none was extracted.
func PrepareNew(receipt *models.Receipt) {
	if receipt.ID == "" {
		receipt.ID = uuid.New().String()
	}
	if receipt.CreatedAt == 0 {
		receipt.CreatedAt = time.Now().Unix()
	}
	if receipt.UpdatedAt == 0 {
		receipt.UpdatedAt = receipt.CreatedAt
	}
	if receipt.Data.MerchantName == "" {
		receipt.Data.MerchantName = generateMerchantName(receipt.CreatedAt)
	}
}

// generateMerchantName creates a placeholder name from the creation time.
func generateMerchantName(createdAt int64) string {
	return fmt.Sprintf("Receipt - %s", time.Unix(createdAt, 0).UTC().Format("Jan 2, 2006"))
}
