package service

import (
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/receiptsplit/internal/assignment"
	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/storage"
)

var (
	errMissingReceiptID = errors.New("receipt_id is required")
	errEmptyName        = errors.New("participant name cannot be empty")
)

var validationErrors = []error{
	errMissingReceiptID,
	errEmptyName,
	models.ErrNoItems,
	models.ErrNegativePrice,
	models.ErrInvalidQuantity,
	models.ErrNegativeCharge,
	assignment.ErrUnknownIntent,
}

// toConnectError maps domain and storage errors onto Connect codes.
// op names the failing operation in the log line for internal errors.
func toConnectError(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return connect.NewError(connect.CodeInvalidArgument, err)
		}
	}
	slog.Error(op+" failed", "error", err)
	return connect.NewError(connect.CodeInternal, err)
}
