package service

import (
	"context"
	"log/slog"
	"sync"

	"connectrpc.com/connect"

	"github.com/mmynk/receiptsplit/internal/assignment"
	"github.com/mmynk/receiptsplit/internal/calculator"
	"github.com/mmynk/receiptsplit/internal/middleware"
	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/storage"
)

const (
	// DefaultListLimit is how many receipts ListReceipts returns when no limit is given.
	DefaultListLimit = 5
	// MaxListLimit caps the limit a client may request.
	MaxListLimit = 100

	// ManualImageURL marks receipts typed in by hand instead of scanned.
	ManualImageURL = "manual_entry_placeholder"
	// ManualMerchantName is used for manual receipts without a merchant.
	ManualMerchantName = "Manual Entry"
	// AnonymousUserID owns receipts created without a user or device id.
	AnonymousUserID = "anonymous_user"
)

// ReceiptOption configures a ReceiptService.
type ReceiptOption func(*ReceiptService)

// WithReceiptWriteLock serialises UpdateReceipt on mu. Give it the mutex
// passed to the SplitService via WithWriteLock.
func WithReceiptWriteLock(mu *sync.Mutex) ReceiptOption {
	return func(s *ReceiptService) {
		s.mu = mu
	}
}

// ReceiptService implements the Connect ReceiptService.
type ReceiptService struct {
	store     storage.Store
	listLimit int
	mu        *sync.Mutex
}

// NewReceiptService creates a ReceiptService. A listLimit of zero or less
// falls back to DefaultListLimit.
func NewReceiptService(store storage.Store, listLimit int, opts ...ReceiptOption) *ReceiptService {
	if listLimit <= 0 {
		listLimit = DefaultListLimit
	}
	s := &ReceiptService{store: store, listLimit: listLimit, mu: &sync.Mutex{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateReceipt stores a new receipt with an empty split.
func (s *ReceiptService) CreateReceipt(ctx context.Context, req *connect.Request[CreateReceiptRequest]) (*connect.Response[CreateReceiptResponse], error) {
	msg := req.Msg
	data := msg.Data
	if len(data.Items) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, models.ErrNoItems)
	}
	if err := data.Validate(); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	receipt := &models.Receipt{
		UserID:       resolveUserID(ctx, msg.UserID),
		ImageURL:     msg.ImageURL,
		RawText:      msg.RawText,
		Data:         data,
		Participants: []models.Participant{},
		Assignments:  []models.Assignment{},
	}
	if receipt.ImageURL == "" {
		receipt.ImageURL = ManualImageURL
		if receipt.Data.MerchantName == "" {
			receipt.Data.MerchantName = ManualMerchantName
		}
	}

	if err := s.store.CreateReceipt(ctx, receipt); err != nil {
		return nil, toConnectError("CreateReceipt", err)
	}
	slog.Info("Receipt created",
		"receipt_id", receipt.ID,
		"user_id", receipt.UserID,
		"items", len(receipt.Data.Items),
	)

	return connect.NewResponse(&CreateReceiptResponse{Receipt: receipt}), nil
}

// GetReceipt returns a receipt together with its current split.
func (s *ReceiptService) GetReceipt(ctx context.Context, req *connect.Request[GetReceiptRequest]) (*connect.Response[GetReceiptResponse], error) {
	if req.Msg.ReceiptID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingReceiptID)
	}

	receipt, err := s.store.GetReceipt(ctx, req.Msg.ReceiptID)
	if err != nil {
		return nil, toConnectError("GetReceipt", err)
	}
	split := calculator.Calculate(receipt.Data.Items, receipt.Participants, receipt.Assignments, receipt.Data.Charges())

	return connect.NewResponse(&GetReceiptResponse{Receipt: receipt, Split: split}), nil
}

// ListReceipts returns the most recent receipts first.
func (s *ReceiptService) ListReceipts(ctx context.Context, req *connect.Request[ListReceiptsRequest]) (*connect.Response[ListReceiptsResponse], error) {
	limit := req.Msg.Limit
	if limit <= 0 {
		limit = s.listLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	receipts, err := s.store.ListReceipts(ctx, req.Msg.UserID, limit)
	if err != nil {
		return nil, toConnectError("ListReceipts", err)
	}
	slog.Debug("Listed receipts", "user_id", req.Msg.UserID, "count", len(receipts))

	return connect.NewResponse(&ListReceiptsResponse{Receipts: receipts}), nil
}

// UpdateReceipt applies a partial update. Data replaces the receipt contents;
// Participants and Assignments replace the split state, each independently.
func (s *ReceiptService) UpdateReceipt(ctx context.Context, req *connect.Request[UpdateReceiptRequest]) (*connect.Response[UpdateReceiptResponse], error) {
	msg := req.Msg
	if msg.ReceiptID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingReceiptID)
	}
	if msg.Data != nil {
		if len(msg.Data.Items) == 0 {
			return nil, connect.NewError(connect.CodeInvalidArgument, models.ErrNoItems)
		}
		if err := msg.Data.Validate(); err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.GetReceipt(ctx, msg.ReceiptID)
	if err != nil {
		return nil, toConnectError("UpdateReceipt", err)
	}

	data := current.Data
	if msg.Data != nil {
		data = *msg.Data
	}
	snap := assignment.Snapshot{Participants: current.Participants, Assignments: current.Assignments}
	if msg.Participants != nil || msg.Assignments != nil {
		if msg.Participants != nil {
			snap.Participants = *msg.Participants
		}
		if msg.Assignments != nil {
			snap.Assignments = *msg.Assignments
		}
		// Restore normalises the assignments (no empty or repeated entries).
		snap = assignment.Restore(snap).Snapshot()
	}

	if err := s.store.UpdateReceipt(ctx, msg.ReceiptID, data, snap.Participants, snap.Assignments); err != nil {
		return nil, toConnectError("UpdateReceipt", err)
	}

	updated, err := s.store.GetReceipt(ctx, msg.ReceiptID)
	if err != nil {
		return nil, toConnectError("UpdateReceipt", err)
	}
	slog.Info("Receipt updated",
		"receipt_id", msg.ReceiptID,
		"data", msg.Data != nil,
		"participants", msg.Participants != nil,
		"assignments", msg.Assignments != nil,
	)

	return connect.NewResponse(&UpdateReceiptResponse{Receipt: updated}), nil
}

// DeleteReceipt removes a receipt and its split.
func (s *ReceiptService) DeleteReceipt(ctx context.Context, req *connect.Request[DeleteReceiptRequest]) (*connect.Response[DeleteReceiptResponse], error) {
	if req.Msg.ReceiptID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingReceiptID)
	}
	if err := s.store.DeleteReceipt(ctx, req.Msg.ReceiptID); err != nil {
		return nil, toConnectError("DeleteReceipt", err)
	}
	slog.Info("Receipt deleted", "receipt_id", req.Msg.ReceiptID)
	return connect.NewResponse(&DeleteReceiptResponse{}), nil
}

func resolveUserID(ctx context.Context, requested string) string {
	if requested != "" {
		return requested
	}
	if deviceID := middleware.GetDeviceID(ctx); deviceID != "" {
		return deviceID
	}
	return AnonymousUserID
}
