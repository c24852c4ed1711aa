package service

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/receiptsplit/internal/calculator"
	"github.com/mmynk/receiptsplit/internal/models"
)

// ReceiptService messages

type CreateReceiptRequest struct {
	// UserID defaults to the caller's device id.
	UserID string `json:"userId,omitempty"`
	// ImageURL is empty for manually entered receipts.
	ImageURL string             `json:"imageUrl,omitempty"`
	RawText  string             `json:"rawText,omitempty"`
	Data     models.ReceiptData `json:"data"`
}

type CreateReceiptResponse struct {
	Receipt *models.Receipt `json:"receipt"`
}

type GetReceiptRequest struct {
	ReceiptID string `json:"receiptId"`
}

type GetReceiptResponse struct {
	Receipt *models.Receipt `json:"receipt"`
	// Split is the current unreconciled breakdown of the receipt.
	Split *calculator.SplitResult `json:"split"`
}

type ListReceiptsRequest struct {
	UserID string `json:"userId,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type ListReceiptsResponse struct {
	Receipts []*models.Receipt `json:"receipts"`
}

// UpdateReceiptRequest patches a receipt. Nil fields are left unchanged.
type UpdateReceiptRequest struct {
	ReceiptID    string                `json:"receiptId"`
	Data         *models.ReceiptData   `json:"data,omitempty"`
	Participants *[]models.Participant `json:"participants,omitempty"`
	Assignments  *[]models.Assignment  `json:"assignments,omitempty"`
}

type UpdateReceiptResponse struct {
	Receipt *models.Receipt `json:"receipt"`
}

type DeleteReceiptRequest struct {
	ReceiptID string `json:"receiptId"`
}

type DeleteReceiptResponse struct{}

// SplitService messages

type CalculateSplitRequest struct {
	Items         []models.LineItem    `json:"items"`
	Participants  []models.Participant `json:"participants"`
	Assignments   []models.Assignment  `json:"assignments"`
	Tax           decimal.Decimal      `json:"tax"`
	ServiceCharge decimal.Decimal      `json:"serviceCharge"`
	Discount      decimal.Decimal      `json:"discount"`
	// Reconcile distributes rounding leftovers so totals add up.
	Reconcile bool `json:"reconcile,omitempty"`
}

type CalculateSplitResponse struct {
	Split *calculator.SplitResult `json:"split"`
}

// SplitState is the persisted split of one receipt.
type SplitState struct {
	Participants []models.Participant `json:"participants"`
	Assignments  []models.Assignment  `json:"assignments"`
}

type AddParticipantRequest struct {
	ReceiptID string `json:"receiptId"`
	Name      string `json:"name"`
}

type AddParticipantResponse struct {
	Participant models.Participant `json:"participant"`
	SplitState
}

type RemoveParticipantRequest struct {
	ReceiptID     string `json:"receiptId"`
	ParticipantID string `json:"participantId"`
}

type RenameParticipantRequest struct {
	ReceiptID     string `json:"receiptId"`
	ParticipantID string `json:"participantId"`
	Name          string `json:"name"`
}

type ResetSplitRequest struct {
	ReceiptID string `json:"receiptId"`
}

type SplitStateResponse struct {
	SplitState
}

type AssignItemRequest struct {
	ReceiptID     string `json:"receiptId"`
	ItemID        string `json:"itemId"`
	ParticipantID string `json:"participantId"`
	// Intent is one of toggle, add, remove or tap. Empty means tap.
	Intent string `json:"intent,omitempty"`
}

type AssignItemResponse struct {
	// Accepted is false when a tap was refused because the item is fully claimed.
	Accepted bool `json:"accepted"`
	SplitState
}

type GetSplitRequest struct {
	ReceiptID string `json:"receiptId"`
	Reconcile bool   `json:"reconcile,omitempty"`
}

type GetSplitResponse struct {
	SplitState
	Split *calculator.SplitResult `json:"split"`
}
