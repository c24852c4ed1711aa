// Package storagetest holds behaviour tests shared by every storage.Store backend.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/storage"
)

// Run exercises a Store implementation. newStore must return an empty store;
// Run closes it when the test finishes.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	ctx := context.Background()

	t.Run("CreateReceipt generates ID and merchant name", func(t *testing.T) {
		store := open(t, newStore)
		receipt := sampleReceipt("device-1")
		receipt.Data.MerchantName = ""

		require.NoError(t, store.CreateReceipt(ctx, receipt))

		assert.NotEmpty(t, receipt.ID)
		assert.NotZero(t, receipt.CreatedAt)
		assert.Equal(t, receipt.CreatedAt, receipt.UpdatedAt)
		assert.Contains(t, receipt.Data.MerchantName, "Receipt - ")
	})

	t.Run("GetReceipt round-trips the full document", func(t *testing.T) {
		store := open(t, newStore)
		original := sampleReceipt("device-1")
		require.NoError(t, store.CreateReceipt(ctx, original))

		got, err := store.GetReceipt(ctx, original.ID)
		require.NoError(t, err)

		assert.Equal(t, original.ID, got.ID)
		assert.Equal(t, original.UserID, got.UserID)
		assert.Equal(t, original.ImageURL, got.ImageURL)
		assert.Equal(t, original.RawText, got.RawText)
		assert.Equal(t, original.Data.MerchantName, got.Data.MerchantName)
		assert.Equal(t, original.Data.Date, got.Data.Date)
		assertDecimal(t, original.Data.Total, got.Data.Total)
		assertDecimal(t, original.Data.Tax, got.Data.Tax)
		assertDecimal(t, original.Data.ServiceCharge, got.Data.ServiceCharge)
		assertDecimal(t, original.Data.Discount, got.Data.Discount)

		require.Len(t, got.Data.Items, len(original.Data.Items))
		for i, item := range original.Data.Items {
			assert.Equal(t, item.Name, got.Data.Items[i].Name)
			assert.Equal(t, item.Quantity, got.Data.Items[i].Quantity)
			assertDecimal(t, item.Price, got.Data.Items[i].Price)
		}

		assert.Equal(t, original.Participants, got.Participants)
		assert.Equal(t, original.Assignments, got.Assignments)
		assert.Equal(t, original.CreatedAt, got.CreatedAt)
	})

	t.Run("GetReceipt returns ErrNotFound", func(t *testing.T) {
		store := open(t, newStore)

		_, err := store.GetReceipt(ctx, "missing")
		assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
	})

	t.Run("receipt without split state loads empty slices", func(t *testing.T) {
		store := open(t, newStore)
		receipt := sampleReceipt("device-1")
		receipt.Participants = nil
		receipt.Assignments = nil
		require.NoError(t, store.CreateReceipt(ctx, receipt))

		got, err := store.GetReceipt(ctx, receipt.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Participants)
		assert.Empty(t, got.Assignments)
	})

	t.Run("ListReceipts returns newest first with limit", func(t *testing.T) {
		store := open(t, newStore)
		for i, ts := range []int64{1000, 3000, 2000} {
			r := sampleReceipt("device-1")
			r.CreatedAt = ts
			r.Data.MerchantName = []string{"old", "newest", "middle"}[i]
			require.NoError(t, store.CreateReceipt(ctx, r))
		}

		list, err := store.ListReceipts(ctx, "", 2)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "newest", list[0].Data.MerchantName)
		assert.Equal(t, "middle", list[1].Data.MerchantName)
		assert.Len(t, list[0].Data.Items, 3)
	})

	t.Run("ListReceipts filters by user", func(t *testing.T) {
		store := open(t, newStore)
		require.NoError(t, store.CreateReceipt(ctx, sampleReceipt("device-1")))
		require.NoError(t, store.CreateReceipt(ctx, sampleReceipt("device-2")))
		require.NoError(t, store.CreateReceipt(ctx, sampleReceipt("device-2")))

		list, err := store.ListReceipts(ctx, "device-2", 10)
		require.NoError(t, err)
		assert.Len(t, list, 2)
		for _, r := range list {
			assert.Equal(t, "device-2", r.UserID)
		}

		all, err := store.ListReceipts(ctx, "", 10)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("UpdateReceiptData replaces items and keeps split", func(t *testing.T) {
		store := open(t, newStore)
		receipt := sampleReceipt("device-1")
		require.NoError(t, store.CreateReceipt(ctx, receipt))

		data := receipt.Data
		data.MerchantName = "Corrected"
		data.Tax = decimal.RequireFromString("2.25")
		data.Items = []models.LineItem{{Name: "Soup", Price: decimal.RequireFromString("8.5"), Quantity: 1}}
		require.NoError(t, store.UpdateReceiptData(ctx, receipt.ID, data))

		got, err := store.GetReceipt(ctx, receipt.ID)
		require.NoError(t, err)
		assert.Equal(t, "Corrected", got.Data.MerchantName)
		assertDecimal(t, data.Tax, got.Data.Tax)
		require.Len(t, got.Data.Items, 1)
		assert.Equal(t, "Soup", got.Data.Items[0].Name)
		assert.Equal(t, receipt.Participants, got.Participants)
		assert.Equal(t, receipt.Assignments, got.Assignments)
		assert.GreaterOrEqual(t, got.UpdatedAt, receipt.UpdatedAt)
	})

	t.Run("UpdateReceiptData on missing receipt", func(t *testing.T) {
		store := open(t, newStore)

		err := store.UpdateReceiptData(ctx, "missing", models.ReceiptData{})
		assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
	})

	t.Run("SaveSplit replaces participants and assignments verbatim", func(t *testing.T) {
		store := open(t, newStore)
		receipt := sampleReceipt("device-1")
		require.NoError(t, store.CreateReceipt(ctx, receipt))

		participants := []models.Participant{{ID: "z", Name: "Zed"}, {ID: "a", Name: ""}, {ID: "b", Name: "Zed"}}
		assignments := []models.Assignment{
			{ItemID: "2", ParticipantIDs: []string{"b", "z", "b"}},
			{ItemID: "0", ParticipantIDs: []string{"a"}},
		}
		require.NoError(t, store.SaveSplit(ctx, receipt.ID, participants, assignments))

		got, err := store.GetReceipt(ctx, receipt.ID)
		require.NoError(t, err)
		assert.Equal(t, participants, got.Participants)
		assert.Equal(t, assignments, got.Assignments)
		assert.Len(t, got.Data.Items, 3)

		require.NoError(t, store.SaveSplit(ctx, receipt.ID, nil, nil))
		got, err = store.GetReceipt(ctx, receipt.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Participants)
		assert.Empty(t, got.Assignments)
	})

	t.Run("SaveSplit on missing receipt", func(t *testing.T) {
		store := open(t, newStore)

		err := store.SaveSplit(ctx, "missing", nil, nil)
		assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
	})

	t.Run("UpdateReceipt replaces data and split together", func(t *testing.T) {
		store := open(t, newStore)
		receipt := sampleReceipt("device-1")
		require.NoError(t, store.CreateReceipt(ctx, receipt))

		data := receipt.Data
		data.MerchantName = "Rescanned"
		data.Items = []models.LineItem{{Name: "Soto", Price: decimal.RequireFromString("18"), Quantity: 2}}
		participants := []models.Participant{{ID: "p3", Name: "Cici"}}
		assignments := []models.Assignment{{ItemID: "0", ParticipantIDs: []string{"p3", "p3"}}}
		require.NoError(t, store.UpdateReceipt(ctx, receipt.ID, data, participants, assignments))

		got, err := store.GetReceipt(ctx, receipt.ID)
		require.NoError(t, err)
		assert.Equal(t, "Rescanned", got.Data.MerchantName)
		require.Len(t, got.Data.Items, 1)
		assert.Equal(t, "Soto", got.Data.Items[0].Name)
		assert.Equal(t, participants, got.Participants)
		assert.Equal(t, assignments, got.Assignments)
	})

	t.Run("UpdateReceipt on missing receipt", func(t *testing.T) {
		store := open(t, newStore)

		err := store.UpdateReceipt(ctx, "missing", models.ReceiptData{}, nil, nil)
		assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
	})

	t.Run("DeleteReceipt removes everything", func(t *testing.T) {
		store := open(t, newStore)
		receipt := sampleReceipt("device-1")
		require.NoError(t, store.CreateReceipt(ctx, receipt))

		require.NoError(t, store.DeleteReceipt(ctx, receipt.ID))

		_, err := store.GetReceipt(ctx, receipt.ID)
		assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)

		err = store.DeleteReceipt(ctx, receipt.ID)
		assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
	})
}

func open(t *testing.T, newStore func(t *testing.T) storage.Store) storage.Store {
	t.Helper()
	store := newStore(t)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleReceipt(userID string) *models.Receipt {
	return &models.Receipt{
		UserID:   userID,
		ImageURL: "https://example.com/receipt.jpg",
		RawText:  "NASI GORENG 25.000",
		Data: models.ReceiptData{
			MerchantName:  "Warung Makan",
			Date:          1700000000,
			Total:         decimal.RequireFromString("61.05"),
			Tax:           decimal.RequireFromString("5.5"),
			ServiceCharge: decimal.RequireFromString("3"),
			Discount:      decimal.RequireFromString("2.45"),
			Items: []models.LineItem{
				{Name: "Nasi Goreng", Price: decimal.RequireFromString("25"), Quantity: 1},
				{Name: "Es Teh", Price: decimal.RequireFromString("9"), Quantity: 3},
				{Name: "Sate", Price: decimal.RequireFromString("21"), Quantity: 2},
			},
		},
		Participants: []models.Participant{{ID: "p1", Name: "Alice"}, {ID: "p2", Name: "Bob"}},
		Assignments: []models.Assignment{
			{ItemID: "0", ParticipantIDs: []string{"p1"}},
			{ItemID: "1", ParticipantIDs: []string{"p1", "p2", "p2"}},
		},
	}
}

func assertDecimal(t *testing.T, want, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, want.Equal(got), "want %s, got %s", want, got)
}
