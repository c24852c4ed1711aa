package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmynk/receiptsplit/internal/models"
)

func TestPrepareNew(t *testing.T) {
	t.Run("fills missing fields", func(t *testing.T) {
		r := &models.Receipt{}
		PrepareNew(r)

		assert.NotEmpty(t, r.ID)
		assert.NotZero(t, r.CreatedAt)
		assert.Equal(t, r.CreatedAt, r.UpdatedAt)
		assert.Contains(t, r.Data.MerchantName, "Receipt - ")
	})

	t.Run("keeps provided fields", func(t *testing.T) {
		r := &models.Receipt{
			ID:        "fixed",
			CreatedAt: 1700000000,
			UpdatedAt: 1700000500,
			Data:      models.ReceiptData{MerchantName: "Warung Bu Sri"},
		}
		PrepareNew(r)

		assert.Equal(t, "fixed", r.ID)
		assert.Equal(t, int64(1700000000), r.CreatedAt)
		assert.Equal(t, int64(1700000500), r.UpdatedAt)
		assert.Equal(t, "Warung Bu Sri", r.Data.MerchantName)
	})
}

func TestGenerateMerchantName(t *testing.T) {
	assert.Equal(t, "Receipt - Nov 14, 2023", generateMerchantName(1700000000))
}
