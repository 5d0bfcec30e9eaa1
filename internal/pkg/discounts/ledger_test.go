package discounts

import (
	"context"
	"sync"
	"testing"

	"github.com/ManuelReschke/ShopFox/app/models"
	"github.com/ManuelReschke/ShopFox/app/repository"
	"github.com/ManuelReschke/ShopFox/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestLedger_RegisterUsage_NoOp(t *testing.T) {
	db := testutil.NewTestDB(t)
	ledger := NewLedger(repository.NewDiscountRepository(db))

	msg, err := ledger.RegisterUsage(context.Background(), "", strPtr("u1"), 1, decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.NotEmpty(t, msg)

	msg, err = ledger.RegisterUsage(context.Background(), "dc-1", strPtr("u1"), 1, decimal.Zero)
	require.NoError(t, err)
	assert.NotEmpty(t, msg)

	var count int64
	require.NoError(t, db.Model(&models.DiscountUsage{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLedger_RegisterUsage_Twice_DoesNotDoubleIncrement(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewDiscountRepository(db)
	ledger := NewLedger(repo)
	ctx := context.Background()

	testutil.SeedDiscountCode(t, db, &models.DiscountCode{
		ID: "dc-1", Code: "WELCOME10", DiscountType: models.DiscountTypePercentage,
		Value: decimal.NewFromInt(10), IsActive: true, UsageLimit: intPtr(100),
	})

	_, err := ledger.RegisterUsage(ctx, "dc-1", strPtr("u1"), 1, decimal.RequireFromString("9.50"))
	require.NoError(t, err)

	msg, err := ledger.RegisterUsage(ctx, "dc-1", strPtr("u1"), 2, decimal.RequireFromString("9.50"))
	assert.ErrorIs(t, err, repository.ErrDiscountAlreadyRedeemed)
	assert.Contains(t, msg, "already redeemed")

	code, err := repo.GetByID(ctx, "dc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, code.UsageCount)

	usages, err := repo.CountUsages(ctx, "dc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), usages)

	// The checkout-time validator must now refuse the same user.
	_, err = NewValidator(repo).Validate(ctx, "welcome10", decimal.NewFromInt(100), strPtr("u1"))
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)
}

func TestLedger_RegisterUsage_LimitReachedRollsBack(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewDiscountRepository(db)
	ledger := NewLedger(repo)
	ctx := context.Background()

	testutil.SeedDiscountCode(t, db, &models.DiscountCode{
		ID: "dc-1", Code: "ONCE", DiscountType: models.DiscountTypeFixed,
		Value: decimal.NewFromInt(5), IsActive: true, UsageLimit: intPtr(1),
	})

	_, err := ledger.RegisterUsage(ctx, "dc-1", strPtr("u1"), 1, decimal.NewFromInt(5))
	require.NoError(t, err)

	_, err = ledger.RegisterUsage(ctx, "dc-1", strPtr("u2"), 2, decimal.NewFromInt(5))
	assert.ErrorIs(t, err, repository.ErrDiscountUsageLimitReached)

	usages, err := repo.CountUsages(ctx, "dc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), usages, "usage row of the rejected redemption must be rolled back")

	code, err := repo.GetByID(ctx, "dc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, code.UsageCount)
}

func TestLedger_RegisterUsage_ConcurrentGuests(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewDiscountRepository(db)
	ledger := NewLedger(repo)

	testutil.SeedDiscountCode(t, db, &models.DiscountCode{
		ID: "dc-1", Code: "FLASH", DiscountType: models.DiscountTypeFixed,
		Value: decimal.NewFromInt(5), IsActive: true,
	})

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(orderID uint) {
			defer wg.Done()
			_, err := ledger.RegisterUsage(context.Background(), "dc-1", nil, orderID, decimal.NewFromInt(5))
			assert.NoError(t, err)
		}(uint(i))
	}
	wg.Wait()

	code, err := repo.GetByID(context.Background(), "dc-1")
	require.NoError(t, err)
	assert.Equal(t, 10, code.UsageCount)
}
