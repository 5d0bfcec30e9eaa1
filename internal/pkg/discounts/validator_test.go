package discounts

import (
	"context"
	"testing"
	"time"

	"github.com/ManuelReschke/ShopFox/app/models"
	"github.com/ManuelReschke/ShopFox/app/repository"
	"github.com/ManuelReschke/ShopFox/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestAmount(t *testing.T) {
	tests := []struct {
		name     string
		code     models.DiscountCode
		subtotal string
		want     string
	}{
		{name: "percentage", code: models.DiscountCode{DiscountType: models.DiscountTypePercentage, Value: decimal.NewFromInt(10)}, subtotal: "194.99", want: "19.5"},
		{name: "percentage capped", code: models.DiscountCode{DiscountType: models.DiscountTypePercentage, Value: decimal.NewFromInt(50), MaxDiscount: decPtr("20")}, subtotal: "100", want: "20"},
		{name: "fixed", code: models.DiscountCode{DiscountType: models.DiscountTypeFixed, Value: decimal.NewFromInt(15)}, subtotal: "100", want: "15"},
		{name: "fixed clamped to subtotal", code: models.DiscountCode{DiscountType: models.DiscountTypeFixed, Value: decimal.NewFromInt(150)}, subtotal: "100", want: "100"},
		{name: "percentage over hundred clamped", code: models.DiscountCode{DiscountType: models.DiscountTypePercentage, Value: decimal.NewFromInt(120)}, subtotal: "80", want: "80"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Amount(&tt.code, decimal.RequireFromString(tt.subtotal))
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s want %s", got, tt.want)
		})
	}

	_, err := Amount(&models.DiscountCode{DiscountType: "bogo"}, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrUnknownDiscountType)
}

func TestValidator_Validate(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewDiscountRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	codes := []*models.DiscountCode{
		{ID: "ok", Code: "OK10", DiscountType: models.DiscountTypePercentage, Value: decimal.NewFromInt(10), IsActive: true, ValidFrom: past},
		{ID: "inactive", Code: "OFF", DiscountType: models.DiscountTypeFixed, Value: decimal.NewFromInt(5), IsActive: false, ValidFrom: past},
		{ID: "early", Code: "SOON", DiscountType: models.DiscountTypeFixed, Value: decimal.NewFromInt(5), IsActive: true, ValidFrom: future},
		{ID: "expired", Code: "OLD", DiscountType: models.DiscountTypeFixed, Value: decimal.NewFromInt(5), IsActive: true, ValidFrom: past.Add(-time.Hour), ValidUntil: &past},
		{ID: "boundary", Code: "EDGE", DiscountType: models.DiscountTypeFixed, Value: decimal.NewFromInt(5), IsActive: true, ValidFrom: past, ValidUntil: &now},
		{ID: "limit", Code: "FULL", DiscountType: models.DiscountTypeFixed, Value: decimal.NewFromInt(5), IsActive: true, ValidFrom: past, UsageLimit: intPtr(3), UsageCount: 3},
		{ID: "min", Code: "BIG", DiscountType: models.DiscountTypeFixed, Value: decimal.NewFromInt(5), IsActive: true, ValidFrom: past, MinPurchaseAmount: decimal.NewFromInt(200)},
	}
	for _, c := range codes {
		testutil.SeedDiscountCode(t, db, c)
	}

	v := NewValidator(repo)
	v.now = func() time.Time { return now }
	subtotal := decimal.RequireFromString("194.99")

	res, err := v.Validate(ctx, " ok10 ", subtotal, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Code.ID)
	assert.Equal(t, "19.5", res.Amount.String())

	cases := map[string]error{
		"NOPE": ErrCodeNotFound,
		"OFF":  ErrCodeInactive,
		"SOON": ErrCodeNotYetValid,
		"OLD":  ErrCodeExpired,
		"EDGE": ErrCodeExpired,
		"FULL": ErrUsageLimitReached,
		"BIG":  ErrMinimumNotMet,
	}
	for code, want := range cases {
		_, err := v.Validate(ctx, code, subtotal, nil)
		assert.ErrorIs(t, err, want, code)
	}
}

func TestValidator_GuestSkipsUserCheck(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewDiscountRepository(db)
	ctx := context.Background()

	testutil.SeedDiscountCode(t, db, &models.DiscountCode{
		ID: "dc-1", Code: "GUEST", DiscountType: models.DiscountTypeFixed, Value: decimal.NewFromInt(5), IsActive: true,
	})
	require.NoError(t, repo.RegisterUsage(ctx, &models.DiscountUsage{DiscountCodeID: "dc-1", OrderID: 1, DiscountAmount: decimal.NewFromInt(5)}))

	res, err := NewValidator(repo).Validate(ctx, "GUEST", decimal.NewFromInt(50), nil)
	require.NoError(t, err)
	assert.Equal(t, "5", res.Amount.String())
}

func TestValidator_RejectsSecondRedemptionBySameUser(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewDiscountRepository(db)
	ctx := context.Background()
	user := "user-1"
	other := "user-2"

	testutil.SeedDiscountCode(t, db, &models.DiscountCode{
		ID: "dc-1", Code: "ONCE", DiscountType: models.DiscountTypeFixed, Value: decimal.NewFromInt(5), IsActive: true,
	})
	v := NewValidator(repo)

	_, err := v.Validate(ctx, "ONCE", decimal.NewFromInt(50), &user)
	require.NoError(t, err)

	_, err = NewLedger(repo).RegisterUsage(ctx, "dc-1", &user, 1, decimal.NewFromInt(5))
	require.NoError(t, err)

	_, err = v.Validate(ctx, "ONCE", decimal.NewFromInt(50), &user)
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)
	assert.True(t, IsRejection(err))

	_, err = v.Validate(ctx, "ONCE", decimal.NewFromInt(50), &other)
	assert.NoError(t, err, "another user may still redeem the code")
}
