package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndListCoupons(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewCouponService(NewRepository(client.DB()))
	require.NoError(t, err)
	ctx := context.Background()

	created, err := svc.CreateCoupon(ctx, CreateCouponInput{Code: " save10 ", DiscountType: enums.DiscountPercentage, Value: 10})
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", created.Code)
	assert.True(t, created.IsActive)

	inactive := false
	_, err = svc.CreateCoupon(ctx, CreateCouponInput{Code: "OLD5", DiscountType: enums.DiscountFixed, Value: 500, IsActive: &inactive})
	require.NoError(t, err)

	_, err = svc.CreateCoupon(ctx, CreateCouponInput{Code: "Save10", DiscountType: enums.DiscountFixed, Value: 100})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDuplicate))

	_, err = svc.CreateCoupon(ctx, CreateCouponInput{Code: "BIG", DiscountType: enums.DiscountPercentage, Value: 150})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreateCoupon(ctx, CreateCouponInput{Code: "ODD", DiscountType: "bogo", Value: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	all, err := svc.ListCoupons(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := svc.ListCoupons(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "SAVE10", active[0].Code)
}

func TestCheckCoupon(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name   string
		coupon models.Coupon
		sub    int
		ok     bool
	}{
		{"active", models.Coupon{IsActive: true}, 100, true},
		{"inactive", models.Coupon{IsActive: false}, 100, false},
		{"expired", models.Coupon{IsActive: true, ExpiresAt: &past}, 100, false},
		{"not yet expired", models.Coupon{IsActive: true, ExpiresAt: &future}, 100, true},
		{"below minimum", models.Coupon{IsActive: true, MinSubtotalCents: 5000}, 4999, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			coupon := tc.coupon
			err := CheckCoupon(&coupon, tc.sub, now)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}
