package cart

import (
	"context"
	"testing"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()), client, product.NewRepository(client.DB()), nil)
	require.NoError(t, err)
	return svc, client
}

func findItem(dto *CartDTO, productID uuid.UUID, size enums.Size) *CartItemDTO {
	for i := range dto.Items {
		if dto.Items[i].ProductID == productID && dto.Items[i].Size == string(size) {
			return &dto.Items[i]
		}
	}
	return nil
}

func TestGetCartCreatesOnce(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	second, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Empty(t, second.Items)

	var count int64
	require.NoError(t, client.DB().Model(&models.Cart{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAddItemPricesAndMerges(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	p := dbtest.SeedProduct(t, client, dbtest.ProductFixture{
		BasePriceCents: 3000,
		SalePriceCents: dbtest.IntPtr(2500),
		Stock:          map[enums.Size]int{enums.SizeM: 20, enums.SizeXL: 20},
		Adjustments:    map[enums.Size]int{enums.SizeXL: 500},
	})

	dto, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: p.ID, Color: "black", Size: enums.SizeM, Quantity: 4})
	require.NoError(t, err)
	dto, err = svc.AddItem(ctx, userID, AddItemInput{ProductID: p.ID, Color: "Black", Size: enums.SizeM, Quantity: 3})
	require.NoError(t, err)
	require.Len(t, dto.Items, 1)
	assert.Equal(t, 7, dto.Items[0].Quantity)
	assert.Equal(t, "Black", dto.Items[0].Color)
	assert.Equal(t, 2500, dto.Items[0].UnitPriceCents)

	dto, err = svc.AddItem(ctx, userID, AddItemInput{ProductID: p.ID, Color: "Black", Size: enums.SizeXL, Quantity: 8})
	require.NoError(t, err)
	dto, err = svc.AddItem(ctx, userID, AddItemInput{ProductID: p.ID, Color: "Black", Size: enums.SizeXL, Quantity: 5})
	require.NoError(t, err)
	xl := findItem(dto, p.ID, enums.SizeXL)
	require.NotNil(t, xl)
	assert.Equal(t, 10, xl.Quantity)
	assert.Equal(t, 3000, xl.UnitPriceCents)

	assert.Equal(t, 17, dto.ItemCount)
	assert.Equal(t, 7*2500+10*3000, dto.SubtotalCents)

	persisted, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, dto.SubtotalCents, persisted.SubtotalCents)
	assert.Equal(t, dto.ItemCount, persisted.ItemCount)
}

func TestAddItemRejectsUnknownVariantAndBadQuantity(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	p := dbtest.SeedProduct(t, client, dbtest.ProductFixture{})
	inactive := dbtest.SeedProduct(t, client, dbtest.ProductFixture{Inactive: true})

	_, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: p.ID, Color: "Green", Size: enums.SizeM, Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.AddItem(ctx, userID, AddItemInput{ProductID: p.ID, Color: "Black", Size: enums.SizeXS, Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.AddItem(ctx, userID, AddItemInput{ProductID: p.ID, Color: "Black", Size: enums.SizeM, Quantity: 0})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.AddItem(ctx, userID, AddItemInput{ProductID: inactive.ID, Color: "Black", Size: enums.SizeM, Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.AddItem(ctx, userID, AddItemInput{ProductID: uuid.New(), Color: "Black", Size: enums.SizeM, Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateRemoveAndClear(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	p := dbtest.SeedProduct(t, client, dbtest.ProductFixture{BasePriceCents: 1000, Stock: map[enums.Size]int{enums.SizeS: 5, enums.SizeM: 5}})

	_, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: p.ID, Color: "Black", Size: enums.SizeS, Quantity: 2})
	require.NoError(t, err)
	dto, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: p.ID, Color: "Black", Size: enums.SizeM, Quantity: 1})
	require.NoError(t, err)
	small := findItem(dto, p.ID, enums.SizeS)
	medium := findItem(dto, p.ID, enums.SizeM)
	require.NotNil(t, small)
	require.NotNil(t, medium)

	dto, err = svc.UpdateItemQuantity(ctx, userID, small.ID, 11)
	require.NoError(t, err)
	assert.Equal(t, 10, findItem(dto, p.ID, enums.SizeS).Quantity)
	assert.Equal(t, 11000, dto.SubtotalCents)

	dto, err = svc.UpdateItemQuantity(ctx, userID, small.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, findItem(dto, p.ID, enums.SizeS))
	assert.Equal(t, 1, dto.ItemCount)

	_, err = svc.UpdateItemQuantity(ctx, userID, small.ID, 2)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	dto, err = svc.RemoveItem(ctx, userID, medium.ID)
	require.NoError(t, err)
	assert.Empty(t, dto.Items)

	_, err = svc.RemoveItem(ctx, userID, medium.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.AddItem(ctx, userID, AddItemInput{ProductID: p.ID, Color: "Black", Size: enums.SizeM, Quantity: 3})
	require.NoError(t, err)
	dto, err = svc.ClearCart(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, dto.Items)
	assert.Equal(t, 0, dto.SubtotalCents)

	persisted, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, persisted.Items)
	assert.Equal(t, 0, persisted.ItemCount)
}

func TestMergeGuestCart(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	p := dbtest.SeedProduct(t, client, dbtest.ProductFixture{BasePriceCents: 1000, Stock: map[enums.Size]int{enums.SizeM: 50, enums.SizeL: 50}})

	_, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: p.ID, Color: "Black", Size: enums.SizeM, Quantity: 8})
	require.NoError(t, err)

	dto, err := svc.MergeGuestCart(ctx, userID, []AddItemInput{
		{ProductID: p.ID, Color: "BLACK", Size: enums.SizeM, Quantity: 5},
		{ProductID: p.ID, Color: "Black", Size: enums.SizeL, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, dto.Items, 2)
	assert.Equal(t, 10, findItem(dto, p.ID, enums.SizeM).Quantity)
	assert.Equal(t, 2, findItem(dto, p.ID, enums.SizeL).Quantity)
	assert.Equal(t, 12, dto.ItemCount)
	assert.Equal(t, 12000, dto.SubtotalCents)
}

func TestMergeGuestCartIsAllOrNothing(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	p := dbtest.SeedProduct(t, client, dbtest.ProductFixture{})

	_, err := svc.MergeGuestCart(ctx, userID, []AddItemInput{
		{ProductID: p.ID, Color: "Black", Size: enums.SizeM, Quantity: 1},
		{ProductID: uuid.New(), Color: "Black", Size: enums.SizeM, Quantity: 1},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	dto, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, dto.Items)
}
