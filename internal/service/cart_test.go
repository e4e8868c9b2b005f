package service_test

import (
	"context"
	"testing"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/lib/logger/handlers/slogdiscard"
	"github.com/linemk/storefront/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCart() (service.CartService, *fakeProductRepo, *fakeCartRepo) {
	products := newFakeProductRepo(
		&models.Product{ID: 1, Name: "Cable", Description: "USB-C", Price: 10},
		&models.Product{ID: 2, Name: "Mouse", Description: "Wireless", Price: 25},
	)
	carts := newFakeCartRepo(products)
	return service.NewCartService(slogdiscard.NewDiscardLogger(), carts, products), products, carts
}

func TestCartService_ViewCart_Empty(t *testing.T) {
	svc, _, _ := newCart()

	items, err := svc.ViewCart(context.Background(), 7)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestCartService_AddTwiceKeepsOneEntry(t *testing.T) {
	svc, _, _ := newCart()
	ctx := context.Background()

	require.NoError(t, svc.AddProduct(ctx, 7, 1))
	require.NoError(t, svc.AddProduct(ctx, 7, 1))

	items, err := svc.ViewCart(ctx, 7)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, service.CartItem{ID: 1, ProductID: 1, Name: "Cable", Description: "USB-C", Price: 10}, items[0])
}

func TestCartService_ViewCart_LivePrices(t *testing.T) {
	svc, products, _ := newCart()
	ctx := context.Background()

	require.NoError(t, svc.AddProduct(ctx, 7, 1))
	require.NoError(t, svc.AddProduct(ctx, 7, 2))

	price := int64(30)
	_, err := products.UpdateProduct(ctx, 2, models.ProductPatch{Price: &price})
	require.NoError(t, err)

	items, err := svc.ViewCart(ctx, 7)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[1].ID)
	assert.Equal(t, int64(30), items[1].Price)
}

func TestCartService_RemoveProduct(t *testing.T) {
	svc, _, _ := newCart()
	ctx := context.Background()

	require.NoError(t, svc.AddProduct(ctx, 7, 1))
	require.NoError(t, svc.RemoveProduct(ctx, 7, 1))
	// удаление отсутствующего товара ничего не делает
	require.NoError(t, svc.RemoveProduct(ctx, 7, 2))

	items, err := svc.ViewCart(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartService_UnknownProduct(t *testing.T) {
	svc, _, carts := newCart()
	ctx := context.Background()

	assert.ErrorIs(t, svc.AddProduct(ctx, 7, 404), service.ErrNotFound)
	assert.ErrorIs(t, svc.RemoveProduct(ctx, 7, 404), service.ErrNotFound)
	assert.Empty(t, carts.carts)
}
