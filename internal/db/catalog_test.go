package db_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GameStore-Telegram-bot/internal/db"
	"GameStore-Telegram-bot/internal/db/dbtest"
)

func newProduct(t *testing.T, s *db.Storage, stock int) db.Product {
	t.Helper()
	ctx := context.Background()
	c := db.Category{Name: "Steam", Icon: "🎮"}
	require.NoError(t, s.CreateCategory(ctx, &c))
	p := db.Product{
		Name:       "Elden Ring",
		Price:      decimal.RequireFromString("49.99"),
		Stock:      stock,
		CategoryID: c.ID,
		Platform:   "Steam",
		Region:     "Global",
	}
	require.NoError(t, s.CreateProduct(ctx, &p))
	return p
}

func TestGetProductNotFound(t *testing.T) {
	s := dbtest.Open(t)
	_, err := s.GetProduct(context.Background(), 999)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestGetProductsByCategoryOrder(t *testing.T) {
	s := dbtest.Seeded(t)
	ctx := context.Background()

	cats, err := s.GetCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 5)
	assert.Equal(t, "Steam", cats[0].Name)

	products, err := s.GetProductsByCategory(ctx, cats[0].ID)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Cyberpunk 2077", products[0].Name)
	assert.Equal(t, "Elden Ring", products[1].Name)
	assert.True(t, products[0].Discounted())
	assert.False(t, products[1].Discounted())

	empty, err := s.GetProductsByCategory(ctx, cats[3].ID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPurchasableFilter(t *testing.T) {
	products := []db.Product{
		{ID: 1, Status: db.ProductActive, Stock: 3},
		{ID: 2, Status: db.ProductActive, Stock: 0},
		{ID: 3, Status: db.ProductHidden, Stock: 5},
		{ID: 4, Status: db.ProductOutOfStock, Stock: 0},
	}
	got := db.Purchasable(products)
	require.Len(t, got, 1)
	assert.Equal(t, uint(1), got[0].ID)
}

func TestDecrementStock(t *testing.T) {
	s := dbtest.Open(t)
	ctx := context.Background()
	p := newProduct(t, s, 2)

	require.NoError(t, s.DecrementStock(ctx, p.ID))
	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)
	assert.Equal(t, db.ProductActive, got.Status)

	require.NoError(t, s.DecrementStock(ctx, p.ID))
	got, err = s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
	assert.Equal(t, db.ProductOutOfStock, got.Status)

	assert.ErrorIs(t, s.DecrementStock(ctx, p.ID), db.ErrOutOfStock)
	assert.ErrorIs(t, s.DecrementStock(ctx, 12345), db.ErrNotFound)
}

func TestDecrementStockConcurrentLastUnit(t *testing.T) {
	s := dbtest.Open(t)
	ctx := context.Background()
	p := newProduct(t, s, 1)

	const buyers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, sold int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.DecrementStock(ctx, p.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, db.ErrOutOfStock):
				sold++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, buyers-1, sold)
	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
}

func TestSetStock(t *testing.T) {
	s := dbtest.Open(t)
	ctx := context.Background()
	p := newProduct(t, s, 1)

	got, err := s.SetStock(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, db.ProductOutOfStock, got.Status)

	got, err = s.SetStock(ctx, p.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, db.ProductActive, got.Status)
	assert.Equal(t, 7, got.Stock)

	hidden := db.ProductHidden
	_, err = s.UpdateProduct(ctx, p.ID, db.ProductUpdate{Status: &hidden})
	require.NoError(t, err)
	got, err = s.SetStock(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, db.ProductHidden, got.Status)
}

func TestProductCRUD(t *testing.T) {
	s := dbtest.Open(t)
	ctx := context.Background()
	p := newProduct(t, s, 4)

	name := "Elden Ring Deluxe"
	price := decimal.RequireFromString("59.99")
	got, err := s.UpdateProduct(ctx, p.ID, db.ProductUpdate{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)
	assert.True(t, price.Equal(got.Price))
	assert.Equal(t, 4, got.Stock)

	require.NoError(t, s.DeleteProduct(ctx, p.ID))
	assert.ErrorIs(t, s.DeleteProduct(ctx, p.ID), db.ErrNotFound)
	_, err = s.UpdateProduct(ctx, p.ID, db.ProductUpdate{Name: &name})
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestCategoryCRUD(t *testing.T) {
	s := dbtest.Open(t)
	ctx := context.Background()
	c := db.Category{Name: "Origin", Icon: "🎮"}
	require.NoError(t, s.CreateCategory(ctx, &c))

	icon := "🕹"
	got, err := s.UpdateCategory(ctx, c.ID, db.CategoryUpdate{Icon: &icon})
	require.NoError(t, err)
	assert.Equal(t, "Origin", got.Name)
	assert.Equal(t, icon, got.Icon)

	require.NoError(t, s.DeleteCategory(ctx, c.ID))
	_, err = s.GetCategory(ctx, c.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.ErrorIs(t, s.DeleteCategory(ctx, c.ID), db.ErrNotFound)
}

func TestDeleteCategoryWithProducts(t *testing.T) {
	s := dbtest.Open(t)
	ctx := context.Background()
	c := db.Category{Name: "Steam", Icon: "🎮"}
	require.NoError(t, s.CreateCategory(ctx, &c))
	p := db.Product{Name: "Hades", Price: decimal.RequireFromString("24.99"), Stock: 1, CategoryID: c.ID}
	require.NoError(t, s.CreateProduct(ctx, &p))

	assert.ErrorIs(t, s.DeleteCategory(ctx, c.ID), db.ErrCategoryInUse)
	_, err := s.GetCategory(ctx, c.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeleteProduct(ctx, p.ID))
	require.NoError(t, s.DeleteCategory(ctx, c.ID))
}
