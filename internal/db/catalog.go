package db

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func (s *Storage) GetProduct(ctx context.Context, id uint) (Product, error) {
	var p Product
	err := s.DB.WithContext(ctx).First(&p, id).Error
	return p, notFound(err)
}

// GetProductsByCategory возвращает товары категории в порядке добавления.
// Фильтрация по доступности — забота вызывающего (см. Purchasable).
func (s *Storage) GetProductsByCategory(ctx context.Context, categoryID uint) ([]Product, error) {
	var products []Product
	err := s.DB.WithContext(ctx).Where("category_id = ?", categoryID).Order("id").Find(&products).Error
	return products, err
}

func (s *Storage) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	err := s.DB.WithContext(ctx).Order("id").Find(&products).Error
	return products, err
}

func (s *Storage) GetCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	err := s.DB.WithContext(ctx).Order("id").Find(&categories).Error
	return categories, err
}

func (s *Storage) GetCategory(ctx context.Context, id uint) (Category, error) {
	var c Category
	err := s.DB.WithContext(ctx).First(&c, id).Error
	return c, notFound(err)
}

// Purchasable оставляет только товары, которые можно купить прямо сейчас
func Purchasable(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Purchasable() {
			out = append(out, p)
		}
	}
	return out
}

// DecrementStock атомарно списывает один ключ со склада.
// Проверка и списание — один UPDATE, поэтому параллельные покупки не уводят остаток в минус.
// Когда остаток доходит до нуля, товар переводится в out_of_stock.
func (s *Storage) DecrementStock(ctx context.Context, productID uint) error {
	res := s.DB.WithContext(ctx).Model(&Product{}).
		Where("id = ? AND stock > 0", productID).
		Updates(map[string]interface{}{
			"stock":  gorm.Expr("stock - 1"),
			"status": gorm.Expr("CASE WHEN stock - 1 <= 0 THEN ? ELSE status END", string(ProductOutOfStock)),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetProduct(ctx, productID); err != nil {
			return err
		}
		return ErrOutOfStock
	}
	return nil
}

// SetStock выставляет остаток вручную (админ). Статус следует за остатком, hidden не трогаем.
func (s *Storage) SetStock(ctx context.Context, productID uint, stock int) (Product, error) {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return p, err
	}
	p.Stock = stock
	switch {
	case stock == 0 && p.Status == ProductActive:
		p.Status = ProductOutOfStock
	case stock > 0 && p.Status == ProductOutOfStock:
		p.Status = ProductActive
	}
	err = s.DB.WithContext(ctx).Model(&p).Updates(map[string]interface{}{"stock": p.Stock, "status": string(p.Status)}).Error
	return p, err
}

// ProductUpdate — частичное обновление; nil означает «не менять»
type ProductUpdate struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice"`
	Stock         *int             `json:"stock"`
	CategoryID    *uint            `json:"categoryId"`
	Platform      *string          `json:"platform"`
	Region        *string          `json:"region"`
	Status        *ProductStatus   `json:"status"`
}

func (u ProductUpdate) columns() map[string]interface{} {
	m := map[string]interface{}{}
	if u.Name != nil {
		m["name"] = *u.Name
	}
	if u.Description != nil {
		m["description"] = *u.Description
	}
	if u.Price != nil {
		m["price"] = *u.Price
	}
	if u.OriginalPrice != nil {
		m["original_price"] = *u.OriginalPrice
	}
	if u.Stock != nil {
		m["stock"] = *u.Stock
	}
	if u.CategoryID != nil {
		m["category_id"] = *u.CategoryID
	}
	if u.Platform != nil {
		m["platform"] = *u.Platform
	}
	if u.Region != nil {
		m["region"] = *u.Region
	}
	if u.Status != nil {
		m["status"] = string(*u.Status)
	}
	return m
}

func (s *Storage) CreateProduct(ctx context.Context, p *Product) error {
	if p.Status == "" {
		p.Status = ProductActive
	}
	return s.DB.WithContext(ctx).Create(p).Error
}

func (s *Storage) UpdateProduct(ctx context.Context, id uint, u ProductUpdate) (Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return p, err
	}
	if cols := u.columns(); len(cols) > 0 {
		if err := s.DB.WithContext(ctx).Model(&p).Updates(cols).Error; err != nil {
			return p, err
		}
	}
	return s.GetProduct(ctx, id)
}

func (s *Storage) DeleteProduct(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type CategoryUpdate struct {
	Name *string `json:"name"`
	Icon *string `json:"icon"`
}

func (s *Storage) CreateCategory(ctx context.Context, c *Category) error {
	return s.DB.WithContext(ctx).Create(c).Error
}

func (s *Storage) UpdateCategory(ctx context.Context, id uint, u CategoryUpdate) (Category, error) {
	c, err := s.GetCategory(ctx, id)
	if err != nil {
		return c, err
	}
	cols := map[string]interface{}{}
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.Icon != nil {
		cols["icon"] = *u.Icon
	}
	if len(cols) > 0 {
		if err := s.DB.WithContext(ctx).Model(&c).Updates(cols).Error; err != nil {
			return c, err
		}
	}
	return s.GetCategory(ctx, id)
}

// DeleteCategory удаляет пустую категорию. Пока в ней есть товары, возвращает ErrCategoryInUse.
func (s *Storage) DeleteCategory(ctx context.Context, id uint) error {
	return s.Transaction(ctx, func(tx *Storage) error {
		var products int64
		if err := tx.DB.WithContext(ctx).Model(&Product{}).Where("category_id = ?", id).Count(&products).Error; err != nil {
			return err
		}
		if products > 0 {
			return fmt.Errorf("%w: %d products", ErrCategoryInUse, products)
		}
		res := tx.DB.WithContext(ctx).Delete(&Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
