package db

import (
	"context"
	"fmt"
)

func (s *Storage) GetPaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	var methods []PaymentMethod
	err := s.DB.WithContext(ctx).Order("id").Find(&methods).Error
	return methods, err
}

func (s *Storage) GetPaymentMethod(ctx context.Context, id uint) (PaymentMethod, error) {
	var m PaymentMethod
	err := s.DB.WithContext(ctx).First(&m, id).Error
	return m, notFound(err)
}

func (s *Storage) CreatePaymentMethod(ctx context.Context, m *PaymentMethod) error {
	if !m.Type.Valid() {
		return fmt.Errorf("unknown payment method type %q", m.Type)
	}
	return s.DB.WithContext(ctx).Create(m).Error
}
