package repository

import (
	"context"

	"bookstore/internal/domain/model"

	"gorm.io/gorm"
)

type OrderStatusEventGormRepository struct {
	db *gorm.DB
}

func NewOrderStatusEventGormRepository(db *gorm.DB) *OrderStatusEventGormRepository {
	return &OrderStatusEventGormRepository{db: db}
}

func (r *OrderStatusEventGormRepository) Append(ctx context.Context, ev model.OrderStatusEvent) error {
	if err := r.db.WithContext(ctx).Create(&ev).Error; err != nil {
		return err
	}
	return nil
}

// created_at昇順。同時刻はid順で安定させる
func (r *OrderStatusEventGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusEvent, error) {
	var events []model.OrderStatusEvent
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc, id asc").
		Find(&events).Error
	if err != nil {
		return []model.OrderStatusEvent{}, err
	}
	return events, nil
}
