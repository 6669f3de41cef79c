package repository

import (
	"context"

	"bookstore/internal/domain/model"
)

// 履歴は追記のみ。
type OrderStatusEventRepository interface {
	Append(ctx context.Context, ev model.OrderStatusEvent) error
	// created_at 昇順で返す（タイムライン表示がそのまま使える順）
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusEvent, error)
}
