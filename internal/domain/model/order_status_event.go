package model

import "time"

// 注文ステータスの履歴。追記のみ（更新・削除しない）。
type OrderStatusEvent struct {
	ID        int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64       `gorm:"not null;index" json:"order_id"`
	Status    OrderStatus `gorm:"type:varchar(20);not null" json:"status"`
	Note      string      `gorm:"type:text" json:"note"`
	CreatedAt time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
}
