package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// 遷移表。ここに無いペアは全部不正（同一ステータスへの遷移も不正）。
var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:      {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusCompleted},
	OrderStatusCompleted: {},
	OrderStatusCancelled: {},
}

// 既知のステータスか
func (s OrderStatus) Valid() bool {
	_, ok := orderStatusTransitions[s]
	return ok
}

// s -> next が遷移表に載っているか
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderStatusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// これ以上遷移できないステータス（completed / cancelled）
func (s OrderStatus) Terminal() bool {
	return len(orderStatusTransitions[s]) == 0 && s.Valid()
}

// 注文。物理削除はしない（キャンセルはステータス）。
// TotalAmount は作成時のカート小計で固定し、以後変更しない。
type Order struct {
	ID               int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           int64           `gorm:"not null;index" json:"user_id"`
	Status           OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalAmount      decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	ShippingAddress  string          `gorm:"type:text;not null" json:"shipping_address"`
	PaymentReference string          `gorm:"type:varchar(255)" json:"payment_reference,omitempty"`
	CreatedAt        time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
