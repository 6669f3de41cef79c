package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細。作成後は不変。
// PriceAtPurchase は確定時点の価格スナップショット（後でカタログ価格が変わっても再計算しない）。
type OrderItem struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID           int64           `gorm:"not null;index" json:"order_id"`
	BookID            int64           `gorm:"not null;index" json:"book_id"`
	BookTitleSnapshot string          `gorm:"type:varchar(255);not null" json:"book_title_snapshot"`
	Quantity          int64           `gorm:"not null" json:"quantity"`
	PriceAtPurchase   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price_at_purchase"`
	CreatedAt         time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
