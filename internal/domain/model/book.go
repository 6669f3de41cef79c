package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 書籍（カタログ側のエンティティ）。
// 在庫数（StockQuantity）の増減は注文コアだけが行う。
type Book struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title         string          `gorm:"type:varchar(255);not null;index" json:"title"`
	Author        string          `gorm:"type:varchar(255);not null" json:"author"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	StockQuantity int64           `gorm:"not null;default:0" json:"stock_quantity"`
	CreatedAt     time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}
