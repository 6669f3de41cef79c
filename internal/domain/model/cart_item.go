package model

import "time"

// カート保持期限。追加・数量変更のたびに now+7日 で引き直す。
const CartItemTTL = 7 * 24 * time.Hour

// カートの明細。(user, book) でユニーク。
// カート時点では在庫を確保しない（確保は注文確定時だけ）。
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;index;uniqueIndex:uq_user_book" json:"user_id"`
	BookID    int64     `gorm:"not null;index;uniqueIndex:uq_user_book" json:"book_id"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	AddedAt   time.Time `gorm:"not null" json:"added_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
}

// 期限切れかどうか（ExpiresAtちょうどは期限切れ）
func (ci CartItem) Expired(now time.Time) bool {
	return !ci.ExpiresAt.After(now)
}
