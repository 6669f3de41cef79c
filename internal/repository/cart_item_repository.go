package repository

import (
	"context"
	"time"

	"bookstore/internal/domain/model"
)

type CartItemRepository interface {
	// 期限内の明細だけを返す（expires_at > now）
	ListActiveByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	FindByUserAndBook(ctx context.Context, userID int64, bookID int64) (model.CartItem, error)
	// 所有チェック込みの取得（他人の明細はErrNotFound）
	FindByIDForUser(ctx context.Context, cartItemID int64, userID int64) (model.CartItem, error)

	Create(ctx context.Context, item model.CartItem) (model.CartItem, error)
	UpdateQuantityAndExpiry(ctx context.Context, cartItemID int64, qty int64, expiresAt time.Time) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	ClearByUserID(ctx context.Context, userID int64) error

	// 期限切れ明細の物理削除（定期掃除用）
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
