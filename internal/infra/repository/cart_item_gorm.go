package repository

import (
	"context"
	"errors"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"gorm.io/gorm"
)

type CartItemGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartItemGormRepository(db *gorm.DB) *CartItemGormRepository {
	return &CartItemGormRepository{db: db}
}

// 期限内の明細を一覧取得
func (r *CartItemGormRepository) ListActiveByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, time.Now()).
		Order("added_at desc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}

	return items, nil
}

func (r *CartItemGormRepository) FindByUserAndBook(ctx context.Context, userID int64, bookID int64) (model.CartItem, error) {
	var item model.CartItem

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ? AND expires_at > ?", userID, bookID, time.Now()).
		First(&item).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CartItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CartItem{}, err
	}
	return item, nil
}

// 所有チェック込みの取得。他人の明細はNotFound扱い
func (r *CartItemGormRepository) FindByIDForUser(ctx context.Context, cartItemID int64, userID int64) (model.CartItem, error) {
	var item model.CartItem

	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND expires_at > ?", cartItemID, userID, time.Now()).
		First(&item).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CartItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CartItem{}, err
	}
	return item, nil
}

func (r *CartItemGormRepository) Create(ctx context.Context, item model.CartItem) (model.CartItem, error) {
	if err := r.db.WithContext(ctx).Create(&item).Error; err != nil {
		return model.CartItem{}, err
	}
	return item, nil
}

// 数量と期限をまとめて更新
func (r *CartItemGormRepository) UpdateQuantityAndExpiry(ctx context.Context, cartItemID int64, qty int64, expiresAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ?", cartItemID).
		Updates(map[string]interface{}{
			"quantity":   qty,
			"expires_at": expiresAt,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CartItemGormRepository) DeleteByID(ctx context.Context, cartItemID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.CartItem{}, cartItemID)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ユーザーの明細を全削除（チェックアウト成功後・明示的なクリア）
func (r *CartItemGormRepository) ClearByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.CartItem{}).Error
}

// 期限切れ明細の物理削除
func (r *CartItemGormRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&model.CartItem{})

	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
