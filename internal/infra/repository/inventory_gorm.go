package repository

import (
	"context"
	"errors"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 現在庫の取得（論理削除済みはNotFound）
func (r *InventoryGormRepository) GetStock(ctx context.Context, bookID int64) (int64, error) {
	var b model.Book
	err := r.db.WithContext(ctx).Select("id", "stock_quantity").Where("id = ?", bookID).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, repo.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return b.StockQuantity, nil
}

// 在庫が足りるときだけ減らす。
// 条件付きUPDATEなので、同じ行を取り合う同時注文はDB側で直列化され、
// 最後の1冊を取れなかった側は RowsAffected=0 になる。
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, bookID int64, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Book{}).
		Where("id = ? AND stock_quantity >= ?", bookID, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

// 在庫戻し（キャンセル）。
// 取り置き後に論理削除された書籍にも戻せるようUnscopedで更新する。
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, bookID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Book{}).
		Unscoped().
		Where("id = ?", bookID).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", qty))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
