package repository

import (
	"context"
	"errors"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"gorm.io/gorm"
)

type BookGormRepository struct {
	db *gorm.DB
}

// DI
func NewBookGormRepository(db *gorm.DB) *BookGormRepository {
	return &BookGormRepository{db: db}
}

// 公開中の書籍一覧（論理削除済みはgormのデフォルトスコープで除外される）
func (r *BookGormRepository) ListPublic(ctx context.Context, q repo.BookListQuery) ([]model.Book, int64, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}

	query := r.db.WithContext(ctx).Model(&model.Book{})

	if q.Q != "" {
		like := "%" + q.Q + "%"
		query = query.Where("title ILIKE ? OR author ILIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return []model.Book{}, 0, err
	}

	var books []model.Book
	offset := (q.Page - 1) * q.Limit
	if err := query.Order("id asc").Limit(q.Limit).Offset(offset).Find(&books).Error; err != nil {
		return []model.Book{}, 0, err
	}

	return books, total, nil
}

func (r *BookGormRepository) FindByID(ctx context.Context, id int64) (model.Book, error) {
	var b model.Book
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Book{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Book{}, err
	}
	return b, nil
}
