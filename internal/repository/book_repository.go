package repository

import (
	"bookstore/internal/domain/model"
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// 一覧検索
type BookListQuery struct {
	Page  int
	Limit int
	Q     string
}

// カタログ参照だけを約束（カタログ管理は別システム）。
// 論理削除済みの書籍はどのメソッドからも見えない。
type BookRepository interface {
	ListPublic(ctx context.Context, q BookListQuery) ([]model.Book, int64, error)
	FindByID(ctx context.Context, id int64) (model.Book, error)
}
