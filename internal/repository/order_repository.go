package repository

import (
	"context"
	"errors"

	"bookstore/internal/domain/model"
)

// 遷移元ステータスが期待値と違った（他のトランザクションが先に遷移させた）
var ErrStatusConflict = errors.New("status conflict")

// 管理者用の一覧フィルタ
type OrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
}

type OrderRepository interface {
	Create(ctx context.Context, order model.Order) (int64, error)
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// 所有チェック込み（他人の注文はErrNotFound扱い）
	FindByIDForUser(ctx context.Context, orderID int64, userID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, status string, page int, limit int) ([]model.Order, int64, error)
	// 管理者用の注文一覧
	ListAdmin(ctx context.Context, f OrderListFilter) ([]model.Order, int64, error)
	// 現在のステータスがfromのときだけtoへ更新する（条件付きUPDATE）。
	// 一致しなければErrStatusConflict。在庫戻しはこれが成功してから行うこと
	UpdateStatus(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus) error
}
