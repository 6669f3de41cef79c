package repository

import (
	"context"

	repo "bookstore/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	books      repo.BookRepository
	inventory  repo.InventoryRepository
	cartItems  repo.CartItemRepository
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	events     repo.OrderStatusEventRepository
}

func (r *txReposGorm) Books() repo.BookRepository                         { return r.books }
func (r *txReposGorm) Inventory() repo.InventoryRepository                { return r.inventory }
func (r *txReposGorm) CartItems() repo.CartItemRepository                 { return r.cartItems }
func (r *txReposGorm) Orders() repo.OrderRepository                       { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository               { return r.orderItems }
func (r *txReposGorm) OrderStatusEvents() repo.OrderStatusEventRepository { return r.events }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			books:      NewBookGormRepository(tx),
			inventory:  NewInventoryGormRepository(tx),
			cartItems:  NewCartItemGormRepository(tx),
			orders:     NewOrderGormRepository(tx),
			orderItems: NewOrderItemGormRepository(tx),
			events:     NewOrderStatusEventGormRepository(tx),
		}
		return fn(r)
	})
}
