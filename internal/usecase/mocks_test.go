package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	books      repo.BookRepository
	inventory  repo.InventoryRepository
	cartItems  repo.CartItemRepository
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	events     repo.OrderStatusEventRepository
}

func (r *TxReposMock) Books() repo.BookRepository                         { return r.books }
func (r *TxReposMock) Inventory() repo.InventoryRepository                { return r.inventory }
func (r *TxReposMock) CartItems() repo.CartItemRepository                 { return r.cartItems }
func (r *TxReposMock) Orders() repo.OrderRepository                       { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository               { return r.orderItems }
func (r *TxReposMock) OrderStatusEvents() repo.OrderStatusEventRepository { return r.events }

// =====================
// Repository mocks
// =====================

type BookRepoMock struct{ mock.Mock }

func (m *BookRepoMock) ListPublic(ctx context.Context, q repo.BookListQuery) ([]model.Book, int64, error) {
	args := m.Called(ctx, q)
	books, _ := args.Get(0).([]model.Book)
	return books, args.Get(1).(int64), args.Error(2)
}

func (m *BookRepoMock) FindByID(ctx context.Context, id int64) (model.Book, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(model.Book)
	return b, args.Error(1)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) GetStock(ctx context.Context, bookID int64) (int64, error) {
	args := m.Called(ctx, bookID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *InventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, bookID int64, qty int64) (bool, error) {
	args := m.Called(ctx, bookID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) IncreaseStock(ctx context.Context, bookID int64, qty int64) error {
	args := m.Called(ctx, bookID, qty)
	return args.Error(0)
}

type CartItemRepoMock struct{ mock.Mock }

func (m *CartItemRepoMock) ListActiveByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) FindByUserAndBook(ctx context.Context, userID int64, bookID int64) (model.CartItem, error) {
	args := m.Called(ctx, userID, bookID)
	item, _ := args.Get(0).(model.CartItem)
	return item, args.Error(1)
}

func (m *CartItemRepoMock) FindByIDForUser(ctx context.Context, cartItemID int64, userID int64) (model.CartItem, error) {
	args := m.Called(ctx, cartItemID, userID)
	item, _ := args.Get(0).(model.CartItem)
	return item, args.Error(1)
}

func (m *CartItemRepoMock) Create(ctx context.Context, item model.CartItem) (model.CartItem, error) {
	args := m.Called(ctx, item)
	created, _ := args.Get(0).(model.CartItem)
	return created, args.Error(1)
}

func (m *CartItemRepoMock) UpdateQuantityAndExpiry(ctx context.Context, cartItemID int64, qty int64, expiresAt time.Time) error {
	args := m.Called(ctx, cartItemID, qty, expiresAt)
	return args.Error(0)
}

func (m *CartItemRepoMock) DeleteByID(ctx context.Context, cartItemID int64) error {
	args := m.Called(ctx, cartItemID)
	return args.Error(0)
}

func (m *CartItemRepoMock) ClearByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *CartItemRepoMock) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByIDForUser(ctx context.Context, orderID int64, userID int64) (model.Order, error) {
	args := m.Called(ctx, orderID, userID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64, status string, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, status, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus) error {
	args := m.Called(ctx, orderID, from, to)
	return args.Error(0)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type OrderStatusEventRepoMock struct{ mock.Mock }

func (m *OrderStatusEventRepoMock) Append(ctx context.Context, ev model.OrderStatusEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *OrderStatusEventRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderStatusEvent, error) {
	args := m.Called(ctx, orderID)
	events, _ := args.Get(0).([]model.OrderStatusEvent)
	return events, args.Error(1)
}

// =====================
// Helper: error contains（HTTPErrorの実装詳細に依存しない）
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}
