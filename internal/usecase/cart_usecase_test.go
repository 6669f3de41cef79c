package usecase_test

import (
	"context"
	"testing"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
	"bookstore/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCartMocks() (*CartItemRepoMock, *BookRepoMock, *InventoryRepoMock) {
	return new(CartItemRepoMock), new(BookRepoMock), new(InventoryRepoMock)
}

// =====================
// AddItem
// =====================

func TestCartUsecase_AddItem_NewEntry(t *testing.T) {
	ctx := context.Background()
	carts, books, inv := newCartMocks()

	userID := int64(7)
	book := model.Book{ID: 100, Title: "Book One", Author: "Author A", Price: decimal.RequireFromString("19.99"), StockQuantity: 5}

	books.On("FindByID", mock.Anything, int64(100)).Return(book, nil)
	carts.On("FindByUserAndBook", mock.Anything, userID, int64(100)).Return(model.CartItem{}, repo.ErrNotFound)

	carts.On("Create", mock.Anything, mock.MatchedBy(func(it model.CartItem) bool {
		// 期限は追加時点から7日後
		return it.UserID == userID &&
			it.BookID == 100 &&
			it.Quantity == 2 &&
			it.ExpiresAt.Sub(it.AddedAt) == model.CartItemTTL
	})).Return(model.CartItem{ID: 1, UserID: userID, BookID: 100, Quantity: 2}, nil)

	carts.On("ListActiveByUserID", mock.Anything, userID).Return([]model.CartItem{
		{ID: 1, UserID: userID, BookID: 100, Quantity: 2},
	}, nil)

	uc := usecase.NewCartUsecase(carts, books, inv)

	resp, err := uc.AddItem(ctx, userID, usecase.AddCartInput{BookID: 100, Quantity: 2})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(resp.Items))
	assert.Equal(t, int64(2), resp.TotalItems)
	assert.True(t, resp.Subtotal.Equal(decimal.RequireFromString("39.98")))

	carts.AssertExpectations(t)
}

// 同じ書籍は数量加算（明細は増えない）
func TestCartUsecase_AddItem_ExistingEntry_SumsQuantity(t *testing.T) {
	ctx := context.Background()
	carts, books, inv := newCartMocks()

	userID := int64(7)
	book := model.Book{ID: 100, Title: "Book One", Price: decimal.New(10, 0), StockQuantity: 10}

	books.On("FindByID", mock.Anything, int64(100)).Return(book, nil)
	carts.On("FindByUserAndBook", mock.Anything, userID, int64(100)).Return(model.CartItem{
		ID: 1, UserID: userID, BookID: 100, Quantity: 2,
	}, nil)
	carts.On("UpdateQuantityAndExpiry", mock.Anything, int64(1), int64(5), mock.Anything).Return(nil)
	carts.On("ListActiveByUserID", mock.Anything, userID).Return([]model.CartItem{
		{ID: 1, UserID: userID, BookID: 100, Quantity: 5},
	}, nil)

	uc := usecase.NewCartUsecase(carts, books, inv)

	resp, err := uc.AddItem(ctx, userID, usecase.AddCartInput{BookID: 100, Quantity: 3})
	assert.NoError(t, err)
	assert.Equal(t, int64(5), resp.TotalItems)

	carts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	carts.AssertExpectations(t)
}

// 加算後の数量が現在庫を超えるケース
func TestCartUsecase_AddItem_ExceedsStock(t *testing.T) {
	ctx := context.Background()
	carts, books, inv := newCartMocks()

	userID := int64(7)
	books.On("FindByID", mock.Anything, int64(100)).Return(model.Book{
		ID: 100, Title: "Book One", Price: decimal.New(10, 0), StockQuantity: 3,
	}, nil)
	carts.On("FindByUserAndBook", mock.Anything, userID, int64(100)).Return(model.CartItem{
		ID: 1, UserID: userID, BookID: 100, Quantity: 2,
	}, nil)

	uc := usecase.NewCartUsecase(carts, books, inv)

	_, err := uc.AddItem(ctx, userID, usecase.AddCartInput{BookID: 100, Quantity: 2})
	assertErrContains(t, err, "only 3 items available")

	carts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	carts.AssertNotCalled(t, "UpdateQuantityAndExpiry", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCartUsecase_AddItem_BookNotFound(t *testing.T) {
	ctx := context.Background()
	carts, books, inv := newCartMocks()

	books.On("FindByID", mock.Anything, int64(999)).Return(model.Book{}, repo.ErrNotFound)

	uc := usecase.NewCartUsecase(carts, books, inv)

	_, err := uc.AddItem(ctx, 7, usecase.AddCartInput{BookID: 999, Quantity: 1})
	assertErrContains(t, err, "book not found")
}

func TestCartUsecase_AddItem_InvalidQuantity(t *testing.T) {
	carts, books, inv := newCartMocks()
	uc := usecase.NewCartUsecase(carts, books, inv)

	_, err := uc.AddItem(context.Background(), 7, usecase.AddCartInput{BookID: 100, Quantity: 0})
	assertErrContains(t, err, "invalid quantity")
}

// =====================
// GetCart
// =====================

// 削除済み書籍の明細は出力から除外され、小計にも入らない
func TestCartUsecase_GetCart_SkipsDeletedBooks(t *testing.T) {
	ctx := context.Background()
	carts, books, inv := newCartMocks()

	userID := int64(7)
	carts.On("ListActiveByUserID", mock.Anything, userID).Return([]model.CartItem{
		{ID: 1, UserID: userID, BookID: 100, Quantity: 2},
		{ID: 2, UserID: userID, BookID: 200, Quantity: 1},
	}, nil)
	books.On("FindByID", mock.Anything, int64(100)).Return(model.Book{
		ID: 100, Title: "Book One", Price: decimal.RequireFromString("19.99"), StockQuantity: 5,
	}, nil)
	books.On("FindByID", mock.Anything, int64(200)).Return(model.Book{}, repo.ErrNotFound)

	uc := usecase.NewCartUsecase(carts, books, inv)

	resp, err := uc.GetCart(ctx, userID)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(resp.Items))
	assert.Equal(t, int64(100), resp.Items[0].BookID)
	assert.True(t, resp.Subtotal.Equal(decimal.RequireFromString("39.98")))
}

func TestCartUsecase_GetCart_Empty(t *testing.T) {
	ctx := context.Background()
	carts, books, inv := newCartMocks()

	carts.On("ListActiveByUserID", mock.Anything, int64(7)).Return([]model.CartItem{}, nil)

	uc := usecase.NewCartUsecase(carts, books, inv)

	resp, err := uc.GetCart(ctx, 7)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(resp.Items))
	assert.True(t, resp.Subtotal.IsZero())
}

// =====================
// UpdateItem / RemoveItem
// =====================

// 他人の明細は所有チェックでNotFound
func TestCartUsecase_UpdateItem_NotOwned(t *testing.T) {
	ctx := context.Background()
	carts, books, inv := newCartMocks()

	carts.On("FindByIDForUser", mock.Anything, int64(1), int64(8)).Return(model.CartItem{}, repo.ErrNotFound)

	uc := usecase.NewCartUsecase(carts, books, inv)

	_, err := uc.UpdateItem(ctx, 8, 1, usecase.UpdateCartItemInput{Quantity: 2})
	assertErrContains(t, err, "cart item not found")

	carts.AssertNotCalled(t, "UpdateQuantityAndExpiry", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCartUsecase_UpdateItem_ExceedsStock(t *testing.T) {
	ctx := context.Background()
	carts, books, inv := newCartMocks()

	userID := int64(7)
	carts.On("FindByIDForUser", mock.Anything, int64(1), userID).Return(model.CartItem{
		ID: 1, UserID: userID, BookID: 100, Quantity: 1,
	}, nil)
	books.On("FindByID", mock.Anything, int64(100)).Return(model.Book{
		ID: 100, Title: "Book One", Price: decimal.New(10, 0), StockQuantity: 2,
	}, nil)

	uc := usecase.NewCartUsecase(carts, books, inv)

	_, err := uc.UpdateItem(ctx, userID, 1, usecase.UpdateCartItemInput{Quantity: 5})
	assertErrContains(t, err, "only 2 items available")
}

func TestCartUsecase_RemoveItem_NotOwned(t *testing.T) {
	ctx := context.Background()
	carts, books, inv := newCartMocks()

	carts.On("FindByIDForUser", mock.Anything, int64(1), int64(8)).Return(model.CartItem{}, repo.ErrNotFound)

	uc := usecase.NewCartUsecase(carts, books, inv)

	_, err := uc.RemoveItem(ctx, 8, 1)
	assertErrContains(t, err, "cart item not found")

	carts.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
}

func TestCartUsecase_ClearCart(t *testing.T) {
	ctx := context.Background()
	carts, books, inv := newCartMocks()

	carts.On("ClearByUserID", mock.Anything, int64(7)).Return(nil)

	uc := usecase.NewCartUsecase(carts, books, inv)

	assert.NoError(t, uc.ClearCart(ctx, 7))
	carts.AssertExpectations(t)
}

// =====================
// ValidateForCheckout
// =====================

func TestCartUsecase_ValidateForCheckout_OK(t *testing.T) {
	ctx := context.Background()
	carts, books, inv := newCartMocks()

	userID := int64(7)
	carts.On("ListActiveByUserID", mock.Anything, userID).Return([]model.CartItem{
		{ID: 1, UserID: userID, BookID: 100, Quantity: 2, ExpiresAt: time.Now().Add(time.Hour)},
	}, nil)
	books.On("FindByID", mock.Anything, int64(100)).Return(model.Book{
		ID: 100, Title: "Book One", Price: decimal.RequireFromString("19.99"), StockQuantity: 5,
	}, nil)
	inv.On("GetStock", mock.Anything, int64(100)).Return(int64(5), nil)

	uc := usecase.NewCartUsecase(carts, books, inv)

	resp, err := uc.ValidateForCheckout(ctx, userID)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(resp.Items))
	assert.True(t, resp.Subtotal.Equal(decimal.RequireFromString("39.98")))
}

// 一部だけ不足している場合、その書名と現在庫を返す
func TestCartUsecase_ValidateForCheckout_InsufficientNamesBook(t *testing.T) {
	ctx := context.Background()
	carts, books, inv := newCartMocks()

	userID := int64(7)
	carts.On("ListActiveByUserID", mock.Anything, userID).Return([]model.CartItem{
		{ID: 1, UserID: userID, BookID: 100, Quantity: 2, ExpiresAt: time.Now().Add(time.Hour)},
		{ID: 2, UserID: userID, BookID: 101, Quantity: 3, ExpiresAt: time.Now().Add(time.Hour)},
	}, nil)
	books.On("FindByID", mock.Anything, int64(100)).Return(model.Book{
		ID: 100, Title: "Book A", Price: decimal.New(10, 0), StockQuantity: 5,
	}, nil)
	books.On("FindByID", mock.Anything, int64(101)).Return(model.Book{
		ID: 101, Title: "Book B", Price: decimal.New(10, 0), StockQuantity: 2,
	}, nil)
	inv.On("GetStock", mock.Anything, int64(100)).Return(int64(5), nil)
	inv.On("GetStock", mock.Anything, int64(101)).Return(int64(2), nil)

	uc := usecase.NewCartUsecase(carts, books, inv)

	_, err := uc.ValidateForCheckout(ctx, userID)
	assertErrContains(t, err, "insufficient stock for 'Book B'. available: 2")
}

// 読み出しから検証までの間に期限を跨いだ明細は検証対象に入らない。
// SQL側のフィルタをすり抜けた読み値もここで落ちる
func TestCartUsecase_ValidateForCheckout_ExpiredEntriesExcluded(t *testing.T) {
	ctx := context.Background()
	carts, books, inv := newCartMocks()

	carts.On("ListActiveByUserID", mock.Anything, int64(7)).Return([]model.CartItem{
		{ID: 1, UserID: 7, BookID: 100, Quantity: 2, ExpiresAt: time.Now().Add(-time.Minute)},
	}, nil)

	uc := usecase.NewCartUsecase(carts, books, inv)

	_, err := uc.ValidateForCheckout(ctx, 7)
	assertErrContains(t, err, "cart is empty")

	books.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	inv.AssertNotCalled(t, "GetStock", mock.Anything, mock.Anything)
}

func TestCartUsecase_ValidateForCheckout_EmptyCart(t *testing.T) {
	ctx := context.Background()
	carts, books, inv := newCartMocks()

	carts.On("ListActiveByUserID", mock.Anything, int64(7)).Return([]model.CartItem{}, nil)

	uc := usecase.NewCartUsecase(carts, books, inv)

	_, err := uc.ValidateForCheckout(ctx, 7)
	assertErrContains(t, err, "cart is empty")
}

// =====================
// PurgeExpired
// =====================

func TestCartUsecase_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	carts, books, inv := newCartMocks()

	carts.On("DeleteExpired", mock.Anything, mock.MatchedBy(func(now time.Time) bool {
		return !now.IsZero()
	})).Return(int64(3), nil)

	uc := usecase.NewCartUsecase(carts, books, inv)

	n, err := uc.PurgeExpired(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
