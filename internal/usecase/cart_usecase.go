package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecase は /cart の業務ロジック。
// カートは在庫を確保しない。在庫との突き合わせは参照だけで、
// 確保は注文確定（OrderUsecase.CreateOrder）のトランザクション内で行う。
type CartUsecase struct {
	cartItemRepo  repo.CartItemRepository
	bookRepo      repo.BookRepository
	inventoryRepo repo.InventoryRepository
}

func NewCartUsecase(
	cartItemRepo repo.CartItemRepository,
	bookRepo repo.BookRepository,
	inventoryRepo repo.InventoryRepository,
) *CartUsecase {
	return &CartUsecase{
		cartItemRepo:  cartItemRepo,
		bookRepo:      bookRepo,
		inventoryRepo: inventoryRepo,
	}
}

type CartItemResponse struct {
	ID        int64           `json:"id"`
	BookID    int64           `json:"book_id"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	AddedAt   time.Time       `json:"added_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

type CartResponse struct {
	Items      []CartItemResponse `json:"items"`
	TotalItems int64              `json:"total_items"`
	Subtotal   decimal.Decimal    `json:"subtotal"`
}

type AddCartInput struct {
	BookID   int64
	Quantity int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

// GetCart はカート取得。
// 削除済み書籍を参照している明細は出力から黙って除外する（ストレージからは消さない）。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return buildCartResponse(ctx, u.cartItemRepo, u.bookRepo, userID)
}

// AddItem はカートに追加（同一書籍は数量加算、期限は now+7日 に引き直し）。
func (u *CartUsecase) AddItem(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.BookID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid book_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	// 書籍チェック（削除済みはNotFound）
	b, err := u.bookRepo.FindByID(ctx, in.BookID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "book not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// 既存数量との合算で現在庫を超えないか
	existing, err := u.cartItemRepo.FindByUserAndBook(ctx, userID, in.BookID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	newQty := in.Quantity
	if err == nil {
		newQty += existing.Quantity
	}
	if newQty > b.StockQuantity {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("only %d items available", b.StockQuantity))
	}

	now := time.Now()
	expiresAt := now.Add(model.CartItemTTL)

	if err == nil {
		// 既存ありは加算して期限を引き直す
		if err := u.cartItemRepo.UpdateQuantityAndExpiry(ctx, existing.ID, newQty, expiresAt); err != nil {
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	} else {
		if _, err := u.cartItemRepo.Create(ctx, model.CartItem{
			UserID:    userID,
			BookID:    in.BookID,
			Quantity:  in.Quantity,
			AddedAt:   now,
			ExpiresAt: expiresAt,
		}); err != nil {
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	return buildCartResponse(ctx, u.cartItemRepo, u.bookRepo, userID)
}

// UpdateItem は数量変更（所有チェック＋在庫チェック、期限引き直し）。
func (u *CartUsecase) UpdateItem(ctx context.Context, userID int64, cartItemID int64, in UpdateCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	item, err := u.cartItemRepo.FindByIDForUser(ctx, cartItemID, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "cart item not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	b, err := u.bookRepo.FindByID(ctx, item.BookID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "book not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if in.Quantity > b.StockQuantity {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("only %d items available", b.StockQuantity))
	}

	if err := u.cartItemRepo.UpdateQuantityAndExpiry(ctx, cartItemID, in.Quantity, time.Now().Add(model.CartItemTTL)); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "cart item not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return buildCartResponse(ctx, u.cartItemRepo, u.bookRepo, userID)
}

// RemoveItem は明細削除（在庫には触らない）。
func (u *CartUsecase) RemoveItem(ctx context.Context, userID int64, cartItemID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	item, err := u.cartItemRepo.FindByIDForUser(ctx, cartItemID, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "cart item not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.cartItemRepo.DeleteByID(ctx, item.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "cart item not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return buildCartResponse(ctx, u.cartItemRepo, u.bookRepo, userID)
}

// ClearCart は全明細削除。
func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.cartItemRepo.ClearByUserID(ctx, userID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// ValidateForCheckout はチェックアウト直前の最終ゲート。
// カートが空なら400、在庫不足なら最初に引っかかった書籍名を返して400。
func (u *CartUsecase) ValidateForCheckout(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	lines, subtotal, err := validateCartForCheckout(ctx, u.cartItemRepo, u.bookRepo, u.inventoryRepo, userID)
	if err != nil {
		return CartResponse{}, err
	}

	return cartResponseFromLines(lines, subtotal), nil
}

// PurgeExpired は期限切れ明細の掃除（定期実行用）。
func (u *CartUsecase) PurgeExpired(ctx context.Context) (int64, error) {
	return u.cartItemRepo.DeleteExpired(ctx, time.Now())
}

// =====================
// チェックアウト検証（OrderUsecaseがトランザクション内からも呼ぶ）
// =====================

// 検証済みカートの1行。bookは検証時点の読み値
type checkoutLine struct {
	Item model.CartItem
	Book model.Book
}

// validateCartForCheckout はカートを引き直して在庫と突き合わせる。
// 削除済み書籍の明細は除外。空なら「cart is empty」、
// 在庫不足は最初の1冊の書名を挙げて返す。
func validateCartForCheckout(
	ctx context.Context,
	cartItems repo.CartItemRepository,
	books repo.BookRepository,
	inventory repo.InventoryRepository,
	userID int64,
) ([]checkoutLine, decimal.Decimal, error) {
	items, err := cartItems.ListActiveByUserID(ctx, userID)
	if err != nil {
		return nil, decimal.Zero, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	lines := make([]checkoutLine, 0, len(items))
	subtotal := decimal.Zero
	now := time.Now()

	for _, it := range items {
		// 読み出しから検証までの間に期限を跨いだ明細はここで落とす
		if it.Expired(now) {
			continue
		}

		b, err := books.FindByID(ctx, it.BookID)
		if errors.Is(err, repo.ErrNotFound) {
			// 削除済み書籍の明細は黙って除外
			continue
		}
		if err != nil {
			return nil, decimal.Zero, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		lines = append(lines, checkoutLine{Item: it, Book: b})
	}

	if len(lines) == 0 {
		return nil, decimal.Zero, NewHTTPError(http.StatusBadRequest, "cart is empty")
	}

	for _, line := range lines {
		stock, err := inventory.GetStock(ctx, line.Item.BookID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, decimal.Zero, NewHTTPError(http.StatusNotFound, "book not found")
		}
		if err != nil {
			return nil, decimal.Zero, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if stock < line.Item.Quantity {
			return nil, decimal.Zero, NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("insufficient stock for '%s'. available: %d", line.Book.Title, stock))
		}

		subtotal = subtotal.Add(line.Book.Price.Mul(decimal.NewFromInt(line.Item.Quantity)))
	}

	return lines, subtotal.Round(2), nil
}

func cartResponseFromLines(lines []checkoutLine, subtotal decimal.Decimal) CartResponse {
	respItems := make([]CartItemResponse, 0, len(lines))
	var totalItems int64 = 0

	for _, line := range lines {
		respItems = append(respItems, CartItemResponse{
			ID:        line.Item.ID,
			BookID:    line.Item.BookID,
			Title:     line.Book.Title,
			Author:    line.Book.Author,
			Price:     line.Book.Price,
			Quantity:  line.Item.Quantity,
			AddedAt:   line.Item.AddedAt,
			ExpiresAt: line.Item.ExpiresAt,
		})
		totalItems += line.Item.Quantity
	}

	return CartResponse{Items: respItems, TotalItems: totalItems, Subtotal: subtotal}
}

// カート表示用。在庫チェックはせず、削除済み書籍だけ除外する
func buildCartResponse(ctx context.Context, cartItems repo.CartItemRepository, books repo.BookRepository, userID int64) (CartResponse, error) {
	items, err := cartItems.ListActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	lines := make([]checkoutLine, 0, len(items))
	subtotal := decimal.Zero

	for _, it := range items {
		b, err := books.FindByID(ctx, it.BookID)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		lines = append(lines, checkoutLine{Item: it, Book: b})
		subtotal = subtotal.Add(b.Price.Mul(decimal.NewFromInt(it.Quantity)))
	}

	return cartResponseFromLines(lines, subtotal.Round(2)), nil
}
