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

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// カタログの公開参照だけ。カタログ管理（登録・価格変更）は別システム。
type BookUsecase struct {
	bookRepo repo.BookRepository
}

// DI
func NewBookUsecase(bookRepo repo.BookRepository) *BookUsecase {
	return &BookUsecase{bookRepo: bookRepo}
}

type BookOutput struct {
	ID            int64           `json:"id"`
	Title         string          `json:"title"`
	Author        string          `json:"author"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int64           `json:"stock_quantity"`
	CreatedAt     time.Time       `json:"created_at"`
}

type BookListOutput struct {
	Items []BookOutput `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

func (u *BookUsecase) List(ctx context.Context, q repo.BookListQuery) (BookListOutput, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}

	books, total, err := u.bookRepo.ListPublic(ctx, q)
	if err != nil {
		return BookListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items := make([]BookOutput, 0, len(books))
	for _, b := range books {
		items = append(items, toBookOutput(b))
	}

	return BookListOutput{Items: items, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

func (u *BookUsecase) Detail(ctx context.Context, id int64) (BookOutput, error) {
	if id <= 0 {
		return BookOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	b, err := u.bookRepo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return BookOutput{}, NewHTTPError(http.StatusNotFound, "book not found")
	}
	if err != nil {
		return BookOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toBookOutput(b), nil
}

func toBookOutput(b model.Book) BookOutput {
	return BookOutput{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		Description:   b.Description,
		Price:         b.Price,
		StockQuantity: b.StockQuantity,
		CreatedAt:     b.CreatedAt,
	}
}
