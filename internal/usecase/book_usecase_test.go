package usecase_test

import (
	"context"
	"testing"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"
	"bookstore/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestBookUsecase_List_NormalizesPagination(t *testing.T) {
	ctx := context.Background()
	books := new(BookRepoMock)

	// page/limitの不正値はデフォルトに丸めてからrepoへ渡す
	books.On("ListPublic", mock.Anything, repo.BookListQuery{Page: 1, Limit: 20}).Return([]model.Book{
		{ID: 1, Title: "Book One", Price: decimal.RequireFromString("19.99"), StockQuantity: 5},
	}, int64(1), nil)

	uc := usecase.NewBookUsecase(books)

	out, err := uc.List(ctx, repo.BookListQuery{Page: 0, Limit: 500})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out.Items))
	assert.Equal(t, 1, out.Page)
	assert.Equal(t, 20, out.Limit)
	assert.True(t, out.Items[0].Price.Equal(decimal.RequireFromString("19.99")))

	books.AssertExpectations(t)
}

func TestBookUsecase_Detail_NotFound(t *testing.T) {
	ctx := context.Background()
	books := new(BookRepoMock)

	books.On("FindByID", mock.Anything, int64(999)).Return(model.Book{}, repo.ErrNotFound)

	uc := usecase.NewBookUsecase(books)

	_, err := uc.Detail(ctx, 999)
	assertErrContains(t, err, "book not found")
}

func TestBookUsecase_Detail_InvalidID(t *testing.T) {
	uc := usecase.NewBookUsecase(new(BookRepoMock))

	_, err := uc.Detail(context.Background(), 0)
	assertErrContains(t, err, "invalid id")
}
