package handler

import (
	"net/http"
	"strconv"

	repo "bookstore/internal/repository"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	// 500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// /books の公開API
type BookHandler struct {
	uc *usecase.BookUsecase
}

// DI
func NewBookHandler(uc *usecase.BookUsecase) *BookHandler {
	return &BookHandler{uc: uc}
}

// 公開カタログのルートを登録
func (h *BookHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/books", h.list)
	e.GET("/books/:id", h.detail)
}

func (h *BookHandler) list(c echo.Context) error {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		}
		page = p
	}

	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = l
	}

	out, err := h.uc.List(c.Request().Context(), repo.BookListQuery{
		Page:  page,
		Limit: limit,
		Q:     c.QueryParam("q"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *BookHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.Detail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
