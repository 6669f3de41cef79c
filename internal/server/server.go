package server

import (
	"bookstore/internal/config"
	"bookstore/internal/handler"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

func New(
	cfg config.Config,
	bookH *handler.BookHandler,
	cartH *handler.CartHandler,
	orderH *handler.OrderHandler,
	adminOrderH *handler.AdminOrderHandler,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	RegisterRoutes(e, cfg, bookH, cartH, orderH, adminOrderH)

	return e
}

func Start(e *echo.Echo, addr string) error {
	return e.Start(addr)
}
