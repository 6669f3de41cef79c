package server

import (
	"bookstore/internal/config"
	"bookstore/internal/handler"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(
	e *echo.Echo,
	cfg config.Config,
	bookH *handler.BookHandler,
	cartH *handler.CartHandler,
	orderH *handler.OrderHandler,
	adminOrderH *handler.AdminOrderHandler,
) {
	bookH.RegisterRoutes(e)
	cartH.RegisterRoutes(e, cfg)
	orderH.RegisterRoutes(e, cfg)
	adminOrderH.RegisterRoutes(e, cfg)
}
