package main

import (
	"context"
	"log"
	"time"

	"bookstore/internal/config"
	"bookstore/internal/domain/model"
	"bookstore/internal/handler"
	"bookstore/internal/infra/db"
	infraRepo "bookstore/internal/infra/repository"
	"bookstore/internal/server"
	"bookstore/internal/usecase"

	"github.com/joho/godotenv"
)

func main() {
	// .envは無ければ環境変数だけで動く
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// DB接続
	gormDB, err := db.Connect()
	if err != nil {
		log.Fatal(err)
	}
	if err := gormDB.AutoMigrate(
		&model.Book{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusEvent{},
	); err != nil {
		log.Fatal(err)
	}

	// Repository（GORM実装）生成
	bookRepo := infraRepo.NewBookGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	// Usecase生成
	bookUC := usecase.NewBookUsecase(bookRepo)
	cartUC := usecase.NewCartUsecase(cartItemRepo, bookRepo, inventoryRepo)
	orderUC := usecase.NewOrderUsecase(txManager)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager)

	// Handler生成
	bookH := handler.NewBookHandler(bookUC)
	cartH := handler.NewCartHandler(cartUC)
	orderH := handler.NewOrderHandler(orderUC)
	adminOrderH := handler.NewAdminOrderHandler(adminOrderUC)

	// 期限切れカートの定期掃除
	go func() {
		t := time.NewTicker(1 * time.Hour)
		defer t.Stop()
		for range t.C {
			n, err := cartUC.PurgeExpired(context.Background())
			if err != nil {
				log.Printf("purge expired cart items: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("purged %d expired cart items", n)
			}
		}
	}()

	// Server起動
	e := server.New(cfg, bookH, cartH, orderH, adminOrderH)
	if err := server.Start(e, ":"+cfg.Port); err != nil {
		log.Fatal(err)
	}
}
