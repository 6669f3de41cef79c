package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"github.com/shopspring/decimal"
)

type OrderUsecase struct {
	tx repo.TransactionManager
}

func NewOrderUsecase(tx repo.TransactionManager) *OrderUsecase {
	return &OrderUsecase{tx: tx}
}

type CreateOrderInput struct {
	ShippingAddress string
}

type OrderItemOutput struct {
	ID              int64           `json:"id"`
	BookID          int64           `json:"book_id"`
	Title           string          `json:"title"`
	Quantity        int64           `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

type OrderStatusEventOutput struct {
	Status    string    `json:"status"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

type OrderOutput struct {
	ID               int64                    `json:"id"`
	UserID           int64                    `json:"user_id"`
	Status           string                   `json:"status"`
	TotalAmount      decimal.Decimal          `json:"total_amount"`
	ShippingAddress  string                   `json:"shipping_address"`
	PaymentReference string                   `json:"payment_reference,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
	Items            []OrderItemOutput        `json:"items"`
	StatusHistory    []OrderStatusEventOutput `json:"status_history"`
}

type OrderSummaryOutput struct {
	ID          int64           `json:"id"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int64           `json:"item_count"`
	CreatedAt   time.Time       `json:"created_at"`
}

type OrderListOutput struct {
	Items []OrderSummaryOutput `json:"items"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

// CreateOrder は検証済みカートから注文を作る。
// 検証・注文作成・在庫確保・明細スナップショット・履歴追記・カートクリアを
// 1つのトランザクションで行う。どこかで失敗したら全部無かったことになる
// （一部の書籍だけ確保された注文は外から絶対に見えない）。
func (u *OrderUsecase) CreateOrder(ctx context.Context, userID int64, in CreateOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	addr := strings.TrimSpace(in.ShippingAddress)
	if addr == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid shipping_address")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// チェックアウト直前の最終検証。在庫の読み値もこのトランザクション内
		lines, subtotal, err := validateCartForCheckout(ctx, r.CartItems(), r.Books(), r.Inventory(), userID)
		if err != nil {
			return err
		}

		now := time.Now()
		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:          userID,
			Status:          model.OrderStatusPending,
			TotalAmount:     subtotal,
			ShippingAddress: addr,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 在庫確保。条件付きUPDATEが現在値を再読みするので、
		// 検証後に他の注文へ取られていたらここで false になりロールバック
		orderItems := make([]model.OrderItem, 0, len(lines))
		for _, line := range lines {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, line.Item.BookID, line.Item.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest,
					fmt.Sprintf("insufficient stock for '%s'", line.Book.Title))
			}

			// 価格スナップショット（以後カタログ価格が変わっても影響しない）
			orderItems = append(orderItems, model.OrderItem{
				BookID:            line.Item.BookID,
				BookTitleSnapshot: line.Book.Title,
				Quantity:          line.Item.Quantity,
				PriceAtPurchase:   line.Book.Price,
				CreatedAt:         now,
			})
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.OrderStatusEvents().Append(ctx, model.OrderStatusEvent{
			OrderID:   orderID,
			Status:    model.OrderStatusPending,
			Note:      "Order created",
			CreatedAt: now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// カートはコミットと同時に空になる（失敗したら残る）
		if err := r.CartItems().ClearByUserID(ctx, userID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		created := model.Order{
			ID:              orderID,
			UserID:          userID,
			Status:          model.OrderStatusPending,
			TotalAmount:     subtotal,
			ShippingAddress: addr,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		events := []model.OrderStatusEvent{
			{OrderID: orderID, Status: model.OrderStatusPending, Note: "Order created", CreatedAt: now},
		}
		out = toOrderOutput(created, orderItems, events)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// ListMyOrders は自分の注文一覧（サマリ）。
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, status string, page int, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	// 管理者側の一覧と同じ扱い（黙って丸めない）
	if page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	status = strings.TrimSpace(status)
	if status != "" && !model.OrderStatus(status).Valid() {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var out OrderListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, status, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		summaries, err := toOrderSummaries(ctx, r.OrderItems(), orders)
		if err != nil {
			return err
		}

		out = OrderListOutput{Items: summaries, Total: total, Page: page, Limit: limit}
		return nil
	})

	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

// GetMyOrder は注文詳細（明細＋履歴）。他人の注文は「存在しない扱い」。
func (u *OrderUsecase) GetMyOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUser(ctx, orderID, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		return loadOrderOutput(ctx, r, o, &out)
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// CancelOrder はユーザー自身によるキャンセル。pendingの注文だけが対象。
// 在庫戻しとステータス変更は同じトランザクションで行う。
// 遷移は条件付きUPDATEで確定させてから在庫を戻すので、
// 2回目の呼び出しも同時実行も二重戻しにはならない。
func (u *OrderUsecase) CancelOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUser(ctx, orderID, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 管理者の遷移表よりも厳しい（paid以降はユーザーからは直接キャンセルできない）
		if o.Status != model.OrderStatusPending {
			return NewHTTPError(http.StatusBadRequest, "only pending orders can be cancelled")
		}

		// 先に遷移を確定させる。条件付きUPDATEなので、同時キャンセルや
		// 管理者の遷移と競合したら負けた側は0行になり、在庫には一切触らない
		err = r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusPending, model.OrderStatusCancelled)
		if errors.Is(err, repo.ErrStatusConflict) {
			return NewHTTPError(http.StatusConflict, "order was updated concurrently")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		for _, it := range items {
			if err := r.Inventory().IncreaseStock(ctx, it.BookID, it.Quantity); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		if err := r.OrderStatusEvents().Append(ctx, model.OrderStatusEvent{
			OrderID:   orderID,
			Status:    model.OrderStatusCancelled,
			Note:      "Cancelled by user",
			CreatedAt: time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.Status = model.OrderStatusCancelled
		return loadOrderOutput(ctx, r, o, &out)
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// GetOrderTracking はステータス履歴（created_at昇順）。
func (u *OrderUsecase) GetOrderTracking(ctx context.Context, userID int64, orderID int64) ([]OrderStatusEventOutput, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var outs []OrderStatusEventOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Orders().FindByIDForUser(ctx, orderID, userID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "order not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		events, err := r.OrderStatusEvents().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = toEventOutputs(events)
		return nil
	})

	if err != nil {
		return nil, err
	}
	return outs, nil
}

// =====================
// 出力の組み立て（AdminOrderUsecaseと共用）
// =====================

func loadOrderOutput(ctx context.Context, r repo.TxRepos, o model.Order, out *OrderOutput) error {
	items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	events, err := r.OrderStatusEvents().ListByOrderID(ctx, o.ID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	*out = toOrderOutput(o, items, events)
	return nil
}

func toOrderOutput(o model.Order, items []model.OrderItem, events []model.OrderStatusEvent) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ID:              it.ID,
			BookID:          it.BookID,
			Title:           it.BookTitleSnapshot,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase,
		})
	}

	return OrderOutput{
		ID:               o.ID,
		UserID:           o.UserID,
		Status:           string(o.Status),
		TotalAmount:      o.TotalAmount,
		ShippingAddress:  o.ShippingAddress,
		PaymentReference: o.PaymentReference,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
		Items:            outItems,
		StatusHistory:    toEventOutputs(events),
	}
}

func toEventOutputs(events []model.OrderStatusEvent) []OrderStatusEventOutput {
	outs := make([]OrderStatusEventOutput, 0, len(events))
	for _, ev := range events {
		outs = append(outs, OrderStatusEventOutput{
			Status:    string(ev.Status),
			Note:      ev.Note,
			CreatedAt: ev.CreatedAt,
		})
	}
	return outs
}

func toOrderSummaries(ctx context.Context, orderItems repo.OrderItemRepository, orders []model.Order) ([]OrderSummaryOutput, error) {
	summaries := make([]OrderSummaryOutput, 0, len(orders))
	for _, o := range orders {
		items, err := orderItems.ListByOrderID(ctx, o.ID)
		if err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		var count int64 = 0
		for _, it := range items {
			count += it.Quantity
		}

		summaries = append(summaries, OrderSummaryOutput{
			ID:          o.ID,
			Status:      string(o.Status),
			TotalAmount: o.TotalAmount,
			ItemCount:   count,
			CreatedAt:   o.CreatedAt,
		})
	}
	return summaries, nil
}
