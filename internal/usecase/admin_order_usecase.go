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
)

type AdminOrderUsecase struct {
	tx repo.TransactionManager
}

func NewAdminOrderUsecase(tx repo.TransactionManager) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx}
}

type UpdateOrderStatusInput struct {
	Status string
	Note   string
}

// 全注文の一覧（所有チェックなし）
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.OrderListFilter) (OrderListOutput, error) {
	if f.Page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" && !model.OrderStatus(f.Status).Valid() {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var out OrderListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		summaries, err := toOrderSummaries(ctx, r.OrderItems(), orders)
		if err != nil {
			return err
		}

		out = OrderListOutput{Items: summaries, Total: total, Page: f.Page, Limit: f.Limit}
		return nil
	})

	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

// 注文詳細（所有チェックなし）
func (u *AdminOrderUsecase) GetDetail(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
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

// UpdateStatus はステータス遷移。遷移表に無いペアは全部拒否（同一ステータスも拒否）。
// pending/paid から cancelled へ落とすときだけ在庫を戻す。
// 遷移は条件付きUPDATEで先に確定させるので、同じ遷移を取り合う
// 同時リクエストは片方だけが在庫を戻す。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, orderID int64, in UpdateOrderStatusInput) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.OrderStatus(strings.TrimSpace(in.Status))
	if !newStatus.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if !o.Status.CanTransitionTo(newStatus) {
			return NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("cannot transition from %s to %s", o.Status, newStatus))
		}

		// 遷移元を条件にした確定を先に行う。読んだ後に他のトランザクションが
		// 遷移させていたら0行になるので、在庫戻しが走ることはない
		err = r.Orders().UpdateStatus(ctx, orderID, o.Status, newStatus)
		if errors.Is(err, repo.ErrStatusConflict) {
			return NewHTTPError(http.StatusConflict, "order was updated concurrently")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// cancelledに落とすときだけ在庫戻し。
		// shipped以降は在庫を消費済みで、遷移表上もcancelledへは行けない
		if newStatus == model.OrderStatusCancelled &&
			(o.Status == model.OrderStatusPending || o.Status == model.OrderStatusPaid) {
			items, err := r.OrderItems().ListByOrderID(ctx, orderID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			for _, it := range items {
				if err := r.Inventory().IncreaseStock(ctx, it.BookID, it.Quantity); err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
			}
		}

		if err := r.OrderStatusEvents().Append(ctx, model.OrderStatusEvent{
			OrderID:   orderID,
			Status:    newStatus,
			Note:      strings.TrimSpace(in.Note),
			CreatedAt: time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.Status = newStatus
		return loadOrderOutput(ctx, r, o, &out)
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}
