package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Books() BookRepository
	Inventory() InventoryRepository
	CartItems() CartItemRepository
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	OrderStatusEvents() OrderStatusEventRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// fnがエラーを返したら全部ロールバック（部分コミットは無し）。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
