package repository

import "context"

// 在庫数の唯一の更新窓口。
// reserve/release は呼び出し側のトランザクション内で使う前提。
type InventoryRepository interface {
	// 現在庫を取得（存在しない・論理削除済みならErrNotFound）
	GetStock(ctx context.Context, bookID int64) (int64, error)

	// 在庫が足りるときだけ減算（足りなければ false）
	DecreaseStockIfEnough(ctx context.Context, bookID int64, qty int64) (bool, error)

	// 在庫戻し（キャンセル時）。論理削除済みの書籍にも戻せる。
	IncreaseStock(ctx context.Context, bookID int64, qty int64) error
}
