package storage

import (
	"context"
	"fmt"
	"sync"
)

// transactionContextKey はコンテキストにトランザクション参加を記録するためのキーです。
type transactionContextKey struct{}

var txContextKey = transactionContextKey{}

// SerialTransactionManager は論理操作を直列化するトランザクション制御です。
// ストアはドキュメント単位の置き換えしかできないため、複数コレクションに
// またがる変更は書き込みロックで囲み、途中状態が読者から観測されないように
// します。同じコンテキスト内での入れ子呼び出しは外側のロックに相乗りします。
type SerialTransactionManager struct {
	mu sync.RWMutex
}

// NewSerialTransactionManager は SerialTransactionManager を生成します。
func NewSerialTransactionManager() *SerialTransactionManager {
	return &SerialTransactionManager{}
}

// WithinReadOnly は読み取りロックの下で fn を実行します。
func (m *SerialTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("storage: transaction function is required")
	}
	if inTransaction(ctx) {
		return fn(ctx)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(contextWithTx(ctx))
}

// WithinReadWrite は書き込みロックの下で fn を実行します。
func (m *SerialTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("storage: transaction function is required")
	}
	if inTransaction(ctx) {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(contextWithTx(ctx))
}

func contextWithTx(ctx context.Context) context.Context {
	return context.WithValue(ctx, txContextKey, true)
}

func inTransaction(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	joined, ok := ctx.Value(txContextKey).(bool)
	return ok && joined
}
