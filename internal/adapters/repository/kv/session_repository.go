package kv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ogurasousui/taskflow-core/internal/core/identity"
	"github.com/ogurasousui/taskflow-core/internal/platform/storage"
)

// sessionRecord は現在セッションの保存形式です。従業員はスナップショットで
// 持ち、ログアウトまで更新されません。
type sessionRecord struct {
	Employee   employeeRecord `json:"employee"`
	LoggedInAt time.Time      `json:"logged_in_at"`
}

// SessionRepository は現在セッションをストア上の単一ドキュメントとして扱う
// 実装です。セッションは高々 1 件です。
type SessionRepository struct {
	store storage.Store

	mu      sync.RWMutex
	current *sessionRecord
}

// NewSessionRepository はストアからセッションを読み込んで SessionRepository を生成します。
func NewSessionRepository(ctx context.Context, store storage.Store) (*SessionRepository, error) {
	r := &SessionRepository{store: store}
	var rec sessionRecord
	ok, err := store.Load(ctx, storage.KeySession, &rec)
	if err != nil {
		return nil, fmt.Errorf("kv: load session: %w", err)
	}
	// ログアウト後は null が保存されているため、中身のないレコードは
	// セッションなしとして扱う。
	if ok && rec.Employee.ID != "" {
		r.current = &rec
	}
	return r, nil
}

// Put は現在セッションを置き換えます。
func (r *SessionRepository) Put(ctx context.Context, session identity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := sessionRecord{
		Employee:   employeeToRecord(&session.Employee),
		LoggedInAt: session.LoggedInAt,
	}
	if err := r.store.Save(ctx, storage.KeySession, rec); err != nil {
		return fmt.Errorf("kv: save session: %w", err)
	}
	r.current = &rec
	return nil
}

// Current はログイン中のセッションを返します。存在しなければ ErrNoSession です。
func (r *SessionRepository) Current(_ context.Context) (*identity.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.current == nil {
		return nil, identity.ErrNoSession
	}
	return &identity.Session{
		Employee:   *employeeFromRecord(r.current.Employee),
		LoggedInAt: r.current.LoggedInAt,
	}, nil
}

// Clear はセッションを破棄します。セッションが無い場合でもエラーにはなりません。
func (r *SessionRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return nil
	}
	if err := r.store.Save(ctx, storage.KeySession, nil); err != nil {
		return fmt.Errorf("kv: clear session: %w", err)
	}
	r.current = nil
	return nil
}
