package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// コレクションを格納する論理キー。
const (
	KeyCompanies = "companies"
	KeyEmployees = "employees"
	KeyTasks     = "tasks"
	KeySession   = "current-session"
)

// Store はキーごとに JSON ドキュメントを丸ごと読み書きするストアです。
// Load は値が存在しない場合に (false, nil) を返し、dest には触れません。
type Store interface {
	Load(ctx context.Context, key string, dest any) (bool, error)
	Save(ctx context.Context, key string, value any) error
}

// MemoryStore はテストや一時実行向けのインメモリ実装です。
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore は MemoryStore を生成します。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Load はキーに対応する値を dest にデコードします。
func (s *MemoryStore) Load(_ context.Context, key string, dest any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("storage: decode %q: %w", key, err)
	}
	return true, nil
}

// Save は値を JSON にエンコードして保存します。
func (s *MemoryStore) Save(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("storage: encode %q: %w", key, err)
	}
	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()
	return nil
}
