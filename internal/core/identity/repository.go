package identity

import "context"

// Repository は従業員永続化の抽象です。
// Update はレコード全体を ID で置き換えるアップサート契約です。
type Repository interface {
	Create(ctx context.Context, employee *Employee) (*Employee, error)
	Update(ctx context.Context, employee *Employee) (*Employee, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Employee, error)
	// FindByEmail はメールアドレスの大文字小文字を区別せずに検索します。
	FindByEmail(ctx context.Context, email string) (*Employee, error)
	List(ctx context.Context) ([]*Employee, error)
}

// SessionRepository は現在セッションの永続化の抽象です。
type SessionRepository interface {
	Put(ctx context.Context, session Session) error
	Current(ctx context.Context) (*Session, error)
	Clear(ctx context.Context) error
}
