package company

import "context"

// Repository は会社エンティティの永続化を行うインターフェースです。
type Repository interface {
	Create(ctx context.Context, company *Company) (*Company, error)
	Update(ctx context.Context, company *Company) (*Company, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Company, error)
	List(ctx context.Context) ([]*Company, error)
}

// EmployeeDirectory は会社削除の判定に必要な従業員情報への狭い窓口です。
type EmployeeDirectory interface {
	// CountApproved は指定した会社に属する承認済み従業員の数を返します。
	CountApproved(ctx context.Context, companyID string) (int, error)
	// DiscardPending は指定した会社の未承認登録をすべて破棄します。
	DiscardPending(ctx context.Context, companyID string) error
}
