package task

import (
	"context"

	"github.com/ogurasousui/taskflow-core/internal/core/identity"
)

// Repository はタスク永続化の抽象です。
// Save はレコード全体を ID で置き換えるアップサート契約で、これが唯一の変更プリミティブです。
type Repository interface {
	Save(ctx context.Context, task *Task) (*Task, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context) ([]*Task, error)
	ListByAssignee(ctx context.Context, assigneeID string) ([]*Task, error)
}

// EmployeeDirectory は従業員削除カスケードに必要な従業員情報への狭い窓口です。
type EmployeeDirectory interface {
	FindByID(ctx context.Context, id string) (*identity.Employee, error)
	Delete(ctx context.Context, id string) error
}
