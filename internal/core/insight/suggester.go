package insight

import (
	"context"
	"time"

	"github.com/ogurasousui/taskflow-core/internal/core/company"
	"github.com/ogurasousui/taskflow-core/internal/core/identity"
	"github.com/ogurasousui/taskflow-core/internal/core/task"
)

// Snapshot は提案の材料になる現在のデータ一式です。提案器は読み取り専用で
// 利用します。
type Snapshot struct {
	Companies []*company.Company
	Employees []*identity.Employee
	Tasks     []*task.Task
}

// Request はタスク内容からの提案要求です。
type Request struct {
	Title       string
	Description string
	Snapshot    Snapshot
}

// Suggestion は提案された割り当て内容です。確信が持てないフィールドは
// ゼロ値のままになります。
type Suggestion struct {
	CompanyID  string
	AssigneeID string
	Deadline   time.Time
	Priority   task.Priority
}

// Suggester はタスク内容から割り当て候補を提案します。実装は外部サービスを
// 呼ぶことがあり、失敗やタイムアウトが前提のインターフェースです。
type Suggester interface {
	Suggest(ctx context.Context, req Request) (*Suggestion, error)
}
