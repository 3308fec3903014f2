package task

import "time"

// Status はタスクの進行状態を表します。3 状態の間に強制的な遷移順序はなく、
// どの状態からどの状態へも保存操作で自由に移動できます。
type Status string

const (
	StatusToDo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Priority はタスクの優先度を表します。
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank は優先度の序列を返します。値が大きいほど優先度が高いことを表します。
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Task はタスクエンティティです。AssigneeID は空（未割り当て）を許容します。
// CreatedAt は作成後に変更されません。
type Task struct {
	ID          string
	Title       string
	Description string
	CompanyID   string
	AssigneeID  string
	CreatorID   string
	Deadline    time.Time
	CreatedAt   time.Time
	Status      Status
	Priority    Priority
	ReminderAt  *time.Time
}
