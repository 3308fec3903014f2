package taskview

import (
	"strings"
	"time"

	"github.com/ogurasousui/taskflow-core/internal/core/task"
)

// フィルタ値のワイルドカード。ゼロ値（空文字列）が「絞り込みなし」を意味します。
const (
	CompanyAll  = ""
	AssigneeAll = ""
	StatusAll   = task.Status("")
)

// AssigneeUnassigned は担当者が空のタスクだけに絞り込むための番兵値です。
// 実在の従業員 ID と衝突しないよう、ID として使われない文字列を選んでいます。
const AssigneeUnassigned = "__unassigned__"

// DateBucket は締切による粗い絞り込みを表します。
type DateBucket string

const (
	DateAll      DateBucket = ""
	DateOverdue  DateBucket = "overdue"
	DateDueToday DateBucket = "due_today"
)

// SortKey はタスク一覧の並び順を表します。
type SortKey string

const (
	SortByCreation SortKey = "creation_date"
	SortByDeadline SortKey = "deadline"
	SortByPriority SortKey = "priority"
)

// Filters は Derive に渡す絞り込み条件の集合です。ゼロ値はいっさい絞り込みません。
// Search はタイトルと説明文に対する部分一致で、大文字小文字を区別しません。
type Filters struct {
	Search     string
	CompanyID  string
	AssigneeID string
	Status     task.Status
	DateBucket DateBucket
	Sort       SortKey
}

func matchesSearch(t *task.Task, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}

func matchesAssignee(t *task.Task, assigneeID string) bool {
	switch assigneeID {
	case AssigneeAll:
		return true
	case AssigneeUnassigned:
		return t.AssigneeID == ""
	default:
		return t.AssigneeID == assigneeID
	}
}

func matchesBucket(t *task.Task, bucket DateBucket, today time.Time) bool {
	switch bucket {
	case DateOverdue:
		return isOverdue(t, today)
	case DateDueToday:
		return isDueToday(t, today)
	default:
		return true
	}
}

// isOverdue は締切が今日より前で、かつ完了していないタスクを期限超過とみなします。
// 完了済みタスクは締切を過ぎていても期限超過に数えません。
func isOverdue(t *task.Task, today time.Time) bool {
	return t.Status != task.StatusCompleted && calendarDate(t.Deadline).Before(today)
}

// isDueToday は締切が今日で、かつ完了していないタスクを本日締切とみなします。
func isDueToday(t *task.Task, today time.Time) bool {
	return t.Status != task.StatusCompleted && calendarDate(t.Deadline).Equal(today)
}

// calendarDate は時刻成分とタイムゾーンを落とし、暦日だけで比較できる値にします。
func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
