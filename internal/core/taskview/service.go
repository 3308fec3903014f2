package taskview

import (
	"sort"
	"time"

	"github.com/ogurasousui/taskflow-core/internal/core/identity"
	"github.com/ogurasousui/taskflow-core/internal/core/task"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Service はタスク集合からの派生ビュー計算をまとめます。入力のタスク集合を
// 変更することはなく、同じ入力に対して常に同じ結果を返します。
type Service struct {
	clock Clock
}

// NewService は Service を生成します。
func NewService(clock Clock) *Service {
	if clock == nil {
		clock = realClock{}
	}
	return &Service{clock: clock}
}

// Stats はダッシュボードに表示する集計値です。可視性で絞り込んだ後の
// タスク集合に対して計算され、検索やフィルタの影響は受けません。
type Stats struct {
	Overdue    int
	DueToday   int
	InProgress int
	Unassigned int
}

// Derive は生のタスク集合から表示用の一覧を導出します。パイプラインは常に
// 可視性 → 検索 → 等値フィルタ → 日付バケット → 安定ソートの順で適用され、
// 「今日」は導出開始時に一度だけ確定します。
func (s *Service) Derive(actor identity.Employee, tasks []*task.Task, f Filters) []*task.Task {
	today := calendarDate(s.clock.Now())

	visible := visibleTo(actor, tasks)

	filtered := make([]*task.Task, 0, len(visible))
	for _, t := range visible {
		if !matchesSearch(t, f.Search) {
			continue
		}
		if f.CompanyID != CompanyAll && t.CompanyID != f.CompanyID {
			continue
		}
		if !matchesAssignee(t, f.AssigneeID) {
			continue
		}
		if f.Status != StatusAll && t.Status != f.Status {
			continue
		}
		if !matchesBucket(t, f.DateBucket, today) {
			continue
		}
		filtered = append(filtered, t)
	}

	sortTasks(filtered, f.Sort)
	return filtered
}

// ComputeStats は可視タスク全体に対する集計を返します。期限超過の判定は
// Derive と同じ「今日」の定義を共有します。
func (s *Service) ComputeStats(actor identity.Employee, tasks []*task.Task) Stats {
	today := calendarDate(s.clock.Now())

	var stats Stats
	for _, t := range visibleTo(actor, tasks) {
		if isOverdue(t, today) {
			stats.Overdue++
		}
		if isDueToday(t, today) {
			stats.DueToday++
		}
		if t.Status == task.StatusInProgress {
			stats.InProgress++
		}
		// 完了済みのタスクは担当者不在として数えない。
		if t.AssigneeID == "" && t.Status != task.StatusCompleted {
			stats.Unassigned++
		}
	}
	return stats
}

// visibleTo は閲覧権限で集合を絞ります。CEO は全タスク、それ以外は自分が
// 担当するタスクのみが見えます。
func visibleTo(actor identity.Employee, tasks []*task.Task) []*task.Task {
	visible := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		if identity.CanViewTask(actor, t.AssigneeID) {
			visible = append(visible, t)
		}
	}
	return visible
}

// sortTasks は指定キーで安定に並べ替えます。比較上等しい要素同士の相対順序は
// 入力の順序を保ちます。
func sortTasks(tasks []*task.Task, key SortKey) {
	switch key {
	case SortByDeadline:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].Deadline.Before(tasks[j].Deadline)
		})
	case SortByPriority:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].Priority.Rank() > tasks[j].Priority.Rank()
		})
	default:
		// 既定は作成日時の新しい順。
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		})
	}
}
