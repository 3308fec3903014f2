package taskview

import (
	"time"

	"github.com/ogurasousui/taskflow-core/internal/core/task"
)

// KanbanBoard はステータス別の 3 カラム射影です。各カラム内の順序は
// 入力の順序をそのまま保ちます。
type KanbanBoard struct {
	ToDo       []*task.Task
	InProgress []*task.Task
	Completed  []*task.Task
}

// KanbanColumns は導出済みの一覧をステータスでカラムに振り分けます。
func KanbanColumns(tasks []*task.Task) KanbanBoard {
	var board KanbanBoard
	for _, t := range tasks {
		switch t.Status {
		case task.StatusInProgress:
			board.InProgress = append(board.InProgress, t)
		case task.StatusCompleted:
			board.Completed = append(board.Completed, t)
		default:
			board.ToDo = append(board.ToDo, t)
		}
	}
	return board
}

// CalendarBuckets は導出済みの一覧を締切の暦日でグルーピングします。キーは UTC の
// 暦日（時刻成分ゼロ）です。
func CalendarBuckets(tasks []*task.Task) map[time.Time][]*task.Task {
	buckets := make(map[time.Time][]*task.Task)
	for _, t := range tasks {
		day := calendarDate(t.Deadline)
		buckets[day] = append(buckets[day], t)
	}
	return buckets
}
