package taskview

import (
	"testing"
	"time"

	"github.com/ogurasousui/taskflow-core/internal/core/identity"
	"github.com/ogurasousui/taskflow-core/internal/core/task"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

var (
	ceo      = identity.Employee{ID: "emp-ceo", Role: identity.RoleCEO, CompanyID: "comp-1"}
	employee = identity.Employee{ID: "emp-2", Role: identity.RoleEmployee, CompanyID: "comp-1"}
)

// now は 2025-06-15 の正午。テスト内の「今日」は 2025-06-15。
var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixtureTasks() []*task.Task {
	return []*task.Task{
		{
			ID: "t1", Title: "Write launch announcement", Description: "blog post",
			CompanyID: "comp-1", AssigneeID: "emp-2", CreatorID: "emp-ceo",
			Deadline: day(2025, 6, 10), CreatedAt: now.Add(-96 * time.Hour),
			Status: task.StatusInProgress, Priority: task.PriorityHigh,
		},
		{
			ID: "t2", Title: "Quarterly report", Description: "finance summary",
			CompanyID: "comp-1", AssigneeID: "emp-3", CreatorID: "emp-ceo",
			Deadline: day(2025, 6, 10), CreatedAt: now.Add(-72 * time.Hour),
			Status: task.StatusCompleted, Priority: task.PriorityMedium,
		},
		{
			ID: "t3", Title: "Prepare demo environment", Description: "staging",
			CompanyID: "comp-2", AssigneeID: "", CreatorID: "emp-ceo",
			Deadline: day(2025, 6, 15), CreatedAt: now.Add(-48 * time.Hour),
			Status: task.StatusToDo, Priority: task.PriorityLow,
		},
		{
			ID: "t4", Title: "Review hiring pipeline", Description: "recruiting",
			CompanyID: "comp-1", AssigneeID: "emp-2", CreatorID: "emp-ceo",
			Deadline: day(2025, 6, 20), CreatedAt: now.Add(-24 * time.Hour),
			Status: task.StatusToDo, Priority: task.PriorityHigh,
		},
	}
}

func ids(tasks []*task.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a []string, b ...string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestService_Derive_VisibilityNarrowsForNonCEO(t *testing.T) {
	t.Parallel()

	svc := NewService(&stubClock{now: now})

	got := svc.Derive(employee, fixtureTasks(), Filters{})
	if !equalIDs(ids(got), "t4", "t1") {
		t.Fatalf("expected only own assignments newest first, got %v", ids(got))
	}

	all := svc.Derive(ceo, fixtureTasks(), Filters{})
	if len(all) != 4 {
		t.Fatalf("expected the ceo to see every task, got %v", ids(all))
	}
}

func TestService_Derive_SearchIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	svc := NewService(&stubClock{now: now})

	got := svc.Derive(ceo, fixtureTasks(), Filters{Search: "QUARTERLY"})
	if !equalIDs(ids(got), "t2") {
		t.Fatalf("expected title match, got %v", ids(got))
	}

	got = svc.Derive(ceo, fixtureTasks(), Filters{Search: "staging"})
	if !equalIDs(ids(got), "t3") {
		t.Fatalf("expected description match, got %v", ids(got))
	}
}

func TestService_Derive_Filters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{name: "by company", filters: Filters{CompanyID: "comp-2"}, want: []string{"t3"}},
		{name: "by assignee", filters: Filters{AssigneeID: "emp-3"}, want: []string{"t2"}},
		{name: "unassigned sentinel", filters: Filters{AssigneeID: AssigneeUnassigned}, want: []string{"t3"}},
		{name: "by status", filters: Filters{Status: task.StatusToDo}, want: []string{"t4", "t3"}},
		{name: "due today", filters: Filters{DateBucket: DateDueToday}, want: []string{"t3"}},
		{name: "overdue excludes completed", filters: Filters{DateBucket: DateOverdue}, want: []string{"t1"}},
		{name: "combined", filters: Filters{CompanyID: "comp-1", Status: task.StatusToDo}, want: []string{"t4"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := NewService(&stubClock{now: now})
			got := ids(svc.Derive(ceo, fixtureTasks(), tt.filters))
			if !equalIDs(got, tt.want...) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestService_Derive_SortOrders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sort SortKey
		want []string
	}{
		{name: "default newest created first", sort: "", want: []string{"t4", "t3", "t2", "t1"}},
		{name: "deadline ascending", sort: SortByDeadline, want: []string{"t1", "t2", "t3", "t4"}},
		{name: "priority high first", sort: SortByPriority, want: []string{"t1", "t4", "t2", "t3"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := NewService(&stubClock{now: now})
			got := ids(svc.Derive(ceo, fixtureTasks(), Filters{Sort: tt.sort}))
			if !equalIDs(got, tt.want...) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

// 比較上等しいキーを持つタスク同士は入力順を保つ。t1 と t2 は締切が同日。
func TestService_Derive_SortIsStable(t *testing.T) {
	t.Parallel()

	svc := NewService(&stubClock{now: now})
	got := ids(svc.Derive(ceo, fixtureTasks(), Filters{Sort: SortByDeadline}))
	if got[0] != "t1" || got[1] != "t2" {
		t.Fatalf("expected ties to keep input order, got %v", got)
	}
}

func TestService_Derive_IsIdempotentAndLeavesInputIntact(t *testing.T) {
	t.Parallel()

	svc := NewService(&stubClock{now: now})
	input := fixtureTasks()

	first := ids(svc.Derive(ceo, input, Filters{Sort: SortByPriority}))
	second := ids(svc.Derive(ceo, input, Filters{Sort: SortByPriority}))
	if !equalIDs(first, second...) {
		t.Fatalf("expected identical results, got %v then %v", first, second)
	}

	if !equalIDs(ids(input), "t1", "t2", "t3", "t4") {
		t.Fatalf("expected input slice to stay untouched, got %v", ids(input))
	}
}

// 本日締切のバケットも期限超過と同様に完了済みタスクを含めない。
func TestService_DueTodayExcludesCompleted(t *testing.T) {
	t.Parallel()

	svc := NewService(&stubClock{now: now})
	tasks := []*task.Task{
		{
			ID: "done-today", Title: "Already shipped",
			CompanyID: "comp-1", AssigneeID: "emp-2", CreatorID: "emp-ceo",
			Deadline: day(2025, 6, 15), CreatedAt: now.Add(-12 * time.Hour),
			Status: task.StatusCompleted, Priority: task.PriorityMedium,
		},
		{
			ID: "open-today", Title: "Still open",
			CompanyID: "comp-1", AssigneeID: "emp-2", CreatorID: "emp-ceo",
			Deadline: day(2025, 6, 15), CreatedAt: now.Add(-6 * time.Hour),
			Status: task.StatusToDo, Priority: task.PriorityMedium,
		},
	}

	got := ids(svc.Derive(ceo, tasks, Filters{DateBucket: DateDueToday}))
	if !equalIDs(got, "open-today") {
		t.Fatalf("expected only the open task to be due today, got %v", got)
	}

	stats := svc.ComputeStats(ceo, tasks)
	if stats.DueToday != 1 {
		t.Fatalf("expected completed tasks not to count as due today, got %d", stats.DueToday)
	}
}

func TestService_ComputeStats(t *testing.T) {
	t.Parallel()

	svc := NewService(&stubClock{now: now})

	got := svc.ComputeStats(ceo, fixtureTasks())
	// t1 のみ期限超過（t2 は締切を過ぎているが完了済み）。t3 が本日締切かつ未割り当て。
	want := Stats{Overdue: 1, DueToday: 1, InProgress: 1, Unassigned: 1}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestService_ComputeStats_VisibilityApplies(t *testing.T) {
	t.Parallel()

	svc := NewService(&stubClock{now: now})

	got := svc.ComputeStats(employee, fixtureTasks())
	want := Stats{Overdue: 1, DueToday: 0, InProgress: 1, Unassigned: 0}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestKanban_GroupsByStatusKeepingOrder(t *testing.T) {
	t.Parallel()

	svc := NewService(&stubClock{now: now})
	board := KanbanColumns(svc.Derive(ceo, fixtureTasks(), Filters{Sort: SortByDeadline}))

	if !equalIDs(ids(board.ToDo), "t3", "t4") {
		t.Fatalf("unexpected todo column: %v", ids(board.ToDo))
	}
	if !equalIDs(ids(board.InProgress), "t1") {
		t.Fatalf("unexpected in-progress column: %v", ids(board.InProgress))
	}
	if !equalIDs(ids(board.Completed), "t2") {
		t.Fatalf("unexpected completed column: %v", ids(board.Completed))
	}
}

func TestCalendar_BucketsByDeadlineDate(t *testing.T) {
	t.Parallel()

	buckets := CalendarBuckets(fixtureTasks())
	if len(buckets) != 3 {
		t.Fatalf("expected 3 distinct deadline days, got %d", len(buckets))
	}
	if !equalIDs(ids(buckets[day(2025, 6, 10)]), "t1", "t2") {
		t.Fatalf("unexpected bucket for 2025-06-10: %v", ids(buckets[day(2025, 6, 10)]))
	}
	if !equalIDs(ids(buckets[day(2025, 6, 15)]), "t3") {
		t.Fatalf("unexpected bucket for 2025-06-15: %v", ids(buckets[day(2025, 6, 15)]))
	}
}
