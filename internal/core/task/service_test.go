package task

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ogurasousui/taskflow-core/internal/core/identity"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

type fakeTaskRepo struct {
	tasks    map[string]*Task
	sequence int
	order    []string
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[string]*Task)}
}

func (r *fakeTaskRepo) Save(_ context.Context, t *Task) (*Task, error) {
	clone := cloneTask(t)
	if clone.ID == "" {
		r.sequence++
		clone.ID = fmt.Sprintf("task-%d", r.sequence)
	}
	if _, ok := r.tasks[clone.ID]; !ok {
		r.order = append(r.order, clone.ID)
	}
	r.tasks[clone.ID] = clone
	return cloneTask(clone), nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(r.tasks, id)
	for idx, existingID := range r.order {
		if existingID == id {
			r.order = append(r.order[:idx], r.order[idx+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeTaskRepo) FindByID(_ context.Context, id string) (*Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return cloneTask(t), nil
}

func (r *fakeTaskRepo) List(_ context.Context) ([]*Task, error) {
	var tasks []*Task
	for _, id := range r.order {
		tasks = append(tasks, cloneTask(r.tasks[id]))
	}
	return tasks, nil
}

func (r *fakeTaskRepo) ListByAssignee(_ context.Context, assigneeID string) ([]*Task, error) {
	var tasks []*Task
	for _, id := range r.order {
		if r.tasks[id].AssigneeID == assigneeID {
			tasks = append(tasks, cloneTask(r.tasks[id]))
		}
	}
	return tasks, nil
}

func cloneTask(t *Task) *Task {
	if t == nil {
		return nil
	}
	clone := *t
	if t.ReminderAt != nil {
		at := *t.ReminderAt
		clone.ReminderAt = &at
	}
	return &clone
}

type fakeEmployeeDirectory struct {
	employees map[string]*identity.Employee
	deleted   []string
}

func newFakeEmployeeDirectory() *fakeEmployeeDirectory {
	return &fakeEmployeeDirectory{employees: make(map[string]*identity.Employee)}
}

func (d *fakeEmployeeDirectory) FindByID(_ context.Context, id string) (*identity.Employee, error) {
	emp, ok := d.employees[id]
	if !ok {
		return nil, identity.ErrEmployeeNotFound
	}
	clone := *emp
	return &clone, nil
}

func (d *fakeEmployeeDirectory) Delete(_ context.Context, id string) error {
	if _, ok := d.employees[id]; !ok {
		return identity.ErrEmployeeNotFound
	}
	delete(d.employees, id)
	d.deleted = append(d.deleted, id)
	return nil
}

var ceo = identity.Employee{ID: "emp-ceo", Role: identity.RoleCEO, CompanyID: "comp-1"}

func TestService_SaveTask_CreateStampsCreator(t *testing.T) {
	t.Parallel()

	repo := newFakeTaskRepo()
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	svc := NewService(repo, newFakeEmployeeDirectory(), &stubClock{now: now}, nil)

	deadline := time.Date(2025, 2, 1, 15, 30, 0, 0, time.UTC)
	saved, err := svc.SaveTask(context.Background(), SaveTaskInput{
		Actor: ceo,
		Task: Task{
			Title:     "  Develop Q3 Marketing Strategy  ",
			CompanyID: "comp-1",
			Deadline:  deadline,
		},
	})
	if err != nil {
		t.Fatalf("SaveTask returned error: %v", err)
	}

	if saved.ID == "" {
		t.Fatal("expected an id to be assigned")
	}
	if saved.Title != "Develop Q3 Marketing Strategy" {
		t.Fatalf("expected trimmed title, got %q", saved.Title)
	}
	if saved.CreatorID != ceo.ID {
		t.Fatalf("expected creator stamped from actor, got %q", saved.CreatorID)
	}
	if !saved.CreatedAt.Equal(now) {
		t.Fatalf("expected CreatedAt from clock, got %v", saved.CreatedAt)
	}
	if !saved.Deadline.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected deadline normalized to calendar date, got %v", saved.Deadline)
	}
	if saved.Status != StatusToDo {
		t.Fatalf("expected default status todo, got %s", saved.Status)
	}
	if saved.Priority != PriorityMedium {
		t.Fatalf("expected default priority medium, got %s", saved.Priority)
	}
}

func TestService_SaveTask_CreateKeepsCallerCreatedAt(t *testing.T) {
	t.Parallel()

	repo := newFakeTaskRepo()
	svc := NewService(repo, newFakeEmployeeDirectory(), &stubClock{now: time.Now().UTC()}, nil)

	createdAt := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	saved, err := svc.SaveTask(context.Background(), SaveTaskInput{
		Actor: ceo,
		Task: Task{
			Title:     "Imported",
			CompanyID: "comp-1",
			Deadline:  time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
			CreatedAt: createdAt,
		},
	})
	if err != nil {
		t.Fatalf("SaveTask returned error: %v", err)
	}
	if !saved.CreatedAt.Equal(createdAt) {
		t.Fatalf("expected caller-supplied CreatedAt to be kept, got %v", saved.CreatedAt)
	}
}

func TestService_SaveTask_UpdateReplacesWholeRecord(t *testing.T) {
	t.Parallel()

	repo := newFakeTaskRepo()
	clk := &stubClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc := NewService(repo, newFakeEmployeeDirectory(), clk, nil)

	created, err := svc.SaveTask(context.Background(), SaveTaskInput{
		Actor: ceo,
		Task: Task{
			Title:      "Original",
			CompanyID:  "comp-1",
			AssigneeID: "emp-2",
			Deadline:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			Priority:   PriorityLow,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reminder := time.Date(2025, 2, 28, 9, 0, 0, 0, time.UTC)
	updated, err := svc.SaveTask(context.Background(), SaveTaskInput{
		Actor: ceo,
		Task: Task{
			ID:          created.ID,
			Title:       "Replaced",
			Description: "new body",
			CompanyID:   "comp-2",
			AssigneeID:  "emp-3",
			Deadline:    time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			Status:      StatusInProgress,
			Priority:    PriorityHigh,
			ReminderAt:  &reminder,
			CreatedAt:   time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
			CreatorID:   "someone-else",
		},
	})
	if err != nil {
		t.Fatalf("SaveTask returned error: %v", err)
	}

	if updated.Title != "Replaced" || updated.CompanyID != "comp-2" || updated.AssigneeID != "emp-3" {
		t.Fatalf("expected whole record replacement, got %+v", updated)
	}
	if updated.Status != StatusInProgress || updated.Priority != PriorityHigh {
		t.Fatalf("expected status and priority replaced, got %+v", updated)
	}
	if updated.ReminderAt == nil || !updated.ReminderAt.Equal(reminder) {
		t.Fatalf("expected reminder set, got %+v", updated.ReminderAt)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatal("expected CreatedAt to stay immutable on update")
	}
	if updated.CreatorID != ceo.ID {
		t.Fatal("expected CreatorID to stay immutable on update")
	}
}

func TestService_SaveTask_Validation(t *testing.T) {
	t.Parallel()

	deadline := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		task Task
		want error
	}{
		{name: "missing title", task: Task{CompanyID: "comp-1", Deadline: deadline}, want: ErrInvalidTitle},
		{name: "missing company", task: Task{Title: "t", Deadline: deadline}, want: ErrInvalidCompanyID},
		{name: "missing deadline", task: Task{Title: "t", CompanyID: "comp-1"}, want: ErrInvalidDeadline},
		{name: "unknown status", task: Task{Title: "t", CompanyID: "comp-1", Deadline: deadline, Status: Status("archived")}, want: ErrInvalidStatus},
		{name: "unknown priority", task: Task{Title: "t", CompanyID: "comp-1", Deadline: deadline, Priority: Priority("urgent")}, want: ErrInvalidPriority},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := NewService(newFakeTaskRepo(), newFakeEmployeeDirectory(), &stubClock{now: time.Now().UTC()}, nil)
			_, err := svc.SaveTask(context.Background(), SaveTaskInput{Actor: ceo, Task: tt.task})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestService_SaveTask_PermissionDenied(t *testing.T) {
	t.Parallel()

	repo := newFakeTaskRepo()
	svc := NewService(repo, newFakeEmployeeDirectory(), &stubClock{now: time.Now().UTC()}, nil)

	created, err := svc.SaveTask(context.Background(), SaveTaskInput{
		Actor: ceo,
		Task: Task{
			Title:      "Protected",
			CompanyID:  "comp-1",
			AssigneeID: "emp-2",
			Deadline:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outsider := identity.Employee{ID: "emp-9", Role: identity.RoleEmployee, CompanyID: "comp-2"}
	created.Title = "Hijacked"
	_, err = svc.SaveTask(context.Background(), SaveTaskInput{Actor: outsider, Task: *created})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

// 状態機械に強制順序はない。completed → todo の逆行は手動訂正として許容される仕様であり、
// 欠陥ではない。
func TestService_UpdateStatus_AnyTransitionIsPermitted(t *testing.T) {
	t.Parallel()

	repo := newFakeTaskRepo()
	svc := NewService(repo, newFakeEmployeeDirectory(), &stubClock{now: time.Now().UTC()}, nil)

	created, err := svc.SaveTask(context.Background(), SaveTaskInput{
		Actor: ceo,
		Task: Task{
			Title:     "Back and forth",
			CompanyID: "comp-1",
			Deadline:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			Status:    StatusCompleted,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	transitions := []Status{StatusToDo, StatusCompleted, StatusInProgress, StatusToDo}
	for _, next := range transitions {
		updated, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{Actor: ceo, TaskID: created.ID, Status: next})
		if err != nil {
			t.Fatalf("UpdateStatus(%s) returned error: %v", next, err)
		}
		if updated.Status != next {
			t.Fatalf("expected status %s, got %s", next, updated.Status)
		}
	}
}

func TestService_UpdateStatus_NoCrossFieldSideEffects(t *testing.T) {
	t.Parallel()

	repo := newFakeTaskRepo()
	svc := NewService(repo, newFakeEmployeeDirectory(), &stubClock{now: time.Now().UTC()}, nil)

	reminder := time.Date(2025, 1, 5, 9, 0, 0, 0, time.UTC)
	created, err := svc.SaveTask(context.Background(), SaveTaskInput{
		Actor: ceo,
		Task: Task{
			Title:      "Stable fields",
			CompanyID:  "comp-1",
			AssigneeID: "emp-2",
			Deadline:   time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			Priority:   PriorityHigh,
			ReminderAt: &reminder,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{Actor: ceo, TaskID: created.ID, Status: StatusInProgress})
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}

	if updated.Title != created.Title || updated.AssigneeID != created.AssigneeID || updated.Priority != created.Priority {
		t.Fatalf("expected only status to change, got %+v", updated)
	}
	if updated.ReminderAt == nil || !updated.ReminderAt.Equal(reminder) {
		t.Fatal("expected reminder to survive a status change")
	}
}

func TestService_DeleteTask(t *testing.T) {
	t.Parallel()

	repo := newFakeTaskRepo()
	svc := NewService(repo, newFakeEmployeeDirectory(), &stubClock{now: time.Now().UTC()}, nil)

	created, err := svc.SaveTask(context.Background(), SaveTaskInput{
		Actor: ceo,
		Task:  Task{Title: "Doomed", CompanyID: "comp-1", Deadline: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.DeleteTask(context.Background(), DeleteTaskInput{Actor: ceo, TaskID: created.ID}); err != nil {
		t.Fatalf("DeleteTask returned error: %v", err)
	}
	if _, err := repo.FindByID(context.Background(), created.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected task to be gone, got %v", err)
	}
}

func TestService_DeleteEmployee_ReassignsTasksAtomically(t *testing.T) {
	t.Parallel()

	repo := newFakeTaskRepo()
	directory := newFakeEmployeeDirectory()
	directory.employees["emp-2"] = &identity.Employee{ID: "emp-2", Role: identity.RoleEmployee, CompanyID: "comp-1"}
	svc := NewService(repo, directory, &stubClock{now: time.Now().UTC()}, nil)

	deadline := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, title := range []string{"A", "B"} {
		if _, err := svc.SaveTask(context.Background(), SaveTaskInput{
			Actor: ceo,
			Task:  Task{Title: title, CompanyID: "comp-1", AssigneeID: "emp-2", Deadline: deadline},
		}); err != nil {
			t.Fatalf("unexpected seed error: %v", err)
		}
	}
	if _, err := svc.SaveTask(context.Background(), SaveTaskInput{
		Actor: ceo,
		Task:  Task{Title: "Other", CompanyID: "comp-1", AssigneeID: "emp-3", Deadline: deadline},
	}); err != nil {
		t.Fatalf("unexpected seed error: %v", err)
	}

	if err := svc.DeleteEmployee(context.Background(), DeleteEmployeeInput{EmployeeID: "emp-2"}); err != nil {
		t.Fatalf("DeleteEmployee returned error: %v", err)
	}

	if len(directory.deleted) != 1 || directory.deleted[0] != "emp-2" {
		t.Fatalf("expected employee emp-2 to be removed, got %v", directory.deleted)
	}

	tasks, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, task := range tasks {
		if task.AssigneeID == "emp-2" {
			t.Fatalf("expected no task to stay assigned to emp-2, got %+v", task)
		}
	}

	remaining, err := repo.ListByAssignee(context.Background(), "emp-3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected unrelated assignments to survive, got %d", len(remaining))
	}
}

func TestService_DeleteEmployee_CEOIsRejected(t *testing.T) {
	t.Parallel()

	repo := newFakeTaskRepo()
	directory := newFakeEmployeeDirectory()
	directory.employees["emp-ceo"] = &identity.Employee{ID: "emp-ceo", Role: identity.RoleCEO, CompanyID: "comp-1"}
	svc := NewService(repo, directory, &stubClock{now: time.Now().UTC()}, nil)

	err := svc.DeleteEmployee(context.Background(), DeleteEmployeeInput{EmployeeID: "emp-ceo"})
	if !errors.Is(err, identity.ErrCEONotDeletable) {
		t.Fatalf("expected ErrCEONotDeletable, got %v", err)
	}
}
