package kv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ogurasousui/taskflow-core/internal/core/task"
	"github.com/ogurasousui/taskflow-core/internal/platform/storage"
)

// taskRecord はタスクコレクションの保存形式です。
type taskRecord struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	CompanyID   string     `json:"company_id"`
	AssigneeID  string     `json:"assignee_id,omitempty"`
	CreatorID   string     `json:"creator_id"`
	Deadline    time.Time  `json:"deadline"`
	CreatedAt   time.Time  `json:"created_at"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	ReminderAt  *time.Time `json:"reminder_at,omitempty"`
}

// TaskRepository はストア上の単一ドキュメントをタスクコレクションとして扱う
// 実装です。Save は ID による全レコード置き換えのアップサートです。
type TaskRepository struct {
	store storage.Store

	mu      sync.RWMutex
	records []taskRecord
}

// NewTaskRepository はストアからコレクションを読み込んで TaskRepository を生成します。
func NewTaskRepository(ctx context.Context, store storage.Store) (*TaskRepository, error) {
	r := &TaskRepository{store: store}
	if _, err := store.Load(ctx, storage.KeyTasks, &r.records); err != nil {
		return nil, fmt.Errorf("kv: load tasks: %w", err)
	}
	return r, nil
}

// Save はタスクを ID でアップサートします。既存 ID ならレコード全体を
// 置き換え、未知の ID（または空 ID）なら新規に追加します。
func (r *TaskRepository) Save(ctx context.Context, t *task.Task) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := taskToRecord(t)
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	for i, existing := range r.records {
		if existing.ID != rec.ID {
			continue
		}

		prev := r.records[i]
		r.records[i] = rec
		if err := r.persist(ctx); err != nil {
			r.records[i] = prev
			return nil, err
		}
		return taskFromRecord(rec), nil
	}

	r.records = append(r.records, rec)
	if err := r.persist(ctx); err != nil {
		r.records = r.records[:len(r.records)-1]
		return nil, err
	}
	return taskFromRecord(rec), nil
}

// Delete はタスクを削除します。
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, rec := range r.records {
		if rec.ID != id {
			continue
		}

		removed := rec
		r.records = append(r.records[:i], r.records[i+1:]...)
		if err := r.persist(ctx); err != nil {
			r.records = append(r.records[:i], append([]taskRecord{removed}, r.records[i:]...)...)
			return err
		}
		return nil
	}
	return task.ErrTaskNotFound
}

// FindByID は ID でタスクを取得します。
func (r *TaskRepository) FindByID(_ context.Context, id string) (*task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if rec.ID == id {
			return taskFromRecord(rec), nil
		}
	}
	return nil, task.ErrTaskNotFound
}

// List はタスクの一覧を作成順で返します。
func (r *TaskRepository) List(_ context.Context) ([]*task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]*task.Task, 0, len(r.records))
	for _, rec := range r.records {
		tasks = append(tasks, taskFromRecord(rec))
	}
	return tasks, nil
}

// ListByAssignee は指定した担当者のタスク一覧を返します。
func (r *TaskRepository) ListByAssignee(_ context.Context, assigneeID string) ([]*task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tasks []*task.Task
	for _, rec := range r.records {
		if rec.AssigneeID == assigneeID {
			tasks = append(tasks, taskFromRecord(rec))
		}
	}
	return tasks, nil
}

func (r *TaskRepository) persist(ctx context.Context) error {
	if err := r.store.Save(ctx, storage.KeyTasks, r.records); err != nil {
		return fmt.Errorf("kv: save tasks: %w", err)
	}
	return nil
}

func taskToRecord(t *task.Task) taskRecord {
	rec := taskRecord{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		CompanyID:   t.CompanyID,
		AssigneeID:  t.AssigneeID,
		CreatorID:   t.CreatorID,
		Deadline:    t.Deadline,
		CreatedAt:   t.CreatedAt,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
	}
	if t.ReminderAt != nil {
		at := *t.ReminderAt
		rec.ReminderAt = &at
	}
	return rec
}

func taskFromRecord(rec taskRecord) *task.Task {
	t := &task.Task{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		CompanyID:   rec.CompanyID,
		AssigneeID:  rec.AssigneeID,
		CreatorID:   rec.CreatorID,
		Deadline:    rec.Deadline,
		CreatedAt:   rec.CreatedAt,
		Status:      task.Status(rec.Status),
		Priority:    task.Priority(rec.Priority),
	}
	if rec.ReminderAt != nil {
		at := *rec.ReminderAt
		t.ReminderAt = &at
	}
	return t
}
