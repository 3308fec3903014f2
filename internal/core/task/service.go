package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ogurasousui/taskflow-core/internal/core/identity"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Service はタスクライフサイクルに関するユースケースをまとめます。
type Service struct {
	repo      Repository
	employees EmployeeDirectory
	clock     Clock
	tx        TransactionManager
}

// UseCase はタスクユースケースの公開インターフェースです。
type UseCase interface {
	SaveTask(ctx context.Context, in SaveTaskInput) (*Task, error)
	UpdateStatus(ctx context.Context, in UpdateStatusInput) (*Task, error)
	DeleteTask(ctx context.Context, in DeleteTaskInput) error
	DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) error
	GetTask(ctx context.Context, in GetTaskInput) (*Task, error)
	ListTasks(ctx context.Context) ([]*Task, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, employees EmployeeDirectory, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, employees: employees, clock: clock, tx: tx}
}

// SaveTaskInput はタスク保存時の入力です。Task はレコード全体で、
// 既存 ID に一致すればそのレコードを丸ごと置き換えます。
type SaveTaskInput struct {
	Actor identity.Employee
	Task  Task
}

// UpdateStatusInput はステータス変更時の入力です。
type UpdateStatusInput struct {
	Actor  identity.Employee
	TaskID string
	Status Status
}

// DeleteTaskInput はタスク削除時の入力です。
type DeleteTaskInput struct {
	Actor  identity.Employee
	TaskID string
}

// DeleteEmployeeInput は従業員削除時の入力です。
type DeleteEmployeeInput struct {
	EmployeeID string
}

// GetTaskInput はタスク取得時の入力です。
type GetTaskInput struct {
	ID string
}

// SaveTask はタスクを ID でアップサートします。新規作成時は操作者を作成者として
// 記録し、呼び出し元が指定した CreatedAt を保持します。既存タスクの場合は
// レコード全体を置き換えます。フル編集もステータス移動もこの単一プリミティブです。
func (s *Service) SaveTask(ctx context.Context, in SaveTaskInput) (*Task, error) {
	t := in.Task

	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return nil, ErrInvalidTitle
	}
	if strings.TrimSpace(t.CompanyID) == "" {
		return nil, ErrInvalidCompanyID
	}
	if t.Deadline.IsZero() {
		return nil, ErrInvalidDeadline
	}
	t.Deadline = normalizeDate(t.Deadline)

	if t.Status == "" {
		t.Status = StatusToDo
	}
	if !isValidStatus(t.Status) {
		return nil, ErrInvalidStatus
	}

	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if !isValidPriority(t.Priority) {
		return nil, ErrInvalidPriority
	}

	var saved *Task
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		var existing *Task
		if strings.TrimSpace(t.ID) != "" {
			found, err := s.repo.FindByID(txCtx, t.ID)
			if err != nil && !errors.Is(err, ErrTaskNotFound) {
				return err
			}
			existing = found
		}

		if existing != nil {
			if !identity.CanManageTask(in.Actor, existing.CompanyID, existing.AssigneeID) {
				return ErrPermissionDenied
			}
			// CreatedAt と CreatorID は作成後不変。
			t.CreatedAt = existing.CreatedAt
			t.CreatorID = existing.CreatorID
		} else {
			t.CreatorID = in.Actor.ID
			if t.CreatedAt.IsZero() {
				t.CreatedAt = s.clock.Now()
			}
		}

		result, err := s.repo.Save(txCtx, &t)
		if err != nil {
			return err
		}

		saved = result
		return nil
	}); err != nil {
		return nil, err
	}

	return saved, nil
}

// UpdateStatus はステータスのみを変更する保存の簡易形です。他フィールドへの副作用はありません。
func (s *Service) UpdateStatus(ctx context.Context, in UpdateStatusInput) (*Task, error) {
	if strings.TrimSpace(in.TaskID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}
	if !isValidStatus(in.Status) {
		return nil, ErrInvalidStatus
	}

	var updated *Task
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.TaskID)
		if err != nil {
			return err
		}

		if !identity.CanManageTask(in.Actor, existing.CompanyID, existing.AssigneeID) {
			return ErrPermissionDenied
		}

		existing.Status = in.Status

		result, err := s.repo.Save(txCtx, existing)
		if err != nil {
			return err
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteTask はタスクを無条件に削除します。カスケードする副作用はありません。
func (s *Service) DeleteTask(ctx context.Context, in DeleteTaskInput) error {
	if strings.TrimSpace(in.TaskID) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.TaskID)
		if err != nil {
			return err
		}

		if !identity.CanManageTask(in.Actor, existing.CompanyID, existing.AssigneeID) {
			return ErrPermissionDenied
		}

		return s.repo.Delete(txCtx, in.TaskID)
	})
}

// DeleteEmployee は従業員を削除します。削除の前にその従業員が担当するすべての
// タスクを未割り当てに戻します。両方の変更は単一トランザクション内で行われ、
// 存在しない従業員に割り当てられたタスクが観測されることはありません。
func (s *Service) DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) error {
	if strings.TrimSpace(in.EmployeeID) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.employees.FindByID(txCtx, in.EmployeeID)
		if err != nil {
			return err
		}

		if emp.Role == identity.RoleCEO {
			return identity.ErrCEONotDeletable
		}

		assigned, err := s.repo.ListByAssignee(txCtx, in.EmployeeID)
		if err != nil {
			return err
		}

		for _, t := range assigned {
			t.AssigneeID = ""
			if _, err := s.repo.Save(txCtx, t); err != nil {
				return err
			}
		}

		return s.employees.Delete(txCtx, in.EmployeeID)
	})
}

// GetTask は ID でタスクを取得します。
func (s *Service) GetTask(ctx context.Context, in GetTaskInput) (*Task, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var found *Task
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		found = result
		return nil
	}); err != nil {
		return nil, err
	}

	return found, nil
}

// ListTasks はタスクの一覧を取得します。
func (s *Service) ListTasks(ctx context.Context) ([]*Task, error) {
	var tasks []*Task
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.List(txCtx)
		if err != nil {
			return err
		}
		tasks = result
		return nil
	}); err != nil {
		return nil, err
	}

	return tasks, nil
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusToDo, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

func isValidPriority(priority Priority) bool {
	switch priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
