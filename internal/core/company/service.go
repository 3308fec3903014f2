package company

import (
	"context"
	"fmt"
	"strings"
	"time"
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

// Service は会社に関するユースケースをまとめます。
type Service struct {
	repo      Repository
	employees EmployeeDirectory
	clock     Clock
	tx        TransactionManager
}

// UseCase は会社ユースケースの公開インターフェースです。
type UseCase interface {
	AddCompany(ctx context.Context, in AddCompanyInput) (*Company, error)
	RenameCompany(ctx context.Context, in RenameCompanyInput) (*Company, error)
	DeleteCompany(ctx context.Context, in DeleteCompanyInput) error
	GetCompany(ctx context.Context, in GetCompanyInput) (*Company, error)
	ListCompanies(ctx context.Context) ([]*Company, error)
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

// AddCompanyInput は会社作成時の入力です。
type AddCompanyInput struct {
	Name string
}

// RenameCompanyInput は会社名変更時の入力です。
type RenameCompanyInput struct {
	ID   string
	Name string
}

// DeleteCompanyInput は会社削除時の入力です。
type DeleteCompanyInput struct {
	ID string
}

// GetCompanyInput は会社取得時の入力です。
type GetCompanyInput struct {
	ID string
}

// AddCompany は新しい会社を作成します。
func (s *Service) AddCompany(ctx context.Context, in AddCompanyInput) (*Company, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}

	var created *Company
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()
		c := &Company{
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		}

		result, err := s.repo.Create(txCtx, c)
		if err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// RenameCompany は会社名を変更します。
func (s *Service) RenameCompany(ctx context.Context, in RenameCompanyInput) (*Company, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}

	var renamed *Company
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		existing.Name = name
		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}

		renamed = result
		return nil
	}); err != nil {
		return nil, err
	}

	return renamed, nil
}

// DeleteCompany は会社を削除します。承認済み従業員が 1 人でも残っている場合は
// ErrHasApprovedEmployees で拒否します。削除時はその会社の未承認登録も破棄します。
func (s *Service) DeleteCompany(ctx context.Context, in DeleteCompanyInput) error {
	if strings.TrimSpace(in.ID) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.FindByID(txCtx, in.ID); err != nil {
			return err
		}

		if s.employees != nil {
			count, err := s.employees.CountApproved(txCtx, in.ID)
			if err != nil {
				return err
			}
			if count > 0 {
				return ErrHasApprovedEmployees
			}

			if err := s.employees.DiscardPending(txCtx, in.ID); err != nil {
				return err
			}
		}

		return s.repo.Delete(txCtx, in.ID)
	})
}

// GetCompany は ID で会社を取得します。
func (s *Service) GetCompany(ctx context.Context, in GetCompanyInput) (*Company, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var found *Company
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

// ListCompanies は会社の一覧を取得します。
func (s *Service) ListCompanies(ctx context.Context) ([]*Company, error) {
	var companies []*Company
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.List(txCtx)
		if err != nil {
			return err
		}
		companies = result
		return nil
	}); err != nil {
		return nil, err
	}

	return companies, nil
}

func normalizeName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidName
	}
	return trimmed, nil
}
