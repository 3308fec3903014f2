package kv

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ogurasousui/taskflow-core/internal/core/identity"
	"github.com/ogurasousui/taskflow-core/internal/platform/storage"
)

// employeeRecord は従業員コレクションの保存形式です。
type employeeRecord struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Password          string    `json:"password"`
	CompanyID         string    `json:"company_id"`
	Role              string    `json:"role"`
	Status            string    `json:"status"`
	VerificationToken string    `json:"verification_token,omitempty"`
	CanViewDashboard  bool      `json:"can_view_dashboard"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// EmployeeRepository はストア上の単一ドキュメントを従業員コレクションとして
// 扱う実装です。identity.Repository に加えて、会社削除とタスクカスケードが
// 必要とする狭い窓口（company.EmployeeDirectory / task.EmployeeDirectory）も
// 同じコレクションの上に実装します。
type EmployeeRepository struct {
	store storage.Store

	mu      sync.RWMutex
	records []employeeRecord
}

// NewEmployeeRepository はストアからコレクションを読み込んで EmployeeRepository を生成します。
func NewEmployeeRepository(ctx context.Context, store storage.Store) (*EmployeeRepository, error) {
	r := &EmployeeRepository{store: store}
	if _, err := store.Load(ctx, storage.KeyEmployees, &r.records); err != nil {
		return nil, fmt.Errorf("kv: load employees: %w", err)
	}
	return r, nil
}

// Create は従業員を新規作成します。ID が空の場合は採番します。
func (r *EmployeeRepository) Create(ctx context.Context, emp *identity.Employee) (*identity.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := employeeToRecord(emp)
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	r.records = append(r.records, rec)
	if err := r.persist(ctx); err != nil {
		r.records = r.records[:len(r.records)-1]
		return nil, err
	}
	return employeeFromRecord(rec), nil
}

// Update は従業員レコードを丸ごと置き換えます。
func (r *EmployeeRepository) Update(ctx context.Context, emp *identity.Employee) (*identity.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, rec := range r.records {
		if rec.ID != emp.ID {
			continue
		}

		prev := r.records[i]
		r.records[i] = employeeToRecord(emp)
		if err := r.persist(ctx); err != nil {
			r.records[i] = prev
			return nil, err
		}
		return employeeFromRecord(r.records[i]), nil
	}
	return nil, identity.ErrEmployeeNotFound
}

// Delete は従業員を削除します。
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, rec := range r.records {
		if rec.ID != id {
			continue
		}

		removed := rec
		r.records = append(r.records[:i], r.records[i+1:]...)
		if err := r.persist(ctx); err != nil {
			r.records = append(r.records[:i], append([]employeeRecord{removed}, r.records[i:]...)...)
			return err
		}
		return nil
	}
	return identity.ErrEmployeeNotFound
}

// FindByID は ID で従業員を取得します。
func (r *EmployeeRepository) FindByID(_ context.Context, id string) (*identity.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if rec.ID == id {
			return employeeFromRecord(rec), nil
		}
	}
	return nil, identity.ErrEmployeeNotFound
}

// FindByEmail はメールアドレスの大文字小文字を区別せずに従業員を取得します。
func (r *EmployeeRepository) FindByEmail(_ context.Context, email string) (*identity.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if strings.EqualFold(rec.Email, email) {
			return employeeFromRecord(rec), nil
		}
	}
	return nil, identity.ErrEmployeeNotFound
}

// List は従業員の一覧を作成順で返します。
func (r *EmployeeRepository) List(_ context.Context) ([]*identity.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	employees := make([]*identity.Employee, 0, len(r.records))
	for _, rec := range r.records {
		employees = append(employees, employeeFromRecord(rec))
	}
	return employees, nil
}

// CountApproved は指定した会社に属する承認済み従業員の数を返します。
func (r *EmployeeRepository) CountApproved(_ context.Context, companyID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, rec := range r.records {
		if rec.CompanyID == companyID && rec.Status == string(identity.StatusApproved) {
			count++
		}
	}
	return count, nil
}

// DiscardPending は指定した会社の未承認登録をすべて破棄します。
func (r *EmployeeRepository) DiscardPending(ctx context.Context, companyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.records[:0:0]
	for _, rec := range r.records {
		if rec.CompanyID == companyID && rec.Status != string(identity.StatusApproved) {
			continue
		}
		kept = append(kept, rec)
	}
	if len(kept) == len(r.records) {
		return nil
	}

	prev := r.records
	r.records = kept
	if err := r.persist(ctx); err != nil {
		r.records = prev
		return err
	}
	return nil
}

func (r *EmployeeRepository) persist(ctx context.Context) error {
	if err := r.store.Save(ctx, storage.KeyEmployees, r.records); err != nil {
		return fmt.Errorf("kv: save employees: %w", err)
	}
	return nil
}

func employeeToRecord(emp *identity.Employee) employeeRecord {
	return employeeRecord{
		ID:                emp.ID,
		Name:              emp.Name,
		Email:             emp.Email,
		Password:          emp.Password,
		CompanyID:         emp.CompanyID,
		Role:              string(emp.Role),
		Status:            string(emp.Status),
		VerificationToken: emp.VerificationToken,
		CanViewDashboard:  emp.CanViewDashboard,
		CreatedAt:         emp.CreatedAt,
		UpdatedAt:         emp.UpdatedAt,
	}
}

func employeeFromRecord(rec employeeRecord) *identity.Employee {
	return &identity.Employee{
		ID:                rec.ID,
		Name:              rec.Name,
		Email:             rec.Email,
		Password:          rec.Password,
		CompanyID:         rec.CompanyID,
		Role:              identity.Role(rec.Role),
		Status:            identity.Status(rec.Status),
		VerificationToken: rec.VerificationToken,
		CanViewDashboard:  rec.CanViewDashboard,
		CreatedAt:         rec.CreatedAt,
		UpdatedAt:         rec.UpdatedAt,
	}
}
