package kv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ogurasousui/taskflow-core/internal/core/company"
	"github.com/ogurasousui/taskflow-core/internal/platform/storage"
)

// companyRecord は会社コレクションの保存形式です。
type companyRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompanyRepository はストア上の単一ドキュメントを会社コレクションとして扱う
// 実装です。コレクションは生成時に一度だけ読み込み、変更のたびに全体を
// 書き戻します。
type CompanyRepository struct {
	store storage.Store

	mu      sync.RWMutex
	records []companyRecord
}

// NewCompanyRepository はストアからコレクションを読み込んで CompanyRepository を生成します。
func NewCompanyRepository(ctx context.Context, store storage.Store) (*CompanyRepository, error) {
	r := &CompanyRepository{store: store}
	if _, err := store.Load(ctx, storage.KeyCompanies, &r.records); err != nil {
		return nil, fmt.Errorf("kv: load companies: %w", err)
	}
	return r, nil
}

// Create は会社を新規作成します。ID が空の場合は採番します。
func (r *CompanyRepository) Create(ctx context.Context, c *company.Company) (*company.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := companyRecord{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	r.records = append(r.records, rec)
	if err := r.persist(ctx); err != nil {
		r.records = r.records[:len(r.records)-1]
		return nil, err
	}
	return companyFromRecord(rec), nil
}

// Update は会社レコードを丸ごと置き換えます。
func (r *CompanyRepository) Update(ctx context.Context, c *company.Company) (*company.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, rec := range r.records {
		if rec.ID != c.ID {
			continue
		}

		prev := r.records[i]
		r.records[i] = companyRecord{
			ID:        c.ID,
			Name:      c.Name,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		}
		if err := r.persist(ctx); err != nil {
			r.records[i] = prev
			return nil, err
		}
		return companyFromRecord(r.records[i]), nil
	}
	return nil, company.ErrCompanyNotFound
}

// Delete は会社を削除します。
func (r *CompanyRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, rec := range r.records {
		if rec.ID != id {
			continue
		}

		removed := rec
		r.records = append(r.records[:i], r.records[i+1:]...)
		if err := r.persist(ctx); err != nil {
			r.records = append(r.records[:i], append([]companyRecord{removed}, r.records[i:]...)...)
			return err
		}
		return nil
	}
	return company.ErrCompanyNotFound
}

// FindByID は ID で会社を取得します。
func (r *CompanyRepository) FindByID(_ context.Context, id string) (*company.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if rec.ID == id {
			return companyFromRecord(rec), nil
		}
	}
	return nil, company.ErrCompanyNotFound
}

// List は会社の一覧を作成順で返します。
func (r *CompanyRepository) List(_ context.Context) ([]*company.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	companies := make([]*company.Company, 0, len(r.records))
	for _, rec := range r.records {
		companies = append(companies, companyFromRecord(rec))
	}
	return companies, nil
}

func (r *CompanyRepository) persist(ctx context.Context) error {
	if err := r.store.Save(ctx, storage.KeyCompanies, r.records); err != nil {
		return fmt.Errorf("kv: save companies: %w", err)
	}
	return nil
}

func companyFromRecord(rec companyRecord) *company.Company {
	return &company.Company{
		ID:        rec.ID,
		Name:      rec.Name,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}
