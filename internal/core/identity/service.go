package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
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

// Service は従業員アカウントのライフサイクルに関するユースケースをまとめます。
type Service struct {
	repo     Repository
	sessions SessionRepository
	clock    Clock
	tx       TransactionManager
}

// UseCase は従業員アカウントユースケースの公開インターフェースです。
type UseCase interface {
	Register(ctx context.Context, in RegisterInput) (*RegisterResult, error)
	VerifyEmail(ctx context.Context, in VerifyEmailInput) (bool, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	Logout(ctx context.Context) error
	Approve(ctx context.Context, in ApproveInput) (*Employee, error)
	Deny(ctx context.Context, in DenyInput) error
	AddEmployee(ctx context.Context, in AddEmployeeInput) (*Employee, error)
	RenameEmployee(ctx context.Context, in RenameEmployeeInput) (*Employee, error)
	ListEmployees(ctx context.Context) ([]*Employee, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, sessions SessionRepository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, sessions: sessions, clock: clock, tx: tx}
}

// RegisterInput は自己登録時の入力です。
type RegisterInput struct {
	Name      string
	CompanyID string
	Email     string
	Password  string
}

// RegisterResult は自己登録の結果です。
// Token はメール配信側チャネルの代わりに呼び出し元へ返却されます。
type RegisterResult struct {
	Employee *Employee
	Token    string
}

// VerifyEmailInput はメール検証時の入力です。
type VerifyEmailInput struct {
	Email string
	Token string
}

// LoginInput はログイン時の入力です。
type LoginInput struct {
	Email    string
	Password string
}

// LoginStatus はログイン試行の結果区分を表します。
type LoginStatus string

const (
	LoginSuccess    LoginStatus = "success"
	LoginPending    LoginStatus = "pending"
	LoginUnverified LoginStatus = "unverified"
	LoginError      LoginStatus = "error"
)

// LoginResult はログイン試行の結果です。
// Status が LoginSuccess の場合のみ Session が設定されます。
type LoginResult struct {
	Status  LoginStatus
	Session *Session
}

// ApproveInput は承認時の入力です。
type ApproveInput struct {
	ID string
}

// DenyInput は登録拒否時の入力です。
type DenyInput struct {
	ID string
}

// AddEmployeeInput は管理画面からの従業員直接作成時の入力です。
type AddEmployeeInput struct {
	Name      string
	CompanyID string
	Email     string
}

// RenameEmployeeInput は従業員名変更時の入力です。
type RenameEmployeeInput struct {
	ID   string
	Name string
}

// Register は検証待ち状態の従業員を作成し、検証トークンを返却します。
// メールアドレスが既に存在する場合は ErrEmailAlreadyExists を返します。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	companyID := strings.TrimSpace(in.CompanyID)
	if companyID == "" {
		return nil, ErrInvalidCompanyID
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	if in.Password == "" {
		return nil, ErrInvalidPassword
	}

	token, err := newVerificationToken(s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("identity: generate verification token: %w", err)
	}

	var created *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureEmailNotExists(txCtx, email); err != nil {
			return err
		}

		now := s.clock.Now()
		emp := &Employee{
			Name:              name,
			Email:             email,
			Password:          in.Password,
			CompanyID:         companyID,
			Role:              RoleEmployee,
			Status:            StatusPendingVerification,
			VerificationToken: token,
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		result, err := s.repo.Create(txCtx, emp)
		if err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return &RegisterResult{Employee: created, Token: token}, nil
}

// VerifyEmail はメールアドレスとトークンの組に一致する従業員を検証済みにします。
// 遷移は pending_verification → pending のみで、トークンはこの時点で消去されます。
// 一致するレコードが見つかったかどうかを返します。
func (s *Service) VerifyEmail(ctx context.Context, in VerifyEmailInput) (bool, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return false, err
	}

	if strings.TrimSpace(in.Token) == "" {
		return false, nil
	}

	matched := false
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.repo.FindByEmail(txCtx, email)
		if err != nil {
			if errors.Is(err, ErrEmployeeNotFound) {
				return nil
			}
			return err
		}

		if emp.Status != StatusPendingVerification || emp.VerificationToken != in.Token {
			return nil
		}

		emp.Status = StatusPending
		emp.VerificationToken = ""
		emp.UpdatedAt = s.clock.Now()

		if _, err := s.repo.Update(txCtx, emp); err != nil {
			return err
		}

		matched = true
		return nil
	}); err != nil {
		return false, err
	}

	return matched, nil
}

// Login はメールアドレスとパスワードの組を照合し、結果区分を返します。
// 判定順序は error → unverified → pending → success で固定です。検証前の
// アカウントが pending と報告されることはありません。成功時はセッションを確立します。
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return &LoginResult{Status: LoginError}, nil
	}

	var result *LoginResult
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.repo.FindByEmail(txCtx, email)
		if err != nil {
			if errors.Is(err, ErrEmployeeNotFound) {
				result = &LoginResult{Status: LoginError}
				return nil
			}
			return err
		}

		// パスワード照合は単純な等価比較です。ハッシュ化は外部協調者の責務です。
		if emp.Password == "" || emp.Password != in.Password {
			result = &LoginResult{Status: LoginError}
			return nil
		}

		switch emp.Status {
		case StatusPendingVerification:
			result = &LoginResult{Status: LoginUnverified}
			return nil
		case StatusPending:
			result = &LoginResult{Status: LoginPending}
			return nil
		case StatusApproved:
			session := Session{Employee: *emp, LoggedInAt: s.clock.Now()}
			if s.sessions != nil {
				if err := s.sessions.Put(txCtx, session); err != nil {
					return err
				}
			}
			result = &LoginResult{Status: LoginSuccess, Session: &session}
			return nil
		default:
			result = &LoginResult{Status: LoginError}
			return nil
		}
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// Logout は現在セッションを破棄します。
func (s *Service) Logout(ctx context.Context) error {
	if s.sessions == nil {
		return nil
	}
	return s.sessions.Clear(ctx)
}

// Approve は承認待ちの従業員を承認済みにします。
func (s *Service) Approve(ctx context.Context, in ApproveInput) (*Employee, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var approved *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		if emp.Status != StatusPending {
			return ErrNotPending
		}

		emp.Status = StatusApproved
		emp.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, emp)
		if err != nil {
			return err
		}

		approved = result
		return nil
	}); err != nil {
		return nil, err
	}

	return approved, nil
}

// Deny は承認待ちの登録を拒否し、レコードを完全に削除します。状態変更ではありません。
// 承認前の従業員はタスクの担当者になっていない前提で、タスク側への
// カスケードは行いません。担当を持つ従業員の削除は task 側の DeleteEmployee が担います。
func (s *Service) Deny(ctx context.Context, in DenyInput) error {
	if strings.TrimSpace(in.ID) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		if emp.Status != StatusPending {
			return ErrNotPending
		}

		return s.repo.Delete(txCtx, emp.ID)
	})
}

// AddEmployee は管理画面から承認済みの従業員を直接作成します。
func (s *Service) AddEmployee(ctx context.Context, in AddEmployeeInput) (*Employee, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	companyID := strings.TrimSpace(in.CompanyID)
	if companyID == "" {
		return nil, ErrInvalidCompanyID
	}

	email := ""
	if strings.TrimSpace(in.Email) != "" {
		normalized, err := normalizeEmail(in.Email)
		if err != nil {
			return nil, err
		}
		email = normalized
	}

	var created *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if email != "" {
			if err := s.ensureEmailNotExists(txCtx, email); err != nil {
				return err
			}
		}

		now := s.clock.Now()
		emp := &Employee{
			Name:      name,
			Email:     email,
			CompanyID: companyID,
			Role:      RoleEmployee,
			Status:    StatusApproved,
			CreatedAt: now,
			UpdatedAt: now,
		}

		result, err := s.repo.Create(txCtx, emp)
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

// RenameEmployee は従業員の表示名を変更します。
func (s *Service) RenameEmployee(ctx context.Context, in RenameEmployeeInput) (*Employee, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	var renamed *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		emp.Name = name
		emp.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, emp)
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

// ListEmployees は従業員の一覧を取得します。
func (s *Service) ListEmployees(ctx context.Context) ([]*Employee, error) {
	var employees []*Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.List(txCtx)
		if err != nil {
			return err
		}
		employees = result
		return nil
	}); err != nil {
		return nil, err
	}

	return employees, nil
}

func (s *Service) ensureEmailNotExists(ctx context.Context, email string) error {
	emp, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		return err
	}
	if emp != nil {
		return ErrEmailAlreadyExists
	}
	return nil
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return "", ErrInvalidEmail
	}

	return strings.ToLower(addr.Address), nil
}

const verificationTokenBytes = 24

// newVerificationToken は推測不可能な不透明トークンを生成します。
func newVerificationToken(now time.Time) (string, error) {
	buf := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	random := base64.RawURLEncoding.EncodeToString(buf)
	return random + strconv.FormatInt(now.UnixMilli(), 36), nil
}
