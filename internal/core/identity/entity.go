package identity

import "time"

// Role は従業員の権限区分を表します。
type Role string

const (
	RoleCEO      Role = "ceo"
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Status は従業員アカウントの状態を表します。
// 遷移は pending_verification → pending → approved の一方向のみです。
type Status string

const (
	StatusPendingVerification Status = "pending_verification"
	StatusPending             Status = "pending"
	StatusApproved            Status = "approved"
)

// Employee は従業員エンティティです。
type Employee struct {
	ID                string
	Name              string
	Email             string
	Password          string
	CompanyID         string
	Role              Role
	Status            Status
	VerificationToken string
	CanViewDashboard  bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Session はログイン済みユーザーの明示的なセッションコンテキストです。
// ログイン時に生成され、ログアウト時に破棄されます。
type Session struct {
	Employee   Employee
	LoggedInAt time.Time
}
