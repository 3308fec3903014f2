package company

import "time"

// Company は会社エンティティです。従業員とタスクから id 参照されます。
type Company struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
