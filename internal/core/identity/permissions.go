package identity

// CanManageTask は操作者がタスクを編集・削除できるかを判定します。
// CEO と管理者は常に可、マネージャーは自社のタスクのみ可、
// それ以外は自分が担当者であるタスクのみ可です。
func CanManageTask(actor Employee, taskCompanyID, taskAssigneeID string) bool {
	switch actor.Role {
	case RoleCEO, RoleAdmin:
		return true
	case RoleManager:
		if actor.CompanyID == taskCompanyID {
			return true
		}
	}
	return actor.ID != "" && actor.ID == taskAssigneeID
}

// CanViewTask は操作者がタスクを閲覧できるかを判定します。
// CEO は全社のタスクを閲覧でき、それ以外は自分が担当者であるタスクのみです。
func CanViewTask(actor Employee, taskAssigneeID string) bool {
	if actor.Role == RoleCEO {
		return true
	}
	return actor.ID != "" && actor.ID == taskAssigneeID
}
