package reminder

import "errors"

var (
	// ErrNotificationsDenied は通知許可が明示的に拒否されたことを表します。
	// スケジューラはこのエラーで停止します。
	ErrNotificationsDenied = errors.New("reminder: notifications denied")
)
