package reminder

import "context"

// Permission は通知の許可状態を表します。
type Permission string

const (
	PermissionUndetermined Permission = "undetermined"
	PermissionGranted      Permission = "granted"
	PermissionDenied       Permission = "denied"
)

// Notification は配信する通知の内容です。DedupeTag が同じ通知は表示側で
// 1 件に畳み込まれることを想定しています。
type Notification struct {
	Title     string
	Body      string
	DedupeTag string
}

// Notifier は通知の配信先です。
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// Authorizer は通知許可の照会と要求を抽象化します。Request はユーザーへの
// 許可確認に対応し、スケジューラはリマインダーが存在するときに一度だけ呼びます。
type Authorizer interface {
	Current() Permission
	Request(ctx context.Context) (Permission, error)
}
