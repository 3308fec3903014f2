package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ogurasousui/taskflow-core/internal/core/reminder"
)

// LogNotifier は通知を構造化ログとして出力する配信先です。同じ DedupeTag の
// 通知は置き換えとして扱い、その旨をログに残します。
type LogNotifier struct {
	log zerolog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewLogNotifier は LogNotifier を生成します。
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log, seen: make(map[string]struct{})}
}

// Send は通知をログに出力します。
func (n *LogNotifier) Send(_ context.Context, notification reminder.Notification) error {
	n.mu.Lock()
	_, replaced := n.seen[notification.DedupeTag]
	n.seen[notification.DedupeTag] = struct{}{}
	n.mu.Unlock()

	n.log.Info().
		Str("title", notification.Title).
		Str("body", notification.Body).
		Str("dedupe_tag", notification.DedupeTag).
		Bool("replaces_previous", replaced).
		Msg("notification")
	return nil
}

// StaticAuthorizer は設定値で固定された通知許可です。Request は設定された
// 判断をそのまま返し、対話的な確認の代わりになります。
type StaticAuthorizer struct {
	mu       sync.Mutex
	current  reminder.Permission
	decision reminder.Permission
}

// NewStaticAuthorizer は StaticAuthorizer を生成します。decision は許可要求に
// 対する答えとして使われます。
func NewStaticAuthorizer(decision reminder.Permission) *StaticAuthorizer {
	return &StaticAuthorizer{current: reminder.PermissionUndetermined, decision: decision}
}

// Current は現在の許可状態を返します。
func (a *StaticAuthorizer) Current() reminder.Permission {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Request は設定された判断を現在の状態として確定します。
func (a *StaticAuthorizer) Request(context.Context) (reminder.Permission, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = a.decision
	return a.current, nil
}
