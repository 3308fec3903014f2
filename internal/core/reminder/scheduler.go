package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ogurasousui/taskflow-core/internal/core/task"
)

// DefaultInterval はポーリング間隔の既定値です。
const DefaultInterval = 30 * time.Second

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TaskSource はリマインダー判定に必要なタスク一覧への狭い窓口です。
type TaskSource interface {
	ListTasks(ctx context.Context) ([]*task.Task, error)
}

// Scheduler は一定間隔でタスクのリマインダー時刻を監視し、期限が来たものを
// 通知として配信します。ひとつのゴルーチンからのみ操作される前提で、
// 内部状態にロックは持ちません。
type Scheduler struct {
	source   TaskSource
	notifier Notifier
	auth     Authorizer
	clock    Clock
	interval time.Duration
	log      zerolog.Logger

	lastTick  time.Time
	fired     map[string]struct{}
	requested bool
}

// NewScheduler は Scheduler を生成します。interval が 0 以下の場合は
// DefaultInterval を使います。
func NewScheduler(source TaskSource, notifier Notifier, auth Authorizer, clock Clock, interval time.Duration, log zerolog.Logger) *Scheduler {
	if clock == nil {
		clock = realClock{}
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		source:   source,
		notifier: notifier,
		auth:     auth,
		clock:    clock,
		interval: interval,
		log:      log,
		lastTick: clock.Now(),
		fired:    make(map[string]struct{}),
	}
}

// Run はコンテキストが打ち切られるまでポーリングを続けます。通知許可が
// 明示的に拒否された場合は ErrNotificationsDenied で停止します。
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("reminder scheduler started")

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("reminder scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.Tick(ctx, s.clock.Now()); err != nil {
				if errors.Is(err, ErrNotificationsDenied) {
					s.log.Warn().Msg("notifications denied, scheduler shutting down")
					return err
				}
				s.log.Error().Err(err).Msg("reminder tick failed")
			}
		}
	}
}

// Tick は 1 回分の走査を実行します。前回の走査時刻より後で now 以前
// （半開区間）にリマインダー時刻を持つタスクを通知します。走査時刻は
// 通知の成否にかかわらず必ず前進します。
func (s *Scheduler) Tick(ctx context.Context, now time.Time) error {
	prev := s.lastTick
	s.lastTick = now

	tasks, err := s.source.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	due := make([]*task.Task, 0, len(tasks))
	hasReminders := false
	for _, t := range tasks {
		if t.ReminderAt == nil {
			continue
		}
		hasReminders = true
		if t.ReminderAt.After(prev) && !t.ReminderAt.After(now) {
			due = append(due, t)
		}
	}

	// リマインダーを持つタスクがひとつもなければ許可の確認すら行いません。
	if !hasReminders {
		return nil
	}

	switch perm := s.permission(ctx); perm {
	case PermissionGranted:
	case PermissionDenied:
		return ErrNotificationsDenied
	default:
		return nil
	}

	for _, t := range due {
		key := firedKey(t)
		if _, ok := s.fired[key]; ok {
			continue
		}

		n := Notification{
			Title:     "Task Reminder: " + t.Title,
			Body:      fmt.Sprintf("This task is due on %s.", t.Deadline.Format("2006-01-02")),
			DedupeTag: t.ID,
		}
		if err := s.notifier.Send(ctx, n); err != nil {
			s.log.Error().Err(err).Str("task_id", t.ID).Msg("failed to deliver reminder")
			continue
		}

		s.fired[key] = struct{}{}
		s.log.Info().Str("task_id", t.ID).Time("reminder_at", *t.ReminderAt).Msg("reminder delivered")
	}

	return nil
}

// permission は現在の許可状態を返します。未確定の場合、最初の 1 回に限り
// 許可を要求します。
func (s *Scheduler) permission(ctx context.Context) Permission {
	perm := s.auth.Current()
	if perm != PermissionUndetermined || s.requested {
		return perm
	}

	s.requested = true
	granted, err := s.auth.Request(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("notification permission request failed")
		return PermissionUndetermined
	}
	return granted
}

// firedKey はタスク ID とリマインダー時刻の組で通知済みを記録します。
// リマインダー時刻が変更されると別のキーになり、再通知の対象に戻ります。
func firedKey(t *task.Task) string {
	return t.ID + "-" + t.ReminderAt.UTC().Format(time.RFC3339)
}
