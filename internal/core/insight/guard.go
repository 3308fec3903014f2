package insight

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Guard は Suggester をサーキットブレーカーで包みます。外部の提案サービスが
// 落ちている間は即座に ErrUnavailable を返し、呼び出し側を巻き込みません。
type Guard struct {
	inner   Suggester
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// NewGuard は Guard を生成します。連続 3 回の失敗で回路を開き、30 秒後に
// 復帰を試します。
func NewGuard(inner Suggester, log zerolog.Logger) *Guard {
	settings := gobreaker.Settings{
		Name:    "insight-suggester",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("suggester breaker state changed")
		},
	}
	return &Guard{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		log:     log,
	}
}

// Suggest は内側の提案器を呼び出します。回路が開いている間は内側を呼ばずに
// ErrUnavailable を返します。内側の失敗もすべて ErrUnavailable に写像され、
// 呼び出し側は提案なしで続行できます。
func (g *Guard) Suggest(ctx context.Context, req Request) (*Suggestion, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.Suggest(ctx, req)
	})
	if err != nil {
		if !errors.Is(err, gobreaker.ErrOpenState) && !errors.Is(err, gobreaker.ErrTooManyRequests) {
			g.log.Error().Err(err).Msg("suggester call failed")
		}
		return nil, ErrUnavailable
	}
	return result.(*Suggestion), nil
}
