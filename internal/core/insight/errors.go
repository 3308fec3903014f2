package insight

import "errors"

var (
	// ErrUnavailable は提案器が一時的に利用できないことを表します。呼び出し側は
	// 提案なしで処理を続行できます。
	ErrUnavailable = errors.New("insight: suggester unavailable")
)
