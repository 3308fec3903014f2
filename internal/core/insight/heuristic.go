package insight

import (
	"context"
	"strings"
	"time"

	"github.com/ogurasousui/taskflow-core/internal/core/identity"
	"github.com/ogurasousui/taskflow-core/internal/core/task"
)

// HeuristicSuggester は外部サービスに頼らないローカルな提案器です。
// タイトルの語句から優先度を、現在の担当件数から担当者を推定します。
type HeuristicSuggester struct {
	clock Clock
}

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// NewHeuristicSuggester は HeuristicSuggester を生成します。
func NewHeuristicSuggester(clock Clock) *HeuristicSuggester {
	if clock == nil {
		clock = realClock{}
	}
	return &HeuristicSuggester{clock: clock}
}

var urgentWords = []string{"urgent", "asap", "critical", "immediately", "today"}

// Suggest は簡単な規則で割り当て候補を組み立てます。担当者は承認済み従業員の
// うち担当タスクが最も少ない人を選びます。候補がいなければ空のままにします。
func (h *HeuristicSuggester) Suggest(_ context.Context, req Request) (*Suggestion, error) {
	s := &Suggestion{
		Priority: task.PriorityMedium,
		Deadline: h.clock.Now().AddDate(0, 0, 7),
	}

	text := strings.ToLower(req.Title + " " + req.Description)
	for _, w := range urgentWords {
		if strings.Contains(text, w) {
			s.Priority = task.PriorityHigh
			s.Deadline = h.clock.Now().AddDate(0, 0, 1)
			break
		}
	}

	load := make(map[string]int)
	for _, t := range req.Snapshot.Tasks {
		if t.AssigneeID != "" && t.Status != task.StatusCompleted {
			load[t.AssigneeID]++
		}
	}

	best := ""
	bestLoad := -1
	for _, emp := range req.Snapshot.Employees {
		if emp.Status != identity.StatusApproved {
			continue
		}
		if best == "" || load[emp.ID] < bestLoad {
			best = emp.ID
			bestLoad = load[emp.ID]
			s.CompanyID = emp.CompanyID
		}
	}
	s.AssigneeID = best

	return s, nil
}
