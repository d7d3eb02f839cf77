package conversation

import (
	"fmt"

	"muhabbet/model"
)

const (
	// DefaultMaxTurns is the history length above which windowing kicks in.
	DefaultMaxTurns = 20
	// DefaultKeepRecent is how many trailing turns survive windowing.
	DefaultKeepRecent = 15
)

// Windower reduces a turn history to the subset sent to the model.
type Windower interface {
	Window(turns []model.Turn) []model.Turn
}

// SlidingWindow keeps the opening turn and the most recent turns, replacing
// everything in between with a single system placeholder.
//
// Zero values fall back to DefaultMaxTurns and DefaultKeepRecent.
type SlidingWindow struct {
	MaxTurns   int
	KeepRecent int
}

// NewSlidingWindow returns a window with the default bounds.
func NewSlidingWindow() SlidingWindow {
	return SlidingWindow{MaxTurns: DefaultMaxTurns, KeepRecent: DefaultKeepRecent}
}

func (w SlidingWindow) bounds() (maxTurns, keep int) {
	maxTurns, keep = w.MaxTurns, w.KeepRecent
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	if keep <= 0 || keep >= maxTurns {
		keep = min(DefaultKeepRecent, maxTurns-1)
	}
	return maxTurns, keep
}

// Window returns turns unchanged when there are at most MaxTurns of them.
// Otherwise it returns [first, summary, ...last KeepRecent]. The input slice
// is never modified.
func (w SlidingWindow) Window(turns []model.Turn) []model.Turn {
	maxTurns, keep := w.bounds()
	if len(turns) <= maxTurns {
		out := make([]model.Turn, len(turns))
		copy(out, turns)
		return out
	}

	first := turns[0]
	recent := turns[len(turns)-keep:]
	dropped := len(turns) - 1 - keep

	out := make([]model.Turn, 0, keep+2)
	out = append(out, first)
	if dropped > 0 {
		out = append(out, SummaryTurn(dropped))
	}
	return append(out, recent...)
}

// SummaryTurn is the placeholder standing in for n elided turns.
func SummaryTurn(n int) model.Turn {
	return model.Turn{
		Role:    model.RoleSystem,
		Content: model.Text(SummaryText(n)),
	}
}

// SummaryText renders the placeholder text for n elided turns.
func SummaryText(n int) string {
	return fmt.Sprintf("[Önceki %d mesaj özetlendi: Kullanıcı ve asistan arasında çeşitli konularda sohbet edildi]", n)
}
