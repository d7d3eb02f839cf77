package model

const (
	// DefaultTemperature is the sampling temperature sent with every request.
	DefaultTemperature = 0.8
	// DefaultMaxTokens caps the completion length.
	DefaultMaxTokens = 2000
)

// Request is the provider-agnostic completion request. Messages start with the
// system turn and end with the newest user turn.
type Request struct {
	Messages    []Turn
	Temperature float64
	MaxTokens   int
}

// System returns the concatenated text of all system turns.
func (r Request) System() string {
	var out string
	for _, t := range r.Messages {
		if t.Role != RoleSystem {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += t.Text()
	}
	return out
}

// HasImages reports whether any message carries an image part.
func (r Request) HasImages() bool {
	for _, t := range r.Messages {
		if mc, ok := t.Content.(MultimodalContent); ok && len(mc.Images()) > 0 {
			return true
		}
	}
	return false
}
