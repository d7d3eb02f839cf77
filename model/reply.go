package model

import "time"

// ReplyKind describes how a reply was produced. It travels out of band so the
// surface can style fallbacks differently from real answers.
type ReplyKind string

const (
	ReplyOK                 ReplyKind = "ok"
	ReplyEmptyCompletion    ReplyKind = "empty_completion"
	ReplyVisionDisabled     ReplyKind = "vision_disabled"
	ReplyRateLimited        ReplyKind = "rate_limited"
	ReplyUnauthorized       ReplyKind = "unauthorized"
	ReplyNetworkUnreachable ReplyKind = "network_unreachable"
	ReplyTimeout            ReplyKind = "timeout"
	ReplyCanceled           ReplyKind = "canceled"
	ReplyUnclassified       ReplyKind = "unclassified"
)

// IsFailure reports whether the kind stands for a gateway error.
func (k ReplyKind) IsFailure() bool {
	switch k {
	case ReplyOK, ReplyEmptyCompletion, ReplyVisionDisabled:
		return false
	}
	return true
}

// Reply is the text the gateway produced for one request.
type Reply struct {
	Text        string
	GeneratedAt time.Time
	Kind        ReplyKind
}
