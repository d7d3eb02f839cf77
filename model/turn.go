package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Turn represents a single message in a conversation.
//
// Content is either TextContent or MultimodalContent. A turn's role never
// changes after creation.
type Turn struct {
	ID        string
	Role      Role
	Content   Content
	CreatedAt time.Time
}

// NewTurn creates a turn with a fresh UUID.
func NewTurn(role Role, content Content, createdAt time.Time) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: createdAt,
	}
}

// NewTextTurn is a shorthand for a plain text turn.
func NewTextTurn(role Role, text string, createdAt time.Time) Turn {
	return NewTurn(role, Text(text), createdAt)
}

// Text returns the plain text of the turn, or "" when it has no content.
func (t Turn) Text() string {
	if t.Content == nil {
		return ""
	}
	return t.Content.Text()
}

type turnJSON struct {
	ID        string          `json:"id,omitempty"`
	Role      Role            `json:"role"`
	Content   json.RawMessage `json:"content"`
	CreatedAt *time.Time      `json:"timestamp,omitempty"`
}

// MarshalJSON encodes the turn with its content in the OpenAI wire shape.
func (t Turn) MarshalJSON() ([]byte, error) {
	content, err := MarshalContent(t.Content)
	if err != nil {
		return nil, err
	}

	out := turnJSON{
		ID:      t.ID,
		Role:    t.Role,
		Content: content,
	}
	if !t.CreatedAt.IsZero() {
		ts := t.CreatedAt
		out.CreatedAt = &ts
	}
	return json.Marshal(out)
}

// turnInJSON mirrors turnJSON but takes ids of any scalar type; browser
// clients number their turns.
type turnInJSON struct {
	ID        json.RawMessage `json:"id"`
	Role      Role            `json:"role"`
	Content   json.RawMessage `json:"content"`
	CreatedAt *time.Time      `json:"timestamp"`
}

// UnmarshalJSON accepts content as either a JSON string or a part array.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var in turnInJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	role := Role(strings.ToLower(string(in.Role)))
	if !role.Valid() {
		return fmt.Errorf("unknown role: %q", in.Role)
	}

	content, err := UnmarshalContent(in.Content)
	if err != nil {
		return fmt.Errorf("turn content: %w", err)
	}

	t.ID = decodeID(in.ID)
	t.Role = role
	t.Content = content
	t.CreatedAt = time.Time{}
	if in.CreatedAt != nil {
		t.CreatedAt = *in.CreatedAt
	}
	return nil
}

func decodeID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// StripMetadata returns copies of the turns carrying only role and content,
// which is all the context pipeline consumes.
func StripMetadata(turns []Turn) []Turn {
	out := make([]Turn, len(turns))
	for i, t := range turns {
		out[i] = Turn{Role: t.Role, Content: t.Content}
	}
	return out
}
