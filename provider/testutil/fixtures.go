package testutil

import (
	"fmt"
	"time"

	"muhabbet/model"
)

// TinyPNG is a valid 1x1 transparent PNG, base64 encoded.
const TinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// TestTurns returns a sample conversation for testing
func TestTurns() []model.Turn {
	now := time.Now()
	return []model.Turn{
		model.NewTextTurn(model.RoleAssistant, "Selam! Ben Muhabbet AI.", now),
		model.NewTextTurn(model.RoleUser, "Merhaba, nasılsın?", now),
		model.NewTextTurn(model.RoleAssistant, "İyiyim, teşekkürler!", now),
		model.NewTextTurn(model.RoleUser, "Bana bir konuda yardım eder misin?", now),
	}
}

// AlternatingTurns returns n turns alternating user/assistant, texts m0..m(n-1).
func AlternatingTurns(n int) []model.Turn {
	now := time.Now()
	turns := make([]model.Turn, n)
	for i := range turns {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		turns[i] = model.NewTextTurn(role, fmt.Sprintf("m%d", i), now)
	}
	return turns
}

// TextRequest returns a minimal system+user request.
func TextRequest(userText string) model.Request {
	return model.Request{
		Messages: []model.Turn{
			{Role: model.RoleSystem, Content: model.Text("persona")},
			{Role: model.RoleUser, Content: model.Text(userText)},
		},
		Temperature: model.DefaultTemperature,
		MaxTokens:   model.DefaultMaxTokens,
	}
}

// ImageRequest returns a system+user request with an inline PNG.
func ImageRequest(userText string) model.Request {
	req := TextRequest(userText)
	req.Messages[1].Content = model.MultimodalContent{Parts: []model.Part{
		model.TextPart(userText),
		model.ImagePart("data:image/png;base64," + TinyPNG),
	}}
	return req
}
