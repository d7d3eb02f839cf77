package provider

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"muhabbet/model"
	"muhabbet/provider/testutil"
)

func TestConvertToOllamaMessages(t *testing.T) {
	png, err := base64.StdEncoding.DecodeString(testutil.TinyPNG)
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}

	tests := []struct {
		name        string
		input       []model.Turn
		wantContent []string
		wantImages  []int
	}{
		{
			name:        "empty slice",
			input:       []model.Turn{},
			wantContent: []string{},
			wantImages:  []int{},
		},
		{
			name: "text turns",
			input: []model.Turn{
				{Role: model.RoleSystem, Content: model.Text("persona")},
				{Role: model.RoleUser, Content: model.Text("Merhaba")},
			},
			wantContent: []string{"persona", "Merhaba"},
			wantImages:  []int{0, 0},
		},
		{
			name: "inline image is decoded",
			input: []model.Turn{
				{Role: model.RoleUser, Content: model.MultimodalContent{Parts: []model.Part{
					model.TextPart("Bu ne?"),
					model.ImagePart("data:image/png;base64," + testutil.TinyPNG),
				}}},
			},
			wantContent: []string{"Bu ne?"},
			wantImages:  []int{1},
		},
		{
			name: "remote image is noted in text",
			input: []model.Turn{
				{Role: model.RoleUser, Content: model.MultimodalContent{Parts: []model.Part{
					model.TextPart("Bak"),
					model.ImagePart("https://example.com/a.jpg"),
				}}},
			},
			wantContent: []string{"Bak\n\n[Görsel: https://example.com/a.jpg]"},
			wantImages:  []int{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ConvertToOllamaMessages(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(result) != len(tt.wantContent) {
				t.Fatalf("length mismatch: got %d, want %d", len(result), len(tt.wantContent))
			}

			for i, msg := range result {
				if msg.Role != string(tt.input[i].Role) {
					t.Errorf("message %d role: got %q, want %q", i, msg.Role, tt.input[i].Role)
				}
				if msg.Content != tt.wantContent[i] {
					t.Errorf("message %d content: got %q, want %q", i, msg.Content, tt.wantContent[i])
				}
				if len(msg.Images) != tt.wantImages[i] {
					t.Errorf("message %d images: got %d, want %d", i, len(msg.Images), tt.wantImages[i])
				}
				for _, img := range msg.Images {
					if !bytes.Equal(img, png) {
						t.Errorf("message %d image bytes not decoded", i)
					}
				}
			}
		})
	}
}

func TestConvertToOllamaMessagesBadBase64(t *testing.T) {
	input := []model.Turn{
		{Role: model.RoleUser, Content: model.MultimodalContent{Parts: []model.Part{
			model.ImagePart("data:image/png;base64,!!!"),
		}}},
	}
	if _, err := ConvertToOllamaMessages(input); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

func TestConvertToOpenAIMessages(t *testing.T) {
	turns := []model.Turn{
		{Role: model.RoleSystem, Content: model.Text("persona")},
		{Role: model.RoleAssistant, Content: model.Text("Selam!")},
		{Role: model.RoleUser, Content: model.MultimodalContent{Parts: []model.Part{
			model.TextPart("Bu ne?"),
			model.ImagePart("https://example.com/cat.jpg"),
		}}},
	}

	msgs := ConvertToOpenAIMessages(turns)
	if len(msgs) != 3 {
		t.Fatalf("length mismatch: got %d, want 3", len(msgs))
	}

	data, err := json.Marshal(msgs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	wantRoles := []string{"system", "assistant", "user"}
	for i, role := range wantRoles {
		if decoded[i]["role"] != role {
			t.Errorf("message %d role: got %v, want %s", i, decoded[i]["role"], role)
		}
	}

	parts, ok := decoded[2]["content"].([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("user content: got %#v, want 2 parts", decoded[2]["content"])
	}
	for _, want := range []string{`"type":"image_url"`, `"url":"https://example.com/cat.jpg"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("openai messages %s missing %s", data, want)
		}
	}
}

func TestConvertToAnthropicMessages(t *testing.T) {
	turns := []model.Turn{
		{Role: model.RoleSystem, Content: model.Text("persona")},
		{Role: model.RoleUser, Content: model.Text("Merhaba")},
		{Role: model.RoleAssistant, Content: model.Text("Selam")},
		{Role: model.RoleSystem, Content: model.Text("[özet]")},
		{Role: model.RoleUser, Content: model.MultimodalContent{Parts: []model.Part{
			model.TextPart("Bu ne?"),
			model.ImagePart("data:image/png;base64," + testutil.TinyPNG),
		}}},
	}

	msgs, system := ConvertToAnthropicMessages(turns)

	if len(system) != 2 {
		t.Fatalf("system blocks: got %d, want 2", len(system))
	}
	if system[0].Text != "persona" || system[1].Text != "[özet]" {
		t.Errorf("system texts: got %q, %q", system[0].Text, system[1].Text)
	}
	if len(msgs) != 3 {
		t.Fatalf("messages: got %d, want 3", len(msgs))
	}

	data, err := json.Marshal(msgs[2])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(data)
	for _, want := range []string{`"type":"image"`, `"media_type":"image/png"`, `"type":"base64"`, `"text":"Bu ne?"`} {
		if !strings.Contains(got, want) {
			t.Errorf("anthropic user message %s missing %s", got, want)
		}
	}
}
