package provider

import (
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"

	"muhabbet/model"
)

// ConvertToOpenAIMessages converts turns to OpenAI chat messages.
//
// Multimodal user turns become content-part arrays of text and image_url
// parts in their original order. System and assistant turns are always sent
// as plain text.
//
// Example:
//
//	turns := []model.Turn{
//	    {Role: model.RoleSystem, Content: model.Text("persona")},
//	    {Role: model.RoleUser, Content: model.Text("Selam")},
//	}
//	msgs := ConvertToOpenAIMessages(turns)
func ConvertToOpenAIMessages(turns []model.Turn) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case model.RoleSystem:
			result = append(result, openai.SystemMessage(t.Text()))
		case model.RoleAssistant:
			result = append(result, openai.AssistantMessage(t.Text()))
		default:
			mc, ok := t.Content.(model.MultimodalContent)
			if !ok {
				result = append(result, openai.UserMessage(t.Text()))
				continue
			}
			parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(mc.Parts))
			for _, p := range mc.Parts {
				switch p.Kind {
				case model.PartImage:
					parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
						URL: p.ImageURL,
					}))
				default:
					parts = append(parts, openai.TextContentPart(p.Text))
				}
			}
			result = append(result, openai.UserMessage(parts))
		}
	}
	return result
}

// ConvertToAnthropicMessages converts turns to Anthropic messages.
// Returns the message array and the system blocks found, since Anthropic
// takes the system prompt as a separate parameter.
//
// Data URI images become base64 image blocks; remote images become URL
// image blocks.
func ConvertToAnthropicMessages(turns []model.Turn) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var systemBlocks []anthropic.TextBlockParam
	anthropicMsgs := make([]anthropic.MessageParam, 0, len(turns))

	for _, t := range turns {
		switch t.Role {
		case model.RoleSystem:
			systemBlocks = append(systemBlocks, anthropic.TextBlockParam{
				Text: t.Text(),
			})

		case model.RoleAssistant:
			anthropicMsgs = append(anthropicMsgs,
				anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Text())),
			)

		default:
			anthropicMsgs = append(anthropicMsgs,
				anthropic.NewUserMessage(anthropicBlocks(t.Content)...),
			)
		}
	}

	return anthropicMsgs, systemBlocks
}

func anthropicBlocks(c model.Content) []anthropic.ContentBlockParamUnion {
	mc, ok := c.(model.MultimodalContent)
	if !ok {
		text := ""
		if c != nil {
			text = c.Text()
		}
		return []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(text)}
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(mc.Parts))
	for _, p := range mc.Parts {
		switch p.Kind {
		case model.PartImage:
			if d, err := model.ParseDataURI(p.ImageURL); err == nil {
				blocks = append(blocks, anthropic.NewImageBlockBase64(d.MimeType, d.Data))
				continue
			}
			blocks = append(blocks, anthropic.NewImageBlock(anthropic.URLImageSourceParam{URL: p.ImageURL}))
		default:
			// Anthropic rejects empty text blocks.
			if p.Text == "" {
				continue
			}
			blocks = append(blocks, anthropic.NewTextBlock(p.Text))
		}
	}
	return blocks
}

// ConvertToOllamaMessages converts turns to Ollama api.Message values.
//
// Ollama only accepts inline image bytes, so data URI images are decoded into
// Images. Remote image URLs cannot be fetched by the server and are appended to
// the text instead.
func ConvertToOllamaMessages(turns []model.Turn) ([]api.Message, error) {
	result := make([]api.Message, len(turns))
	for i, t := range turns {
		msg := api.Message{
			Role:    string(t.Role),
			Content: t.Text(),
		}

		if mc, ok := t.Content.(model.MultimodalContent); ok {
			var remote []string
			for _, ref := range mc.Images() {
				if !model.IsDataURI(ref) {
					remote = append(remote, ref)
					continue
				}
				d, err := model.ParseDataURI(ref)
				if err != nil {
					return nil, fmt.Errorf("turn %d image: %w", i, err)
				}
				raw, err := d.Bytes()
				if err != nil {
					return nil, fmt.Errorf("turn %d image: %w", i, err)
				}
				msg.Images = append(msg.Images, api.ImageData(raw))
			}
			if len(remote) > 0 {
				msg.Content = strings.TrimSpace(msg.Content + "\n\n[Görsel: " + strings.Join(remote, ", ") + "]")
			}
		}

		result[i] = msg
	}
	return result, nil
}
