package conversation

import "muhabbet/model"

// Assemble builds the provider request: the system prompt first, the windowed
// history verbatim, then the new user turn. With an attachment the user turn
// becomes multimodal content of the text followed by the image.
func Assemble(systemPrompt string, windowed []model.Turn, userText string, attachment *model.ImageAttachment) model.Request {
	return AssembleTurn(systemPrompt, windowed, model.Turn{
		Role:    model.RoleUser,
		Content: UserContent(userText, attachment),
	})
}

// AssembleTurn is Assemble for a user turn that already exists, as when a
// stored question is asked again.
func AssembleTurn(systemPrompt string, windowed []model.Turn, user model.Turn) model.Request {
	messages := make([]model.Turn, 0, len(windowed)+2)
	messages = append(messages, model.Turn{
		Role:    model.RoleSystem,
		Content: model.Text(systemPrompt),
	})
	messages = append(messages, windowed...)
	messages = append(messages, user)

	return model.Request{
		Messages:    messages,
		Temperature: model.DefaultTemperature,
		MaxTokens:   model.DefaultMaxTokens,
	}
}

// UserContent returns the content of a user turn with an optional image.
func UserContent(text string, attachment *model.ImageAttachment) model.Content {
	if attachment == nil {
		return model.Text(text)
	}
	return model.MultimodalContent{Parts: []model.Part{
		model.TextPart(text),
		model.ImagePart(attachment.Reference()),
	}}
}
