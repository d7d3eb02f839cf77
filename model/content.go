package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ContentKind tags the two shapes a turn's content can take.
type ContentKind string

const (
	ContentText       ContentKind = "text"
	ContentMultimodal ContentKind = "multimodal"
)

// Content is the tagged variant TextContent | MultimodalContent.
// The unexported method closes the set to this package.
type Content interface {
	Kind() ContentKind
	// Text returns the plain text carried by the content.
	Text() string
	isContent()
}

// TextContent is plain text.
type TextContent struct {
	Value string
}

// MultimodalContent is an ordered list of text and image parts.
type MultimodalContent struct {
	Parts []Part
}

// PartKind identifies a multimodal part.
type PartKind string

const (
	PartText  PartKind = "text"
	PartImage PartKind = "image_url"
)

// Part is one element of multimodal content. ImageURL holds either a remote
// URL or a data: URI.
type Part struct {
	Kind     PartKind
	Text     string
	ImageURL string
}

// TextPart creates a text part.
func TextPart(text string) Part {
	return Part{Kind: PartText, Text: text}
}

// ImagePart creates an image part referencing url.
func ImagePart(url string) Part {
	return Part{Kind: PartImage, ImageURL: url}
}

func (TextContent) Kind() ContentKind       { return ContentText }
func (c TextContent) Text() string          { return c.Value }
func (TextContent) isContent()              {}
func (MultimodalContent) Kind() ContentKind { return ContentMultimodal }
func (MultimodalContent) isContent()        {}

// Text returns the first text part, or "" when there is none.
func (c MultimodalContent) Text() string {
	for _, p := range c.Parts {
		if p.Kind == PartText {
			return p.Text
		}
	}
	return ""
}

// Images returns the image URLs in order.
func (c MultimodalContent) Images() []string {
	var urls []string
	for _, p := range c.Parts {
		if p.Kind == PartImage {
			urls = append(urls, p.ImageURL)
		}
	}
	return urls
}

// Text builds a TextContent.
func Text(s string) TextContent {
	return TextContent{Value: s}
}

type partJSON struct {
	Type     string        `json:"type"`
	Text     *string       `json:"text,omitempty"`
	ImageURL *imageURLJSON `json:"image_url,omitempty"`
}

type imageURLJSON struct {
	URL string `json:"url"`
}

// MarshalContent encodes content as a JSON string or an OpenAI-style part array.
func MarshalContent(c Content) ([]byte, error) {
	switch v := c.(type) {
	case nil:
		return []byte(`""`), nil
	case TextContent:
		return json.Marshal(v.Value)
	case MultimodalContent:
		parts := make([]partJSON, 0, len(v.Parts))
		for _, p := range v.Parts {
			switch p.Kind {
			case PartText:
				text := p.Text
				parts = append(parts, partJSON{Type: string(PartText), Text: &text})
			case PartImage:
				parts = append(parts, partJSON{Type: string(PartImage), ImageURL: &imageURLJSON{URL: p.ImageURL}})
			default:
				return nil, fmt.Errorf("unknown part kind: %q", p.Kind)
			}
		}
		return json.Marshal(parts)
	default:
		return nil, fmt.Errorf("unsupported content type %T", c)
	}
}

// UnmarshalContent decodes content written by MarshalContent or sent by the
// browser client.
func UnmarshalContent(data []byte) (Content, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Text(""), nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		return Text(s), nil
	case '[':
		var raw []partJSON
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, err
		}
		parts := make([]Part, 0, len(raw))
		for _, p := range raw {
			switch strings.ToLower(p.Type) {
			case "text":
				text := ""
				if p.Text != nil {
					text = *p.Text
				}
				parts = append(parts, TextPart(text))
			case "image_url", "image":
				if p.ImageURL == nil || p.ImageURL.URL == "" {
					return nil, errors.New("image part without url")
				}
				parts = append(parts, ImagePart(p.ImageURL.URL))
			default:
				return nil, fmt.Errorf("unknown part type: %q", p.Type)
			}
		}
		return MultimodalContent{Parts: parts}, nil
	default:
		return nil, errors.New("content must be a string or an array of parts")
	}
}
