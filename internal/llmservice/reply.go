package llmservice

import (
	"encoding/json"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// Shape records which field of the first choice carried the reply text.
type Shape int

const (
	ShapeUnrecognized Shape = iota
	ShapeMessage            // choices[0].message.content
	ShapeText               // choices[0].text
	ShapeDelta              // choices[0].delta.content
)

func (s Shape) String() string {
	switch s {
	case ShapeMessage:
		return "message"
	case ShapeText:
		return "text"
	case ShapeDelta:
		return "delta"
	default:
		return "unrecognized"
	}
}

// Reply is a decoded completion. Content is empty iff Shape is
// ShapeUnrecognized.
type Reply struct {
	Shape   Shape
	Content string
}

type choicePayload struct {
	Message *struct {
		Content *string `json:"content"`
	} `json:"message"`
	Text  *string `json:"text"`
	Delta *struct {
		Content *string `json:"content"`
	} `json:"delta"`
}

type completionPayload struct {
	Choices []choicePayload `json:"choices"`
}

// DecodeReply never fails: bodies that do not decode, or that carry no text
// in any known field, come back as ShapeUnrecognized.
func DecodeReply(raw []byte) Reply {
	var payload completionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Reply{}
	}
	shape, content := firstChoice(payload)
	if shape == ShapeUnrecognized {
		return Reply{}
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return Reply{}
	}
	return Reply{Shape: shape, Content: content}
}

func firstChoice(payload completionPayload) (Shape, string) {
	if len(payload.Choices) == 0 {
		return ShapeUnrecognized, ""
	}
	c := payload.Choices[0]
	switch {
	case c.Message != nil && c.Message.Content != nil && *c.Message.Content != "":
		return ShapeMessage, *c.Message.Content
	case c.Text != nil && *c.Text != "":
		return ShapeText, *c.Text
	case c.Delta != nil && c.Delta.Content != nil && *c.Delta.Content != "":
		return ShapeDelta, *c.Delta.Content
	}
	return ShapeUnrecognized, ""
}

// ReplyFromContent maps a langchaingo response onto the same union.
func ReplyFromContent(resp *llms.ContentResponse) Reply {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return Reply{}
	}
	content := strings.TrimSpace(resp.Choices[0].Content)
	if content == "" {
		return Reply{}
	}
	return Reply{Shape: ShapeMessage, Content: content}
}
