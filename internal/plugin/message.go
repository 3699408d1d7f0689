package plugin

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Message is one entry of the conversation reported by agent_end.
type Message struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// ContentBlock is a typed piece of message or tool-result content.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// TextBlock returns a text-typed block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: "text", Text: text}
}

// Content is message content, which hosts send either as a plain string or
// as a list of typed blocks.
type Content struct {
	// String is set when the content was a plain string.
	String *string
	Blocks []ContentBlock
}

// UnmarshalJSON accepts a string or an array of blocks. Any other shape
// decodes to empty content.
func (c *Content) UnmarshalJSON(data []byte) error {
	*c = Content{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		c.String = &s
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		for _, r := range raw {
			var b ContentBlock
			if err := json.Unmarshal(r, &b); err != nil {
				continue
			}
			c.Blocks = append(c.Blocks, b)
		}
	}
	return nil
}

// MarshalJSON writes the content back in the shape it was received.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.String != nil {
		return json.Marshal(*c.String)
	}
	if c.Blocks == nil {
		return []byte("null"), nil
	}
	return json.Marshal(c.Blocks)
}

// Text returns the readable text of the content: the trimmed string, or the
// text-typed blocks joined by newlines in order, trimmed.
func (c Content) Text() string {
	if c.String != nil {
		return strings.TrimSpace(*c.String)
	}

	parts := make([]string, 0, len(c.Blocks))
	for _, b := range c.Blocks {
		if b.Type != "text" {
			continue
		}
		parts = append(parts, b.Text)
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// StringContent builds plain-string content.
func StringContent(s string) Content {
	return Content{String: &s}
}

// BlockContent builds block content.
func BlockContent(blocks ...ContentBlock) Content {
	return Content{Blocks: blocks}
}
