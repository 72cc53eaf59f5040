package canonical

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// =============================================================================
// CONTENT PARTS - {"type":"text","text":...} | {"type":"image_url","url":...}
// =============================================================================

// ContentType tags a content part.
type ContentType string

const (
	ContentText     ContentType = "text"
	ContentImageURL ContentType = "image_url"
)

// ContentPart is exactly one of Text or URL, selected by Type.
type ContentPart struct {
	Type ContentType
	Text string
	URL  string
}

// TextPart creates a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: ContentText, Text: text}
}

// ImagePart creates an image-url content part.
func ImagePart(url string) ContentPart {
	return ContentPart{Type: ContentImageURL, URL: url}
}

type textPartJSON struct {
	Type ContentType `json:"type"`
	Text string      `json:"text"`
}

type imagePartJSON struct {
	Type ContentType `json:"type"`
	URL  string      `json:"url"`
}

// MarshalJSON emits the tagged wire form.
func (p ContentPart) MarshalJSON() ([]byte, error) {
	switch p.Type {
	case ContentText:
		return json.Marshal(textPartJSON{Type: p.Type, Text: p.Text})
	case ContentImageURL:
		return json.Marshal(imagePartJSON{Type: p.Type, URL: p.URL})
	default:
		return nil, fmt.Errorf("unknown content part type %q", p.Type)
	}
}

// UnmarshalJSON decodes the tagged wire form. The field matching the tag
// must be present.
func (p *ContentPart) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type string  `json:"type"`
		Text *string `json:"text"`
		URL  *string `json:"url"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch ContentType(raw.Type) {
	case ContentText:
		if raw.Text == nil {
			return fmt.Errorf("text content part is missing field \"text\"")
		}
		*p = TextPart(*raw.Text)
	case ContentImageURL:
		if raw.URL == nil {
			return fmt.Errorf("image_url content part is missing field \"url\"")
		}
		*p = ImagePart(*raw.URL)
	case "":
		return fmt.Errorf("content part is missing field \"type\"")
	default:
		return fmt.Errorf("unknown content part type %q", raw.Type)
	}
	return nil
}

// =============================================================================
// TOOL CHOICE - "auto" | "none" | "required" | {"name": "..."}
// =============================================================================

// ToolChoiceMode is a bare tool-choice mode.
type ToolChoiceMode string

const (
	ToolChoiceAuto     ToolChoiceMode = "auto"
	ToolChoiceNone     ToolChoiceMode = "none"
	ToolChoiceRequired ToolChoiceMode = "required"
)

// ToolChoice is either a Mode or a named tool selection (Mode empty).
type ToolChoice struct {
	Mode ToolChoiceMode
	Name string
}

// ModeChoice creates a mode tool choice.
func ModeChoice(mode ToolChoiceMode) *ToolChoice {
	return &ToolChoice{Mode: mode}
}

// NamedChoice creates a named tool choice.
func NamedChoice(name string) *ToolChoice {
	return &ToolChoice{Name: name}
}

// Named reports whether a specific tool is selected.
func (c *ToolChoice) Named() bool {
	return c.Mode == ""
}

// MarshalJSON emits a bare string for modes and {"name": ...} otherwise.
func (c ToolChoice) MarshalJSON() ([]byte, error) {
	if c.Mode != "" {
		return json.Marshal(string(c.Mode))
	}
	return json.Marshal(struct {
		Name string `json:"name"`
	}{Name: c.Name})
}

// UnmarshalJSON resolves the union by shape: a string is a mode, an object
// with a string "name" is a named selection. Anything else is rejected.
func (c *ToolChoice) UnmarshalJSON(data []byte) error {
	res := gjson.ParseBytes(data)

	switch {
	case res.Type == gjson.String:
		switch mode := ToolChoiceMode(res.Str); mode {
		case ToolChoiceAuto, ToolChoiceNone, ToolChoiceRequired:
			*c = ToolChoice{Mode: mode}
			return nil
		default:
			return fmt.Errorf("unknown tool_choice mode %q", res.Str)
		}
	case res.IsObject():
		name := res.Get("name")
		if name.Type != gjson.String {
			return fmt.Errorf("tool_choice object requires a string field \"name\"")
		}
		*c = ToolChoice{Name: name.Str}
		return nil
	default:
		return fmt.Errorf("tool_choice must be a mode string or an object with \"name\"")
	}
}
