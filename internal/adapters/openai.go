package adapters

import (
	"encoding/json"

	"github.com/tidwall/sjson"

	"github.com/compresr/omni-transform/internal/canonical"
)

// OpenAIAdapter builds OpenAI Chat Completions request bodies.
// OpenAI accepts every canonical feature: tools, JSON-schema output and
// image parts all have a native place in the format.
//
// Format:
//
//	{"model": "...", "messages": [{"role": "user", "content": [{"type": "text", "text": "..."}]}],
//	 "temperature": 0.7, "top_p": 1, "max_tokens": 1024, "stream": false,
//	 "response_format": {"type": "json_schema", "json_schema": {...}}}
type OpenAIAdapter struct {
	BaseAdapter
}

// NewOpenAIAdapter creates a new OpenAI adapter.
func NewOpenAIAdapter() *OpenAIAdapter {
	return &OpenAIAdapter{
		BaseAdapter: newBaseAdapter(canonical.ProviderOpenAI),
	}
}

type openAIPayload struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	TopP        float64         `json:"top_p"`
	MaxTokens   int             `json:"max_tokens"`
	Stream      bool            `json:"stream"`
	Stop        []string        `json:"stop,omitempty"`
	Tools       []openAITool    `json:"tools,omitempty"`
}

type openAIMessage struct {
	Role       string          `json:"role"`
	Content    []openAIContent `json:"content"`
	Name       *string         `json:"name,omitempty"`
	ToolCallID *string         `json:"tool_call_id,omitempty"`
}

type openAIContent struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAITool struct {
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// Supports accepts every request.
func (a *OpenAIAdapter) Supports(req *canonical.ChatRequest) SupportReport {
	return Supported()
}

// BuildPayload maps the request into a Chat Completions body. Roles pass
// through unchanged; response_format is added only for json_schema.
func (a *OpenAIAdapter) BuildPayload(req *canonical.ChatRequest) (json.RawMessage, error) {
	payload := openAIPayload{
		Model:       req.Model,
		Messages:    make([]openAIMessage, 0, len(req.Messages)),
		Temperature: req.Generation.Temperature,
		TopP:        req.Generation.TopP,
		MaxTokens:   req.Generation.MaxTokens,
		Stream:      req.Stream,
		Stop:        req.Generation.Stop,
	}

	for _, msg := range req.Messages {
		payload.Messages = append(payload.Messages, openAIMessage{
			Role:       string(msg.Role),
			Content:    openAIContentParts(msg.Content),
			Name:       msg.Name,
			ToolCallID: msg.ToolCallID,
		})
	}

	for _, tool := range req.Tools {
		fn := openAIFunction{Name: tool.Name, Parameters: tool.InputSchema}
		if tool.Description != nil {
			fn.Description = *tool.Description
		}
		payload.Tools = append(payload.Tools, openAITool{Type: "function", Function: fn})
	}

	body, err := marshalPayload(a.provider, payload)
	if err != nil {
		return nil, err
	}

	if req.WantsJSONSchema() {
		body, err = patchRaw(a.provider, body, "response_format", map[string]any{
			"type":        canonical.ResponseFormatJSONSchema,
			"json_schema": req.ResponseFormat.JSONSchema,
		})
		if err != nil {
			return nil, err
		}
	}

	if req.ToolChoice != nil {
		body, err = a.applyToolChoice(body, req.ToolChoice)
		if err != nil {
			return nil, err
		}
	}

	return body, nil
}

// applyToolChoice sets "tool_choice" as a mode string or a function selector.
func (a *OpenAIAdapter) applyToolChoice(body []byte, choice *canonical.ToolChoice) (json.RawMessage, error) {
	if !choice.Named() {
		patched, err := sjson.SetBytes(body, "tool_choice", string(choice.Mode))
		if err != nil {
			return nil, buildError("openai payload patch failed", "could not set tool_choice", err)
		}
		return patched, nil
	}
	return patchRaw(a.provider, body, "tool_choice", map[string]any{
		"type":     "function",
		"function": map[string]string{"name": choice.Name},
	})
}

func openAIContentParts(parts []canonical.ContentPart) []openAIContent {
	out := make([]openAIContent, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case canonical.ContentText:
			out = append(out, openAIContent{Type: "text", Text: part.Text})
		case canonical.ContentImageURL:
			out = append(out, openAIContent{Type: "image_url", ImageURL: &openAIImageURL{URL: part.URL}})
		}
	}
	return out
}

// Ensure OpenAIAdapter implements Adapter
var _ Adapter = (*OpenAIAdapter)(nil)
