package adapters

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/sjson"

	"github.com/compresr/omni-transform/internal/canonical"
)

// OllamaAdapter builds Ollama /api/chat request bodies for local models.
// Ollama keeps the OpenAI role names but takes each message's content as
// one plain string, and sampling parameters live under "options".
//
// Not expressible through this adapter: tool definitions, JSON-schema
// output, image parts.
type OllamaAdapter struct {
	BaseAdapter
}

// NewOllamaAdapter creates a new Ollama adapter.
func NewOllamaAdapter() *OllamaAdapter {
	return &OllamaAdapter{
		BaseAdapter: newBaseAdapter(canonical.ProviderOllama),
	}
}

type ollamaPayload struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64  `json:"temperature"`
	TopP        float64  `json:"top_p"`
	NumPredict  int      `json:"num_predict"`
	Stop        []string `json:"stop,omitempty"`
}

// Supports rejects tools, then JSON-schema output, then image content.
func (a *OllamaAdapter) Supports(req *canonical.ChatRequest) SupportReport {
	if req.HasTools() {
		return Unsupported(canonical.Incompatible(canonical.CodeUnsupportedToolCalling, "tools"))
	}
	if req.WantsJSONSchema() {
		return Unsupported(canonical.Incompatible(canonical.CodeUnsupportedResponseFormat, "response_format.json_schema"))
	}
	if req.HasImages() {
		return Unsupported(canonical.Incompatible(canonical.CodeUnsupportedMultimodalContent, "image_url"))
	}
	return Supported()
}

// BuildPayload maps the request into an /api/chat body. Multi-part text is
// joined with newlines. A named tool choice is passed through verbatim.
func (a *OllamaAdapter) BuildPayload(req *canonical.ChatRequest) (json.RawMessage, error) {
	payload := ollamaPayload{
		Model:    req.Model,
		Messages: make([]ollamaMessage, 0, len(req.Messages)),
		Stream:   req.Stream,
		Options: ollamaOptions{
			Temperature: req.Generation.Temperature,
			TopP:        req.Generation.TopP,
			NumPredict:  req.Generation.MaxTokens,
			Stop:        req.Generation.Stop,
		},
	}

	for _, msg := range req.Messages {
		content, err := flattenText(msg.Content)
		if err != nil {
			return nil, err
		}
		payload.Messages = append(payload.Messages, ollamaMessage{
			Role:    string(msg.Role),
			Content: content,
		})
	}

	body, err := marshalPayload(a.provider, payload)
	if err != nil {
		return nil, err
	}

	if req.ToolChoice != nil && req.ToolChoice.Named() {
		body, err = sjson.SetBytes(body, "tool_choice", req.ToolChoice.Name)
		if err != nil {
			return nil, buildError("ollama payload patch failed", "could not set tool_choice", err)
		}
	}

	return body, nil
}

// flattenText joins text parts with newlines. Supports already rejects
// images; an image part reaching this point is a build failure.
func flattenText(parts []canonical.ContentPart) (string, error) {
	texts := make([]string, 0, len(parts))
	for _, part := range parts {
		if part.Type != canonical.ContentText {
			return "", buildError(
				"Ollama text-only payload build failed",
				"image content is not supported for text flattening",
				nil,
			)
		}
		texts = append(texts, part.Text)
	}
	return strings.Join(texts, "\n"), nil
}

// Ensure OllamaAdapter implements Adapter
var _ Adapter = (*OllamaAdapter)(nil)
