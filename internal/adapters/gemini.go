package adapters

import (
	"encoding/json"

	"github.com/compresr/omni-transform/internal/canonical"
)

// GeminiAdapter builds Google Gemini generateContent request bodies.
// Gemini uses contents[]/parts[] instead of messages[] and has only two
// conversation roles.
//
// Key format differences:
//   - Roles: assistant → "model", everything else → "user"
//   - Images: parts[].file_data with a generic image mime type
//   - Sampling: generationConfig {temperature, topP, maxOutputTokens}
//   - Tools: tools[].functionDeclarations, selection via toolConfig
//   - No JSON-schema structured output through this adapter
type GeminiAdapter struct {
	BaseAdapter
}

// NewGeminiAdapter creates a new Gemini adapter.
func NewGeminiAdapter() *GeminiAdapter {
	return &GeminiAdapter{
		BaseAdapter: newBaseAdapter(canonical.ProviderGemini),
	}
}

// geminiImageMimeType is used for every image part; the canonical shape
// carries only a URL.
const geminiImageMimeType = "image/*"

type geminiPayload struct {
	Model            string                 `json:"model"`
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
	Tools            []geminiTool           `json:"tools,omitempty"`
	ToolConfig       *geminiToolConfig      `json:"toolConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text     string          `json:"text,omitempty"`
	FileData *geminiFileData `json:"file_data,omitempty"`
}

type geminiFileData struct {
	MimeType string `json:"mime_type"`
	FileURI  string `json:"file_uri"`
}

type geminiGenerationConfig struct {
	Temperature     float64  `json:"temperature"`
	TopP            float64  `json:"topP"`
	MaxOutputTokens int      `json:"maxOutputTokens"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDeclaration `json:"functionDeclarations"`
}

type geminiFunctionDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type geminiToolConfig struct {
	FunctionCallingConfig geminiFunctionCallingConfig `json:"functionCallingConfig"`
}

type geminiFunctionCallingConfig struct {
	Mode                 string   `json:"mode"`
	AllowedFunctionNames []string `json:"allowedFunctionNames,omitempty"`
}

// Supports rejects JSON-schema structured output.
func (a *GeminiAdapter) Supports(req *canonical.ChatRequest) SupportReport {
	if req.WantsJSONSchema() {
		return Unsupported(canonical.Incompatible(canonical.CodeUnsupportedResponseFormat, "response_format.json_schema"))
	}
	return Supported()
}

// BuildPayload maps the request into a generateContent body.
func (a *GeminiAdapter) BuildPayload(req *canonical.ChatRequest) (json.RawMessage, error) {
	payload := geminiPayload{
		Model:    req.Model,
		Contents: make([]geminiContent, 0, len(req.Messages)),
		GenerationConfig: geminiGenerationConfig{
			Temperature:     req.Generation.Temperature,
			TopP:            req.Generation.TopP,
			MaxOutputTokens: req.Generation.MaxTokens,
			StopSequences:   req.Generation.Stop,
		},
	}

	for _, msg := range req.Messages {
		payload.Contents = append(payload.Contents, geminiContent{
			Role:  geminiRole(msg.Role),
			Parts: geminiParts(msg.Content),
		})
	}

	if req.HasTools() {
		decls := make([]geminiFunctionDeclaration, 0, len(req.Tools))
		for _, tool := range req.Tools {
			decl := geminiFunctionDeclaration{Name: tool.Name, Parameters: tool.InputSchema}
			if tool.Description != nil {
				decl.Description = *tool.Description
			}
			decls = append(decls, decl)
		}
		payload.Tools = []geminiTool{{FunctionDeclarations: decls}}
	}

	if req.ToolChoice != nil {
		payload.ToolConfig = geminiToolChoice(req.ToolChoice)
	}

	return marshalPayload(a.provider, payload)
}

func geminiRole(role canonical.MessageRole) string {
	if role == canonical.RoleAssistant {
		return "model"
	}
	return "user"
}

func geminiParts(parts []canonical.ContentPart) []geminiPart {
	out := make([]geminiPart, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case canonical.ContentText:
			out = append(out, geminiPart{Text: part.Text})
		case canonical.ContentImageURL:
			out = append(out, geminiPart{FileData: &geminiFileData{MimeType: geminiImageMimeType, FileURI: part.URL}})
		}
	}
	return out
}

// geminiToolChoice maps auto/none/required to AUTO/NONE/ANY; a named choice
// becomes ANY restricted to that function.
func geminiToolChoice(choice *canonical.ToolChoice) *geminiToolConfig {
	cfg := geminiFunctionCallingConfig{}
	switch {
	case choice.Named():
		cfg.Mode = "ANY"
		cfg.AllowedFunctionNames = []string{choice.Name}
	case choice.Mode == canonical.ToolChoiceNone:
		cfg.Mode = "NONE"
	case choice.Mode == canonical.ToolChoiceRequired:
		cfg.Mode = "ANY"
	default:
		cfg.Mode = "AUTO"
	}
	return &geminiToolConfig{FunctionCallingConfig: cfg}
}

// Ensure GeminiAdapter implements Adapter
var _ Adapter = (*GeminiAdapter)(nil)
