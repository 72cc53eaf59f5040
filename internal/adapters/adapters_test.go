package adapters_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/compresr/omni-transform/internal/adapters"
	"github.com/compresr/omni-transform/internal/canonical"
)

func ptr[T any](v T) *T { return &v }

func helloRequest() canonical.ChatRequest {
	return canonical.NewChatRequest("test-model", canonical.UserText("hello"))
}

func jsonSchemaRequest() canonical.ChatRequest {
	req := helloRequest()
	req.ResponseFormat = &canonical.ResponseFormat{
		Type:       canonical.ResponseFormatJSONSchema,
		JSONSchema: json.RawMessage(`{"type":"object"}`),
	}
	return req
}

func toolRequest() canonical.ChatRequest {
	req := helloRequest()
	req.Tools = []canonical.ToolDefinition{{
		Name:        "lookup",
		Description: ptr("find things"),
		InputSchema: json.RawMessage(`{"type":"object","properties":{"q":{"type":"string"}}}`),
	}}
	return req
}

func imageRequest() canonical.ChatRequest {
	req := helloRequest()
	req.Messages = []canonical.ChatMessage{
		canonical.NewMessage(canonical.RoleUser, canonical.ImagePart("https://x/y.png")),
	}
	return req
}

// =============================================================================
// REGISTRY
// =============================================================================

func TestDefaultRegistry_HasBuiltins(t *testing.T) {
	registry := adapters.DefaultRegistry()

	assert.Equal(t, 3, registry.Len())
	for _, provider := range canonical.KnownProviders {
		adapter, ok := registry.Get(adapters.Key{Provider: provider, Capability: canonical.CapabilityChat, Version: adapters.DefaultVersion})
		require.True(t, ok, provider)
		assert.Equal(t, provider, adapter.Provider())
		assert.Equal(t, provider.String(), adapter.Name())
	}

	_, ok := registry.Get(adapters.Key{Provider: canonical.ProviderOpenAI, Capability: canonical.CapabilityChat, Version: "v2"})
	assert.False(t, ok)
}

func TestRegistry_KeysSorted(t *testing.T) {
	keys := adapters.DefaultRegistry().Keys()

	require.Len(t, keys, 3)
	assert.Equal(t, "gemini/chat/v1", keys[0].String())
	assert.Equal(t, "ollama/chat/v1", keys[1].String())
	assert.Equal(t, "openai/chat/v1", keys[2].String())
}

func TestRegistry_DuplicateKeyOverwrites(t *testing.T) {
	first := adapters.NewOpenAIAdapter()
	second := adapters.NewOpenAIAdapter()

	registry := adapters.NewRegistry(first, second)

	assert.Equal(t, 1, registry.Len())
	got, ok := registry.Get(adapters.KeyOf(first))
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestRegistryFor_OnlyListedProviders(t *testing.T) {
	registry := adapters.RegistryFor(canonical.ProviderGemini)

	assert.Equal(t, 1, registry.Len())
	_, ok := registry.Get(adapters.KeyOf(adapters.NewGeminiAdapter()))
	assert.True(t, ok)
	_, ok = registry.Get(adapters.KeyOf(adapters.NewOpenAIAdapter()))
	assert.False(t, ok)

	assert.Equal(t, 0, adapters.RegistryFor().Len())
}

// =============================================================================
// SUPPORTS
// =============================================================================

func TestSupports_Matrix(t *testing.T) {
	tests := []struct {
		name     string
		adapter  adapters.Adapter
		req      canonical.ChatRequest
		wantCode canonical.ReasonCode // empty means supported
	}{
		{"openai plain", adapters.NewOpenAIAdapter(), helloRequest(), ""},
		{"openai json_schema", adapters.NewOpenAIAdapter(), jsonSchemaRequest(), ""},
		{"openai tools", adapters.NewOpenAIAdapter(), toolRequest(), ""},
		{"openai image", adapters.NewOpenAIAdapter(), imageRequest(), ""},

		{"gemini plain", adapters.NewGeminiAdapter(), helloRequest(), ""},
		{"gemini json_schema", adapters.NewGeminiAdapter(), jsonSchemaRequest(), canonical.CodeUnsupportedResponseFormat},
		{"gemini tools", adapters.NewGeminiAdapter(), toolRequest(), ""},
		{"gemini image", adapters.NewGeminiAdapter(), imageRequest(), ""},

		{"ollama plain", adapters.NewOllamaAdapter(), helloRequest(), ""},
		{"ollama json_schema", adapters.NewOllamaAdapter(), jsonSchemaRequest(), canonical.CodeUnsupportedResponseFormat},
		{"ollama tools", adapters.NewOllamaAdapter(), toolRequest(), canonical.CodeUnsupportedToolCalling},
		{"ollama image", adapters.NewOllamaAdapter(), imageRequest(), canonical.CodeUnsupportedMultimodalContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := tt.adapter.Supports(&tt.req)

			if tt.wantCode == "" {
				assert.True(t, report.Supported)
				assert.Nil(t, report.Reason)
				return
			}
			assert.False(t, report.Supported)
			require.NotNil(t, report.Reason)
			assert.Equal(t, canonical.ClassIncompatible, report.Reason.Class)
			assert.Equal(t, tt.wantCode, report.Reason.Code)
			assert.False(t, report.Reason.Retryable)

			// no hidden state: a second call gives the same answer
			assert.Equal(t, report, tt.adapter.Supports(&tt.req))
		})
	}
}

func TestOllamaSupports_CheckOrder(t *testing.T) {
	req := toolRequest()
	req.ResponseFormat = jsonSchemaRequest().ResponseFormat
	req.Messages = imageRequest().Messages

	report := adapters.NewOllamaAdapter().Supports(&req)
	require.NotNil(t, report.Reason)
	assert.Equal(t, canonical.CodeUnsupportedToolCalling, report.Reason.Code)

	req.Tools = nil
	report = adapters.NewOllamaAdapter().Supports(&req)
	assert.Equal(t, canonical.CodeUnsupportedResponseFormat, report.Reason.Code)
}

// =============================================================================
// OPENAI PAYLOAD
// =============================================================================

func TestOpenAI_BuildPayload_Hello(t *testing.T) {
	req := helloRequest()
	body, err := adapters.NewOpenAIAdapter().BuildPayload(&req)
	require.NoError(t, err)

	payload := gjson.ParseBytes(body)
	assert.Equal(t, "test-model", payload.Get("model").String())
	assert.Equal(t, int64(1), payload.Get("messages.#").Int())
	assert.Equal(t, "user", payload.Get("messages.0.role").String())
	assert.Equal(t, "text", payload.Get("messages.0.content.0.type").String())
	assert.Equal(t, "hello", payload.Get("messages.0.content.0.text").String())
	assert.Equal(t, 0.7, payload.Get("temperature").Float())
	assert.Equal(t, 1.0, payload.Get("top_p").Float())
	assert.Equal(t, int64(1024), payload.Get("max_tokens").Int())
	assert.False(t, payload.Get("stream").Bool())
	assert.True(t, payload.Get("stream").Exists())

	assert.False(t, payload.Get("response_format").Exists())
	assert.False(t, payload.Get("tools").Exists())
	assert.False(t, payload.Get("tool_choice").Exists())
	assert.False(t, payload.Get("stop").Exists())
}

func TestOpenAI_BuildPayload_RolesAndParts(t *testing.T) {
	req := helloRequest()
	req.Messages = []canonical.ChatMessage{
		canonical.NewMessage(canonical.RoleSystem, canonical.TextPart("sys")),
		canonical.NewMessage(canonical.RoleUser, canonical.TextPart("look"), canonical.ImagePart("https://x/y.png")),
		canonical.NewMessage(canonical.RoleAssistant, canonical.TextPart("calling")),
		{Role: canonical.RoleTool, Content: []canonical.ContentPart{canonical.TextPart("42")}, ToolCallID: ptr("call_1"), Name: ptr("lookup")},
	}
	req.Generation.Stop = []string{"END"}

	body, err := adapters.NewOpenAIAdapter().BuildPayload(&req)
	require.NoError(t, err)

	payload := gjson.ParseBytes(body)
	assert.Equal(t, `["system","user","assistant","tool"]`, payload.Get("messages.#.role").Raw)
	assert.Equal(t, "image_url", payload.Get("messages.1.content.1.type").String())
	assert.Equal(t, "https://x/y.png", payload.Get("messages.1.content.1.image_url.url").String())
	assert.Equal(t, "call_1", payload.Get("messages.3.tool_call_id").String())
	assert.Equal(t, "lookup", payload.Get("messages.3.name").String())
	assert.False(t, payload.Get("messages.0.name").Exists())
	assert.Equal(t, `["END"]`, payload.Get("stop").Raw)
}

func TestOpenAI_BuildPayload_JSONSchema(t *testing.T) {
	req := jsonSchemaRequest()
	body, err := adapters.NewOpenAIAdapter().BuildPayload(&req)
	require.NoError(t, err)

	payload := gjson.ParseBytes(body)
	assert.Equal(t, "json_schema", payload.Get("response_format.type").String())
	assert.JSONEq(t, `{"type":"object"}`, payload.Get("response_format.json_schema").Raw)
}

func TestOpenAI_BuildPayload_TextFormatOmitted(t *testing.T) {
	req := helloRequest()
	req.ResponseFormat = &canonical.ResponseFormat{Type: canonical.ResponseFormatText}
	body, err := adapters.NewOpenAIAdapter().BuildPayload(&req)
	require.NoError(t, err)

	assert.False(t, gjson.GetBytes(body, "response_format").Exists())
}

func TestOpenAI_BuildPayload_Tools(t *testing.T) {
	tests := []struct {
		name   string
		choice *canonical.ToolChoice
		want   string
	}{
		{"mode", canonical.ModeChoice(canonical.ToolChoiceRequired), `"required"`},
		{"named", canonical.NamedChoice("lookup"), `{"type":"function","function":{"name":"lookup"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := toolRequest()
			req.ToolChoice = tt.choice
			body, err := adapters.NewOpenAIAdapter().BuildPayload(&req)
			require.NoError(t, err)

			payload := gjson.ParseBytes(body)
			assert.Equal(t, "function", payload.Get("tools.0.type").String())
			assert.Equal(t, "lookup", payload.Get("tools.0.function.name").String())
			assert.Equal(t, "find things", payload.Get("tools.0.function.description").String())
			assert.Equal(t, "string", payload.Get("tools.0.function.parameters.properties.q.type").String())
			assert.JSONEq(t, tt.want, payload.Get("tool_choice").Raw)
		})
	}
}

// =============================================================================
// GEMINI PAYLOAD
// =============================================================================

func TestGemini_BuildPayload(t *testing.T) {
	req := helloRequest()
	req.Messages = []canonical.ChatMessage{
		canonical.NewMessage(canonical.RoleSystem, canonical.TextPart("sys")),
		canonical.NewMessage(canonical.RoleUser, canonical.TextPart("look"), canonical.ImagePart("https://x/y.png")),
		canonical.NewMessage(canonical.RoleAssistant, canonical.TextPart("ok")),
		canonical.NewMessage(canonical.RoleTool, canonical.TextPart("42")),
	}
	req.Generation = canonical.GenerationConfig{Temperature: 0.3, TopP: 0.8, MaxTokens: 99, Stop: []string{}}

	body, err := adapters.NewGeminiAdapter().BuildPayload(&req)
	require.NoError(t, err)

	payload := gjson.ParseBytes(body)
	assert.Equal(t, "test-model", payload.Get("model").String())
	assert.Equal(t, `["user","user","model","user"]`, payload.Get("contents.#.role").Raw)
	assert.Equal(t, "look", payload.Get("contents.1.parts.0.text").String())
	assert.Equal(t, "image/*", payload.Get("contents.1.parts.1.file_data.mime_type").String())
	assert.Equal(t, "https://x/y.png", payload.Get("contents.1.parts.1.file_data.file_uri").String())
	assert.False(t, payload.Get("contents.1.parts.1.text").Exists())

	assert.Equal(t, 0.3, payload.Get("generationConfig.temperature").Float())
	assert.Equal(t, 0.8, payload.Get("generationConfig.topP").Float())
	assert.Equal(t, int64(99), payload.Get("generationConfig.maxOutputTokens").Int())
	assert.False(t, payload.Get("generationConfig.stopSequences").Exists())
	assert.False(t, payload.Get("messages").Exists())
	assert.False(t, payload.Get("tools").Exists())
	assert.False(t, payload.Get("toolConfig").Exists())
}

func TestGemini_BuildPayload_Tools(t *testing.T) {
	tests := []struct {
		name        string
		choice      *canonical.ToolChoice
		wantMode    string
		wantAllowed string
	}{
		{"auto", canonical.ModeChoice(canonical.ToolChoiceAuto), "AUTO", ""},
		{"none", canonical.ModeChoice(canonical.ToolChoiceNone), "NONE", ""},
		{"required", canonical.ModeChoice(canonical.ToolChoiceRequired), "ANY", ""},
		{"named", canonical.NamedChoice("lookup"), "ANY", `["lookup"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := toolRequest()
			req.ToolChoice = tt.choice
			body, err := adapters.NewGeminiAdapter().BuildPayload(&req)
			require.NoError(t, err)

			payload := gjson.ParseBytes(body)
			assert.Equal(t, "lookup", payload.Get("tools.0.functionDeclarations.0.name").String())
			assert.Equal(t, "find things", payload.Get("tools.0.functionDeclarations.0.description").String())
			assert.Equal(t, tt.wantMode, payload.Get("toolConfig.functionCallingConfig.mode").String())
			assert.Equal(t, tt.wantAllowed, payload.Get("toolConfig.functionCallingConfig.allowedFunctionNames").Raw)
		})
	}
}

// =============================================================================
// OLLAMA PAYLOAD
// =============================================================================

func TestOllama_BuildPayload_FlattensText(t *testing.T) {
	req := helloRequest()
	req.Messages = []canonical.ChatMessage{
		canonical.NewMessage(canonical.RoleSystem, canonical.TextPart("sys")),
		canonical.NewMessage(canonical.RoleUser, canonical.TextPart("line one"), canonical.TextPart("line two")),
	}
	req.Stream = true
	req.Generation.Stop = []string{"\n\n"}

	body, err := adapters.NewOllamaAdapter().BuildPayload(&req)
	require.NoError(t, err)

	payload := gjson.ParseBytes(body)
	assert.Equal(t, "test-model", payload.Get("model").String())
	assert.Equal(t, "system", payload.Get("messages.0.role").String())
	assert.Equal(t, "sys", payload.Get("messages.0.content").String())
	assert.Equal(t, "line one\nline two", payload.Get("messages.1.content").String())
	assert.True(t, payload.Get("stream").Bool())
	assert.Equal(t, 0.7, payload.Get("options.temperature").Float())
	assert.Equal(t, 1.0, payload.Get("options.top_p").Float())
	assert.Equal(t, int64(1024), payload.Get("options.num_predict").Int())
	assert.Equal(t, `["\n\n"]`, payload.Get("options.stop").Raw)
	assert.False(t, payload.Get("tool_choice").Exists())
}

func TestOllama_BuildPayload_NamedToolChoicePassthrough(t *testing.T) {
	req := helloRequest()
	req.ToolChoice = canonical.NamedChoice("lookup")

	body, err := adapters.NewOllamaAdapter().BuildPayload(&req)
	require.NoError(t, err)
	assert.Equal(t, "lookup", gjson.GetBytes(body, "tool_choice").String())

	req.ToolChoice = canonical.ModeChoice(canonical.ToolChoiceAuto)
	body, err = adapters.NewOllamaAdapter().BuildPayload(&req)
	require.NoError(t, err)
	assert.False(t, gjson.GetBytes(body, "tool_choice").Exists())
}

func TestOllama_BuildPayload_ImageIsBuildError(t *testing.T) {
	req := imageRequest()

	body, err := adapters.NewOllamaAdapter().BuildPayload(&req)
	require.Error(t, err)
	assert.Nil(t, body)

	var cerr *canonical.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, canonical.ErrProviderPayloadBuildFailed, cerr.Code)
	assert.Equal(t, "Ollama text-only payload build failed", cerr.Message)
	assert.Equal(t, "image content is not supported for text flattening", cerr.Details["reason"])
	assert.True(t, cerr.Retryable)

	code, message := adapters.ErrorDetail(err)
	assert.Equal(t, canonical.ErrProviderPayloadBuildFailed, code)
	assert.Equal(t, "Ollama text-only payload build failed", message)
}

func TestErrorDetail_ForeignError(t *testing.T) {
	code, message := adapters.ErrorDetail(errors.New("boom"))
	assert.Equal(t, canonical.ErrInternalMappingError, code)
	assert.Equal(t, "boom", message)
}
