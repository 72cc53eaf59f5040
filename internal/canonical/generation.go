package canonical

import "encoding/json"

// Generation defaults, applied before decoding.
const (
	DefaultTemperature = 0.7
	DefaultTopP        = 1.0
	DefaultMaxTokens   = 1024
)

// Valid generation ranges (inclusive).
const (
	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinTopP        = 0.0
	MaxTopP        = 1.0
)

// GenerationConfig holds sampling parameters.
type GenerationConfig struct {
	Temperature float64  `json:"temperature"`
	TopP        float64  `json:"top_p"`
	MaxTokens   int      `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// DefaultGenerationConfig returns the defaults table.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
		MaxTokens:   DefaultMaxTokens,
		Stop:        []string{},
	}
}

// UnmarshalJSON overlays the supplied fields on top of the defaults table,
// so a partial block keeps defaults for what it omits.
func (g *GenerationConfig) UnmarshalJSON(data []byte) error {
	type alias GenerationConfig
	v := alias(DefaultGenerationConfig())
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Stop == nil {
		v.Stop = []string{}
	}
	*g = GenerationConfig(v)
	return nil
}
