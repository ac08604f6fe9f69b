package aisession

// OutboundChunk mirrors InboundChunk's shape for the events the driver
// produces: one "event" property naming exactly one outbound variant.
type OutboundChunk struct {
	Event OutboundEvent `json:"event"`
}

type OutboundEvent struct {
	SessionStart *SessionStart `json:"sessionStart,omitempty"`
	PromptStart  *PromptStart  `json:"promptStart,omitempty"`
	TextInput    *TextInput    `json:"textInput,omitempty"`
	ContentStart *ContentStart `json:"contentStart,omitempty"`
	AudioInput   *AudioInput   `json:"audioInput,omitempty"`
	ToolResult   *ToolResult   `json:"toolResult,omitempty"`
	ContentEnd   *ContentEnd   `json:"contentEnd,omitempty"`
}

// SessionStart carries the sampling configuration for the whole call.
type SessionStart struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
	MaxTokens   int     `json:"maxTokens"`
}

// AudioOutputConfiguration describes the format the provider should
// synthesize speech in; it mirrors AudioInputConfiguration's shape so the
// one call's negotiated (R, F) governs both directions.
type AudioOutputConfiguration struct {
	MediaType  string `json:"mediaType"`
	SampleRate int    `json:"sampleRateHertz"`
	SampleSize int    `json:"sampleSizeBits"`
	Channels   int    `json:"channels"`
	VoiceID    string `json:"voiceId"`
	Encoding   string `json:"encoding"`
}

// AudioInputConfiguration describes the caller-originated audio the
// driver streams up to the provider as audioInput events.
type AudioInputConfiguration struct {
	MediaType  string `json:"mediaType"`
	SampleRate int    `json:"sampleRateHertz"`
	SampleSize int    `json:"sampleSizeBits"`
	Channels   int    `json:"channels"`
	Encoding   string `json:"encoding"`
	AudioType  string `json:"audioType"`
}

// ToolSpec describes one entry in the tool configuration advertised at
// promptStart: a name, a human description, and a JSON-Schema input
// shape. The registry (pkg/aisession/tools) is the source of truth for
// which ToolSpecs a given call advertises.
type ToolSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema string `json:"inputSchema"`
}

type ToolConfiguration struct {
	Tools []ToolSpec `json:"tools"`
}

type PromptStart struct {
	PromptName              string `json:"promptName"`
	TextOutputConfiguration struct {
		MediaType string `json:"mediaType"`
	} `json:"textOutputConfiguration"`
	AudioOutputConfiguration AudioOutputConfiguration `json:"audioOutputConfiguration"`
	ToolConfiguration        ToolConfiguration        `json:"toolConfiguration"`
}

type TextInput struct {
	PromptName  string `json:"promptName"`
	ContentName string `json:"contentName"`
	Content     string `json:"content"`
	Role        Role   `json:"role"`
}

type AudioInput struct {
	PromptName  string `json:"promptName"`
	ContentName string `json:"contentName"`
	Content     string `json:"content"` // base64 PCM16
	Role        Role   `json:"role"`
}

// ToolResultStatus is the outcome reported back to the provider for a
// completed tool invocation.
type ToolResultStatus string

const (
	ToolResultSuccess ToolResultStatus = "success"
	ToolResultError   ToolResultStatus = "error"
	ToolResultAck     ToolResultStatus = "acknowledged"
)

type ToolResult struct {
	PromptName  string           `json:"promptName"`
	ContentName string           `json:"contentName"`
	ToolUseID   string           `json:"toolUseId"`
	Status      ToolResultStatus `json:"status"`
	Content     string           `json:"content"`
}
