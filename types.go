package main

// Message represents a single message in the chat conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is the payload sent to the chat completion API
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// responseMessage mirrors Message but keeps Content nullable so a missing
// field can be told apart from an empty answer.
type responseMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

// ChatCompletionChoice represents a single choice returned by the API
type ChatCompletionChoice struct {
	Index        int              `json:"index"`
	Message      *responseMessage `json:"message"`
	FinishReason string           `json:"finish_reason"`
}

// Usage reports token consumption for one completion
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletionResponse is the response from the chat completion API
type ChatCompletionResponse struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object"`
	Created int64                  `json:"created"`
	Model   string                 `json:"model"`
	Choices []ChatCompletionChoice `json:"choices"`
	Usage   *Usage                 `json:"usage,omitempty"`
}
