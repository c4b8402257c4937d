package llm

import "context"

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks azure-prompt/internal/llm Client

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is one non-streamed chat completion call. A non-empty Model
// overrides the client's deployment for this call only.
type ChatRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature *float64
	TopP        *float64
}

type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

type ChatResponse struct {
	Content      string
	Model        string
	FinishReason string
	Usage        Usage
}

type Client interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}
