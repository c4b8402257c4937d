package llm

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
)

const defaultAzureAPIVersion = "2024-10-21"

type AzureConfig struct {
	Endpoint   string
	APIKey     string
	APIVersion string
	Deployment string
	HTTPClient *http.Client
}

// AzureClient talks to a single Azure OpenAI deployment. Calls are never
// retried locally.
type AzureClient struct {
	deployment string
	client     openai.Client
}

func NewAzureClient(cfg AzureConfig) (*AzureClient, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("azure openai endpoint is required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, &APIError{Kind: ErrAuthentication, Message: "azure openai api key is required"}
	}
	deployment := strings.TrimSpace(cfg.Deployment)
	if deployment == "" {
		return nil, errors.New("azure openai deployment name is required")
	}
	apiVersion := strings.TrimSpace(cfg.APIVersion)
	if apiVersion == "" {
		apiVersion = defaultAzureAPIVersion
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	// The SDK still reads OPENAI_* variables; none of them belong on an
	// Azure request.
	opts := []option.RequestOption{
		option.WithHTTPClient(httpClient),
		azure.WithEndpoint(ResourceEndpoint(endpoint), apiVersion),
		azure.WithAPIKey(apiKey),
		option.WithHeaderDel("Authorization"),
		option.WithHeaderDel("OpenAI-Organization"),
		option.WithHeaderDel("OpenAI-Project"),
		option.WithMaxRetries(0),
	}
	return &AzureClient{
		deployment: deployment,
		client:     openai.NewClient(opts...),
	}, nil
}

func (c *AzureClient) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	deployment := c.resolveDeployment(req.Model)
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(deployment),
		Messages: toOpenAIMessages(req.Messages),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = openai.Float(*req.TopP)
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return ChatResponse{}, classify(err)
	}
	if len(completion.Choices) == 0 {
		return ChatResponse{}, &APIError{Kind: ErrAPI, Message: "azure openai response has no choices"}
	}
	choice := completion.Choices[0]
	return ChatResponse{
		Content:      choice.Message.Content,
		Model:        completion.Model,
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
			TotalTokens:      completion.Usage.TotalTokens,
		},
	}, nil
}

func (c *AzureClient) resolveDeployment(override string) string {
	if strings.TrimSpace(override) == "" {
		return c.deployment
	}
	return strings.TrimSpace(override)
}

// ResourceEndpoint returns the resource root of an Azure OpenAI endpoint,
// dropping a trailing slash, the query and any /openai/... path that was
// pasted along with it.
func ResourceEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return strings.TrimRight(endpoint, "/")
	}
	p := strings.TrimRight(u.Path, "/")
	if i := strings.Index(p+"/", "/openai/"); i >= 0 {
		p = p[:i]
	}
	u.Path = strings.TrimRight(p, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, message := range messages {
		switch message.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(message.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(message.Content))
		default:
			out = append(out, openai.UserMessage(message.Content))
		}
	}
	return out
}
