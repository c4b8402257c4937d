package prompt

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"azure-prompt/internal/llm"
	"azure-prompt/internal/llm/mocks"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func TestRunner_Run_PrintsContentUnmodified(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := mocks.NewMockClient(ctrl)
	want := llm.ChatRequest{
		Model: "gpt-4o",
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "You are a helpful assistant."},
			{Role: llm.RoleUser, Content: "Say hello"},
		},
		MaxTokens: 100,
	}
	mockClient.EXPECT().
		Chat(gomock.Any(), want).
		Return(llm.ChatResponse{Content: "Hello, world", FinishReason: "stop"}, nil).
		Times(1)

	var out bytes.Buffer
	runner := NewRunner(mockClient, &out, newTestLogger())
	err := runner.Run(context.Background(), Options{
		Prompt:     "Say hello",
		System:     "You are a helpful assistant.",
		Deployment: "gpt-4o",
		MaxTokens:  100,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "Hello, world\n" {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestRunner_Run_DefaultPrompt(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := mocks.NewMockClient(ctrl)
	mockClient.EXPECT().
		Chat(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
			if len(req.Messages) != 1 {
				t.Errorf("expected single-turn request, got %d messages", len(req.Messages))
			}
			if req.Messages[len(req.Messages)-1].Content != DefaultPrompt {
				t.Errorf("unexpected prompt: %q", req.Messages[len(req.Messages)-1].Content)
			}
			return llm.ChatResponse{Content: "Sunny"}, nil
		})

	var out bytes.Buffer
	if err := NewRunner(mockClient, &out, nil).Run(context.Background(), Options{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "Sunny\n" {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestRunner_Run_ErrorWritesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	failure := &llm.APIError{Kind: llm.ErrAuthentication, StatusCode: 401, Message: "invalid key"}
	mockClient := mocks.NewMockClient(ctrl)
	mockClient.EXPECT().Chat(gomock.Any(), gomock.Any()).Return(llm.ChatResponse{}, failure)

	var out bytes.Buffer
	err := NewRunner(mockClient, &out, newTestLogger()).Run(context.Background(), Options{Prompt: "hi"})
	if !errors.Is(err, llm.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output, got %q", out.String())
	}
}

func TestRunner_Run_IndependentInvocations(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := mocks.NewMockClient(ctrl)
	mockClient.EXPECT().
		Chat(gomock.Any(), gomock.Any()).
		Return(llm.ChatResponse{Content: "again"}, nil).
		Times(2)

	var out bytes.Buffer
	runner := NewRunner(mockClient, &out, newTestLogger())
	opts := Options{Prompt: "hi", System: "sys"}
	for i := 0; i < 2; i++ {
		if err := runner.Run(context.Background(), opts); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if out.String() != "again\nagain\n" {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestBuildMessages(t *testing.T) {
	messages := BuildMessages("", "", "hi")
	if len(messages) != 1 || messages[0].Role != llm.RoleUser {
		t.Fatalf("unexpected messages: %+v", messages)
	}

	messages = BuildMessages("You are a helpful assistant.", "", "hi")
	if len(messages) != 2 || messages[0].Content != "You are a helpful assistant." {
		t.Fatalf("unexpected messages: %+v", messages)
	}
}

func TestBuildMessagesWithContext(t *testing.T) {
	messages := BuildMessages("You are a helpful assistant.", "  Keep answers short.  ", "hi")
	want := "You are a helpful assistant.\n\nContext to follow for every response:\nKeep answers short."
	if messages[0].Content != want {
		t.Fatalf("unexpected system message: %q", messages[0].Content)
	}
	if messages[1].Content != "hi" {
		t.Fatalf("unexpected user message: %q", messages[1].Content)
	}
}
