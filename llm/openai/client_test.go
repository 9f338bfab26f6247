package openai

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reagent/llm"
	openailib "github.com/sashabaranov/go-openai"
)

type mockAPIClient struct {
	req  openailib.ChatCompletionRequest
	resp openailib.ChatCompletionResponse
	err  error
}

func (m *mockAPIClient) CreateChatCompletion(ctx context.Context, req openailib.ChatCompletionRequest) (openailib.ChatCompletionResponse, error) {
	m.req = req
	return m.resp, m.err
}

func TestClientComplete(t *testing.T) {
	mock := &mockAPIClient{
		resp: openailib.ChatCompletionResponse{
			Choices: []openailib.ChatCompletionChoice{
				{Message: openailib.ChatCompletionMessage{Content: `{"ok": true}`}},
			},
			Usage: openailib.Usage{PromptTokens: 12, CompletionTokens: 4},
		},
	}
	client := &Client{apiClient: mock, defaultModel: DefaultModel, systemPrompt: "be brief"}

	resp := gt.R1(client.Complete(context.Background(), "hello",
		llm.WithTemperature(0.2),
		llm.WithJSONResponse(),
	)).NoError(t)

	gt.Equal(t, `{"ok": true}`, resp.Text)
	gt.Equal(t, 12, resp.InputToken)
	gt.Equal(t, 4, resp.OutputToken)

	gt.Equal(t, DefaultModel, mock.req.Model)
	gt.Equal(t, float32(0.2), mock.req.Temperature)
	gt.Equal(t, openailib.ChatCompletionResponseFormatTypeJSONObject, mock.req.ResponseFormat.Type)

	gt.A(t, mock.req.Messages).Length(2)
	gt.Equal(t, openailib.ChatMessageRoleSystem, mock.req.Messages[0].Role)
	gt.Equal(t, "be brief", mock.req.Messages[0].Content)
	gt.Equal(t, "hello", mock.req.Messages[1].Content)
}

func TestClientCompleteNoChoices(t *testing.T) {
	mock := &mockAPIClient{resp: openailib.ChatCompletionResponse{}}
	client := &Client{apiClient: mock, defaultModel: DefaultModel}

	_, err := client.Complete(context.Background(), "hello")
	gt.Error(t, err)
}

func TestCountToken(t *testing.T) {
	client := &Client{defaultModel: DefaultModel}
	count := gt.R1(client.CountToken("hello world")).NoError(t)
	gt.True(t, count > 0)
}
