package claude

import (
	"context"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reagent/llm"
)

type mockAPIClient struct {
	params anthropic.MessageNewParams
	resp   *anthropic.Message
	err    error
}

func (m *mockAPIClient) MessagesNew(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	m.params = params
	return m.resp, m.err
}

func TestClientComplete(t *testing.T) {
	mock := &mockAPIClient{
		resp: &anthropic.Message{
			Content: []anthropic.ContentBlockUnion{
				{Type: "text", Text: `{"answer": "ok"}`},
			},
			Usage: anthropic.Usage{InputTokens: 20, OutputTokens: 6},
		},
	}
	client := &Client{apiClient: mock, defaultModel: anthropic.ModelClaude3_5SonnetLatest}

	resp := gt.R1(client.Complete(context.Background(), "hello",
		llm.WithTemperature(0.1),
		llm.WithMaxTokens(1024),
	)).NoError(t)

	gt.Equal(t, `{"answer": "ok"}`, resp.Text)
	gt.Equal(t, 20, resp.InputToken)
	gt.Equal(t, 6, resp.OutputToken)

	gt.Equal(t, int64(1024), mock.params.MaxTokens)
	gt.A(t, mock.params.Messages).Length(1)
}

func TestClientCompleteJSONMode(t *testing.T) {
	mock := &mockAPIClient{
		resp: &anthropic.Message{
			Content: []anthropic.ContentBlockUnion{
				{Type: "text", Text: `{}`},
			},
		},
	}
	client := &Client{apiClient: mock, defaultModel: anthropic.ModelClaude3_5SonnetLatest}

	gt.R1(client.Complete(context.Background(), "hello", llm.WithJSONResponse())).NoError(t)

	// JSON mode goes through the system prompt on this provider.
	gt.A(t, mock.params.System).Length(1)
	gt.S(t, mock.params.System[0].Text).Contains("JSON")
}

func TestClientCompleteEmptyResponse(t *testing.T) {
	mock := &mockAPIClient{resp: &anthropic.Message{}}
	client := &Client{apiClient: mock, defaultModel: anthropic.ModelClaude3_5SonnetLatest}

	_, err := client.Complete(context.Background(), "hello")
	gt.Error(t, err)
}
