package openaicompat

import (
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/tidwall/sjson"

	"github.com/rhuss/chatstream/pkg/api"
)

// ChatRequest describes one streaming turn sent to the backend.
type ChatRequest struct {
	Model        string
	SystemPrompt string

	// Messages is the transcript to send, ending with the new user message.
	Messages []api.Message

	Temperature *float64
	MaxTokens   int
}

// TranslateToChat converts a ChatRequest into Chat Completions parameters.
// Assistant messages without content (e.g. a failed turn that delivered
// nothing) are skipped.
func TranslateToChat(req ChatRequest) (openai.ChatCompletionNewParams, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("messages are required")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case api.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case api.RoleAssistant:
			if msg.Content == "" {
				continue
			}
			messages = append(messages, openai.AssistantMessage(msg.Content))
		case api.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		default:
			return openai.ChatCompletionNewParams{}, fmt.Errorf("unsupported role: %s", msg.Role)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	return params, nil
}

// streamingBody marshals params and switches the request to streaming mode.
// The params type has no stream field; the SDK normally sets it per call.
func streamingBody(params openai.ChatCompletionNewParams) ([]byte, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	body, err = sjson.SetBytes(body, "stream", true)
	if err != nil {
		return nil, fmt.Errorf("enabling streaming: %w", err)
	}
	return body, nil
}
