package openai

import (
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// toChatCompletionRequest 将 ADK 请求转换为 OpenAI 请求
// 流水线中的 Agent 只收发文本，函数调用类 part 会被忽略
func toChatCompletionRequest(req *model.LLMRequest, modelName string, noSystemRole bool) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Contents)+1)
	for _, content := range req.Contents {
		if msg, ok := toChatCompletionMessage(content); ok {
			messages = append(messages, msg)
		}
	}

	out := openai.ChatCompletionRequest{
		Model:    modelName,
		Messages: messages,
	}
	if req.Config == nil {
		return out
	}

	if req.Config.Temperature != nil {
		out.Temperature = *req.Config.Temperature
	}
	if req.Config.MaxOutputTokens > 0 {
		out.MaxTokens = int(req.Config.MaxOutputTokens)
	}
	if req.Config.TopP != nil {
		out.TopP = *req.Config.TopP
	}
	if len(req.Config.StopSequences) > 0 {
		out.Stop = req.Config.StopSequences
	}
	if req.Config.ResponseMIMEType == "application/json" {
		out.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	if system := textOf(req.Config.SystemInstruction); system != "" {
		out.Messages = withSystemInstruction(out.Messages, system, noSystemRole)
	}
	return out
}

// withSystemInstruction 添加系统指令
// 不支持 system role 的模型：拼接到第一条 user 消息之前
func withSystemInstruction(messages []openai.ChatCompletionMessage, system string, noSystemRole bool) []openai.ChatCompletionMessage {
	if !noSystemRole {
		sys := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system}
		return append([]openai.ChatCompletionMessage{sys}, messages...)
	}
	for i, msg := range messages {
		if msg.Role == openai.ChatMessageRoleUser {
			messages[i].Content = system + "\n\n" + msg.Content
			return messages
		}
	}
	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: system}
	return append([]openai.ChatCompletionMessage{user}, messages...)
}

// toChatCompletionMessage 将 genai.Content 转换为 OpenAI 消息，thinking 内容写入 reasoning_content
func toChatCompletionMessage(content *genai.Content) (openai.ChatCompletionMessage, bool) {
	if content == nil {
		return openai.ChatCompletionMessage{}, false
	}
	var text, reasoning strings.Builder
	for _, part := range content.Parts {
		if part == nil || part.Text == "" {
			continue
		}
		if part.Thought {
			reasoning.WriteString(part.Text)
			continue
		}
		text.WriteString(part.Text)
	}
	if text.Len() == 0 && reasoning.Len() == 0 {
		return openai.ChatCompletionMessage{}, false
	}
	return openai.ChatCompletionMessage{
		Role:             convertRole(content.Role),
		Content:          text.String(),
		ReasoningContent: reasoning.String(),
	}, true
}

func convertRole(role string) string {
	switch role {
	case genai.RoleModel:
		return openai.ChatMessageRoleAssistant
	case "system":
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}

// textOf 提取文本内容，多段以换行连接
func textOf(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var texts []string
	for _, part := range content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// convertChatCompletionResponse 转换 OpenAI 响应
func convertChatCompletionResponse(resp *openai.ChatCompletionResponse) (*model.LLMResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoicesInResponse
	}

	choice := resp.Choices[0]
	content := &genai.Content{Role: genai.RoleModel}
	if choice.Message.ReasoningContent != "" {
		content.Parts = append(content.Parts, &genai.Part{Text: choice.Message.ReasoningContent, Thought: true})
	}
	if choice.Message.Content != "" {
		content.Parts = append(content.Parts, &genai.Part{Text: choice.Message.Content})
	}

	return &model.LLMResponse{
		Content:       content,
		UsageMetadata: usageOf(resp.Usage),
		FinishReason:  convertFinishReason(string(choice.FinishReason)),
		TurnComplete:  true,
	}, nil
}

func usageOf(u openai.Usage) *genai.GenerateContentResponseUsageMetadata {
	if u.TotalTokens == 0 {
		return nil
	}
	return &genai.GenerateContentResponseUsageMetadata{
		PromptTokenCount:     int32(u.PromptTokens),
		CandidatesTokenCount: int32(u.CompletionTokens),
		TotalTokenCount:      int32(u.TotalTokens),
	}
}

// convertFinishReason 转换结束原因
func convertFinishReason(reason string) genai.FinishReason {
	switch reason {
	case "stop", "tool_calls", "function_call":
		return genai.FinishReasonStop
	case "length":
		return genai.FinishReasonMaxTokens
	case "content_filter":
		return genai.FinishReasonSafety
	default:
		return genai.FinishReasonUnspecified
	}
}
