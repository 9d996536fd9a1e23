package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/run-bigpig/ava/internal/logger"
)

var modelLog = logger.New("openai:model")

var _ model.LLM = &OpenAIModel{}

var ErrNoChoicesInResponse = errors.New("no choices in OpenAI response")

// OpenAIModel 基于 Chat Completions 接口实现 model.LLM，支持 thinking 模型
type OpenAIModel struct {
	Client       *openai.Client
	ModelName    string
	NoSystemRole bool // 不支持 system role，需降级处理
}

// NewOpenAIModel 创建 OpenAI 兼容模型
func NewOpenAIModel(modelName string, cfg openai.ClientConfig, noSystemRole bool) *OpenAIModel {
	return &OpenAIModel{
		Client:       openai.NewClientWithConfig(cfg),
		ModelName:    modelName,
		NoSystemRole: noSystemRole,
	}
}

// Name 返回模型名称
func (o *OpenAIModel) Name() string {
	return o.ModelName
}

// GenerateContent 实现 model.LLM 接口
func (o *OpenAIModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	if stream {
		return o.generateStream(ctx, req)
	}
	return o.generate(ctx, req)
}

func (o *OpenAIModel) generate(ctx context.Context, req *model.LLMRequest) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := o.Client.CreateChatCompletion(ctx, toChatCompletionRequest(req, o.ModelName, o.NoSystemRole))
		if err != nil {
			yield(nil, err)
			return
		}
		llmResp, err := convertChatCompletionResponse(&resp)
		if err != nil {
			yield(nil, err)
			return
		}
		yield(llmResp, nil)
	}
}

func (o *OpenAIModel) generateStream(ctx context.Context, req *model.LLMRequest) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		openaiReq := toChatCompletionRequest(req, o.ModelName, o.NoSystemRole)
		openaiReq.Stream = true

		stream, err := o.Client.CreateChatCompletionStream(ctx, openaiReq)
		if err != nil {
			yield(nil, err)
			return
		}
		defer stream.Close()

		o.processStream(stream, yield)
	}
}

// processStream 逐块转发文本，结束时发送聚合后的完整响应
func (o *OpenAIModel) processStream(stream *openai.ChatCompletionStream, yield func(*model.LLMResponse, error) bool) {
	var text, reasoning strings.Builder
	var finishReason genai.FinishReason
	var usage *genai.GenerateContentResponseUsageMetadata

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			modelLog.Warn("流式读取中断: %v", err)
			yield(nil, fmt.Errorf("流式读取错误: %w", err))
			return
		}
		if chunk.Usage != nil {
			usage = usageOf(*chunk.Usage)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if d := choice.Delta.ReasoningContent; d != "" {
			reasoning.WriteString(d)
			if !yield(partial(&genai.Part{Text: d, Thought: true}), nil) {
				return
			}
		}
		if d := choice.Delta.Content; d != "" {
			text.WriteString(d)
			if !yield(partial(&genai.Part{Text: d}), nil) {
				return
			}
		}
		if choice.FinishReason != "" {
			finishReason = convertFinishReason(string(choice.FinishReason))
		}
	}

	content := &genai.Content{Role: genai.RoleModel}
	if reasoning.Len() > 0 {
		content.Parts = append(content.Parts, &genai.Part{Text: reasoning.String(), Thought: true})
	}
	if text.Len() > 0 {
		content.Parts = append(content.Parts, &genai.Part{Text: text.String()})
	}
	yield(&model.LLMResponse{
		Content:       content,
		UsageMetadata: usage,
		FinishReason:  finishReason,
		TurnComplete:  true,
	}, nil)
}

func partial(part *genai.Part) *model.LLMResponse {
	return &model.LLMResponse{
		Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{part}},
		Partial: true,
	}
}
