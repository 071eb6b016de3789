package openai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/logging"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/model"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/utils"
	openai "github.com/openai/openai-go/v3"
)

type textGenerator struct {
	client *client
	prompt string
	cfg    model.GeneratorConfig
}

func NewStringContentGenerator(prompt string, opts ...model.GeneratorOption) (model.ContentGenerator[string], error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, utils.WrapIfNotNil(errors.New("prompt is required"))
	}

	cfg := model.ResolveGeneratorOpts(opts...)
	c, err := newClient(cfg)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return &textGenerator{client: c, prompt: prompt, cfg: cfg}, nil
}

func (g *textGenerator) Generate(ctx context.Context) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveModelName(g.cfg)
	meta := initMetadata(modelName)
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	log.Infof(
		"prompt_chars=%d model=%q temperature=%v max_tokens=%v",
		len(g.prompt),
		modelName,
		g.cfg.Temperature,
		g.cfg.MaxTokens,
	)

	response, err := g.client.apiClient.Chat.Completions.New(ctx, buildChatCompletionParams(g.cfg, modelName, g.prompt))
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyChatCompletionMetadata(meta, response)

	if len(response.Choices) == 0 {
		err = errors.New("chat completion returned no choices")
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	return response.Choices[0].Message.Content, meta, nil
}

func buildChatCompletionParams(cfg model.GeneratorConfig, modelName string, prompt string) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(modelName),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if cfg.Temperature != nil {
		params.Temperature = openai.Float(*cfg.Temperature)
	}
	if cfg.MaxTokens != nil && *cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(*cfg.MaxTokens))
	}
	return params
}
