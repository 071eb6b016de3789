package openai

import (
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/model"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/utils"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	providerName       = "openai"
	defaultModelName   = "gpt-4.1-mini"
	defaultHTTPTimeout = 90 * time.Second
)

type client struct {
	apiClient openai.Client
}

// newClient targets any OpenAI-compatible chat completions endpoint.
// SDK retries are disabled; the extraction client owns the retry budget.
func newClient(cfg model.GeneratorConfig) (*client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	httpClient, err := utils.NewHTTPClient(cfg.CACertFile, timeout)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	requestOpts := []option.RequestOption{
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if baseURL := strings.TrimSpace(cfg.URL); baseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(baseURL))
	}
	if token := strings.TrimSpace(cfg.AuthToken); token != "" {
		requestOpts = append(requestOpts, option.WithAPIKey(token))
	}

	return &client{apiClient: openai.NewClient(requestOpts...)}, nil
}

func resolveModelName(cfg model.GeneratorConfig) string {
	if cfg.Model != nil {
		name := strings.TrimSpace(*cfg.Model)
		if name != "" {
			return name
		}
	}
	return defaultModelName
}

func initMetadata(modelName string) model.GenerationMetadata {
	if strings.TrimSpace(modelName) == "" {
		modelName = "unknown"
	}

	return model.GenerationMetadata{
		model.MetadataKeyProvider: providerName,
		model.MetadataKeyModel:    modelName,
	}
}

func setLatencyMetadata(meta model.GenerationMetadata, start time.Time) {
	if meta == nil {
		return
	}
	meta[model.MetadataKeyLatencyMs] = strconv.FormatInt(time.Since(start).Milliseconds(), 10)
}

func applyChatCompletionMetadata(meta model.GenerationMetadata, response *openai.ChatCompletion) {
	if meta == nil || response == nil {
		return
	}

	meta[model.MetadataKeyInputTokens] = strconv.FormatInt(response.Usage.PromptTokens, 10)
	meta[model.MetadataKeyOutputTokens] = strconv.FormatInt(response.Usage.CompletionTokens, 10)
	meta[model.MetadataKeyTotalTokens] = strconv.FormatInt(response.Usage.TotalTokens, 10)

	if strings.TrimSpace(response.ID) != "" {
		meta[model.MetadataKeyResponseID] = response.ID
	}
	if strings.TrimSpace(response.Model) != "" {
		meta[model.MetadataKeyModel] = response.Model
	}
	if len(response.Choices) > 0 {
		if reason := strings.TrimSpace(string(response.Choices[0].FinishReason)); reason != "" {
			meta[model.MetadataKeyResponseStatus] = reason
		}
	}
}
