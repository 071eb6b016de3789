package ollama

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/logging"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/model"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/utils"
	ollamasdk "github.com/rozoomcool/go-ollama-sdk"
)

const (
	providerName     = "ollama"
	defaultModelName = "llama3.1"
	defaultBaseURL   = "http://localhost:11434"
)

type client struct {
	apiClient *ollamasdk.OllamaClient
	baseURL   string
}

func newClient(cfg model.GeneratorConfig) *client {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &client{
		apiClient: ollamasdk.NewClient(baseURL),
		baseURL:   baseURL,
	}
}

func resolveModelName(cfg model.GeneratorConfig) string {
	if cfg.Model != nil {
		modelName := strings.TrimSpace(*cfg.Model)
		if modelName != "" {
			return modelName
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

// normalizeGeneratorOptionsForProvider drops settings the Ollama chat call cannot carry.
// Sampling runs with the model's defaults.
func normalizeGeneratorOptionsForProvider(cfg model.GeneratorConfig, log logging.Logger) (model.GeneratorConfig, error) {
	unsupported := make([]string, 0, 3)
	if cfg.Temperature != nil {
		unsupported = append(unsupported, "temperature")
	}
	if cfg.MaxTokens != nil {
		unsupported = append(unsupported, "max tokens")
	}
	if strings.TrimSpace(cfg.CACertFile) != "" {
		unsupported = append(unsupported, "ca cert file")
	}
	if len(unsupported) == 0 {
		return cfg, nil
	}

	if !cfg.IgnoreInvalidGeneratorOptions {
		return cfg, utils.WrapIfNotNil(errors.New(strings.Join(unsupported, ", ") + " not supported for ollama provider"))
	}
	if log != nil {
		log.Warnf("ignoring %s for ollama provider", strings.Join(unsupported, ", "))
	}
	cfg.Temperature = nil
	cfg.MaxTokens = nil
	cfg.CACertFile = ""
	return cfg, nil
}
