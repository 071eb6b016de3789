// Package llms maps provider names to their string content generator factories.
package llms

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/llms/bedrock"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/llms/gemini"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/llms/ollama"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/llms/openai"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/model"
)

const (
	ProviderOpenAI  = "openai"
	ProviderOllama  = "ollama"
	ProviderGemini  = "gemini"
	ProviderBedrock = "bedrock"
)

var providers = map[string]model.NewStringContentGeneratorFunc{
	ProviderOpenAI:  openai.NewStringContentGenerator,
	ProviderOllama:  ollama.NewStringContentGenerator,
	ProviderGemini:  gemini.NewStringContentGenerator,
	ProviderBedrock: bedrock.NewStringContentGenerator,
}

// StringGeneratorFactory returns the factory registered for provider (case-insensitive).
func StringGeneratorFactory(provider string) (model.NewStringContentGeneratorFunc, error) {
	factory, ok := providers[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider %q (known: %s)", provider, strings.Join(Providers(), ", "))
	}
	return factory, nil
}

func Providers() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
