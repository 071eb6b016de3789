package ollama

import (
	"context"
	"testing"

	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/logging"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/model"
	"github.com/stretchr/testify/suite"
)

type ClientSuite struct {
	suite.Suite
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) TestResolveModelName() {
	s.Equal(defaultModelName, resolveModelName(model.GeneratorConfig{}))

	name := " qwen2.5 "
	s.Equal("qwen2.5", resolveModelName(model.GeneratorConfig{Model: &name}))
}

func (s *ClientSuite) TestNewClientBaseURL() {
	s.Equal(defaultBaseURL, newClient(model.GeneratorConfig{}).baseURL)
	s.Equal("http://gpu-box:11434", newClient(model.GeneratorConfig{URL: "http://gpu-box:11434/"}).baseURL)
}

func (s *ClientSuite) TestUnsupportedOptionsFailWhenStrict() {
	cfg := model.ResolveGeneratorOpts(model.WithTemperature(0))

	_, err := normalizeGeneratorOptionsForProvider(cfg, nil)
	s.Require().Error(err)
	s.Contains(err.Error(), "temperature not supported for ollama provider")
}

func (s *ClientSuite) TestUnsupportedOptionsDroppedWhenIgnored() {
	cfg := model.ResolveGeneratorOpts(
		model.WithTemperature(0),
		model.WithMaxTokens(256),
		model.WithCACertFile("ca.crt"),
		model.WithIgnoreInvalidGeneratorOptions(true),
	)

	normalized, err := normalizeGeneratorOptionsForProvider(cfg, logging.NewLogger(context.Background()))
	s.Require().NoError(err)
	s.Nil(normalized.Temperature)
	s.Nil(normalized.MaxTokens)
	s.Empty(normalized.CACertFile)
}

func (s *ClientSuite) TestEmptyPromptReturnsError() {
	generator, err := NewStringContentGenerator("")
	s.Require().Error(err)
	s.Nil(generator)
}

func (s *ClientSuite) TestCanceledContextSkipsCall() {
	generator, err := NewStringContentGenerator("hello", model.WithURL("http://127.0.0.1:1"))
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, meta, err := generator.Generate(ctx)
	s.Require().ErrorIs(err, context.Canceled)
	s.Equal(providerName, meta[model.MetadataKeyProvider])
}
