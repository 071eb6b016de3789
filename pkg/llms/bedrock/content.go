package bedrock

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/logging"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/model"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/utils"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	bedrocktypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type textGenerator struct {
	prompt string
	cfg    model.GeneratorConfig
}

func NewStringContentGenerator(prompt string, opts ...model.GeneratorOption) (model.ContentGenerator[string], error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, utils.WrapIfNotNil(errors.New("prompt is required"))
	}

	return &textGenerator{
		prompt: prompt,
		cfg:    model.ResolveGeneratorOpts(opts...),
	}, nil
}

func (g *textGenerator) Generate(ctx context.Context) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelID := resolveModelName(g.cfg)
	meta := initMetadata(modelID)
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	client, err := newClient(ctx, g.cfg)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	log.Infof(
		"prompt_chars=%d model=%q temperature=%v max_tokens=%v",
		len(g.prompt),
		modelID,
		g.cfg.Temperature,
		g.cfg.MaxTokens,
	)

	output, err := client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(modelID),
		Messages: []bedrocktypes.Message{
			{
				Role: bedrocktypes.ConversationRoleUser,
				Content: []bedrocktypes.ContentBlock{
					&bedrocktypes.ContentBlockMemberText{Value: g.prompt},
				},
			},
		},
		InferenceConfig: buildInferenceConfig(g.cfg),
	})
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyConverseMetadata(meta, output)

	text, err := extractOutputText(output.Output)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	return text, meta, nil
}

func extractOutputText(output bedrocktypes.ConverseOutput) (string, error) {
	if output == nil {
		return "", utils.WrapIfNotNil(errors.New("converse output is nil"))
	}

	messageOutput, ok := output.(*bedrocktypes.ConverseOutputMemberMessage)
	if !ok || messageOutput == nil {
		return "", utils.WrapIfNotNil(errors.New("converse output is not a message"))
	}

	parts := make([]string, 0, len(messageOutput.Value.Content))
	for _, block := range messageOutput.Value.Content {
		if textBlock, isText := block.(*bedrocktypes.ContentBlockMemberText); isText {
			parts = append(parts, textBlock.Value)
		}
	}

	text := strings.TrimSpace(strings.Join(parts, ""))
	if text == "" {
		return "", utils.WrapIfNotNil(errors.New("response output is empty"))
	}
	return text, nil
}
