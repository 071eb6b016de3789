package extract

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/logging"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/model"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/utils"
	validator "github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	DefaultMaxAttempts   = 3
	DefaultBackoffBase   = time.Second
	DefaultBackoffJitter = time.Second
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type Config struct {
	MaxAttempts   int
	BackoffBase   time.Duration
	BackoffJitter time.Duration
	// GeneratorOptions are handed to every generator the client builds (endpoint, credential, model, temperature).
	GeneratorOptions []model.GeneratorOption
}

type ClientOption func(*Client)

func WithSleeper(sleep Sleeper) ClientOption {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// WithJitterSource replaces the uniform [0,1) source used for backoff jitter.
func WithJitterSource(source func() float64) ClientOption {
	return func(c *Client) {
		if source != nil {
			c.jitter = source
		}
	}
}

// WithoutJitter makes every backoff exactly base·2^attempt.
func WithoutJitter() ClientOption {
	return func(c *Client) {
		c.backoffJitter = 0
	}
}

// Client sends one extraction request per entry and retries transient failures with jittered exponential backoff.
type Client struct {
	newGenerator  model.NewStringContentGeneratorFunc
	generatorOpts []model.GeneratorOption
	maxAttempts   int
	backoffBase   time.Duration
	backoffJitter time.Duration
	schema        *validator.Schema
	sleep         Sleeper
	jitter        func() float64
}

func NewClient(newGenerator model.NewStringContentGeneratorFunc, cfg Config, opts ...ClientOption) (*Client, error) {
	if newGenerator == nil {
		return nil, utils.WrapIfNotNil(errors.New("generator factory is required"))
	}

	schema, err := compileResultSchema()
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	c := &Client{
		newGenerator:  newGenerator,
		generatorOpts: append([]model.GeneratorOption(nil), cfg.GeneratorOptions...),
		maxAttempts:   cfg.MaxAttempts,
		backoffBase:   cfg.BackoffBase,
		backoffJitter: cfg.BackoffJitter,
		schema:        schema,
		sleep:         SleepContext,
		jitter:        rand.Float64,
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.backoffBase <= 0 {
		c.backoffBase = DefaultBackoffBase
	}
	if c.backoffJitter <= 0 {
		c.backoffJitter = DefaultBackoffJitter
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Extract returns the parsed result for entry. When every attempt fails it returns a nil result and an error
// matching ErrExtractionFailed; context cancellation is returned unchanged and never retried.
func (c *Client) Extract(ctx context.Context, entry model.Entry) (*model.ExtractionResult, error) {
	log := logging.NewLogger(ctx)

	prompt, err := BuildPrompt(entry)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return nil, utils.WrapIfNotNil(err)
		}

		result, attemptErr := c.attempt(ctx, prompt)
		if attemptErr == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, utils.WrapIfNotNil(ctx.Err())
		}

		lastErr = attemptErr
		log.Warnf("attempt %d/%d failed for %q: %v", attempt+1, c.maxAttempts, entry.Filename, attemptErr)
		if attempt == c.maxAttempts-1 {
			break
		}

		delay := c.backoff(attempt)
		log.Infof("retrying in %.2f seconds...", delay.Seconds())
		if err = c.sleep(ctx, delay); err != nil {
			return nil, utils.WrapIfNotNil(err)
		}
	}

	log.Errorf("max retries reached for %q", entry.Filename)
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrExtractionFailed, c.maxAttempts, lastErr)
}

func (c *Client) attempt(ctx context.Context, prompt string) (*model.ExtractionResult, error) {
	log := logging.NewLogger(ctx)

	generator, err := c.newGenerator(prompt, c.generatorOpts...)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	reply, meta, err := generator.Generate(ctx)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	log.Debugf("generation metadata: %v", meta)

	result, err := parseReply(c.schema, reply)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			log.Errorf("malformed reply: %s", parseErr.Text)
		}
		return nil, err
	}
	return result, nil
}

// backoff is base·2^attempt plus a uniform fraction of the jitter unit.
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.backoffBase << attempt
	delay += time.Duration(c.jitter() * float64(c.backoffJitter))
	return delay
}
