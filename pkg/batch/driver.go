// Package batch drives a strictly sequential extraction pass over a list of entries,
// writing one output slot per entry in input order.
package batch

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/extract"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/logging"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/model"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/output"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/utils"
)

const (
	DefaultPacingMin = 1500 * time.Millisecond
	DefaultPacingMax = 3 * time.Second
)

var (
	ErrEntryUnrecoverable = errors.New("entry could not be extracted")
	ErrWrite              = errors.New("writing output failed")
	ErrPanic              = errors.New("run panicked")
)

type Extractor interface {
	Extract(ctx context.Context, entry model.Entry) (*model.ExtractionResult, error)
}

type SlotWriter interface {
	Append(v any) error
	AppendNull() error
	Close() error
	Len() int
}

type OpenWriterFunc func(path string, startIndex int) (SlotWriter, error)

func openArrayWriter(path string, startIndex int) (SlotWriter, error) {
	return output.Open(path, startIndex)
}

type State string

const (
	StateCompleted State = "completed"
	StateAborted   State = "aborted"
)

type Summary struct {
	Total     int
	Start     int
	Processed int
	Extracted int
	Skipped   int
	State     State
}

type Config struct {
	FailurePolicy FailurePolicy
	PacingMin     time.Duration
	PacingMax     time.Duration
}

type DriverOption func(*Driver)

func WithWriterOpener(open OpenWriterFunc) DriverOption {
	return func(d *Driver) {
		if open != nil {
			d.openWriter = open
		}
	}
}

func WithSleeper(sleep extract.Sleeper) DriverOption {
	return func(d *Driver) {
		if sleep != nil {
			d.sleep = sleep
		}
	}
}

// WithPacingSource replaces the uniform [0,1) source used to pick each pacing delay.
func WithPacingSource(source func() float64) DriverOption {
	return func(d *Driver) {
		if source != nil {
			d.pacing = source
		}
	}
}

type Driver struct {
	extractor  Extractor
	policy     FailurePolicy
	pacingMin  time.Duration
	pacingMax  time.Duration
	openWriter OpenWriterFunc
	sleep      extract.Sleeper
	pacing     func() float64
}

// NewDriver builds a driver for extractor. A Config with both pacing bounds zero gets the default
// 1.5s to 3s window; any other bounds are used as given.
func NewDriver(extractor Extractor, cfg Config, opts ...DriverOption) (*Driver, error) {
	if extractor == nil {
		return nil, utils.WrapIfNotNil(errors.New("extractor is required"))
	}

	policy, err := ParseFailurePolicy(string(cfg.FailurePolicy))
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	d := &Driver{
		extractor:  extractor,
		policy:     policy,
		pacingMin:  cfg.PacingMin,
		pacingMax:  cfg.PacingMax,
		openWriter: openArrayWriter,
		sleep:      extract.SleepContext,
		pacing:     rand.Float64,
	}
	if d.pacingMin == 0 && d.pacingMax == 0 {
		d.pacingMin, d.pacingMax = DefaultPacingMin, DefaultPacingMax
	}
	if d.pacingMin < 0 || d.pacingMax < d.pacingMin {
		return nil, utils.WrapIfNotNil(fmt.Errorf("invalid pacing bounds [%s, %s]", d.pacingMin, d.pacingMax))
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d, nil
}

// Run processes entries[startIndex:] in order, appending one slot per entry to outputPath
// and pausing for a pacing delay after each one, whatever its outcome.
// Extraction failures are handled per the failure policy. Write failures, cancellation and panics are fatal:
// the array is closed and the run stops at the current entry.
func (d *Driver) Run(ctx context.Context, entries []model.Entry, outputPath string, startIndex int) (summary Summary, err error) {
	log := logging.NewLogger(ctx)
	total := len(entries)
	summary = Summary{Total: total, Start: startIndex}

	if startIndex < 0 || startIndex > total {
		return summary, utils.WrapIfNotNil(fmt.Errorf("start index %d outside [0, %d]", startIndex, total))
	}

	if startIndex == 0 {
		log.Infof("starting fresh output %s for %d entries", outputPath, total)
	} else {
		log.Infof("resuming %s at entry %d/%d", outputPath, startIndex+1, total)
	}

	writer, err := d.openWriter(outputPath, startIndex)
	if err != nil {
		summary.State = StateAborted
		return summary, utils.WrapIfNotNil(fmt.Errorf("%w: %w", ErrWrite, err))
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			utils.PrintStack(fmt.Sprintf("panic at entry %d", startIndex+summary.Processed+1), log)
			summary, err = d.abort(ctx, writer, summary, fmt.Errorf("%w: %v", ErrPanic, recovered))
		}
	}()

	for i := startIndex; i < total; i++ {
		entry := entries[i]
		entryCtx := logging.WithFields(ctx, map[string]any{"entry": i + 1, "filename": entry.Filename})
		log.Infof("Processing entry %d/%d...", i+1, total)

		result, extractErr := d.extract(entryCtx, entry)
		switch {
		case extractErr == nil:
			if err = writer.Append(result); err != nil {
				return d.abort(ctx, writer, summary, fmt.Errorf("%w at entry %d: %w", ErrWrite, i+1, err))
			}
			log.Debugf("entry %d/%d: %s record for %q", i+1, total, result.Kind(), result.ImageURL())
			summary.Extracted++
		case ctx.Err() != nil:
			return d.abort(ctx, writer, summary, utils.WrapIfNotNil(ctx.Err()))
		case d.policy == PolicyAbort:
			log.Errorf("entry %d/%d unrecoverable: %v", i+1, total, extractErr)
			return d.abort(ctx, writer, summary, fmt.Errorf("%w: entry %d (%s): %w", ErrEntryUnrecoverable, i+1, entry.Filename, extractErr))
		default:
			log.Warnf("Skipping entry %d/%d: %v", i+1, total, extractErr)
			if err = writer.AppendNull(); err != nil {
				return d.abort(ctx, writer, summary, fmt.Errorf("%w at entry %d: %w", ErrWrite, i+1, err))
			}
			summary.Skipped++
		}
		summary.Processed++

		if err = d.sleep(ctx, d.pacingDelay()); err != nil {
			return d.abort(ctx, writer, summary, utils.WrapIfNotNil(err))
		}
	}

	if err = writer.Close(); err != nil {
		summary.State = StateAborted
		return summary, utils.WrapIfNotNil(fmt.Errorf("%w: %w", ErrWrite, err))
	}
	summary.State = StateCompleted
	log.Infof(
		"completed %s: processed=%d extracted=%d skipped=%d slots=%d",
		outputPath,
		summary.Processed,
		summary.Extracted,
		summary.Skipped,
		writer.Len(),
	)
	return summary, nil
}

// extract never sends an entry with neither filename nor text to the backend.
func (d *Driver) extract(ctx context.Context, entry model.Entry) (*model.ExtractionResult, error) {
	if err := entry.Validate(); err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return d.extractor.Extract(ctx, entry)
}

func (d *Driver) abort(ctx context.Context, writer SlotWriter, summary Summary, cause error) (Summary, error) {
	summary.State = StateAborted
	closeErr := writer.Close()
	logging.NewLogger(ctx).Errorf("aborting run after %d processed entries: %v", summary.Processed, cause)
	if closeErr != nil {
		return summary, errors.Join(cause, utils.WrapIfNotNil(closeErr))
	}
	return summary, cause
}

func (d *Driver) pacingDelay() time.Duration {
	span := d.pacingMax - d.pacingMin
	return d.pacingMin + time.Duration(d.pacing()*float64(span))
}
