package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/batch"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/config"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/extract"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/llms"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/logging"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/output"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/utils"
	"github.com/spf13/cobra"
)

type runOptions struct {
	input       string
	output      string
	start       int
	resume      bool
	policy      string
	maxAttempts int
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Extract every entry of the input file into the output array",
		Long: `Process the input entries in order, one backend request at a time.

Slot i of the output array always belongs to entry i. Entries that cannot be
extracted are written as null with --policy skip, or stop the run with
--policy abort. The array is closed on every exit path, so a later
'run --resume' continues where this one stopped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load(cmd)
			if err != nil {
				return err
			}
			opts.apply(cmd, &cfg)
			if err = cfg.Validate(); err != nil {
				return utils.WrapIfNotNil(err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBatch(ctx, cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.input, "input", "i", "", "input JSON array of OCR entries (or INPUT_FILE)")
	flags.StringVarP(&opts.output, "output", "o", "", "output JSON array (or OUTPUT_FILE)")
	flags.IntVar(&opts.start, "start", 0, "index of the first entry to process (or START_INDEX)")
	flags.BoolVar(&opts.resume, "resume", false, "start after the slots already present in the output file")
	flags.StringVar(&opts.policy, "policy", "", "failure policy: skip or abort (or FAILURE_POLICY)")
	flags.IntVar(&opts.maxAttempts, "max-attempts", 0, "backend attempts per entry")
	cmd.MarkFlagsMutuallyExclusive("start", "resume")
	return cmd
}

func (o *runOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Batch.InputFile = o.input
	}
	if flags.Changed("output") {
		cfg.Batch.OutputFile = o.output
	}
	if flags.Changed("start") {
		cfg.Batch.StartIndex = o.start
		cfg.Batch.Resume = false
	}
	if flags.Changed("resume") {
		cfg.Batch.Resume = o.resume
	}
	if flags.Changed("policy") {
		cfg.Batch.FailurePolicy = o.policy
	}
	if flags.Changed("max-attempts") {
		cfg.Retry.MaxAttempts = o.maxAttempts
	}
}

func runBatch(ctx context.Context, cfg config.Config, out io.Writer) error {
	log := logging.NewLogger(ctx)
	if warning := samplingWarning(cfg); warning != "" {
		log.Warn(warning)
	}

	factory, err := llms.StringGeneratorFactory(cfg.Backend.Provider)
	if err != nil {
		return utils.WrapIfNotNil(err)
	}
	client, err := extract.NewClient(factory, cfg.ExtractConfig())
	if err != nil {
		return utils.WrapIfNotNil(err)
	}
	driver, err := batch.NewDriver(client, cfg.DriverConfig())
	if err != nil {
		return utils.WrapIfNotNil(err)
	}

	entries, err := batch.LoadEntries(cfg.Batch.InputFile)
	if err != nil {
		return utils.WrapIfNotNil(err)
	}

	start := cfg.Batch.StartIndex
	if cfg.Batch.Resume {
		start, err = output.CountSlots(cfg.Batch.OutputFile)
		if err != nil {
			return utils.WrapIfNotNil(err)
		}
		log.Infof("found %d existing slots in %s", start, cfg.Batch.OutputFile)
	}

	summary, err := driver.Run(ctx, entries, cfg.Batch.OutputFile, start)
	_, _ = fmt.Fprintf(
		out,
		"%s: %d/%d entries processed from index %d (%d extracted, %d skipped) -> %s\n",
		summary.State,
		summary.Processed,
		summary.Total-summary.Start,
		summary.Start,
		summary.Extracted,
		summary.Skipped,
		cfg.Batch.OutputFile,
	)
	return err
}

// samplingWarning reports when the configured provider will silently drop temperature 0.
func samplingWarning(cfg config.Config) string {
	if cfg.Backend.Strict || !strings.EqualFold(strings.TrimSpace(cfg.Backend.Provider), llms.ProviderOllama) {
		return ""
	}
	return "ollama ignores the temperature option, so replies are not sampled deterministically; set backend.strict to fail instead"
}
