// Command ocrformat turns OCR text from speed-test screenshots into structured JSON records.
package main

import (
	"os"
	"time"

	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/config"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/logging"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/utils"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	envFile    string
	logLevel   string
	logFormat  string
	provider   string
	endpoint   string
	apiKey     string
	model      string
	caCertFile string
	timeout    time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "ocrformat",
		Short: "Extract speed-test results from OCR text with an LLM",
		Long: `ocrformat sends each OCR entry to a language-model backend, parses the
Ookla or OpenSignal record it returns and appends it to a JSON array file.

Interrupted runs can be resumed with 'ocrformat run --resume'.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "YAML configuration file")
	flags.StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "dotenv file loaded before the process environment")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format (text, json)")
	flags.StringVar(&opts.provider, "provider", "", "LLM provider (openai, ollama, gemini, bedrock)")
	flags.StringVar(&opts.endpoint, "endpoint", "", "backend base URL (or API_ENDPOINT)")
	flags.StringVar(&opts.apiKey, "api-key", "", "backend credential (or API_KEY)")
	flags.StringVar(&opts.model, "model", "", "model identifier (or MODEL)")
	flags.StringVar(&opts.caCertFile, "ca-cert", "", "PEM bundle added to the system roots (or CA_CERT_FILE)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "HTTP timeout per request")

	rootCmd.AddCommand(newRunCmd(opts), newCountCmd(), newPingCmd(opts))
	return rootCmd
}

// load builds the configuration and overlays the persistent flags the user set explicitly.
func (o *rootOptions) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.configFile, o.envFile)
	if err != nil {
		return cfg, utils.WrapIfNotNil(err)
	}

	flags := cmd.Flags()
	overlay := map[string]func(){
		"log-level":  func() { cfg.Logging.Level = o.logLevel },
		"log-format": func() { cfg.Logging.Format = o.logFormat },
		"provider":   func() { cfg.Backend.Provider = o.provider },
		"endpoint":   func() { cfg.Backend.Endpoint = o.endpoint },
		"api-key":    func() { cfg.Backend.APIKey = o.apiKey },
		"model":      func() { cfg.Backend.Model = o.model },
		"ca-cert":    func() { cfg.Backend.CACertFile = o.caCertFile },
		"timeout":    func() { cfg.Backend.Timeout = o.timeout },
	}
	for name, apply := range overlay {
		if flags.Changed(name) {
			apply()
		}
	}

	if err = logging.Configure(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return cfg, utils.WrapIfNotNil(err)
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
