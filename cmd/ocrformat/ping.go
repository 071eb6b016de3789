package main

import (
	"fmt"
	"strings"

	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/llms"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/logging"
	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/utils"
	"github.com/spf13/cobra"
)

func newPingCmd(root *rootOptions) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Send a single message to the configured backend and print the reply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load(cmd)
			if err != nil {
				return err
			}

			factory, err := llms.StringGeneratorFactory(cfg.Backend.Provider)
			if err != nil {
				return utils.WrapIfNotNil(err)
			}
			generator, err := factory(message, cfg.GeneratorOptions()...)
			if err != nil {
				return utils.WrapIfNotNil(err)
			}

			reply, meta, err := generator.Generate(cmd.Context())
			if err != nil {
				return utils.WrapIfNotNil(err)
			}
			logging.NewLogger(cmd.Context()).Debugf("ping metadata: %v", meta)

			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(reply))
			return err
		},
	}
	cmd.Flags().StringVar(&message, "message", "Hello", "message to send")
	return cmd
}
