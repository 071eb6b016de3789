package main

import (
	"fmt"

	"github.com/Nephrolytics-ai/speedtest-ocr/pkg/output"
	"github.com/spf13/cobra"
)

func newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count <output-file>",
		Short: "Print how many slots an output file already holds",
		Long: `Count the complete slots of an output array. A missing closing bracket or a
truncated last element from an interrupted run is tolerated; the count is
the index a resumed run starts from.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := output.CountSlots(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}
}
