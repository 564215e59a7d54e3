package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file.evb>...",
		Short: "Decode tracks and report the ones that are malformed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				t, err := readTrack(path)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %v\n", err)
					continue
				}
				fmt.Fprintf(out, "ok   %s (%d records)\n", path, t.Len())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d tracks failed", failed, len(args))
			}
			return nil
		},
	}
}
