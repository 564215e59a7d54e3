package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yagago/host/internal/evb"
)

func newCompileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <in.yaml> <out.evb>",
		Short: "Build a .evb track from its YAML form",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := evb.LoadYAML(args[0])
			if err != nil {
				return err
			}
			raw, err := evb.Encode(t)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if err := os.WriteFile(args[1], raw, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d records, %d bytes)\n", args[1], t.Len(), len(raw))
			return nil
		},
	}
}
