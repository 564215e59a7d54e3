package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yagago/host/internal/evb"
)

func newDumpCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file.evb>",
		Short: "Print the records of a track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := readTrack(args[0])
			if err != nil {
				return err
			}
			if opts.Format == "yaml" {
				out, err := evb.MarshalYAML(t)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			return dumpText(cmd.OutOrStdout(), t)
		},
	}
}

func readTrack(path string) (*evb.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := evb.DecodeFrom(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func formatTime(ts float32) string {
	return strconv.FormatFloat(float64(ts), 'f', -1, 32)
}

func dumpText(w io.Writer, t *evb.Track) error {
	if _, err := fmt.Fprintf(w, "size=%d records=%d\n", t.DeclaredSize(), t.Len()); err != nil {
		return err
	}
	var err error
	t.Each(func(i int, r evb.Record) bool {
		switch r.Kind {
		case evb.KindMask:
			_, err = fmt.Fprintf(w, "#%d at=%s mask bits=0x%08x aux=%d\n",
				i, formatTime(r.Timestamp), r.Mask.Bitmask, r.Mask.Aux)
		case evb.KindScripted:
			s := r.Scripted
			_, err = fmt.Fprintf(w, "#%d at=%s scripted type=%s flag=%d reserved=%d elements=%d\n",
				i, formatTime(r.Timestamp), s.Type(), s.Flag, s.Reserved, len(s.Elements))
			for _, el := range s.Elements {
				if err != nil {
					break
				}
				_, err = fmt.Fprintf(w, "  %s", el.NameText())
				for _, a := range el.Attributes {
					if err != nil {
						break
					}
					_, err = fmt.Fprintf(w, " %s=%q", a.NameText(), a.ValueText())
				}
				if err == nil {
					_, err = fmt.Fprintln(w)
				}
			}
		}
		return err == nil
	})
	return err
}
