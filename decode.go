package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matt-g-everett/iconanim/stream"
	"github.com/matt-g-everett/iconanim/util"
)

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <id>...",
		Short: "Print the keyframes encoded in group ids",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(args, cmd.OutOrStdout())
		},
	}
}

func runDecode(ids []string, out io.Writer) error {
	for _, id := range ids {
		kind, frames, err := stream.DecodeID(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (%s)\n", id, kind)
		for kf := range frames {
			fmt.Fprintf(out, "  %6s%%  %s\n", util.FormatNumber(kf.Offset*100), kf.Transform)
		}
	}
	return nil
}
