package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cifworks/go-cifmodel/pkg/convert"
)

func newConvertCmd(a *app) *cobra.Command {
	var (
		target  string
		noDedup bool
		output  string
	)

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert a CIF file between legacy and modern notation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(args[0])
			if err != nil {
				return err
			}
			mgr, err := a.newManager()
			if err != nil {
				return err
			}

			var opts []convert.Option
			if noDedup {
				opts = append(opts, convert.WithoutDeduplication())
			}
			conv, err := convert.New(mgr, opts...)
			if err != nil {
				return err
			}

			var (
				converted string
				changes   []string
			)
			switch target {
			case "cif2", "modern":
				converted, changes = conv.ToCIF2(content)
			case "cif1", "legacy":
				converted, changes = conv.ToCIF1(content)
			default:
				return fmt.Errorf("unknown target %q: use cif1 or cif2", target)
			}

			for _, change := range changes {
				a.logger.Info(change)
			}
			a.logger.Infof("%d change(s) applied", len(changes))
			return writeOutput(cmd.OutOrStdout(), output, []byte(converted))
		},
	}

	cmd.Flags().StringVar(&target, "to", "cif2", "target notation: cif1 or cif2")
	cmd.Flags().BoolVar(&noDedup, "no-dedup", false, "skip alias deduplication before converting")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}
