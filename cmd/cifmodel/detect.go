package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cifmodel "github.com/cifworks/go-cifmodel"
	"github.com/cifworks/go-cifmodel/pkg/dict"
)

func newDetectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <file>",
		Short: "Detect the CIF version of a data file or the DDL format of a dictionary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(args[0])
			if err != nil {
				return err
			}

			if looksLikeDictionary(content) {
				format := dict.DetectFormat(content)
				fmt.Fprintf(cmd.OutOrStdout(), "Dictionary format: %s\n%s\n",
					format, dict.FormatDescription(format))
				return nil
			}

			version := cifmodel.DetectVersion(content)
			fmt.Fprintf(cmd.OutOrStdout(), "CIF version: %s\n", version)
			return nil
		},
	}
}

// looksLikeDictionary distinguishes dictionary files from data files by the
// dictionary-identification attributes both DDL generations require.
func looksLikeDictionary(content string) bool {
	return strings.Contains(content, "_dictionary.title") ||
		strings.Contains(content, "_dictionary_name") ||
		strings.Contains(content, "_dictionary.class") ||
		strings.Contains(content, "_definition.id")
}
