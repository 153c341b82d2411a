package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/cifworks/go-cifmodel/pkg/config"
	"github.com/cifworks/go-cifmodel/pkg/names"
	"github.com/cifworks/go-cifmodel/pkg/report"
	"github.com/cifworks/go-cifmodel/pkg/rules"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		asHTML    bool
		output    string
		rulesPath string
	)

	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Produce a validation report for a CIF file",
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

			store, err := config.NewFileStore("")
			if err != nil {
				return err
			}
			validator, err := names.New(mgr, names.WithStore(store))
			if err != nil {
				return err
			}
			namesReport := validator.ValidateContent(content)

			rep := report.Report{
				Title:        "CIF Validation Report",
				Source:       args[0],
				Format:       "CIF " + string(mgr.DetectCIFVersion(content)),
				GeneratedAt:  time.Now(),
				Names:        &namesReport,
				Dictionaries: mgr.Dictionaries(),
			}

			if rulesPath != "" {
				rulesContent, err := readInput(rulesPath)
				if err != nil {
					return err
				}
				rulesValidator, err := rules.New(mgr)
				if err != nil {
					return err
				}
				target := rules.AnalyzeFormat(rulesContent)
				if target == rules.FormatMixed {
					target = rules.FormatModern
				}
				result := rulesValidator.Validate(rulesContent, content, target)
				rep.RuleIssues = result.Issues
			}

			var renderer report.Renderer
			if asHTML {
				renderer, err = report.NewHTML()
				if err != nil {
					return err
				}
			} else {
				renderer = report.NewText()
			}

			out, err := renderer.Render(cmd.Context(), rep)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, out)
		},
	}

	cmd.Flags().BoolVar(&asHTML, "html", false, "render HTML instead of plain text")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "field-rules file to check alongside the data names")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}
