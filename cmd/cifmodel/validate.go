package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cifworks/go-cifmodel/pkg/config"
	"github.com/cifworks/go-cifmodel/pkg/names"
	"github.com/cifworks/go-cifmodel/pkg/report"
	"github.com/cifworks/go-cifmodel/pkg/rules"
)

func newValidateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate data names or rule files against the loaded dictionaries",
	}
	cmd.AddCommand(newValidateNamesCmd(a), newValidateRulesCmd(a))
	return cmd
}

func newValidateNamesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "names <file>",
		Short: "Classify every data name in a CIF file",
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

			rep := validator.ValidateContent(content)
			out, err := report.NewText().Render(cmd.Context(), report.Report{
				Title:       "Data Name Validation",
				Source:      args[0],
				GeneratedAt: time.Now(),
				Names:       &rep,
			})
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newValidateRulesCmd(a *app) *cobra.Command {
	var (
		target         string
		applyFixes     bool
		manualMappings bool
		output         string
	)

	cmd := &cobra.Command{
		Use:   "rules <rules-file>",
		Short: "Check a field-rules file for mixed notation, duplicates, deprecated and unknown names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rulesContent, err := readInput(args[0])
			if err != nil {
				return err
			}
			mgr, err := a.newManager()
			if err != nil {
				return err
			}
			validator, err := rules.New(mgr)
			if err != nil {
				return err
			}

			targetFormat, err := parseRulesFormat(target)
			if err != nil {
				return err
			}

			result := validator.Validate(rulesContent, "", targetFormat)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Checked %d field(s) (%d unique), detected format: %s\n",
				result.TotalFields, result.UniqueFields, result.DetectedFormat)

			if !result.HasIssues() {
				fmt.Fprintln(out, "No issues found.")
				return nil
			}
			for issueType, issues := range result.ByCategory() {
				fmt.Fprintf(out, "\n%s (%d):\n", issueType.DisplayName(), len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  %s\n", issue.Description)
					if issue.SuggestedFix != "" {
						fmt.Fprintf(out, "    fix: %s (auto-fix: %s)\n", issue.SuggestedFix, issue.AutoFix)
					}
				}
			}

			if !applyFixes {
				return nil
			}
			fixed, changes := validator.ApplyFixes(rulesContent, result.Issues,
				rules.WithTargetFormat(targetFormat),
				rules.WithManualMappings(manualMappings))
			for _, change := range changes {
				a.logger.Info(change)
			}
			if output == "" {
				output = args[0]
			}
			return writeOutput(out, output, []byte(fixed))
		},
	}

	cmd.Flags().StringVar(&target, "target", "modern", "target notation for fixes: modern or legacy")
	cmd.Flags().BoolVar(&applyFixes, "fix", false, "apply the automatic fixes and rewrite the file")
	cmd.Flags().BoolVar(&manualMappings, "manual-mappings", false,
		"also apply fixes based on the curated CIF2-only mapping table")
	cmd.Flags().StringVarP(&output, "output", "o", "", "where to write the fixed file (default: in place)")
	return cmd
}

func parseRulesFormat(s string) (rules.Format, error) {
	switch s {
	case "modern", "cif2":
		return rules.FormatModern, nil
	case "legacy", "cif1":
		return rules.FormatLegacy, nil
	default:
		return "", fmt.Errorf("unknown target format %q: use modern or legacy", s)
	}
}
