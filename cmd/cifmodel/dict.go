package main

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cifworks/go-cifmodel/pkg/config"
	"github.com/cifworks/go-cifmodel/pkg/dict"
	"github.com/cifworks/go-cifmodel/pkg/fetch"
)

// deactivated dictionaries keep their file with this suffix appended so the
// loader's *.dic glob skips them.
const inactiveSuffix = ".off"

func newDictCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dict",
		Short: "Manage the local dictionary collection",
	}
	cmd.AddCommand(
		newDictListCmd(a),
		newDictAddCmd(a),
		newDictRemoveCmd(a),
		newDictActivateCmd(a, true),
		newDictActivateCmd(a, false),
		newDictFetchAllCmd(a),
	)
	return cmd
}

func newDictListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the dictionaries in the collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			mgr, err := a.newManager()
			if err != nil {
				fmt.Fprintln(out, "No dictionaries loaded.")
				return nil
			}

			w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tFORMAT\tTYPE\tFIELDS\tSTATUS")
			for _, info := range mgr.Dictionaries() {
				status := "inactive"
				if info.Active {
					status = "active"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					info.Name, info.Format, info.DictType, info.FieldCount, status)
			}
			for _, name := range disabledDictionaries() {
				fmt.Fprintf(w, "%s\t\t\t\tdisabled\n", name)
			}
			return w.Flush()
		},
	}
}

func disabledDictionaries() []string {
	dir, err := config.DictionariesDir()
	if err != nil {
		return nil
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*.dic"+inactiveSuffix))
	var out []string
	for _, m := range matches {
		out = append(out, strings.TrimSuffix(filepath.Base(m), inactiveSuffix))
	}
	return out
}

func newDictAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>",
		Short: "Copy a dictionary file into the collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			name := filepath.Base(args[0])

			// Reject files the parsers cannot read before copying anything.
			if _, err := dict.NewParserFromBytes(name, data); err != nil {
				return fmt.Errorf("not a usable dictionary: %w", err)
			}

			dir, err := config.DictionariesDir()
			if err != nil {
				return err
			}
			dest := filepath.Join(dir, name)
			if err := os.WriteFile(dest, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", dest)
			return nil
		},
	}
}

func newDictRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Delete a dictionary from the collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := dictionaryFileName(args[0])
			if err != nil {
				return err
			}
			dir, err := config.DictionariesDir()
			if err != nil {
				return err
			}

			for _, candidate := range []string{name, name + inactiveSuffix} {
				target := filepath.Join(dir, candidate)
				if err := os.Remove(target); err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", target)
					return nil
				} else if !os.IsNotExist(err) {
					return err
				}
			}
			return fmt.Errorf("dictionary %q not found in %s", name, dir)
		},
	}
}

func newDictActivateCmd(a *app, activate bool) *cobra.Command {
	use, short := "activate <name>", "Re-enable a disabled dictionary"
	if !activate {
		use, short = "deactivate <name>", "Disable a dictionary without deleting it"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := dictionaryFileName(args[0])
			if err != nil {
				return err
			}
			dir, err := config.DictionariesDir()
			if err != nil {
				return err
			}

			from := filepath.Join(dir, name+inactiveSuffix)
			to := filepath.Join(dir, name)
			verb := "Activated"
			if !activate {
				from, to = to, from
				verb = "Deactivated"
			}
			if err := os.Rename(from, to); err != nil {
				return fmt.Errorf("%s %q: %w", cmd.Name(), name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, name)
			return nil
		},
	}
}

func newDictFetchAllCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "fetch-all",
		Short: "Download every COMCIFS dictionary into the collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := config.DictionariesDir()
			if err != nil {
				return err
			}

			client := fetch.NewClient()
			results := client.FetchAll(cmd.Context(), fetch.Catalog(), limit)

			out := cmd.OutOrStdout()
			var failed int
			for _, result := range results {
				if result.Err != nil {
					failed++
					a.logger.Warnf("fetch %s: %v", result.Entry.Key, result.Err)
					continue
				}
				name := path.Base(result.Entry.URL)
				if err := os.WriteFile(filepath.Join(dir, name), result.Data, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(out, "Fetched %s (%d bytes)\n", name, len(result.Data))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d downloads failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 4, "maximum concurrent downloads (0 = unbounded)")
	return cmd
}

// dictionaryFileName validates a user-supplied dictionary reference: a bare
// file name, no path separators.
func dictionaryFileName(ref string) (string, error) {
	if ref == "" || strings.ContainsAny(ref, `/\`) || strings.HasPrefix(ref, ".") {
		return "", fmt.Errorf("invalid dictionary name %q", ref)
	}
	return ref, nil
}
