package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cifworks/go-cifmodel/pkg/config"
	"github.com/cifworks/go-cifmodel/pkg/dict"
	"github.com/cifworks/go-cifmodel/pkg/manager"
)

// app carries the flags and lazily built collaborators shared by every
// subcommand.
type app struct {
	logger  *zap.SugaredLogger
	dicts   []string
	verbose bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "cifmodel",
		Short: "Dictionary-driven CIF field tooling",
		Long: `cifmodel works with CIF data files and the DDLm/DDL1 dictionaries that
define their data names: detect notation, convert between CIF1 and CIF2
spellings, resolve alias conflicts, validate data names and rule files,
and manage the local dictionary collection.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(a.verbose)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}

	root.PersistentFlags().StringSliceVar(&a.dicts, "dict", nil,
		"dictionary file to load (repeatable; the first is primary)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false,
		"enable debug logging")

	root.AddCommand(
		newDetectCmd(a),
		newConvertCmd(a),
		newAliasesCmd(a),
		newResolveCmd(a),
		newValidateCmd(a),
		newSuggestCmd(a),
		newDictCmd(a),
		newReportCmd(a),
	)
	return root
}

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Sugar(), nil
}

// newManager loads the dictionaries from --dict, falling back to every .dic
// file in the config dictionaries directory.
func (a *app) newManager() (*manager.Manager, error) {
	paths := a.dicts
	if len(paths) == 0 {
		dir, err := config.DictionariesDir()
		if err == nil {
			matches, _ := filepath.Glob(filepath.Join(dir, "*.dic"))
			sort.Strings(matches)
			paths = matches
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no dictionaries available: pass --dict or run \"cifmodel dict fetch-all\"")
	}

	opts := []manager.Option{manager.WithPrimaryPath(paths[0])}
	if len(paths) > 1 {
		var extras []dict.Parser
		for _, p := range paths[1:] {
			parser, err := dict.NewParser(p)
			if err != nil {
				return nil, fmt.Errorf("load dictionary %s: %w", p, err)
			}
			extras = append(extras, parser)
		}
		opts = append(opts, manager.WithAdditional(extras...))
	}
	a.logger.Debugf("loading %d dictionaries, primary %s", len(paths), paths[0])
	return manager.New(opts...)
}

// readInput reads a file argument, with "-" meaning stdin.
func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// writeOutput writes to path, or to w when path is empty.
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
