package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/nulzo/unillm/internal/catalog"
	"github.com/nulzo/unillm/internal/cli"
	"github.com/nulzo/unillm/internal/modeldata"
	"github.com/nulzo/unillm/internal/platform/logger"
	"github.com/nulzo/unillm/internal/version"
	"github.com/nulzo/unillm/pkg/pricing"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	catalogDir string
	strict     bool
	raw        bool
	logLevel   string

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "unillm",
		Short: "Model catalog, pricing and config tooling",
		Long: `unillm works against the builtin model catalog, optionally layered with
pricing files from --catalog-dir.

Examples:
  unillm models --kind chat
  unillm cost claude-sonnet-4-5 --prompt 250000 --completion 1000
  unillm config gpt-4o '{"temperature": 0.2, "maxTokens": 512}'
  unillm catalog export -o pricing.yaml`,
		Version:       version.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// stdout carries command output, diagnostics go to stderr
			opts.logger = logger.NewWriter(logger.Config{
				Level:       opts.logLevel,
				Format:      "console",
				EnableColor: !opts.raw && cli.Enabled(),
			}, cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&opts.catalogDir, "catalog-dir", "", "directory of pricing override files")
	root.PersistentFlags().BoolVar(&opts.strict, "strict", false, "fail when no pricing tier matches")
	root.PersistentFlags().BoolVar(&opts.raw, "raw", false, "print compact JSON without colors")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "diagnostics level written to stderr")

	root.AddCommand(
		modelsCmd(opts),
		modelCmd(opts),
		costCmd(opts),
		configCmd(opts),
		catalogCmd(opts),
	)
	return root
}

func (o *options) service(ctx context.Context) (*catalog.Service, error) {
	log := o.logger
	if log == nil {
		log = zap.NewNop()
	}
	return catalog.NewService(ctx, modeldata.Models(),
		catalog.WithCatalogDir(o.catalogDir),
		catalog.WithCalculator(pricing.NewCalculator(pricing.WithLogger(log), pricing.WithStrict(o.strict))),
		catalog.WithLogger(log),
	)
}

func (o *options) print(w io.Writer, v any) error {
	if o.raw {
		return json.NewEncoder(w).Encode(v)
	}
	cli.PrettyPrint(w, v)
	return nil
}
