package main

import (
	"fmt"

	"github.com/nulzo/unillm/internal/catalog"
	"github.com/nulzo/unillm/internal/cli"
	"github.com/nulzo/unillm/internal/httpclient"
	"github.com/nulzo/unillm/pkg/pricing"
	"github.com/spf13/cobra"
)

func catalogCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Export and check pricing catalog files",
	}
	cmd.AddCommand(catalogExportCmd(opts), catalogCheckCmd(opts), catalogPullCmd(opts))
	return cmd
}

func catalogExportCmd(opts *options) *cobra.Command {
	var (
		output   string
		requires string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the effective pricing of every model to a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}

			f := &catalog.File{Requires: requires}
			for _, s := range svc.Models() {
				if !s.HasPricing {
					continue
				}
				p, err := svc.Pricing(cmd.Context(), s.Name)
				if err != nil {
					return err
				}
				f.Pricing = append(f.Pricing, p)
			}

			if err := catalog.SaveFile(output, f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %d pricing entries to %s\n", cli.CheckMark(), len(f.Pricing), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "pricing.yaml", "output file")
	cmd.Flags().StringVar(&requires, "requires", "", "version constraint stamped into the file")
	return cmd
}

func catalogCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>...",
		Short: "Validate catalog files against the builtin models",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			var failed int
			for _, path := range args {
				f, err := catalog.LoadFile(path)
				if err != nil {
					fmt.Fprintf(w, "%s %s: %v\n", cli.CrossMark(), path, err)
					failed++
					continue
				}
				unknown := unknownModels(svc, f.Pricing)
				for _, name := range unknown {
					fmt.Fprintf(w, "%s %s: unknown model %q\n", cli.WarningSign(), path, name)
				}
				fmt.Fprintf(w, "%s %s: %d entries\n", cli.CheckMark(), path, len(f.Pricing))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d catalog files failed", failed, len(args))
			}
			return nil
		},
	}
}

func unknownModels(svc *catalog.Service, entries []*pricing.ModelPricing) []string {
	var out []string
	for _, p := range entries {
		if _, err := svc.Model(p.Model()); err != nil {
			out = append(out, p.Model())
		}
	}
	return out
}

func catalogPullCmd(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "pull <url>",
		Short: "Download a remote catalog, validate it and save it as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := catalog.FetchFile(cmd.Context(), httpclient.Default(), args[0])
			if err != nil {
				return err
			}

			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, name := range unknownModels(svc, f.Pricing) {
				fmt.Fprintf(w, "%s unknown model %q will be ignored\n", cli.WarningSign(), name)
			}

			if err := catalog.SaveFile(output, f); err != nil {
				return err
			}
			fmt.Fprintf(w, "%s saved %d pricing entries to %s\n", cli.CheckMark(), len(f.Pricing), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "pricing.yaml", "output file")
	return cmd
}
