package main

import (
	"fmt"

	"github.com/nulzo/unillm/internal/modeldata"
	"github.com/nulzo/unillm/pkg/configitem"
	"github.com/nulzo/unillm/pkg/modelschema"
	"github.com/nulzo/unillm/pkg/pricing"
	"github.com/spf13/cobra"
)

func modelsCmd(opts *options) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:     "models",
		Aliases: []string{"ls"},
		Short:   "List catalog models",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}

			out := []modelschema.Summary{}
			for _, s := range svc.Models() {
				if kind != "" && string(s.Kind) != kind {
					continue
				}
				out = append(out, s)
			}
			return opts.print(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "filter by kind (chat, embedding)")
	return cmd
}

type modelView struct {
	modelschema.Summary
	Provider      string                    `json:"provider,omitempty"`
	Config        map[string]configitem.Def `json:"config"`
	Pricing       *pricing.ModelPricing     `json:"pricing,omitempty"`
	PricingSource string                    `json:"pricingSource"`
}

func modelCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "model <name>",
		Short: "Show one model with its config items and pricing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}

			m, err := svc.Model(args[0])
			if err != nil {
				return err
			}
			p, err := m.Pricing()
			if err != nil {
				return fmt.Errorf("pricing for %s: %w", args[0], err)
			}

			provider, _ := modeldata.ProviderOf(args[0])
			return opts.print(cmd.OutOrStdout(), modelView{
				Summary:       m.Summary(),
				Provider:      provider,
				Config:        m.ModelConfig().Def,
				Pricing:       p,
				PricingSource: string(svc.PricingSource(args[0])),
			})
		},
	}
}
