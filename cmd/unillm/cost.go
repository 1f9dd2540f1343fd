package main

import (
	"fmt"

	"github.com/nulzo/unillm/pkg/pricing"
	"github.com/spf13/cobra"
)

func costCmd(opts *options) *cobra.Command {
	var usage pricing.UsageTokens

	cmd := &cobra.Command{
		Use:   "cost <model>",
		Short: "Price a token usage against a model's schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if usage.PromptTokens < 0 || usage.CompletionTokens < 0 {
				return fmt.Errorf("token counts must be non-negative, got --prompt=%d --completion=%d",
					usage.PromptTokens, usage.CompletionTokens)
			}
			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.EstimateCost(cmd.Context(), args[0], usage)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().Int64VarP(&usage.PromptTokens, "prompt", "p", 0, "prompt tokens")
	cmd.Flags().Int64VarP(&usage.CompletionTokens, "completion", "c", 0, "completion tokens")
	return cmd
}
