package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func configCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config <model> <json|@file|->",
		Short: "Validate a config bag and print the provider parameters",
		Long: `Validates user-facing config keys against the model's config items and
prints the bag keyed by provider parameter names. The bag is inline JSON,
@path to read a file, or - for stdin.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readBag(args[1], cmd.InOrStdin())
			if err != nil {
				return err
			}

			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			params, err := svc.PrepareConfig(cmd.Context(), args[0], raw)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), params)
		},
	}
	return cmd
}

func readBag(arg string, stdin io.Reader) (map[string]any, error) {
	var data []byte
	switch {
	case arg == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, err
		}
		data = b
	case strings.HasPrefix(arg, "@"):
		b, err := os.ReadFile(strings.TrimPrefix(arg, "@"))
		if err != nil {
			return nil, err
		}
		data = b
	default:
		data = []byte(arg)
	}

	var bag map[string]any
	if err := json.Unmarshal(data, &bag); err != nil {
		return nil, fmt.Errorf("config must be a JSON object: %w", err)
	}
	if bag == nil {
		bag = map[string]any{}
	}
	return bag, nil
}
