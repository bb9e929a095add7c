package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sublingo-ai/sublingo/internal/config"
)

func newConfigCommand(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write configuration values",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print the value at a dotted key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := config.Open(*configFlag)
			if err != nil {
				return err
			}

			value, err := store.Get(args[0])
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(value)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Replace the value at an existing dotted key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := config.Open(*configFlag)
			if err != nil {
				return err
			}

			// Interpret the argument as a YAML scalar so numbers and
			// booleans keep their type.
			var value any
			if err := yaml.Unmarshal([]byte(args[1]), &value); err != nil {
				value = args[1]
			}

			return store.Set(args[0], value)
		},
	})

	return cmd
}
