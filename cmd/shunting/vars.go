package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zephyrtronium/shunting/internal/varfile"
)

func newVarsCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "vars",
		Short: "Print the variables each variable file defines",
		Long: `Print the variables each variable file defines, together with --given
definitions, as YAML. Expressions in variable files are shown evaluated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, *configFile)
			if err != nil {
				return err
			}
			base, err := a.givens()
			if err != nil {
				return err
			}
			if len(a.cfg.VarFiles) == 0 {
				return varfile.Write(a.out, base)
			}
			for i, file := range a.cfg.VarFiles {
				ctx, err := varfile.Load(file, base)
				if err != nil {
					return fmt.Errorf("failed to load variables: %w", err)
				}
				if i > 0 {
					fmt.Fprintln(a.out)
				}
				fmt.Fprintf(a.out, "# %s\n", file)
				if err := varfile.Write(a.out, ctx); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
