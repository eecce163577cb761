package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve NAME",
	Short: "Resolve an application name to its executable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newResolver()
		if err != nil {
			return err
		}

		target, err := r.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return emit(target, func() {
			fmt.Println(target.String())
		})
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
