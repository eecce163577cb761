package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskd/deskd/internal/domain/resolver"
)

var openCmd = &cobra.Command{
	Use:   "open NAME",
	Short: "Resolve and launch an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newResolver()
		if err != nil {
			return err
		}

		if err := r.Open(cmd.Context(), args[0]); err != nil {
			return err
		}
		result := map[string]interface{}{
			"name":   resolver.NormalizeName(args[0]),
			"opened": true,
		}
		return emit(result, func() {
			fmt.Printf("opened %s\n", resolver.NormalizeName(args[0]))
		})
	},
}

var closeCmd = &cobra.Command{
	Use:   "close NAME",
	Short: "Terminate an application's processes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newResolver()
		if err != nil {
			return err
		}

		if err := r.Close(cmd.Context(), args[0]); err != nil {
			return err
		}
		result := map[string]interface{}{
			"name":   resolver.NormalizeName(args[0]),
			"closed": true,
		}
		return emit(result, func() {
			fmt.Printf("closed %s\n", resolver.NormalizeName(args[0]))
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status NAME",
	Short: "Report whether an application is running",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newResolver()
		if err != nil {
			return err
		}

		status, err := r.Status(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		result := map[string]interface{}{
			"name":   resolver.NormalizeName(args[0]),
			"status": status,
		}
		return emit(result, func() {
			fmt.Println(status)
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List running applications",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newResolver()
		if err != nil {
			return err
		}

		apps, err := r.List(cmd.Context())
		if err != nil {
			return err
		}
		return emit(apps, func() {
			for _, app := range apps {
				fmt.Printf("%8d  %-30s %s\n", app.PID, app.Name, app.Path)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(openCmd, closeCmd, statusCmd, listCmd)
}
