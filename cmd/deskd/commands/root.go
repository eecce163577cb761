package commands

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/deskd/deskd/internal/domain/resolver"
	"github.com/deskd/deskd/internal/infrastructure/config"
	"github.com/deskd/deskd/internal/infrastructure/logging"
)

var (
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "deskd",
	Short: "Resolve and control desktop applications by name",
	Long: `deskd locates applications by name across Windows, Linux, and macOS,
and opens, closes, and inspects them. It runs one-shot from the command
line or as an HTTP daemon via "deskd serve".`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit JSON output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

// newResolver builds a resolver for one-shot commands, honoring the same
// environment configuration as the daemon.
func newResolver() (resolver.Resolver, error) {
	cfg := config.LoadOrDefault()

	log := logging.NewNop()
	if verbose {
		log = logging.NewDevelopment()
	}

	return resolver.New(resolver.Options{
		Logger:          log,
		ExtraRoots:      cfg.Search.ExtraRoots,
		ExtraDenyTokens: cfg.Search.ExtraDenyTokens,
	})
}

// emit renders a result as JSON or hands it to the plain-text printer.
func emit(v interface{}, plain func()) error {
	if !jsonOutput {
		plain()
		return nil
	}
	out, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
