// Command relayctl sends a single rewrite request to a relay and prints the outcome.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaborage/relay-bricks/internal/commands"
)

var version = "dev" // set during build

func main() {
	rootCmd := &cobra.Command{
		Use:   "relayctl",
		Short: "Talk to a chat-completion relay",
		Long: `relayctl posts text to a deployed relay and prints the normalized outcome.

The relay URL comes from --url or, when omitted, from relay.url in config.yaml
or the RELAY_URL environment variable.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		commands.NewActCommand(),
		commands.NewVersionCommand(version),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
