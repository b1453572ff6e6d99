// Command edgectl is the operator tool of the edge service: it decodes and
// checks first-referrer cookies, runs the storage naming rules and mints the
// secrets the server is configured with.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "edgectl",
		Short: "Operate the edge attribution and incident service",
		Long: `edgectl inspects first-referrer cookies, applies the storage explorer
naming rules and generates the secrets used by edge-server.

Available commands:
  cookie   - Decode a first-referrer cookie or check the stamping decision
  folder   - Validate or de-duplicate storage folder names
  token    - Issue a visitor JWT for testing authenticated endpoints
  secret   - Generate a JWT secret or a sysop password hash`,
		SilenceUsage: true,
	}

	root.AddCommand(newCookieCmd(), newFolderCmd(), newTokenCmd(), newSecretCmd())
	return root
}
