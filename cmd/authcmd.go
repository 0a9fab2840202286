package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amaliebjorgen/fabricops/pkg/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Inspect and manage authentication",
}

var authProvidersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show which auth providers are available",
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver := auth.NewResolver()
		avail := resolver.AvailableProviders()

		out := make(map[string]bool, len(avail))
		for mode, ok := range avail {
			out[string(mode)] = ok
		}
		return printJSON(out)
	},
}

var authTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Fetch a Fabric bearer token with the selected provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, err := newResolver(newLogger())
		if err != nil {
			return err
		}
		token, err := resolver.Token(cmd.Context(), auth.FabricScope)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

var authClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the on-disk token cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := auth.DefaultCachePath()
		if err != nil {
			return err
		}
		return auth.NewFileCache(path).Clear()
	},
}

func init() {
	authCmd.AddCommand(authProvidersCmd, authTokenCmd, authClearCmd)
	rootCmd.AddCommand(authCmd)
}
