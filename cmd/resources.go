package cmd

import (
	"github.com/spf13/cobra"
)

var capacitiesCmd = &cobra.Command{
	Use:   "capacities",
	Short: "Manage Fabric capacities",
}

var capacitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available capacities",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newFabricClient()
		if err != nil {
			return err
		}
		caps, err := client.ListCapacities(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(caps)
	},
}

var capacitiesGetCmd = &cobra.Command{
	Use:   "get <capacity>",
	Short: "Get capacity details by name or ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newFabricClient()
		if err != nil {
			return err
		}
		capacity, err := client.GetCapacity(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(capacity)
	},
}

var connectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "Manage data source connections",
}

var connectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newFabricClient()
		if err != nil {
			return err
		}
		conns, err := client.ListConnections(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(conns)
	},
}

var gatewaysCmd = &cobra.Command{
	Use:   "gateways",
	Short: "Manage data gateways",
}

var gatewaysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available gateways",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newFabricClient()
		if err != nil {
			return err
		}
		gws, err := client.ListGateways(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(gws)
	},
}

func init() {
	capacitiesCmd.AddCommand(capacitiesListCmd, capacitiesGetCmd)
	connectionsCmd.AddCommand(connectionsListCmd)
	gatewaysCmd.AddCommand(gatewaysListCmd)
	rootCmd.AddCommand(capacitiesCmd, connectionsCmd, gatewaysCmd)
}
