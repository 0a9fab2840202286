package cmd

import (
	"github.com/spf13/cobra"
)

var (
	flagItemType string
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Manage workspace items",
}

var itemsListCmd = &cobra.Command{
	Use:   "list <workspace>",
	Short: "List items in a workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newFabricClient()
		if err != nil {
			return err
		}
		workspaceId, err := client.ResolveWorkspace(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		items, err := client.ListItems(cmd.Context(), workspaceId, flagItemType)
		if err != nil {
			return err
		}
		return printJSON(items)
	},
}

var itemsGetCmd = &cobra.Command{
	Use:   "get <workspace> <item>",
	Short: "Get item details by name or ID",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newFabricClient()
		if err != nil {
			return err
		}
		workspaceId, err := client.ResolveWorkspace(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		itemId, err := client.ResolveItem(cmd.Context(), workspaceId, args[1], flagItemType)
		if err != nil {
			return err
		}
		item, err := client.GetItem(cmd.Context(), workspaceId, itemId)
		if err != nil {
			return err
		}
		return printJSON(item)
	},
}

var dataflowsCmd = &cobra.Command{
	Use:   "dataflows",
	Short: "Manage gen1 dataflows (Power BI API)",
}

var dataflowsListCmd = &cobra.Command{
	Use:   "list <workspace-id>",
	Short: "List gen1 dataflows in a workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newPowerBIClient()
		if err != nil {
			return err
		}
		flows, err := client.ListDataflows(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(flows)
	},
}

func init() {
	itemsListCmd.Flags().StringVar(&flagItemType, "type", "",
		"filter by item type (Lakehouse, Notebook, Report, ...)")
	itemsGetCmd.Flags().StringVar(&flagItemType, "type", "",
		"restrict name lookup to an item type")

	itemsCmd.AddCommand(itemsListCmd, itemsGetCmd)
	dataflowsCmd.AddCommand(dataflowsListCmd)
	rootCmd.AddCommand(itemsCmd, dataflowsCmd)
}
