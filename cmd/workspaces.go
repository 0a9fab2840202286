package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amaliebjorgen/fabricops/pkg/fabric"
	"github.com/amaliebjorgen/fabricops/pkg/graph"
)

var workspacesCmd = &cobra.Command{
	Use:   "workspaces",
	Short: "Manage Fabric workspaces",
}

var workspacesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available workspaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newFabricClient()
		if err != nil {
			return err
		}
		ws, err := client.ListWorkspaces(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(ws)
	},
}

var workspacesGetCmd = &cobra.Command{
	Use:   "get <workspace>",
	Short: "Get workspace details by name or ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newFabricClient()
		if err != nil {
			return err
		}
		id, err := client.ResolveWorkspace(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		ws, err := client.GetWorkspace(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(ws)
	},
}

var (
	flagWorkspaceCapacity    string
	flagWorkspaceDescription string
)

var workspacesCreateCmd = &cobra.Command{
	Use:   "create <display-name>",
	Short: "Create a new workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newFabricClient()
		if err != nil {
			return err
		}

		req := fabric.CreateWorkspaceRequest{
			DisplayName: args[0],
			Description: flagWorkspaceDescription,
		}
		if flagWorkspaceCapacity != "" {
			capacityId, err := client.ResolveCapacity(cmd.Context(), flagWorkspaceCapacity)
			if err != nil {
				return err
			}
			req.CapacityId = capacityId
		}

		ws, err := client.CreateWorkspace(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(ws)
	},
}

var workspacesDeleteCmd = &cobra.Command{
	Use:   "delete <workspace>",
	Short: "Delete a workspace by name or ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newFabricClient()
		if err != nil {
			return err
		}
		id, err := client.ResolveWorkspace(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return client.DeleteWorkspace(cmd.Context(), id)
	},
}

var workspacesRolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Manage workspace role assignments",
}

var workspacesRolesListCmd = &cobra.Command{
	Use:   "list <workspace>",
	Short: "List role assignments of a workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newFabricClient()
		if err != nil {
			return err
		}
		id, err := client.ResolveWorkspace(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		roles, err := client.ListRoleAssignments(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(roles)
	},
}

var (
	flagRoleName      string
	flagPrincipalType string
)

var workspacesRolesAddCmd = &cobra.Command{
	Use:   "add <workspace> <principal>",
	Short: "Grant a principal a role, resolving users by UPN and groups or service principals by display name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newFabricClient()
		if err != nil {
			return err
		}
		id, err := client.ResolveWorkspace(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		principal, err := resolvePrincipal(cmd.Context(), args[1], flagPrincipalType)
		if err != nil {
			return err
		}
		ra, err := client.AddRoleAssignment(cmd.Context(), id, *principal, flagRoleName)
		if err != nil {
			return err
		}
		return printJSON(ra)
	},
}

var workspacesRolesRemoveCmd = &cobra.Command{
	Use:   "remove <workspace> <assignment-id>",
	Short: "Revoke a role assignment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newFabricClient()
		if err != nil {
			return err
		}
		id, err := client.ResolveWorkspace(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return client.DeleteRoleAssignment(cmd.Context(), id, args[1])
	},
}

// resolvePrincipal looks a principal up in Microsoft Entra through the Graph
// API and maps it onto a workspace role assignment principal.
func resolvePrincipal(ctx context.Context, name, kind string) (*fabric.Principal, error) {
	logger := newLogger()
	resolver, err := newResolver(logger)
	if err != nil {
		return nil, err
	}
	gc := graph.NewClient(resolver)

	switch kind {
	case "User":
		u, err := gc.GetUser(ctx, name)
		if err != nil {
			return nil, err
		}
		return &fabric.Principal{Id: u.Id, DisplayName: u.DisplayName, Type: "User"}, nil
	case "Group":
		g, err := gc.FindGroup(ctx, name)
		if err != nil {
			return nil, err
		}
		return &fabric.Principal{Id: g.Id, DisplayName: g.DisplayName, Type: "Group"}, nil
	case "ServicePrincipal":
		sp, err := gc.FindServicePrincipal(ctx, name)
		if err != nil {
			return nil, err
		}
		return &fabric.Principal{Id: sp.Id, DisplayName: sp.DisplayName, Type: "ServicePrincipal"}, nil
	default:
		return nil, fmt.Errorf("unknown principal type %q, want User, Group or ServicePrincipal", kind)
	}
}

func init() {
	workspacesCreateCmd.Flags().StringVar(&flagWorkspaceCapacity, "capacity", "",
		"capacity name or ID to assign")
	workspacesCreateCmd.Flags().StringVar(&flagWorkspaceDescription, "description", "",
		"workspace description")

	workspacesRolesAddCmd.Flags().StringVar(&flagRoleName, "role", "Viewer",
		"role to grant: Admin, Member, Contributor or Viewer")
	workspacesRolesAddCmd.Flags().StringVar(&flagPrincipalType, "type", "User",
		"principal type: User, Group or ServicePrincipal")

	workspacesRolesCmd.AddCommand(workspacesRolesListCmd,
		workspacesRolesAddCmd, workspacesRolesRemoveCmd)
	workspacesCmd.AddCommand(workspacesListCmd, workspacesGetCmd,
		workspacesCreateCmd, workspacesDeleteCmd, workspacesRolesCmd)
	rootCmd.AddCommand(workspacesCmd)
}
