package cmd

import (
	"github.com/spf13/cobra"

	"github.com/amaliebjorgen/fabricops/pkg/cicd"
	"github.com/amaliebjorgen/fabricops/pkg/fabric"
)

var (
	flagDeployBranch       string
	flagDeployName         string
	flagDeployCreateBranch bool
	flagBranchesPath       string
	flagConfigPath         string
	flagMergeMode          string
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Git-based deployment flows",
}

var deployBranchCmd = &cobra.Command{
	Use:   "branch <parent-workspace>",
	Short: "Create a feature workspace connected to a new git branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deployer, err := newDeployer()
		if err != nil {
			return err
		}
		ws, err := deployer.Deploy(cmd.Context(), cicd.DeployRequest{
			ParentWorkspace: args[0],
			Branch:          flagDeployBranch,
			WorkspaceName:   flagDeployName,
			CreateBranch:    flagDeployCreateBranch,
		})
		if err != nil {
			return err
		}
		return printJSON(ws)
	},
}

var deploySyncCmd = &cobra.Command{
	Use:   "sync <workspace>",
	Short: "Update a workspace from its connected git branch",
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
		return client.UpdateWorkspaceFromGit(cmd.Context(), id)
	},
}

var deployExportCmd = &cobra.Command{
	Use:   "export-config <workspace>",
	Short: "Export a workspace snapshot into the project config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newFabricClient()
		if err != nil {
			return err
		}
		branches, err := cicd.LoadBranchMap(flagBranchesPath)
		if err != nil {
			return err
		}

		exporter := cicd.NewExporter(client, branches)
		return exporter.ExportConfig(cmd.Context(), args[0],
			flagDeployBranch, flagConfigPath, cicd.MergeMode(flagMergeMode))
	},
}

var deployStatusCmd = &cobra.Command{
	Use:   "status <workspace>",
	Short: "Show git sync status of a workspace",
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
		var status *fabric.GitStatus
		if status, err = client.GetGitStatus(cmd.Context(), id); err != nil {
			return err
		}
		return printJSON(status)
	},
}

func init() {
	deployBranchCmd.Flags().StringVar(&flagDeployBranch, "branch", "",
		"feature branch name")
	deployBranchCmd.MarkFlagRequired("branch")
	deployBranchCmd.Flags().StringVar(&flagDeployName, "name", "",
		"display name for the new workspace")
	deployBranchCmd.Flags().BoolVar(&flagDeployCreateBranch, "create-branch", false,
		"create the branch in Azure DevOps first")

	deployExportCmd.Flags().StringVar(&flagDeployBranch, "branch", "",
		"branch to export under (defaults to the current CI branch)")
	deployExportCmd.Flags().StringVar(&flagBranchesPath, "branches", "branches.json",
		"path to the branch mapping file")
	deployExportCmd.Flags().StringVar(&flagConfigPath, "config", "config.json",
		"path to the project config file")
	deployExportCmd.Flags().StringVar(&flagMergeMode, "merge", string(cicd.MergeUpdate),
		"merge mode: update, replace or preserve")

	deployCmd.AddCommand(deployBranchCmd, deploySyncCmd, deployExportCmd, deployStatusCmd)
	rootCmd.AddCommand(deployCmd)
}
