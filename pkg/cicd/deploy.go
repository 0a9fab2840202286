package cicd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/amaliebjorgen/fabricops/pkg/devops"
	"github.com/amaliebjorgen/fabricops/pkg/fabric"
)

// Deployer runs the feature-workspace flow: branch a parent workspace's git
// repo, create a matching workspace, connect it to the new branch and sync
// it from git.
type Deployer struct {
	fabric *fabric.Client
	devops *devops.Client
	logger *zap.Logger
}

// NewDeployer creates a Deployer. The devops client may be nil when every
// target workspace uses a git provider other than Azure DevOps; branch
// creation is then the caller's responsibility.
func NewDeployer(fabricClient *fabric.Client, devopsClient *devops.Client, logger *zap.Logger) *Deployer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deployer{fabric: fabricClient, devops: devopsClient, logger: logger}
}

// DeployRequest describes a feature-workspace deployment.
type DeployRequest struct {
	// ParentWorkspace is the ID or display name of the workspace whose
	// git connection the feature workspace forks from.
	ParentWorkspace string
	// Branch is the feature branch to create and connect.
	Branch string
	// WorkspaceName is the display name of the new workspace. Empty
	// derives "<parent name> - <branch>".
	WorkspaceName string
	// CreateBranch creates Branch in the parent's repository first
	// (Azure DevOps only).
	CreateBranch bool
}

// Deploy executes the flow and returns the new workspace.
func (d *Deployer) Deploy(ctx context.Context, req DeployRequest) (*fabric.Workspace, error) {
	parentId, err := d.fabric.ResolveWorkspace(ctx, req.ParentWorkspace)
	if err != nil {
		return nil, err
	}
	parent, err := d.fabric.GetWorkspace(ctx, parentId)
	if err != nil {
		return nil, err
	}

	conn, err := d.fabric.GetGitConnection(ctx, parent.Id)
	if err != nil {
		return nil, fmt.Errorf("reading git connection of %s: %w", parent.DisplayName, err)
	}
	if conn.GitProviderDetails == nil || conn.GitProviderDetails.GitProviderType == "" {
		return nil, fmt.Errorf("workspace %s has no git integration", parent.DisplayName)
	}
	gitInfo := *conn.GitProviderDetails

	if req.CreateBranch {
		if err := d.createBranch(ctx, gitInfo, req.Branch); err != nil {
			return nil, err
		}
	}

	name := req.WorkspaceName
	if name == "" {
		name = parent.DisplayName + " - " + req.Branch
	}

	ws, err := d.fabric.CreateWorkspace(ctx, fabric.CreateWorkspaceRequest{
		DisplayName: name,
		Description: fmt.Sprintf("Feature workspace for %s (parent: %s)", req.Branch, parent.DisplayName),
		CapacityId:  parent.CapacityId,
	})
	if err != nil {
		return nil, fmt.Errorf("creating workspace %q: %w", name, err)
	}
	d.logger.Info("workspace created",
		zap.String("workspace", ws.DisplayName),
		zap.String("id", ws.Id))

	gitInfo.BranchName = req.Branch
	err = d.fabric.ConnectWorkspaceToGit(ctx, ws.Id, fabric.ConnectToGitRequest{GitProviderDetails: &gitInfo})
	if err != nil {
		return nil, fmt.Errorf("connecting workspace to branch %s: %w", req.Branch, err)
	}

	if err := d.fabric.InitializeGitConnection(ctx, ws.Id, "PreferRemote"); err != nil {
		return nil, fmt.Errorf("initializing git connection: %w", err)
	}
	if err := d.fabric.UpdateWorkspaceFromGit(ctx, ws.Id); err != nil {
		return nil, fmt.Errorf("syncing workspace from git: %w", err)
	}

	d.logger.Info("workspace synced from git",
		zap.String("workspace", ws.DisplayName),
		zap.String("branch", req.Branch))
	return ws, nil
}

func (d *Deployer) createBranch(ctx context.Context, gitInfo fabric.GitProviderDetails, branch string) error {
	if gitInfo.GitProviderType != "AzureDevOps" {
		return fmt.Errorf("branch creation is only supported for AzureDevOps git providers, got %s", gitInfo.GitProviderType)
	}
	if d.devops == nil {
		return fmt.Errorf("no Azure DevOps client configured for branch creation")
	}

	baseCommit, err := d.devops.GetBranchObjectId(ctx,
		gitInfo.OrganizationName, gitInfo.ProjectName, gitInfo.RepositoryName, gitInfo.BranchName)
	if err != nil {
		return fmt.Errorf("resolving base branch %s: %w", gitInfo.BranchName, err)
	}
	err = d.devops.CreateBranch(ctx,
		gitInfo.OrganizationName, gitInfo.ProjectName, gitInfo.RepositoryName, branch, baseCommit)
	if err != nil {
		return fmt.Errorf("creating branch %s: %w", branch, err)
	}
	d.logger.Info("branch created", zap.String("branch", branch), zap.String("base", gitInfo.BranchName))
	return nil
}
