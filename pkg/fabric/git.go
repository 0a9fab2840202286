package fabric

import (
	"context"
	"fmt"
	"net/http"
)

// GitProviderDetails holds the configuration for a workspace's git
// connection.
type GitProviderDetails struct {
	OrganizationName string `json:"organizationName,omitempty"`
	OwnerName        string `json:"ownerName,omitempty"`
	ProjectName      string `json:"projectName,omitempty"`
	RepositoryName   string `json:"repositoryName"`
	BranchName       string `json:"branchName"`
	DirectoryName    string `json:"directoryName"`
	GitProviderType  string `json:"gitProviderType"` // AzureDevOps, GitHub
}

// GitConnection is the git integration state of a workspace.
type GitConnection struct {
	GitProviderDetails *GitProviderDetails `json:"gitProviderDetails"`
	GitConnectionState string              `json:"gitConnectionState,omitempty"`
}

// ConnectToGitRequest connects a workspace to git.
type ConnectToGitRequest struct {
	GitProviderDetails *GitProviderDetails `json:"gitProviderDetails"`
}

// GitStatusChange is one pending difference between a workspace and its
// git branch.
type GitStatusChange struct {
	ItemMetadata struct {
		DisplayName string `json:"displayName"`
		ItemType    string `json:"itemType"`
	} `json:"itemMetadata"`
	WorkspaceChange string `json:"workspaceChange,omitempty"`
	RemoteChange    string `json:"remoteChange,omitempty"`
}

// GitStatus reports sync state between a workspace and its git branch.
type GitStatus struct {
	WorkspaceHead    string            `json:"workspaceHead"`
	RemoteCommitHash string            `json:"remoteCommitHash"`
	Changes          []GitStatusChange `json:"changes"`
}

// GetGitConnection calls GET /workspaces/{workspaceId}/git/connection
func (c *Client) GetGitConnection(ctx context.Context, workspaceId string) (*GitConnection, error) {
	path := fmt.Sprintf("/workspaces/%s/git/connection", workspaceId)
	var conn GitConnection
	if err := c.doRequest(ctx, http.MethodGet, path, nil, nil, &conn); err != nil {
		return nil, err
	}
	return &conn, nil
}

// ConnectWorkspaceToGit links a workspace to a git repository and branch.
func (c *Client) ConnectWorkspaceToGit(ctx context.Context, workspaceId string, req ConnectToGitRequest) error {
	path := fmt.Sprintf("/workspaces/%s/git/connect", workspaceId)
	return c.doRequest(ctx, http.MethodPost, path, nil, req, nil)
}

// DisconnectWorkspaceFromGit removes the git connection of a workspace.
func (c *Client) DisconnectWorkspaceFromGit(ctx context.Context, workspaceId string) error {
	path := fmt.Sprintf("/workspaces/%s/git/disconnect", workspaceId)
	return c.doRequest(ctx, http.MethodPost, path, nil, nil, nil)
}

// InitializeGitConnection calls POST /workspaces/{workspaceId}/git/initializeConnection
// after connecting, so workspace items become git synced.
func (c *Client) InitializeGitConnection(ctx context.Context, workspaceId, strategy string) error {
	path := fmt.Sprintf("/workspaces/%s/git/initializeConnection", workspaceId)
	body := map[string]string{"initializationStrategy": strategy}
	return c.doRequest(ctx, http.MethodPost, path, nil, body, nil)
}

// GetGitStatus calls GET /workspaces/{workspaceId}/git/status
func (c *Client) GetGitStatus(ctx context.Context, workspaceId string) (*GitStatus, error) {
	path := fmt.Sprintf("/workspaces/%s/git/status", workspaceId)
	var status GitStatus
	if err := c.doRequest(ctx, http.MethodGet, path, nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// UpdateWorkspaceFromGit updates the workspace items from the linked git
// branch, preferring remote changes on conflict.
func (c *Client) UpdateWorkspaceFromGit(ctx context.Context, workspaceId string) error {
	path := fmt.Sprintf("/workspaces/%s/git/updateFromGit", workspaceId)
	req := map[string]interface{}{
		"conflictResolution": map[string]string{
			"conflictResolutionType":   "Workspace",
			"conflictResolutionPolicy": "PreferRemote",
		},
		"options": map[string]bool{
			"allowOverrideItems": true,
		},
	}
	return c.doRequest(ctx, http.MethodPost, path, nil, req, nil)
}

// CommitToGit commits workspace changes to the connected branch.
func (c *Client) CommitToGit(ctx context.Context, workspaceId, comment string) error {
	path := fmt.Sprintf("/workspaces/%s/git/commitToGit", workspaceId)
	body := map[string]string{"mode": "All", "comment": comment}
	return c.doRequest(ctx, http.MethodPost, path, nil, body, nil)
}
