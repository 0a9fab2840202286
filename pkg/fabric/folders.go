package fabric

import (
	"context"
	"fmt"
	"net/http"
)

// Folder organizes items inside a workspace.
type Folder struct {
	Id             string `json:"id"`
	DisplayName    string `json:"displayName"`
	WorkspaceId    string `json:"workspaceId"`
	ParentFolderId string `json:"parentFolderId,omitempty"`
}

// ListFolders calls GET /workspaces/{workspaceId}/folders
func (c *Client) ListFolders(ctx context.Context, workspaceId string) ([]Folder, error) {
	path := fmt.Sprintf("/workspaces/%s/folders", workspaceId)
	return collectPages[Folder](ctx, c, path, nil)
}

// GetFolder calls GET /workspaces/{workspaceId}/folders/{folderId}
func (c *Client) GetFolder(ctx context.Context, workspaceId, folderId string) (*Folder, error) {
	path := fmt.Sprintf("/workspaces/%s/folders/%s", workspaceId, folderId)
	var f Folder
	if err := c.doRequest(ctx, http.MethodGet, path, nil, nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// CreateFolder creates a folder, optionally nested under a parent folder.
func (c *Client) CreateFolder(ctx context.Context, workspaceId, displayName, parentFolderId string) (*Folder, error) {
	path := fmt.Sprintf("/workspaces/%s/folders", workspaceId)
	body := map[string]string{"displayName": displayName}
	if parentFolderId != "" {
		body["parentFolderId"] = parentFolderId
	}
	var f Folder
	if err := c.doRequest(ctx, http.MethodPost, path, nil, body, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// UpdateFolder renames a folder.
func (c *Client) UpdateFolder(ctx context.Context, workspaceId, folderId, displayName string) (*Folder, error) {
	path := fmt.Sprintf("/workspaces/%s/folders/%s", workspaceId, folderId)
	body := map[string]string{"displayName": displayName}
	var f Folder
	if err := c.doRequest(ctx, http.MethodPatch, path, nil, body, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// MoveFolder moves a folder under another parent. An empty target moves it
// to the workspace root.
func (c *Client) MoveFolder(ctx context.Context, workspaceId, folderId, targetFolderId string) (*Folder, error) {
	path := fmt.Sprintf("/workspaces/%s/folders/%s/move", workspaceId, folderId)
	body := map[string]string{}
	if targetFolderId != "" {
		body["targetFolderId"] = targetFolderId
	}
	var f Folder
	if err := c.doRequest(ctx, http.MethodPost, path, nil, body, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// DeleteFolder calls DELETE /workspaces/{workspaceId}/folders/{folderId}
func (c *Client) DeleteFolder(ctx context.Context, workspaceId, folderId string) error {
	path := fmt.Sprintf("/workspaces/%s/folders/%s", workspaceId, folderId)
	return c.doRequest(ctx, http.MethodDelete, path, nil, nil, nil)
}
