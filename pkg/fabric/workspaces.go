package fabric

import (
	"context"
	"fmt"
	"net/http"
)

// Workspace represents a Fabric workspace.
type Workspace struct {
	Id             string `json:"id"`
	DisplayName    string `json:"displayName"`
	Description    string `json:"description,omitempty"`
	Type           string `json:"type"`
	CapacityId     string `json:"capacityId,omitempty"`
	CapacityRegion string `json:"capacityRegion,omitempty"`
}

// CreateWorkspaceRequest is the payload for creating a new workspace.
type CreateWorkspaceRequest struct {
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
	CapacityId  string `json:"capacityId,omitempty"`
}

// UpdateWorkspaceRequest is the payload for patching a workspace.
type UpdateWorkspaceRequest struct {
	DisplayName string `json:"displayName,omitempty"`
	Description string `json:"description,omitempty"`
}

// ListWorkspaces calls GET /workspaces, following pagination.
func (c *Client) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	return collectPages[Workspace](ctx, c, "/workspaces", nil)
}

// GetWorkspace calls GET /workspaces/{workspaceId}
func (c *Client) GetWorkspace(ctx context.Context, id string) (*Workspace, error) {
	var ws Workspace
	if err := c.doRequest(ctx, http.MethodGet, "/workspaces/"+id, nil, nil, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

// ResolveWorkspace returns the ID of a workspace given its ID or display
// name. Name lookup lists workspaces and matches the display name exactly.
func (c *Client) ResolveWorkspace(ctx context.Context, workspace string) (string, error) {
	if isUUID(workspace) {
		return workspace, nil
	}
	all, err := c.ListWorkspaces(ctx)
	if err != nil {
		return "", err
	}
	for _, ws := range all {
		if ws.DisplayName == workspace {
			return ws.Id, nil
		}
	}
	return "", fmt.Errorf("workspace %q not found", workspace)
}

// CreateWorkspace calls POST /workspaces
func (c *Client) CreateWorkspace(ctx context.Context, req CreateWorkspaceRequest) (*Workspace, error) {
	var ws Workspace
	if err := c.doRequest(ctx, http.MethodPost, "/workspaces", nil, req, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

// UpdateWorkspace calls PATCH /workspaces/{workspaceId}
func (c *Client) UpdateWorkspace(ctx context.Context, id string, req UpdateWorkspaceRequest) (*Workspace, error) {
	var ws Workspace
	if err := c.doRequest(ctx, http.MethodPatch, "/workspaces/"+id, nil, req, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

// DeleteWorkspace calls DELETE /workspaces/{workspaceId}
func (c *Client) DeleteWorkspace(ctx context.Context, id string) error {
	return c.doRequest(ctx, http.MethodDelete, "/workspaces/"+id, nil, nil, nil)
}

// AssignToCapacity moves a workspace onto the given capacity.
func (c *Client) AssignToCapacity(ctx context.Context, workspaceId, capacityId string) error {
	path := fmt.Sprintf("/workspaces/%s/assignToCapacity", workspaceId)
	body := map[string]string{"capacityId": capacityId}
	return c.doRequest(ctx, http.MethodPost, path, nil, body, nil)
}

// UnassignFromCapacity detaches a workspace from its capacity.
func (c *Client) UnassignFromCapacity(ctx context.Context, workspaceId string) error {
	path := fmt.Sprintf("/workspaces/%s/unassignFromCapacity", workspaceId)
	return c.doRequest(ctx, http.MethodPost, path, nil, nil, nil)
}

// Principal identifies a user, group or service principal in a role
// assignment.
type Principal struct {
	Id          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Type        string `json:"type"` // User, Group, ServicePrincipal
}

// RoleAssignment grants a principal a role on a workspace.
type RoleAssignment struct {
	Id        string    `json:"id"`
	Principal Principal `json:"principal"`
	Role      string    `json:"role"` // Admin, Member, Contributor, Viewer
}

// ListRoleAssignments calls GET /workspaces/{workspaceId}/roleAssignments
func (c *Client) ListRoleAssignments(ctx context.Context, workspaceId string) ([]RoleAssignment, error) {
	path := fmt.Sprintf("/workspaces/%s/roleAssignments", workspaceId)
	return collectPages[RoleAssignment](ctx, c, path, nil)
}

// GetRoleAssignment calls GET /workspaces/{workspaceId}/roleAssignments/{id}
func (c *Client) GetRoleAssignment(ctx context.Context, workspaceId, assignmentId string) (*RoleAssignment, error) {
	path := fmt.Sprintf("/workspaces/%s/roleAssignments/%s", workspaceId, assignmentId)
	var ra RoleAssignment
	if err := c.doRequest(ctx, http.MethodGet, path, nil, nil, &ra); err != nil {
		return nil, err
	}
	return &ra, nil
}

// AddRoleAssignment grants a principal a role on the workspace.
func (c *Client) AddRoleAssignment(ctx context.Context, workspaceId string, principal Principal, role string) (*RoleAssignment, error) {
	path := fmt.Sprintf("/workspaces/%s/roleAssignments", workspaceId)
	body := map[string]interface{}{"principal": principal, "role": role}
	var ra RoleAssignment
	if err := c.doRequest(ctx, http.MethodPost, path, nil, body, &ra); err != nil {
		return nil, err
	}
	return &ra, nil
}

// UpdateRoleAssignment changes the role of an existing assignment.
func (c *Client) UpdateRoleAssignment(ctx context.Context, workspaceId, assignmentId, role string) (*RoleAssignment, error) {
	path := fmt.Sprintf("/workspaces/%s/roleAssignments/%s", workspaceId, assignmentId)
	body := map[string]string{"role": role}
	var ra RoleAssignment
	if err := c.doRequest(ctx, http.MethodPatch, path, nil, body, &ra); err != nil {
		return nil, err
	}
	return &ra, nil
}

// DeleteRoleAssignment revokes a role assignment.
func (c *Client) DeleteRoleAssignment(ctx context.Context, workspaceId, assignmentId string) error {
	path := fmt.Sprintf("/workspaces/%s/roleAssignments/%s", workspaceId, assignmentId)
	return c.doRequest(ctx, http.MethodDelete, path, nil, nil, nil)
}

// isUUID reports whether s looks like a GUID, distinguishing IDs from
// display names in resolve helpers.
func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i, r := range s {
		switch i {
		case 8, 13, 18, 23:
			if r != '-' {
				return false
			}
		default:
			isHex := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
			if !isHex {
				return false
			}
		}
	}
	return true
}
