package fabric

import (
	"context"
	"fmt"
	"net/http"
)

// Lakehouse is a Fabric lakehouse with its storage endpoints.
type Lakehouse struct {
	Id          string               `json:"id"`
	DisplayName string               `json:"displayName"`
	Description string               `json:"description,omitempty"`
	WorkspaceId string               `json:"workspaceId"`
	Properties  *LakehouseProperties `json:"properties,omitempty"`
}

// LakehouseProperties holds the OneLake and SQL endpoint details.
type LakehouseProperties struct {
	OneLakeTablesPath string `json:"oneLakeTablesPath,omitempty"`
	OneLakeFilesPath  string `json:"oneLakeFilesPath,omitempty"`
	SQLEndpoint       *struct {
		Id               string `json:"id"`
		ConnectionString string `json:"connectionString"`
	} `json:"sqlEndpointProperties,omitempty"`
}

// ListLakehouses calls GET /workspaces/{workspaceId}/lakehouses
func (c *Client) ListLakehouses(ctx context.Context, workspaceId string) ([]Lakehouse, error) {
	path := fmt.Sprintf("/workspaces/%s/lakehouses", workspaceId)
	return collectPages[Lakehouse](ctx, c, path, nil)
}

// GetLakehouse calls GET /workspaces/{workspaceId}/lakehouses/{lakehouseId}
func (c *Client) GetLakehouse(ctx context.Context, workspaceId, lakehouseId string) (*Lakehouse, error) {
	path := fmt.Sprintf("/workspaces/%s/lakehouses/%s", workspaceId, lakehouseId)
	var lh Lakehouse
	if err := c.doRequest(ctx, http.MethodGet, path, nil, nil, &lh); err != nil {
		return nil, err
	}
	return &lh, nil
}

// CreateLakehouse creates a lakehouse in a workspace.
func (c *Client) CreateLakehouse(ctx context.Context, workspaceId, displayName, description string) (*Lakehouse, error) {
	path := fmt.Sprintf("/workspaces/%s/lakehouses", workspaceId)
	body := map[string]string{"displayName": displayName}
	if description != "" {
		body["description"] = description
	}
	var lh Lakehouse
	if err := c.doRequest(ctx, http.MethodPost, path, nil, body, &lh); err != nil {
		return nil, err
	}
	return &lh, nil
}

// DeleteLakehouse calls DELETE /workspaces/{workspaceId}/lakehouses/{lakehouseId}
func (c *Client) DeleteLakehouse(ctx context.Context, workspaceId, lakehouseId string) error {
	path := fmt.Sprintf("/workspaces/%s/lakehouses/%s", workspaceId, lakehouseId)
	return c.doRequest(ctx, http.MethodDelete, path, nil, nil, nil)
}
