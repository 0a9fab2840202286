package fabric

import (
	"context"
	"fmt"
	"net/http"
)

// Connection represents a connection to a data source.
type Connection struct {
	Id                string             `json:"id"`
	DisplayName       string             `json:"displayName"`
	ConnectivityType  string             `json:"connectivityType,omitempty"`
	GatewayId         string             `json:"gatewayId,omitempty"`
	ConnectionDetails *ConnectionDetails `json:"connectionDetails,omitempty"`
}

// ConnectionDetails describes the target of a connection.
type ConnectionDetails struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

// ListConnections calls GET /connections, following pagination.
func (c *Client) ListConnections(ctx context.Context) ([]Connection, error) {
	return collectPages[Connection](ctx, c, "/connections", nil)
}

// GetConnection calls GET /connections/{connectionId}
func (c *Client) GetConnection(ctx context.Context, id string) (*Connection, error) {
	var conn Connection
	if err := c.doRequest(ctx, http.MethodGet, "/connections/"+id, nil, nil, &conn); err != nil {
		return nil, err
	}
	return &conn, nil
}

// DeleteConnection calls DELETE /connections/{connectionId}
func (c *Client) DeleteConnection(ctx context.Context, id string) error {
	return c.doRequest(ctx, http.MethodDelete, "/connections/"+id, nil, nil, nil)
}

// ListConnectionRoleAssignments lists who may use a connection.
func (c *Client) ListConnectionRoleAssignments(ctx context.Context, connectionId string) ([]RoleAssignment, error) {
	path := fmt.Sprintf("/connections/%s/roleAssignments", connectionId)
	return collectPages[RoleAssignment](ctx, c, path, nil)
}

// AddConnectionRoleAssignment grants a principal a role on a connection
// (Owner, User, UserWithReshare).
func (c *Client) AddConnectionRoleAssignment(ctx context.Context, connectionId string, principal Principal, role string) (*RoleAssignment, error) {
	path := fmt.Sprintf("/connections/%s/roleAssignments", connectionId)
	body := map[string]interface{}{"principal": principal, "role": role}
	var ra RoleAssignment
	if err := c.doRequest(ctx, http.MethodPost, path, nil, body, &ra); err != nil {
		return nil, err
	}
	return &ra, nil
}

// DeleteConnectionRoleAssignment revokes a connection role assignment.
func (c *Client) DeleteConnectionRoleAssignment(ctx context.Context, connectionId, assignmentId string) error {
	path := fmt.Sprintf("/connections/%s/roleAssignments/%s", connectionId, assignmentId)
	return c.doRequest(ctx, http.MethodDelete, path, nil, nil, nil)
}
