package fabric

import (
	"context"
	"fmt"
	"net/http"
)

// Capacity represents a Fabric capacity.
type Capacity struct {
	Id          string `json:"id"`
	DisplayName string `json:"displayName"`
	Sku         string `json:"sku"`
	Region      string `json:"region"`
	State       string `json:"state"`
}

// ListCapacities calls GET /capacities, following pagination.
func (c *Client) ListCapacities(ctx context.Context) ([]Capacity, error) {
	return collectPages[Capacity](ctx, c, "/capacities", nil)
}

// GetCapacity returns the capacity with the given ID or display name. The
// capacities endpoint has no by-id GET, so both paths go through the list.
func (c *Client) GetCapacity(ctx context.Context, capacity string) (*Capacity, error) {
	all, err := c.ListCapacities(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Id == capacity || all[i].DisplayName == capacity {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("capacity %q not found", capacity)
}

// ResolveCapacity returns the ID of a capacity given its ID or display name.
func (c *Client) ResolveCapacity(ctx context.Context, capacity string) (string, error) {
	if isUUID(capacity) {
		return capacity, nil
	}
	found, err := c.GetCapacity(ctx, capacity)
	if err != nil {
		return "", err
	}
	return found.Id, nil
}

// Gateway represents an on-premises or virtual network data gateway.
type Gateway struct {
	Id                           string `json:"id"`
	DisplayName                  string `json:"displayName"`
	Type                         string `json:"type"`
	CapacityId                   string `json:"capacityId,omitempty"`
	NumberOfMemberGateways       int    `json:"numberOfMemberGateways,omitempty"`
	InactivityMinutesBeforeSleep int    `json:"inactivityMinutesBeforeSleep,omitempty"`
}

// ListGateways calls GET /gateways, following pagination.
func (c *Client) ListGateways(ctx context.Context) ([]Gateway, error) {
	return collectPages[Gateway](ctx, c, "/gateways", nil)
}

// GetGateway calls GET /gateways/{gatewayId}
func (c *Client) GetGateway(ctx context.Context, id string) (*Gateway, error) {
	var gw Gateway
	if err := c.doRequest(ctx, http.MethodGet, "/gateways/"+id, nil, nil, &gw); err != nil {
		return nil, err
	}
	return &gw, nil
}
