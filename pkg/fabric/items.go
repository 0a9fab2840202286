package fabric

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
)

// Item is a generic Fabric workspace item: a lakehouse, notebook, report,
// semantic model, data pipeline and so on.
type Item struct {
	Id          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	WorkspaceId string `json:"workspaceId"`
	FolderId    string `json:"folderId,omitempty"`
}

// DefinitionPart is one file of an item definition. Payloads travel base64
// encoded.
type DefinitionPart struct {
	Path        string `json:"path"`
	Payload     string `json:"payload"`
	PayloadType string `json:"payloadType"` // InlineBase64
}

// ItemDefinition is the full source definition of an item.
type ItemDefinition struct {
	Format string           `json:"format,omitempty"`
	Parts  []DefinitionPart `json:"parts"`
}

// DecodePart returns the decoded bytes of a definition part.
func (p DefinitionPart) DecodePart() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(p.Payload)
	if err != nil {
		return nil, fmt.Errorf("decoding definition part %s: %w", p.Path, err)
	}
	return data, nil
}

// NewDefinitionPart builds an inline-base64 part from raw bytes.
func NewDefinitionPart(path string, data []byte) DefinitionPart {
	return DefinitionPart{
		Path:        path,
		Payload:     base64.StdEncoding.EncodeToString(data),
		PayloadType: "InlineBase64",
	}
}

// CreateItemRequest is the payload for creating an item.
type CreateItemRequest struct {
	DisplayName string          `json:"displayName"`
	Description string          `json:"description,omitempty"`
	Type        string          `json:"type"`
	FolderId    string          `json:"folderId,omitempty"`
	Definition  *ItemDefinition `json:"definition,omitempty"`
}

// UpdateItemRequest is the payload for patching item metadata.
type UpdateItemRequest struct {
	DisplayName string `json:"displayName,omitempty"`
	Description string `json:"description,omitempty"`
}

// ListItems calls GET /workspaces/{workspaceId}/items. A non-empty itemType
// filters server side.
func (c *Client) ListItems(ctx context.Context, workspaceId, itemType string) ([]Item, error) {
	path := fmt.Sprintf("/workspaces/%s/items", workspaceId)
	var params url.Values
	if itemType != "" {
		params = url.Values{"type": []string{itemType}}
	}
	return collectPages[Item](ctx, c, path, params)
}

// GetItem calls GET /workspaces/{workspaceId}/items/{itemId}
func (c *Client) GetItem(ctx context.Context, workspaceId, itemId string) (*Item, error) {
	path := fmt.Sprintf("/workspaces/%s/items/%s", workspaceId, itemId)
	var it Item
	if err := c.doRequest(ctx, http.MethodGet, path, nil, nil, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// ResolveItem returns the ID of an item given its ID or display name,
// optionally restricted to an item type.
func (c *Client) ResolveItem(ctx context.Context, workspaceId, item, itemType string) (string, error) {
	if isUUID(item) {
		return item, nil
	}
	all, err := c.ListItems(ctx, workspaceId, itemType)
	if err != nil {
		return "", err
	}
	for _, it := range all {
		if it.DisplayName == item {
			return it.Id, nil
		}
	}
	return "", fmt.Errorf("item %q not found in workspace %s", item, workspaceId)
}

// CreateItem calls POST /workspaces/{workspaceId}/items. Definition-bearing
// creates come back through the long-running operation path.
func (c *Client) CreateItem(ctx context.Context, workspaceId string, req CreateItemRequest) (*Item, error) {
	path := fmt.Sprintf("/workspaces/%s/items", workspaceId)
	var it Item
	if err := c.doRequest(ctx, http.MethodPost, path, nil, req, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// UpdateItem calls PATCH /workspaces/{workspaceId}/items/{itemId}
func (c *Client) UpdateItem(ctx context.Context, workspaceId, itemId string, req UpdateItemRequest) (*Item, error) {
	path := fmt.Sprintf("/workspaces/%s/items/%s", workspaceId, itemId)
	var it Item
	if err := c.doRequest(ctx, http.MethodPatch, path, nil, req, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// DeleteItem calls DELETE /workspaces/{workspaceId}/items/{itemId}
func (c *Client) DeleteItem(ctx context.Context, workspaceId, itemId string) error {
	path := fmt.Sprintf("/workspaces/%s/items/%s", workspaceId, itemId)
	return c.doRequest(ctx, http.MethodDelete, path, nil, nil, nil)
}

type definitionEnvelope struct {
	Definition ItemDefinition `json:"definition"`
}

// GetItemDefinition fetches the source definition of an item. The endpoint
// is a long-running operation; the client polls it to completion.
func (c *Client) GetItemDefinition(ctx context.Context, workspaceId, itemId string) (*ItemDefinition, error) {
	path := fmt.Sprintf("/workspaces/%s/items/%s/getDefinition", workspaceId, itemId)
	var env definitionEnvelope
	if err := c.doRequest(ctx, http.MethodPost, path, nil, nil, &env); err != nil {
		return nil, err
	}
	return &env.Definition, nil
}

// UpdateItemDefinition replaces the source definition of an item.
func (c *Client) UpdateItemDefinition(ctx context.Context, workspaceId, itemId string, def ItemDefinition) error {
	path := fmt.Sprintf("/workspaces/%s/items/%s/updateDefinition", workspaceId, itemId)
	body := definitionEnvelope{Definition: def}
	return c.doRequest(ctx, http.MethodPost, path, nil, body, nil)
}
