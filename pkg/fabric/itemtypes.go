package fabric

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Typed wrappers over the per-type item endpoints. They all share the Item
// shape; the dedicated endpoints exist so list calls do not need a type
// filter and definition exports default to the right format.

// ListSemanticModels calls GET /workspaces/{workspaceId}/semanticModels
func (c *Client) ListSemanticModels(ctx context.Context, workspaceId string) ([]Item, error) {
	path := fmt.Sprintf("/workspaces/%s/semanticModels", workspaceId)
	return collectPages[Item](ctx, c, path, nil)
}

// GetSemanticModelDefinition exports a semantic model in TMDL format.
func (c *Client) GetSemanticModelDefinition(ctx context.Context, workspaceId, modelId string) (*ItemDefinition, error) {
	path := fmt.Sprintf("/workspaces/%s/semanticModels/%s/getDefinition", workspaceId, modelId)
	params := url.Values{"format": {"TMDL"}}
	var env definitionEnvelope
	if err := c.doRequest(ctx, http.MethodPost, path, params, nil, &env); err != nil {
		return nil, err
	}
	return &env.Definition, nil
}

// ListReports calls GET /workspaces/{workspaceId}/reports
func (c *Client) ListReports(ctx context.Context, workspaceId string) ([]Item, error) {
	path := fmt.Sprintf("/workspaces/%s/reports", workspaceId)
	return collectPages[Item](ctx, c, path, nil)
}

// GetReportDefinition exports a report definition (PBIR parts).
func (c *Client) GetReportDefinition(ctx context.Context, workspaceId, reportId string) (*ItemDefinition, error) {
	path := fmt.Sprintf("/workspaces/%s/reports/%s/getDefinition", workspaceId, reportId)
	var env definitionEnvelope
	if err := c.doRequest(ctx, http.MethodPost, path, nil, nil, &env); err != nil {
		return nil, err
	}
	return &env.Definition, nil
}

// ListNotebooks calls GET /workspaces/{workspaceId}/notebooks
func (c *Client) ListNotebooks(ctx context.Context, workspaceId string) ([]Item, error) {
	path := fmt.Sprintf("/workspaces/%s/notebooks", workspaceId)
	return collectPages[Item](ctx, c, path, nil)
}

// ListDataPipelines calls GET /workspaces/{workspaceId}/dataPipelines
func (c *Client) ListDataPipelines(ctx context.Context, workspaceId string) ([]Item, error) {
	path := fmt.Sprintf("/workspaces/%s/dataPipelines", workspaceId)
	return collectPages[Item](ctx, c, path, nil)
}

// ListDataflows calls GET /workspaces/{workspaceId}/dataflows (gen2
// dataflows; gen1 live on the Power BI API, see pkg/powerbi).
func (c *Client) ListDataflows(ctx context.Context, workspaceId string) ([]Item, error) {
	path := fmt.Sprintf("/workspaces/%s/dataflows", workspaceId)
	return collectPages[Item](ctx, c, path, nil)
}

// RunOnDemandJob triggers a job (e.g. Pipeline, RunNotebook) for an item.
func (c *Client) RunOnDemandJob(ctx context.Context, workspaceId, itemId, jobType string) error {
	path := fmt.Sprintf("/workspaces/%s/items/%s/jobs/instances", workspaceId, itemId)
	params := url.Values{"jobType": {jobType}}
	return c.doRequest(ctx, http.MethodPost, path, params, nil, nil)
}
