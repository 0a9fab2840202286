package cicd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaliebjorgen/fabricops/pkg/fabric"
)

type staticTokens string

func (s staticTokens) Token(_ context.Context, _ string) (string, error) {
	return string(s), nil
}

const parentId = "11111111-1111-1111-1111-111111111111"

// fakeFabric wires the minimal endpoint surface the deploy flow touches.
func fakeFabric(t *testing.T) (*fabric.Client, *[]string) {
	t.Helper()
	var calls []string

	mux := http.NewServeMux()
	mux.HandleFunc("GET /workspaces/"+parentId, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"id":%q,"displayName":"Sales-DEV","capacityId":"cap-1"}`, parentId)
	})
	mux.HandleFunc("GET /workspaces/"+parentId+"/git/connection", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"gitProviderDetails":{
			"organizationName":"contoso","projectName":"bi","repositoryName":"sales",
			"branchName":"dev","directoryName":"/","gitProviderType":"AzureDevOps"}}`)
	})
	mux.HandleFunc("POST /workspaces", func(w http.ResponseWriter, r *http.Request) {
		var req fabric.CreateWorkspaceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		calls = append(calls, "create:"+req.DisplayName)
		fmt.Fprintf(w, `{"id":"new-ws","displayName":%q,"capacityId":%q}`, req.DisplayName, req.CapacityId)
	})
	mux.HandleFunc("POST /workspaces/new-ws/git/connect", func(w http.ResponseWriter, r *http.Request) {
		var req fabric.ConnectToGitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		calls = append(calls, "connect:"+req.GitProviderDetails.BranchName)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /workspaces/new-ws/git/initializeConnection", func(w http.ResponseWriter, _ *http.Request) {
		calls = append(calls, "initialize")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /workspaces/new-ws/git/updateFromGit", func(w http.ResponseWriter, _ *http.Request) {
		calls = append(calls, "update")
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fabric.NewClient(staticTokens("t"),
		fabric.WithBaseURL(srv.URL),
		fabric.WithRetry(0, time.Millisecond)), &calls
}

func TestDeployCreatesConnectsAndSyncs(t *testing.T) {
	client, calls := fakeFabric(t)
	d := NewDeployer(client, nil, nil)

	ws, err := d.Deploy(context.Background(), DeployRequest{
		ParentWorkspace: parentId,
		Branch:          "feature/report",
		WorkspaceName:   "Sales - feature/report",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-ws", ws.Id)
	assert.Equal(t, []string{
		"create:Sales - feature/report",
		"connect:feature/report",
		"initialize",
		"update",
	}, *calls)
}

func TestDeployDerivesWorkspaceName(t *testing.T) {
	client, calls := fakeFabric(t)
	d := NewDeployer(client, nil, nil)

	_, err := d.Deploy(context.Background(), DeployRequest{
		ParentWorkspace: parentId,
		Branch:          "feature/x",
	})
	require.NoError(t, err)
	assert.Contains(t, *calls, "create:Sales-DEV - feature/x")
}

func TestDeployRejectsWorkspaceWithoutGit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /workspaces/"+parentId, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"id":%q,"displayName":"Sandbox"}`, parentId)
	})
	mux.HandleFunc("GET /workspaces/"+parentId+"/git/connection", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"gitConnectionState":"NotConnected"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := fabric.NewClient(staticTokens("t"), fabric.WithBaseURL(srv.URL))
	d := NewDeployer(client, nil, nil)

	_, err := d.Deploy(context.Background(), DeployRequest{ParentWorkspace: parentId, Branch: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no git integration")
}

func TestExportConfigMergeModes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /workspaces/"+parentId, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"id":%q,"displayName":"Sales-DEV","capacityId":"cap-1"}`, parentId)
	})
	mux.HandleFunc("GET /workspaces/"+parentId+"/roleAssignments", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"value":[{"id":"ra1","role":"Admin","principal":{"id":"u1","type":"User"}}]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := fabric.NewClient(staticTokens("t"), fabric.WithBaseURL(srv.URL))
	exporter := NewExporter(client, BranchMap{"dev": "-DEV"})
	path := filepath.Join(t.TempDir(), "config.json")
	ctx := context.Background()

	require.NoError(t, exporter.ExportConfig(ctx, parentId, "dev", path, MergeUpdate))

	var cfg ProjectConfig
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &cfg))

	entry := cfg["dev"]["Sales"]
	assert.Equal(t, parentId, entry.WorkspaceId)
	assert.Equal(t, "Sales-DEV", entry.WorkspaceName)
	require.Len(t, entry.Roles, 1)
	assert.Equal(t, "Admin", entry.Roles[0].Role)

	// Preserve keeps the existing entry.
	tampered := cfg
	entry.Description = "hand edited"
	tampered["dev"]["Sales"] = entry
	data, err = json.Marshal(tampered)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	require.NoError(t, exporter.ExportConfig(ctx, parentId, "dev", path, MergePreserve))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Equal(t, "hand edited", cfg["dev"]["Sales"].Description)

	// Update overwrites it again.
	require.NoError(t, exporter.ExportConfig(ctx, parentId, "dev", path, MergeUpdate))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Empty(t, cfg["dev"]["Sales"].Description)
}
