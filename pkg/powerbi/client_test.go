package powerbi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens string

func (s staticTokens) Token(_ context.Context, _ string) (string, error) {
	return string(s), nil
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(staticTokens("pbi-token"), WithBaseURL(srv.URL))
}

func TestListDataflows(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/groups/g1/dataflows", r.URL.Path)
		assert.Equal(t, "Bearer pbi-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"value":[{"objectId":"df1","name":"Staging"}]}`)
	}))

	flows, err := c.ListDataflows(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, flows, 1)
	assert.Equal(t, "Staging", flows[0].Name)
}

func TestExportDataflowReturnsRawModel(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"name":"Staging","entities":[{"name":"Customers"}]}`)
	}))

	raw, err := c.ExportDataflow(context.Background(), "g1", "df1")
	require.NoError(t, err)

	var model map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &model))
	assert.Equal(t, "Staging", model["name"])
}

func TestRefreshDataset(t *testing.T) {
	var gotBody map[string]string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/groups/g1/datasets/ds1/refreshes", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusAccepted)
	}))

	require.NoError(t, c.RefreshDataset(context.Background(), "g1", "ds1"))
	assert.Equal(t, "NoNotification", gotBody["notifyOption"])
}

func TestAPIErrorIncludesBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":"PowerBINotAuthorizedException"}}`)
	}))

	_, err := c.ListDataflows(context.Background(), "g1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "PowerBINotAuthorizedException")
}
