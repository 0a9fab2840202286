package graph

import (
	"context"
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
	return NewClient(staticTokens("graph-token"), WithBaseURL(srv.URL))
}

func TestGetUserByUPN(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/amalie@contoso.com", r.URL.Path)
		fmt.Fprint(w, `{"id":"u1","displayName":"Amalie","userPrincipalName":"amalie@contoso.com"}`)
	}))

	u, err := c.GetUser(context.Background(), "amalie@contoso.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.Id)
}

func TestFindGroupByName(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "displayName eq 'BI Team'", r.URL.Query().Get("$filter"))
		fmt.Fprint(w, `{"value":[{"id":"g1","displayName":"BI Team"}]}`)
	}))

	g, err := c.FindGroup(context.Background(), "BI Team")
	require.NoError(t, err)
	assert.Equal(t, "g1", g.Id)
}

func TestFindApplicationByName(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/applications", r.URL.Path)
		assert.Equal(t, "displayName eq 'fabric-deploy'", r.URL.Query().Get("$filter"))
		fmt.Fprint(w, `{"value":[{"id":"a1","displayName":"fabric-deploy","appId":"app-1"}]}`)
	}))

	app, err := c.FindApplication(context.Background(), "fabric-deploy")
	require.NoError(t, err)
	assert.Equal(t, "app-1", app.AppId)
}

func TestFindServicePrincipalNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"value":[]}`)
	}))

	_, err := c.FindServicePrincipal(context.Background(), "deploy-spn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
