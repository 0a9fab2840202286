package fabric

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticTokens is a TokenSource returning a fixed token.
type staticTokens string

func (s staticTokens) Token(_ context.Context, _ string) (string, error) {
	return string(s), nil
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(staticTokens("test-token"),
		WithBaseURL(srv.URL),
		WithRetry(3, time.Millisecond),
		withLROPolicy(time.Millisecond, 5),
	)
}

func TestDoRequestSendsBearerToken(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"value":[]}`)
	}))

	_, err := c.ListWorkspaces(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestDoRequestAPIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"errorCode":"WorkspaceNotFound","message":"Workspace is not found"}`)
	}))

	_, err := c.GetWorkspace(context.Background(), "missing")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "WorkspaceNotFound", apiErr.ErrorCode)
	assert.True(t, IsNotFound(err))
}

func TestDoRequestRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"id":"abc","displayName":"WS"}`)
	}))

	ws, err := c.GetWorkspace(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "WS", ws.DisplayName)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoRequestHonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"id":"abc"}`)
	}))

	_, err := c.GetWorkspace(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDoRequestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"errorCode":"InvalidRequest","message":"bad"}`)
	}))

	_, err := c.GetWorkspace(context.Background(), "abc")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCollectPagesFollowsContinuationToken(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("continuationToken") {
		case "":
			fmt.Fprint(w, `{"value":[{"id":"1","displayName":"A"}],"continuationToken":"next"}`)
		case "next":
			fmt.Fprint(w, `{"value":[{"id":"2","displayName":"B"}]}`)
		default:
			t.Errorf("unexpected continuation token %q", r.URL.Query().Get("continuationToken"))
		}
	}))

	ws, err := c.ListWorkspaces(context.Background())
	require.NoError(t, err)
	require.Len(t, ws, 2)
	assert.Equal(t, "A", ws[0].DisplayName)
	assert.Equal(t, "B", ws[1].DisplayName)
}

func TestLongRunningOperationPolledToResult(t *testing.T) {
	var polls atomic.Int32
	mux := http.NewServeMux()
	var srvURL string

	mux.HandleFunc("POST /workspaces/ws1/items", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Location", srvURL+"/operations/op1")
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("GET /operations/op1", func(w http.ResponseWriter, _ *http.Request) {
		if polls.Add(1) < 3 {
			fmt.Fprint(w, `{"status":"Running"}`)
			return
		}
		fmt.Fprint(w, `{"status":"Succeeded"}`)
	})
	mux.HandleFunc("GET /operations/op1/result", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id":"item1","displayName":"Pipeline","type":"DataPipeline"}`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL
	c := NewClient(staticTokens("t"),
		WithBaseURL(srv.URL),
		WithRetry(0, time.Millisecond),
		withLROPolicy(time.Millisecond, 10),
	)

	item, err := c.CreateItem(context.Background(), "ws1", CreateItemRequest{
		DisplayName: "Pipeline",
		Type:        "DataPipeline",
	})
	require.NoError(t, err)
	assert.Equal(t, "item1", item.Id)
	assert.Equal(t, int32(3), polls.Load())
}

func TestLongRunningOperationFailure(t *testing.T) {
	mux := http.NewServeMux()
	var srvURL string

	mux.HandleFunc("POST /workspaces/ws1/items", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Location", srvURL+"/operations/op2")
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("GET /operations/op2", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status":"Failed","error":{"errorCode":"ItemDisplayNameAlreadyInUse","message":"name taken"}}`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL
	c := NewClient(staticTokens("t"), WithBaseURL(srv.URL),
		WithRetry(0, time.Millisecond), withLROPolicy(time.Millisecond, 10))

	_, err := c.CreateItem(context.Background(), "ws1", CreateItemRequest{DisplayName: "X", Type: "Notebook"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "ItemDisplayNameAlreadyInUse", apiErr.ErrorCode)
}

func TestCreateWorkspace(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/workspaces", r.URL.Path)

		var req CreateWorkspaceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Analytics", req.DisplayName)

		fmt.Fprintf(w, `{"id":"new-id","displayName":%q,"type":"Workspace"}`, req.DisplayName)
	}))

	ws, err := c.CreateWorkspace(context.Background(), CreateWorkspaceRequest{DisplayName: "Analytics"})
	require.NoError(t, err)
	assert.Equal(t, "new-id", ws.Id)
}

func TestResolveWorkspace(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"value":[
			{"id":"11111111-1111-1111-1111-111111111111","displayName":"Sales"},
			{"id":"22222222-2222-2222-2222-222222222222","displayName":"Analytics"}]}`)
	}))

	ctx := context.Background()

	// A GUID resolves to itself without a round trip.
	id, err := c.ResolveWorkspace(ctx, "33333333-3333-3333-3333-333333333333")
	require.NoError(t, err)
	assert.Equal(t, "33333333-3333-3333-3333-333333333333", id)

	id, err = c.ResolveWorkspace(ctx, "Analytics")
	require.NoError(t, err)
	assert.Equal(t, "22222222-2222-2222-2222-222222222222", id)

	_, err = c.ResolveWorkspace(ctx, "Nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestIsUUID(t *testing.T) {
	assert.True(t, isUUID("123e4567-e89b-12d3-a456-426614174000"))
	assert.False(t, isUUID("My Workspace"))
	assert.False(t, isUUID("123e4567-e89b-12d3-a456-42661417400"))
	assert.False(t, isUUID("123e4567ae89ba12d3aa456a426614174000"))
}

func TestDefinitionPartRoundTrip(t *testing.T) {
	part := NewDefinitionPart("model.tmdl", []byte("table Sales"))
	assert.Equal(t, "InlineBase64", part.PayloadType)

	data, err := part.DecodePart()
	require.NoError(t, err)
	assert.Equal(t, "table Sales", string(data))
}
