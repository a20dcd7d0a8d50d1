package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/2beens/activitytracker/internal/activities"
	"github.com/2beens/activitytracker/internal/feed"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	memFeed := feed.NewMemoryFeed()
	t.Cleanup(func() {
		_ = memFeed.Close()
	})

	router := mux.NewRouter()
	activities.NewHandler(feed.NewStore(activities.NewMemoryRepo(), memFeed)).
		SetupRoutes(router.PathPrefix("/activities").Subrouter())

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func run(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{"--server", server}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands(t *testing.T) {
	server := newTestAPI(t)
	c := newClient(server.URL, 2*time.Second)
	ctx := context.Background()

	out, err := run(t, server.URL, "add", "--activity", "running", "--distance", "5000", "--date", "2024-04-02")
	require.NoError(t, err)
	assert.Contains(t, out, "running 5000m at 2024-04-02T00:00:00Z")

	_, err = run(t, server.URL, "add", "--distance", "12000", "--date", "2024-04-01T07:30:00Z")
	require.NoError(t, err)

	list, err := c.list(ctx, listFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	cycling := list[0]
	assert.Equal(t, activities.Cycling, cycling.Activity)

	out, err = run(t, server.URL, "list", "--activity", "running")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "ACTIVITY")
	assert.Contains(t, lines[1], "5000m")

	out, err = run(t, server.URL, "list", "--json", "--from", "2024-04-01", "--to", "2024-04-01T23:59:59Z")
	require.NoError(t, err)
	assert.Contains(t, out, `"distance": 12000`)
	assert.NotContains(t, out, `"distance": 5000`)

	out, err = run(t, server.URL, "update", cycling.ID, "--distance", "15000")
	require.NoError(t, err)
	assert.Equal(t, "updated "+cycling.ID+"\n", out)

	updated, err := c.get(ctx, cycling.ID)
	require.NoError(t, err)
	assert.Equal(t, 15000, updated.Distance)
	assert.Equal(t, activities.Cycling, updated.Activity, "unset flags keep stored values")
	assert.True(t, cycling.Date.Equal(updated.Date))

	out, err = run(t, server.URL, "get", cycling.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "15000m")

	out, err = run(t, server.URL, "delete", cycling.ID)
	require.NoError(t, err)
	assert.Equal(t, "deleted "+cycling.ID+"\n", out)

	_, err = run(t, server.URL, "get", cycling.ID)
	assert.ErrorContains(t, err, "404")
}

func TestCommands_Errors(t *testing.T) {
	server := newTestAPI(t)

	_, err := run(t, server.URL, "add", "--activity", "running")
	assert.ErrorContains(t, err, `required flag(s) "distance" not set`)

	_, err = run(t, server.URL, "add", "--distance=-3")
	assert.ErrorContains(t, err, "400")

	_, err = run(t, server.URL, "add", "--distance", "3", "--date", "yesterday")
	assert.ErrorContains(t, err, "invalid date")

	_, err = run(t, server.URL, "delete")
	assert.Error(t, err)
}

func TestLiveURL(t *testing.T) {
	u, err := liveURL("http://localhost:9000")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:9000/live", u)

	u, err = liveURL("https://activities.example.com/tracker/")
	require.NoError(t, err)
	assert.Equal(t, "wss://activities.example.com/tracker/live", u)
}
