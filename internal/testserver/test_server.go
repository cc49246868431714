// Package testserver runs the full HTTP stack on an in-memory journal for
// end-to-end tests.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ganot/epistles/internal/app"
	"github.com/ganot/epistles/internal/backup"
	"github.com/ganot/epistles/internal/clock"
	"github.com/ganot/epistles/internal/config"
	"github.com/ganot/epistles/internal/persist"
	"github.com/ganot/epistles/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// Start is the instant the test clock is set to.
var Start = time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)

type TestServer struct {
	Server  *httptest.Server
	App     *app.App
	Repo    *persist.Memory
	Backups *backup.MemoryTarget
	Clock   *clock.Manual
	Token   string
}

// New starts a server protected by token. An empty token disables auth.
func New(t *testing.T, token string) *TestServer {
	t.Helper()

	cfg := config.Default()
	cfg.Transport.Mode = "http"
	cfg.Storage.Driver = "memory"
	cfg.Backup.Driver = "memory"
	cfg.Journal.Timezone = "UTC"
	cfg.Auth.Enabled = token != ""
	cfg.Auth.Token = token

	clk := clock.NewManual(Start)
	clk.Step = time.Millisecond
	repo := persist.NewMemory()
	target := backup.NewMemory()

	a, err := app.New(context.Background(), cfg, nil,
		app.WithClock(clk),
		app.WithRepository(repo),
		app.WithBackupTarget(target),
	)
	require.NoError(t, err)

	server := httptest.NewServer(a.HTTPHandler())
	t.Cleanup(func() {
		server.Close()
		_ = a.Close()
	})

	return &TestServer{
		Server:  server,
		App:     a,
		Repo:    repo,
		Backups: target,
		Clock:   clk,
		Token:   token,
	}
}

// RPC posts a JSON-RPC request to /rpc.
func (ts *TestServer) RPC(t *testing.T, method string, params any) transport.Response {
	t.Helper()

	payload := map[string]any{"jsonrpc": "2.0", "method": method, "id": 1}
	if params != nil {
		payload["params"] = params
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if ts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.Token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out transport.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// Connect opens an MCP client session over the streamable HTTP endpoint.
func (ts *TestServer) Connect(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearer{token: ts.Token}},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

type bearer struct {
	token string
}

func (b bearer) RoundTrip(req *http.Request) (*http.Response, error) {
	if b.token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	return http.DefaultTransport.RoundTrip(req)
}
