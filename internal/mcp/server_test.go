package mcp

import (
	"context"
	"encoding/json"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func connectTestServer(t *testing.T, cfg Config) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server := NewServer(cfg)

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func callText(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any) (*sdkmcp.CallToolResult, string) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	return res, text.Text
}

func TestServer_ListsCatalog(t *testing.T) {
	cs := connectTestServer(t, Config{Journal: newTestJournal(t), TransportMode: "stdio"})

	tools, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	names := map[string]bool{}
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, def := range buildToolCatalog() {
		require.True(t, names[def.Name], def.Name)
	}
	require.Len(t, tools.Tools, len(buildToolCatalog()))
}

func TestServer_CallTool(t *testing.T) {
	cs := connectTestServer(t, Config{Journal: newTestJournal(t), TransportMode: "stdio"})

	res, text := callText(t, cs, "add_project", map[string]any{})
	require.False(t, res.IsError)
	var proj struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &proj))
	require.Equal(t, "Project 1", proj.Name)

	res, text = callText(t, cs, "update_matrix_cell", map[string]any{"day": 5, "project_id": proj.ID, "text": "first"})
	require.False(t, res.IsError)
	var cell MatrixCellResponse
	require.NoError(t, json.Unmarshal([]byte(text), &cell))
	require.Equal(t, "first", cell.Text)

	res, text = callText(t, cs, "add_idea", map[string]any{"text": ""})
	require.True(t, res.IsError)
	var apiErr APIError
	require.NoError(t, json.Unmarshal([]byte(text), &apiErr))
	require.Equal(t, "BLANK_IDEA", apiErr.Code)
}

func TestServer_DocResources(t *testing.T) {
	cs := connectTestServer(t, Config{Journal: newTestJournal(t), TransportMode: "stdio"})

	list, err := cs.ListResources(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, list.Resources, len(docResources))

	res, err := cs.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "epistles://docs/matrix-keys"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "YYYY-MM-DD-projectId")
}

func TestTokenMatches(t *testing.T) {
	require.True(t, TokenMatches("Bearer secret", "secret"))
	require.True(t, TokenMatches("secret", "secret"))
	require.False(t, TokenMatches("Bearer nope", "secret"))
	require.False(t, TokenMatches("", "secret"))
	require.False(t, TokenMatches("Bearer ", ""))
}
