package mcp

import (
	"context"
	"encoding/json"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolDefinition describes a callable tool.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func object(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

func projectIDsProp(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"description": description,
		"items":       map[string]any{"type": "integer"},
	}
}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Projects
		{
			Name:        "list_projects",
			Description: "List active and archived projects in display order",
			InputSchema: object(map[string]any{}),
		},
		{
			Name:        "add_project",
			Description: "Create a project with a default name and the next palette colour",
			InputSchema: object(map[string]any{}),
		},
		{
			Name:        "update_project",
			Description: "Rename, recolour, archive or unarchive a project",
			InputSchema: object(map[string]any{
				"id":       prop("integer", "Project ID"),
				"name":     prop("string", "New display name"),
				"color":    prop("string", "New colour, e.g. #A0C4FF"),
				"archived": prop("boolean", "Archive (true) or unarchive (false)"),
			}, "id"),
		},
		{
			Name:        "delete_project",
			Description: "Remove a project. Its notes and idea links are kept",
			InputSchema: object(map[string]any{
				"id": prop("integer", "Project ID"),
			}, "id"),
		},
		{
			Name:        "reorder_projects",
			Description: "Move a project to the position of another project",
			InputSchema: object(map[string]any{
				"dragged_id": prop("integer", "Project being moved"),
				"target_id":  prop("integer", "Project whose position it takes"),
			}, "dragged_id", "target_id"),
		},

		// Matrix
		{
			Name:        "select_month",
			Description: "Select the month that matrix writes and month views use. The selection is shared by every connected client",
			InputSchema: object(map[string]any{
				"month": prop("string", "Month as YYYY-MM"),
			}, "month"),
		},
		{
			Name:        "update_matrix_cell",
			Description: "Set the note for a day and project, in the given month or else the selected month",
			InputSchema: object(map[string]any{
				"month":      prop("string", "Month as YYYY-MM (omit for the selected month)"),
				"day":        prop("integer", "Day of month, 1 to 31"),
				"project_id": prop("integer", "Project ID"),
				"text":       prop("string", "Note text; empty clears the cell"),
			}, "day", "project_id", "text"),
		},
		{
			Name:        "get_month",
			Description: "Get the 31-day grid for a month with the projects visible in it",
			InputSchema: object(map[string]any{
				"month": prop("string", "Month as YYYY-MM (omit for the selected month)"),
			}),
		},
		{
			Name:        "available_months",
			Description: "List months that have notes, newest first, always including the current month",
			InputSchema: object(map[string]any{}),
		},

		// Dashboard
		{
			Name:        "get_dashboard",
			Description: "Get project cards with start dates, milestones and related ideas",
			InputSchema: object(map[string]any{}),
		},
		{
			Name:        "get_milestones",
			Description: "List a project's non-empty notes newest first",
			InputSchema: object(map[string]any{
				"id": prop("integer", "Project ID"),
			}, "id"),
		},

		// Ideas
		{
			Name:        "add_idea",
			Description: "Add an idea at the top of the list, optionally linked to projects",
			InputSchema: object(map[string]any{
				"text":        prop("string", "Idea text"),
				"project_ids": projectIDsProp("Linked project IDs; empty means global"),
			}, "text"),
		},
		{
			Name:        "update_idea",
			Description: "Edit, relink, hide or unhide an idea",
			InputSchema: object(map[string]any{
				"id":          prop("string", "Idea ID"),
				"text":        prop("string", "New text"),
				"project_ids": projectIDsProp("Replacement project links"),
				"hidden":      prop("boolean", "Hide (true) or unhide (false)"),
			}, "id"),
		},
		{
			Name:        "delete_idea",
			Description: "Delete an idea",
			InputSchema: object(map[string]any{
				"id": prop("string", "Idea ID"),
			}, "id"),
		},
		{
			Name:        "search_ideas",
			Description: "Search ideas by text and filter",
			InputSchema: object(map[string]any{
				"query":       prop("string", "Case-insensitive substring"),
				"filter":      prop("string", "all, global, or a project ID"),
				"hidden_only": prop("boolean", "Search hidden ideas instead of visible ones"),
			}),
		},

		// Transfer
		{
			Name:        "export_state",
			Description: "Export the whole journal as a JSON document",
			InputSchema: object(map[string]any{}),
		},
		{
			Name:        "import_state",
			Description: "Replace the whole journal with a previously exported document",
			InputSchema: object(map[string]any{
				"document": prop("string", "JSON document from export_state"),
			}, "document"),
		},
		{
			Name:        "backup_export",
			Description: "Write an export to the configured backup target",
			InputSchema: object(map[string]any{}),
		},
		{
			Name:        "backup_list",
			Description: "List stored backups, newest first",
			InputSchema: object(map[string]any{}),
		},
		{
			Name:        "backup_restore",
			Description: "Replace the journal with a stored backup",
			InputSchema: object(map[string]any{
				"key": prop("string", "Backup key from backup_list"),
			}, "key"),
		},
	}
}

// CallRecorder records tool call outcomes.
type CallRecorder interface {
	Observe(op string, err error, elapsed time.Duration)
}

func registerTools(server *sdkmcp.Server, handler *Handler, recorder CallRecorder) {
	for _, def := range buildToolCatalog() {
		name := def.Name
		server.AddTool(&sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			var args json.RawMessage
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}
			start := time.Now()
			result, err := handler.Handle(ctx, name, args)
			if recorder != nil {
				recorder.Observe("tool."+name, err, time.Since(start))
			}
			return toolResult(result, err)
		})
	}
}

func toolResult(result any, err error) (*sdkmcp.CallToolResult, error) {
	if err != nil {
		apiErr := MapError(err)
		if apiErr == nil {
			return nil, err
		}
		data, _ := json.Marshal(apiErr)
		return &sdkmcp.CallToolResult{
			Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
			IsError: true,
		}, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil
}
