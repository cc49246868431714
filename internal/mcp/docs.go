package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `epistles is a personal journal: Projects, a month-by-day Matrix of notes, and Ideas.

Core concepts:
- Project: a tracked habit or effort. Its ID is the creation time in milliseconds. At most 9 projects can be active; archived ones don't count.
- Matrix: one note per (date, project), keyed YYYY-MM-DD-projectId. Empty text is stored, not deleted.
- Idea: a free-text note linked to zero or more projects. No links means global.
- Selected month: matrix writes and month views act on it. It starts at the current month and is
  shared by every connected client.

Typical flow:
1) list_projects or get_dashboard to orient.
2) update_matrix_cell with an explicit month for each day you want to record.
3) add_idea / search_ideas for loose thoughts.
4) export_state or backup_export before bulk changes; import_state / backup_restore replace everything.

Docs:
- epistles://docs/data-model
- epistles://docs/matrix-keys
- epistles://docs/backups
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "epistles://docs/data-model",
		Name:        "docs_data_model",
		Title:       "Data model",
		Description: "Projects, matrix notes and ideas, with their limits and defaults.",
		Content: `# Data model

The journal is a single JSON document with three collections:

` + "```json" + `
{"projects": [...], "matrix": {...}, "ideas": [...]}
` + "```" + `

## Projects

- ` + "`id`" + `: creation time in ms, bumped by one until unique.
- ` + "`name`" + `: defaults to "Project N".
- ` + "`color`" + `: cycles through a 9-colour palette.
- ` + "`archived`" + ` / ` + "`archivedAt`" + `: archiving stamps the time, unarchiving clears it.

Order matters: it is the column order of the month grid. Use ` + "`reorder_projects`" + `.

Deleting a project keeps its notes and idea links. They simply stop being shown.

## Ideas

- New ideas go to the top of the list.
- ` + "`projectIds: []`" + ` means global.
- Hidden ideas only show up with ` + "`hidden_only`" + `.

## Derived views

- Start date: the earliest date with a non-empty note for the project.
- Milestones: non-empty notes, newest first.
- A project appears in a month grid from the month it was created in.
`,
	},
	{
		URI:         "epistles://docs/matrix-keys",
		Name:        "docs_matrix_keys",
		Title:       "Matrix keys and legacy upgrade",
		Description: "How notes are keyed and how older documents are upgraded on load.",
		Content: `# Matrix keys

Every note is stored under ` + "`YYYY-MM-DD-projectId`" + `, for example ` + "`2024-03-07-1709251200000`" + `.
` + "`update_matrix_cell`" + ` builds the key from the month you pass, or the selected month, and the day.

## Legacy documents

Older documents keyed notes by day only (` + "`07-1709251200000`" + `) and linked an idea to a single ` + "`projectId`" + `.
On load these are upgraded:

- Bare-day keys are placed in the current month. If the dated key already exists, it wins.
- ` + "`projectId: n`" + ` becomes ` + "`projectIds: [n]`" + `; ` + "`null`" + ` becomes ` + "`[]`" + `.

Upgrading an already current document changes nothing. Imports are only upgraded when the server enables it.
`,
	},
	{
		URI:         "epistles://docs/backups",
		Name:        "docs_backups",
		Title:       "Exports and backups",
		Description: "Export/import semantics and the backup target.",
		Content: `# Exports and backups

- ` + "`export_state`" + ` returns the whole document as indented JSON.
- ` + "`import_state`" + ` replaces the whole document. Invalid input leaves the journal unchanged.
- ` + "`backup_export`" + ` writes an export named ` + "`timeless-epistles-backup-YYYY-MM-DD.json`" + `. A second export on the same day gets a time suffix.
- ` + "`backup_list`" + ` returns stored backups, newest first.
- ` + "`backup_restore`" + ` imports a stored backup by key.

The backup target is a local directory, an S3 bucket or memory, depending on server configuration.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
