package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ganot/epistles/internal/backup"
	"github.com/ganot/epistles/internal/domain/journal"
)

// JournalService defines the journal operations needed by MCP.
type JournalService interface {
	Snapshot() journal.State
	AddProject(ctx context.Context) (journal.Project, error)
	UpdateProject(ctx context.Context, id int64, patch journal.ProjectPatch) (journal.Project, bool, error)
	DeleteProject(ctx context.Context, id int64) bool
	ReorderProjects(ctx context.Context, draggedID, targetID int64) bool
	SelectMonth(month string) error
	SelectedMonth() string
	CurrentMonth() string
	UpdateMatrixCellIn(ctx context.Context, month string, day int, projectID int64, text string) (string, error)
	Months() []string
	Month(month string) (journal.MonthView, error)
	Dashboard() journal.DashboardView
	AddIdea(ctx context.Context, text string, projectIDs []int64) (journal.Idea, error)
	UpdateIdea(ctx context.Context, id string, patch journal.IdeaPatch) (journal.Idea, bool, error)
	DeleteIdea(ctx context.Context, id string) bool
	SearchIdeas(q journal.IdeaQuery) []journal.Idea
	Export() (string, error)
	Import(ctx context.Context, raw string) (journal.UpgradeReport, error)
}

// BackupService defines backup operations needed by MCP.
type BackupService interface {
	Export(ctx context.Context) (backup.Info, error)
	List(ctx context.Context) ([]backup.Info, error)
	Restore(ctx context.Context, key string) (journal.UpgradeReport, error)
	Target() backup.Target
}

// Handler dispatches MCP commands.
type Handler struct {
	journal JournalService
	backups BackupService
}

// NewHandler creates a new MCP handler. backups may be nil.
func NewHandler(j JournalService, backups BackupService) *Handler {
	return &Handler{journal: j, backups: backups}
}

// Handle dispatches MCP requests to domain services.
func (h *Handler) Handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case "list_projects":
		active, archived := journal.PartitionProjects(h.journal.Snapshot().Projects)
		return ListProjectsResponse{
			Active:      active,
			Archived:    archived,
			ActiveCount: len(active),
			Limit:       journal.MaxActiveProjects,
		}, nil
	case "add_project":
		proj, err := h.journal.AddProject(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		return proj, nil
	case "update_project":
		var req UpdateProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		proj, found, err := h.journal.UpdateProject(ctx, req.ID, journal.ProjectPatch{
			Name:     req.Name,
			Color:    req.Color,
			Archived: req.Archived,
		})
		if err != nil {
			return nil, mapError(err)
		}
		if !found {
			return ProjectResult{}, nil
		}
		return ProjectResult{Found: true, Project: &proj}, nil
	case "delete_project":
		var req ProjectIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return FoundResult{Found: h.journal.DeleteProject(ctx, req.ID)}, nil
	case "reorder_projects":
		var req ReorderProjectsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return FoundResult{Found: h.journal.ReorderProjects(ctx, req.DraggedID, req.TargetID)}, nil
	case "select_month":
		var req SelectMonthParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.journal.SelectMonth(req.Month); err != nil {
			return nil, mapError(err)
		}
		return SelectMonthResponse{SelectedMonth: h.journal.SelectedMonth()}, nil
	case "update_matrix_cell":
		var req UpdateMatrixCellParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		key, err := h.journal.UpdateMatrixCellIn(ctx, req.Month, req.Day, req.ProjectID, req.Text)
		if err != nil {
			return nil, mapError(err)
		}
		return MatrixCellResponse{Key: key, Text: req.Text}, nil
	case "get_month":
		var req GetMonthParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		view, err := h.journal.Month(req.Month)
		if err != nil {
			return nil, mapError(err)
		}
		return view, nil
	case "available_months":
		return AvailableMonthsResponse{
			Months:        h.journal.Months(),
			SelectedMonth: h.journal.SelectedMonth(),
			CurrentMonth:  h.journal.CurrentMonth(),
		}, nil
	case "get_dashboard":
		return h.journal.Dashboard(), nil
	case "get_milestones":
		var req ProjectIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		matrix := h.journal.Snapshot().Matrix
		start, _ := journal.ProjectStartDate(matrix, req.ID)
		return MilestonesResponse{
			ProjectID:  req.ID,
			StartDate:  start,
			Milestones: journal.Milestones(matrix, req.ID),
		}, nil
	case "add_idea":
		var req AddIdeaParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		idea, err := h.journal.AddIdea(ctx, req.Text, req.ProjectIDs)
		if err != nil {
			return nil, mapError(err)
		}
		return idea, nil
	case "update_idea":
		var req UpdateIdeaParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		idea, found, err := h.journal.UpdateIdea(ctx, req.ID, journal.IdeaPatch{
			Text:       req.Text,
			ProjectIDs: req.ProjectIDs,
			Hidden:     req.Hidden,
		})
		if err != nil {
			return nil, mapError(err)
		}
		if !found {
			return IdeaResult{}, nil
		}
		return IdeaResult{Found: true, Idea: &idea}, nil
	case "delete_idea":
		var req IdeaIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return FoundResult{Found: h.journal.DeleteIdea(ctx, req.ID)}, nil
	case "search_ideas":
		var req SearchIdeasParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		filter, err := journal.ParseIdeaFilter(req.Filter)
		if err != nil {
			return nil, invalidParams(err)
		}
		return SearchIdeasResponse{
			Filter: filter.String(),
			Ideas: h.journal.SearchIdeas(journal.IdeaQuery{
				Text:       req.Query,
				Filter:     filter,
				HiddenOnly: req.HiddenOnly,
			}),
		}, nil
	case "export_state":
		doc, err := h.journal.Export()
		if err != nil {
			return nil, mapError(err)
		}
		return ExportStateResponse{Document: doc}, nil
	case "import_state":
		var req ImportStateParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		report, err := h.journal.Import(ctx, req.Document)
		if err != nil {
			return nil, mapError(err)
		}
		return h.importSummary(report), nil
	case "backup_export":
		if h.backups == nil {
			return nil, errBackupsDisabled
		}
		info, err := h.backups.Export(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		return info, nil
	case "backup_list":
		if h.backups == nil {
			return nil, errBackupsDisabled
		}
		infos, err := h.backups.List(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		return BackupListResponse{Driver: h.backups.Target().Driver(), Backups: infos}, nil
	case "backup_restore":
		if h.backups == nil {
			return nil, errBackupsDisabled
		}
		var req BackupRestoreParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		report, err := h.backups.Restore(ctx, req.Key)
		if err != nil {
			return nil, mapError(err)
		}
		return h.importSummary(report), nil
	default:
		return nil, mapError(fmt.Errorf("%w: %s", ErrUnknownMethod, method))
	}
}

var errBackupsDisabled = &APIError{Code: "BACKUPS_DISABLED", Message: "no backup target is configured"}

func (h *Handler) importSummary(report journal.UpgradeReport) ImportStateResponse {
	st := h.journal.Snapshot()
	return ImportStateResponse{
		Projects: len(st.Projects),
		Notes:    len(st.Matrix),
		Ideas:    len(st.Ideas),
		Legacy:   report,
	}
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return invalidParams(err)
	}
	return nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
