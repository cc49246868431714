package mcp

import (
	"github.com/ganot/epistles/internal/backup"
	"github.com/ganot/epistles/internal/domain/journal"
)

type ProjectIDParams struct {
	ID int64 `json:"id"`
}

type UpdateProjectParams struct {
	ID       int64   `json:"id"`
	Name     *string `json:"name,omitempty"`
	Color    *string `json:"color,omitempty"`
	Archived *bool   `json:"archived,omitempty"`
}

type ReorderProjectsParams struct {
	DraggedID int64 `json:"dragged_id"`
	TargetID  int64 `json:"target_id"`
}

type SelectMonthParams struct {
	Month string `json:"month"`
}

type UpdateMatrixCellParams struct {
	Day       int    `json:"day"`
	ProjectID int64  `json:"project_id"`
	Text      string `json:"text"`
	Month     string `json:"month,omitempty"`
}

type GetMonthParams struct {
	Month string `json:"month,omitempty"`
}

type AddIdeaParams struct {
	Text       string  `json:"text"`
	ProjectIDs []int64 `json:"project_ids,omitempty"`
}

type UpdateIdeaParams struct {
	ID         string   `json:"id"`
	Text       *string  `json:"text,omitempty"`
	ProjectIDs *[]int64 `json:"project_ids,omitempty"`
	Hidden     *bool    `json:"hidden,omitempty"`
}

type IdeaIDParams struct {
	ID string `json:"id"`
}

type SearchIdeasParams struct {
	Query      string `json:"query,omitempty"`
	Filter     string `json:"filter,omitempty"`
	HiddenOnly bool   `json:"hidden_only,omitempty"`
}

type ImportStateParams struct {
	Document string `json:"document"`
}

type BackupRestoreParams struct {
	Key string `json:"key"`
}

type ListProjectsResponse struct {
	Active      []journal.Project `json:"active"`
	Archived    []journal.Project `json:"archived"`
	ActiveCount int               `json:"active_count"`
	Limit       int               `json:"limit"`
}

type ProjectResult struct {
	Found   bool             `json:"found"`
	Project *journal.Project `json:"project,omitempty"`
}

type IdeaResult struct {
	Found bool          `json:"found"`
	Idea  *journal.Idea `json:"idea,omitempty"`
}

type FoundResult struct {
	Found bool `json:"found"`
}

type SelectMonthResponse struct {
	SelectedMonth string `json:"selected_month"`
}

type MatrixCellResponse struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

type AvailableMonthsResponse struct {
	Months        []string `json:"months"`
	SelectedMonth string   `json:"selected_month"`
	CurrentMonth  string   `json:"current_month"`
}

type MilestonesResponse struct {
	ProjectID  int64               `json:"project_id"`
	StartDate  string              `json:"start_date,omitempty"`
	Milestones []journal.Milestone `json:"milestones"`
}

type SearchIdeasResponse struct {
	Filter string         `json:"filter"`
	Ideas  []journal.Idea `json:"ideas"`
}

type ExportStateResponse struct {
	Document string `json:"document"`
}

type ImportStateResponse struct {
	Projects int                   `json:"projects"`
	Notes    int                   `json:"notes"`
	Ideas    int                   `json:"ideas"`
	Legacy   journal.UpgradeReport `json:"legacy"`
}

type BackupListResponse struct {
	Driver  backup.Driver `json:"driver"`
	Backups []backup.Info `json:"backups"`
}
