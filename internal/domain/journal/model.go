package journal

import (
	"encoding/json"
	"maps"
	"slices"
)

// StorageKey is the fixed key the whole document is persisted under.
const StorageKey = "timeless_epistles_data_v1"

// MaxActiveProjects caps the number of non-archived projects.
const MaxActiveProjects = 9

// Palette is the round-robin colour list assigned to new projects.
var Palette = []string{
	"#E2B4BD", // pink
	"#9DBEBB", // blue
	"#778DA9", // grey
	"#A3B18A", // green
	"#D4A373", // brown
	"#BC8A5F", // earth
	"#957DAD", // purple
	"#FFD1DC", // light pink
	"#D6E2E9", // light blue
}

// Project is a tracked endeavor. ID is the millisecond timestamp of creation.
type Project struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	Archived   bool   `json:"archived"`
	ArchivedAt *int64 `json:"archivedAt,omitempty"`
}

// Matrix maps "YYYY-MM-DD-projectId" keys to free-text notes.
type Matrix map[string]string

// Idea is a timestamped note linked to zero or more projects.
type Idea struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	ProjectIDs []int64 `json:"projectIds"`
	Timestamp  int64   `json:"timestamp"`
	Hidden     bool    `json:"hidden"`
}

// MarshalJSON writes an empty projectIds set as [] rather than null.
func (i Idea) MarshalJSON() ([]byte, error) {
	type plain Idea
	p := plain(i)
	if p.ProjectIDs == nil {
		p.ProjectIDs = []int64{}
	}
	return json.Marshal(p)
}

// IsGlobal reports whether the idea has no project association.
func (i Idea) IsGlobal() bool {
	return len(i.ProjectIDs) == 0
}

// LinkedTo reports whether the idea is associated with projectID.
func (i Idea) LinkedTo(projectID int64) bool {
	return slices.Contains(i.ProjectIDs, projectID)
}

// State is the whole persisted unit.
type State struct {
	Projects []Project `json:"projects"`
	Matrix   Matrix    `json:"matrix"`
	Ideas    []Idea    `json:"ideas"`
}

// EmptyState returns a state with non-nil empty collections.
func EmptyState() State {
	return State{
		Projects: []Project{},
		Matrix:   Matrix{},
		Ideas:    []Idea{},
	}
}

// Normalize replaces nil collections with empty ones.
func (s State) Normalize() State {
	if s.Projects == nil {
		s.Projects = []Project{}
	}
	if s.Matrix == nil {
		s.Matrix = Matrix{}
	}
	if s.Ideas == nil {
		s.Ideas = []Idea{}
	}
	return s
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := State{
		Projects: make([]Project, len(s.Projects)),
		Matrix:   make(Matrix, len(s.Matrix)),
		Ideas:    make([]Idea, len(s.Ideas)),
	}
	for i, p := range s.Projects {
		if p.ArchivedAt != nil {
			at := *p.ArchivedAt
			p.ArchivedAt = &at
		}
		out.Projects[i] = p
	}
	maps.Copy(out.Matrix, s.Matrix)
	for i, idea := range s.Ideas {
		idea.ProjectIDs = slices.Clone(idea.ProjectIDs)
		out.Ideas[i] = idea
	}
	return out
}

// FindProject returns the index of the project with id, or -1.
func (s State) FindProject(id int64) int {
	return slices.IndexFunc(s.Projects, func(p Project) bool { return p.ID == id })
}

// FindIdea returns the index of the idea with id, or -1.
func (s State) FindIdea(id string) int {
	return slices.IndexFunc(s.Ideas, func(i Idea) bool { return i.ID == id })
}

// Milestone is a dated non-blank matrix note.
type Milestone struct {
	Date string `json:"date"`
	Text string `json:"text"`
}

// ProjectCard is the dashboard view of one project.
type ProjectCard struct {
	Project      Project     `json:"project"`
	StartDate    string      `json:"start_date,omitempty"`
	Milestones   []Milestone `json:"milestones"`
	RelatedIdeas []Idea      `json:"related_ideas"`
}

// DashboardView splits project cards into active and archived.
type DashboardView struct {
	Active   []ProjectCard `json:"active"`
	Archived []ProjectCard `json:"archived"`
}

// DayRow is one day of a month grid, cells keyed by project id.
type DayRow struct {
	Day   int              `json:"day"`
	Date  string           `json:"date"`
	Cells map[int64]string `json:"cells"`
}

// MonthView is the matrix grid for one month.
type MonthView struct {
	Month    string    `json:"month"`
	Projects []Project `json:"projects"`
	Days     []DayRow  `json:"days"`
}
