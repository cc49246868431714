package journal

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// AvailableMonths returns currentMonth plus every month prefix found in the
// matrix, newest first.
func AvailableMonths(m Matrix, currentMonth string) []string {
	seen := map[string]struct{}{currentMonth: {}}
	for key := range m {
		month := keyMonth(key)
		if len(month) == 7 {
			seen[month] = struct{}{}
		}
	}
	months := make([]string, 0, len(seen))
	for month := range seen {
		months = append(months, month)
	}
	slices.Sort(months)
	slices.Reverse(months)
	return months
}

// ProjectStartDate returns the date of the earliest non-blank note for the
// project.
func ProjectStartDate(m Matrix, projectID int64) (string, bool) {
	suffix := projectSuffix(projectID)
	first := ""
	for key, val := range m {
		if !strings.HasSuffix(key, suffix) || isBlank(val) {
			continue
		}
		if first == "" || key < first {
			first = key
		}
	}
	if first == "" {
		return "", false
	}
	return keyDate(first), true
}

// Milestones returns every non-blank note for the project, most recent first.
func Milestones(m Matrix, projectID int64) []Milestone {
	suffix := projectSuffix(projectID)
	out := []Milestone{}
	for key, val := range m {
		if !strings.HasSuffix(key, suffix) || isBlank(val) {
			continue
		}
		out = append(out, Milestone{Date: keyDate(key), Text: val})
	}
	slices.SortFunc(out, func(a, b Milestone) int {
		if c := strings.Compare(b.Date, a.Date); c != 0 {
			return c
		}
		return strings.Compare(a.Text, b.Text)
	})
	return out
}

// ProjectsInMonth returns the active projects created in or before month.
func ProjectsInMonth(projects []Project, month string, loc *time.Location) []Project {
	out := []Project{}
	for _, p := range projects {
		if p.Archived {
			continue
		}
		if month >= CreationMonth(p.ID, loc) {
			out = append(out, p)
		}
	}
	return out
}

// PartitionProjects splits projects into active and archived, keeping order.
func PartitionProjects(projects []Project) (active, archived []Project) {
	active, archived = []Project{}, []Project{}
	for _, p := range projects {
		if p.Archived {
			archived = append(archived, p)
		} else {
			active = append(active, p)
		}
	}
	return active, archived
}

// ActiveCount counts the non-archived projects.
func ActiveCount(projects []Project) int {
	n := 0
	for _, p := range projects {
		if !p.Archived {
			n++
		}
	}
	return n
}

// FilterKind selects how ideas are matched against projects.
type FilterKind int

const (
	FilterAll FilterKind = iota
	FilterGlobal
	FilterProject
)

// IdeaFilter is the project part of an idea search.
type IdeaFilter struct {
	Kind      FilterKind
	ProjectID int64
}

// ParseIdeaFilter accepts "all", "global" or a project id. Empty means all.
func ParseIdeaFilter(s string) (IdeaFilter, error) {
	switch strings.TrimSpace(s) {
	case "", "all":
		return IdeaFilter{Kind: FilterAll}, nil
	case "global":
		return IdeaFilter{Kind: FilterGlobal}, nil
	}
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return IdeaFilter{}, fmt.Errorf("invalid idea filter %q", s)
	}
	return IdeaFilter{Kind: FilterProject, ProjectID: id}, nil
}

func (f IdeaFilter) String() string {
	switch f.Kind {
	case FilterGlobal:
		return "global"
	case FilterProject:
		return strconv.FormatInt(f.ProjectID, 10)
	default:
		return "all"
	}
}

func (f IdeaFilter) matches(idea Idea) bool {
	switch f.Kind {
	case FilterGlobal:
		return idea.IsGlobal()
	case FilterProject:
		return idea.LinkedTo(f.ProjectID)
	default:
		return true
	}
}

// IdeaQuery describes an idea search.
type IdeaQuery struct {
	Text       string
	Filter     IdeaFilter
	HiddenOnly bool
}

// FilterIdeas returns the ideas matching the query, in list order.
func FilterIdeas(ideas []Idea, q IdeaQuery) []Idea {
	needle := strings.ToLower(q.Text)
	out := []Idea{}
	for _, idea := range ideas {
		if idea.Hidden != q.HiddenOnly {
			continue
		}
		if !strings.Contains(strings.ToLower(idea.Text), needle) {
			continue
		}
		if !q.Filter.matches(idea) {
			continue
		}
		out = append(out, idea)
	}
	return out
}

// RelatedIdeas returns the visible ideas linked to a project.
func RelatedIdeas(ideas []Idea, projectID int64) []Idea {
	out := []Idea{}
	for _, idea := range ideas {
		if !idea.Hidden && idea.LinkedTo(projectID) {
			out = append(out, idea)
		}
	}
	return out
}

// BuildCard assembles the dashboard card for one project.
func BuildCard(s State, p Project) ProjectCard {
	start, _ := ProjectStartDate(s.Matrix, p.ID)
	return ProjectCard{
		Project:      p,
		StartDate:    start,
		Milestones:   Milestones(s.Matrix, p.ID),
		RelatedIdeas: RelatedIdeas(s.Ideas, p.ID),
	}
}

// Dashboard builds cards for every project, split by archive status.
func Dashboard(s State) DashboardView {
	active, archived := PartitionProjects(s.Projects)
	view := DashboardView{
		Active:   make([]ProjectCard, 0, len(active)),
		Archived: make([]ProjectCard, 0, len(archived)),
	}
	for _, p := range active {
		view.Active = append(view.Active, BuildCard(s, p))
	}
	for _, p := range archived {
		view.Archived = append(view.Archived, BuildCard(s, p))
	}
	return view
}

// DaysPerGrid is the fixed number of day rows in a month grid.
const DaysPerGrid = 31

// MonthGrid lays out the matrix for month: one row per day, one cell per
// project shown in that month.
func MonthGrid(s State, month string, loc *time.Location) MonthView {
	projects := ProjectsInMonth(s.Projects, month, loc)
	view := MonthView{Month: month, Projects: projects, Days: make([]DayRow, 0, DaysPerGrid)}
	for day := 1; day <= DaysPerGrid; day++ {
		row := DayRow{
			Day:   day,
			Date:  fmt.Sprintf("%s-%02d", month, day),
			Cells: make(map[int64]string, len(projects)),
		}
		for _, p := range projects {
			if text, ok := s.Matrix[CellKey(month, day, p.ID)]; ok {
				row.Cells[p.ID] = text
			}
		}
		view.Days = append(view.Days, row)
	}
	return view
}
