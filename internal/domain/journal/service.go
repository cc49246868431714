package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/ganot/epistles/internal/clock"
	"github.com/ganot/epistles/internal/repository"
	"github.com/google/uuid"
)

// Service owns the journal state. Every mutation replaces the state under a
// lock and then writes the whole document to the repository, once Load has
// completed.
type Service struct {
	repo           Repository
	upgrader       Upgrader
	clock          clock.Clock
	logger         *slog.Logger
	recorder       Recorder
	newID          func() string
	upgradeImports bool

	mu            sync.Mutex
	state         State
	loaded        bool
	selectedMonth string
}

// NewService creates a new journal service with empty, not-yet-loaded state.
func NewService(repo Repository, upgrader Upgrader, clk clock.Clock, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if clk == nil {
		clk = clock.System{}
	}
	s := &Service{
		repo:     repo,
		upgrader: upgrader,
		clock:    clk,
		logger:   logger,
		recorder: nopRecorder{},
		newID:    uuid.NewString,
		state:    EmptyState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.selectedMonth = clock.Month(s.clock.Now())
	return s
}

// Load reads the persisted document, upgrades legacy shapes and marks the
// service loaded. A missing or malformed document yields an empty state. A
// failed read is returned and leaves the service unloaded, so later writes
// cannot replace the stored document.
func (s *Service) Load(ctx context.Context) (UpgradeReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = EmptyState()

	blob, err := s.repo.Load(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Info("no saved journal, starting empty")
		s.loaded = true
		return UpgradeReport{}, nil
	}
	if err != nil {
		s.logger.Error("failed to read saved journal", "error", err)
		return UpgradeReport{}, fmt.Errorf("reading saved journal: %w", err)
	}
	s.loaded = true

	state, report, err := s.upgrader.Upgrade([]byte(blob), s.clock.Now())
	if err != nil {
		s.logger.Error("failed to parse saved journal", "error", err)
		return UpgradeReport{}, nil
	}
	if report.Legacy() {
		s.logger.Info("upgraded legacy journal data", "matrix_keys", report.MatrixKeys, "ideas", report.Ideas)
	}
	s.state = state.Normalize()
	return report, nil
}

// Loaded reports whether Load has completed.
func (s *Service) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Snapshot returns a deep copy of the current state.
func (s *Service) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// mutate runs fn against a copy of the state. When fn reports a change the
// copy becomes the live state and is persisted.
func (s *Service) mutate(ctx context.Context, op string, fn func(st *State) (bool, error)) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	changed, err := fn(&next)
	if err == nil && changed {
		s.state = next
		s.persist(ctx)
	}
	s.recorder.Observe(op, err, time.Since(start))
	return err
}

// persist writes the state; failures are logged and otherwise ignored.
func (s *Service) persist(ctx context.Context) {
	if !s.loaded {
		return
	}
	data, err := json.Marshal(s.state)
	if err == nil {
		err = s.repo.Save(ctx, string(data))
	}
	if err != nil {
		s.logger.Warn("failed to save journal", "error", err)
	}
	s.recorder.PersistResult(err)
}

// AddProject appends a new active project.
func (s *Service) AddProject(ctx context.Context) (Project, error) {
	var created Project
	err := s.mutate(ctx, "add_project", func(st *State) (bool, error) {
		if ActiveCount(st.Projects) >= MaxActiveProjects {
			return false, ErrProjectLimit
		}
		id := clock.Millis(s.clock.Now())
		for st.FindProject(id) >= 0 {
			id++
		}
		n := len(st.Projects)
		created = Project{
			ID:    id,
			Name:  fmt.Sprintf("Project %d", n+1),
			Color: Palette[n%len(Palette)],
		}
		st.Projects = append(st.Projects, created)
		return true, nil
	})
	if err != nil {
		return Project{}, err
	}
	return created, nil
}

// UpdateProject merges patch into the project. Archiving stamps ArchivedAt
// on the false to true transition only; un-archiving clears it.
func (s *Service) UpdateProject(ctx context.Context, id int64, patch ProjectPatch) (Project, bool, error) {
	var updated Project
	found := false
	err := s.mutate(ctx, "update_project", func(st *State) (bool, error) {
		idx := st.FindProject(id)
		if idx < 0 {
			return false, nil
		}
		found = true
		p := st.Projects[idx]
		wasArchived := p.Archived
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Color != nil {
			p.Color = *patch.Color
		}
		if patch.Archived != nil {
			p.Archived = *patch.Archived
		}
		switch {
		case p.Archived && !wasArchived:
			at := clock.Millis(s.clock.Now())
			p.ArchivedAt = &at
		case !p.Archived:
			p.ArchivedAt = nil
		}
		st.Projects[idx] = p
		updated = p
		return true, nil
	})
	return updated, found, err
}

// DeleteProject removes the project. Matrix notes and idea links that
// reference it are left in place.
func (s *Service) DeleteProject(ctx context.Context, id int64) bool {
	found := false
	_ = s.mutate(ctx, "delete_project", func(st *State) (bool, error) {
		idx := st.FindProject(id)
		if idx < 0 {
			return false, nil
		}
		found = true
		st.Projects = slices.Delete(st.Projects, idx, idx+1)
		return true, nil
	})
	return found
}

// ReorderProjects moves the dragged project to the target's index.
func (s *Service) ReorderProjects(ctx context.Context, draggedID, targetID int64) bool {
	moved := false
	_ = s.mutate(ctx, "reorder_projects", func(st *State) (bool, error) {
		from := st.FindProject(draggedID)
		to := st.FindProject(targetID)
		if from < 0 || to < 0 {
			return false, nil
		}
		moved = true
		if from == to {
			return false, nil
		}
		p := st.Projects[from]
		st.Projects = slices.Delete(st.Projects, from, from+1)
		st.Projects = slices.Insert(st.Projects, to, p)
		return true, nil
	})
	return moved
}

// SelectMonth changes the month that matrix edits apply to.
func (s *Service) SelectMonth(month string) error {
	if !ValidMonth(month) {
		return fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	s.mu.Lock()
	s.selectedMonth = month
	s.mu.Unlock()
	return nil
}

// SelectedMonth returns the month matrix edits apply to.
func (s *Service) SelectedMonth() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedMonth
}

// CurrentMonth returns the clock's month.
func (s *Service) CurrentMonth() string {
	return clock.Month(s.clock.Now())
}

// Location returns the time zone month strings are computed in.
func (s *Service) Location() *time.Location {
	return s.clock.Now().Location()
}

// UpdateMatrixCell stores text verbatim for the project on day of the
// selected month.
func (s *Service) UpdateMatrixCell(ctx context.Context, day int, projectID int64, text string) (string, error) {
	return s.UpdateMatrixCellIn(ctx, "", day, projectID, text)
}

// UpdateMatrixCellIn is UpdateMatrixCell for an explicit month. An empty
// month means the selected month. The selection itself is left unchanged.
func (s *Service) UpdateMatrixCellIn(ctx context.Context, month string, day int, projectID int64, text string) (string, error) {
	if month != "" && !ValidMonth(month) {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	if day < 1 || day > DaysPerGrid {
		return "", fmt.Errorf("%w: %d", ErrInvalidDay, day)
	}
	var key string
	err := s.mutate(ctx, "update_matrix_cell", func(st *State) (bool, error) {
		target := month
		if target == "" {
			target = s.selectedMonth
		}
		key = CellKey(target, day, projectID)
		st.Matrix[key] = text
		return true, nil
	})
	return key, err
}

// AddIdea prepends a new idea.
func (s *Service) AddIdea(ctx context.Context, text string, projectIDs []int64) (Idea, error) {
	if isBlank(text) {
		return Idea{}, ErrBlankIdea
	}
	var created Idea
	err := s.mutate(ctx, "add_idea", func(st *State) (bool, error) {
		created = Idea{
			ID:         s.newID(),
			Text:       text,
			ProjectIDs: uniqueIDs(projectIDs),
			Timestamp:  clock.Millis(s.clock.Now()),
		}
		st.Ideas = slices.Insert(st.Ideas, 0, created)
		return true, nil
	})
	if err != nil {
		return Idea{}, err
	}
	return created, nil
}

// UpdateIdea merges patch into the idea.
func (s *Service) UpdateIdea(ctx context.Context, id string, patch IdeaPatch) (Idea, bool, error) {
	var updated Idea
	found := false
	err := s.mutate(ctx, "update_idea", func(st *State) (bool, error) {
		idx := st.FindIdea(id)
		if idx < 0 {
			return false, nil
		}
		found = true
		idea := st.Ideas[idx]
		if patch.Text != nil {
			idea.Text = *patch.Text
		}
		if patch.ProjectIDs != nil {
			idea.ProjectIDs = uniqueIDs(*patch.ProjectIDs)
		}
		if patch.Hidden != nil {
			idea.Hidden = *patch.Hidden
		}
		st.Ideas[idx] = idea
		updated = idea
		return true, nil
	})
	return updated, found, err
}

// DeleteIdea removes the idea.
func (s *Service) DeleteIdea(ctx context.Context, id string) bool {
	found := false
	_ = s.mutate(ctx, "delete_idea", func(st *State) (bool, error) {
		idx := st.FindIdea(id)
		if idx < 0 {
			return false, nil
		}
		found = true
		st.Ideas = slices.Delete(st.Ideas, idx, idx+1)
		return true, nil
	})
	return found
}

// Import replaces the whole state with the document in raw. A document that
// does not parse leaves the state unchanged.
func (s *Service) Import(ctx context.Context, raw string) (UpgradeReport, error) {
	var report UpgradeReport
	err := s.mutate(ctx, "import_state", func(st *State) (bool, error) {
		next, r, err := s.decodeImport([]byte(raw))
		if err != nil {
			return false, err
		}
		report = r
		*st = next
		return true, nil
	})
	return report, err
}

func (s *Service) decodeImport(raw []byte) (State, UpgradeReport, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return State{}, UpgradeReport{}, ErrInvalidImport
	}
	if s.upgradeImports {
		st, report, err := s.upgrader.Upgrade(trimmed, s.clock.Now())
		if err != nil {
			return State{}, UpgradeReport{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
		return st.Normalize(), report, nil
	}

	var st State
	if err := json.Unmarshal(trimmed, &st); err != nil {
		return State{}, UpgradeReport{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	report, err := s.upgrader.Inspect(trimmed)
	if err != nil {
		return State{}, UpgradeReport{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if report.Ideas > 0 {
		// Single-project ideas would otherwise lose their link.
		upgraded, _, err := s.upgrader.Upgrade(trimmed, s.clock.Now())
		if err != nil {
			return State{}, UpgradeReport{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
		st.Ideas = upgraded.Ideas
		s.logger.Info("upgraded legacy ideas in imported document", "ideas", report.Ideas)
	}
	if report.MatrixKeys > 0 {
		s.logger.Warn("imported document contains legacy matrix keys and was not upgraded",
			"matrix_keys", report.MatrixKeys)
	}
	return st.Normalize(), report, nil
}

// Export serializes the current state as indented JSON.
func (s *Service) Export() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding state: %w", err)
	}
	return string(data), nil
}

// Months returns the months that have notes, plus the current month.
func (s *Service) Months() []string {
	st := s.Snapshot()
	return AvailableMonths(st.Matrix, s.CurrentMonth())
}

// Month returns the matrix grid for month, or the selected month when empty.
func (s *Service) Month(month string) (MonthView, error) {
	if month == "" {
		month = s.SelectedMonth()
	}
	if !ValidMonth(month) {
		return MonthView{}, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	return MonthGrid(s.Snapshot(), month, s.Location()), nil
}

// Dashboard returns the project cards.
func (s *Service) Dashboard() DashboardView {
	return Dashboard(s.Snapshot())
}

// Card returns the dashboard card for one project.
func (s *Service) Card(projectID int64) (ProjectCard, bool) {
	st := s.Snapshot()
	idx := st.FindProject(projectID)
	if idx < 0 {
		return ProjectCard{}, false
	}
	return BuildCard(st, st.Projects[idx]), true
}

// SearchIdeas filters the idea list.
func (s *Service) SearchIdeas(q IdeaQuery) []Idea {
	return FilterIdeas(s.Snapshot().Ideas, q)
}

func uniqueIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

type nopRecorder struct{}

func (nopRecorder) Observe(string, error, time.Duration) {}
func (nopRecorder) PersistResult(error)                  {}
