package journal_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ganot/epistles/internal/clock"
	"github.com/ganot/epistles/internal/domain/journal"
	"github.com/ganot/epistles/internal/migration"
	"github.com/ganot/epistles/internal/persist"
	"github.com/ganot/epistles/internal/repository"
	"github.com/ganot/epistles/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var march10 = time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)

func newLoadedService(t *testing.T, opts ...journal.Option) (*journal.Service, *persist.Memory, *clock.Manual) {
	t.Helper()
	repo := persist.NewMemory()
	clk := clock.NewManual(march10)
	clk.Step = time.Millisecond
	svc := journal.NewService(repo, migration.New(), clk, nil, opts...)
	svc.Load(context.Background())
	return svc, repo, clk
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("idea-%d", n)
	}
}

func TestService_LoadEmpty(t *testing.T) {
	svc, repo, _ := newLoadedService(t)

	require.True(t, svc.Loaded())
	st := svc.Snapshot()
	require.Empty(t, st.Projects)
	require.Empty(t, st.Matrix)
	require.Empty(t, st.Ideas)
	require.Equal(t, 0, repo.Saves())
}

func TestService_LoadMalformedFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()
	repo := persist.NewMemoryWith(`{"projects": [`)
	svc := journal.NewService(repo, migration.New(), clock.NewManual(march10), nil)

	report, err := svc.Load(ctx)
	require.NoError(t, err)
	require.False(t, report.Legacy())
	require.True(t, svc.Loaded())
	require.Empty(t, svc.Snapshot().Projects)

	_, err = svc.AddProject(ctx)
	require.NoError(t, err)
	blob, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, blob, `"Project 1"`)
}

func TestService_LoadRepositoryErrorKeepsWritesSuppressed(t *testing.T) {
	ctx := context.Background()
	readErr := errors.New("connection reset")
	repo := &mocks.BlobRepository{}
	repo.On("Load", ctx).Return("", readErr)

	svc := journal.NewService(repo, migration.New(), clock.NewManual(march10), nil)
	_, err := svc.Load(ctx)
	require.ErrorIs(t, err, readErr)
	require.False(t, svc.Loaded())
	require.Empty(t, svc.Snapshot().Projects)

	_, err = svc.AddProject(ctx)
	require.NoError(t, err)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestService_LoadRetriesAfterReadError(t *testing.T) {
	ctx := context.Background()
	stored := `{"projects":[{"id":1,"name":"Keep me","color":"#E2B4BD","archived":false}],"matrix":{"2024-03-01-1":"years of notes"},"ideas":[]}`
	repo := &mocks.BlobRepository{}
	repo.On("Load", ctx).Return("", errors.New("connection reset")).Once()
	repo.On("Load", ctx).Return(stored, nil).Once()
	repo.On("Save", ctx, mock.AnythingOfType("string")).Return(nil)

	svc := journal.NewService(repo, migration.New(), clock.NewManual(march10), nil)
	_, err := svc.Load(ctx)
	require.Error(t, err)
	_, err = svc.Load(ctx)
	require.NoError(t, err)
	require.True(t, svc.Loaded())

	_, err = svc.AddProject(ctx)
	require.NoError(t, err)
	saved := repo.Calls[len(repo.Calls)-1].Arguments.String(1)
	require.Contains(t, saved, `"Keep me"`)
	require.Contains(t, saved, `"years of notes"`)
}

func TestService_LoadUpgradesLegacyDocument(t *testing.T) {
	ctx := context.Background()
	repo := persist.NewMemoryWith(`{
		"projects": [{"id": 1709251200000, "name": "Write", "color": "#E2B4BD", "archived": false}],
		"matrix": {"07": "note", "2024-02-01-1709251200000": "older"},
		"ideas": [{"id": "a", "text": "legacy", "projectId": 1709251200000, "timestamp": 1}]
	}`)
	svc := journal.NewService(repo, migration.New(), clock.NewManual(march10), nil)

	report, err := svc.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.MatrixKeys)
	require.Equal(t, 1, report.Ideas)

	st := svc.Snapshot()
	require.Equal(t, "note", st.Matrix["2024-03-07"])
	require.Equal(t, "older", st.Matrix["2024-02-01-1709251200000"])
	require.Equal(t, []int64{1709251200000}, st.Ideas[0].ProjectIDs)
	require.False(t, st.Ideas[0].Hidden)
}

func TestService_WritesSuppressedBeforeLoad(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.BlobRepository{}

	svc := journal.NewService(repo, migration.New(), clock.NewManual(march10), nil)
	_, err := svc.AddProject(ctx)
	require.NoError(t, err)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

	repo.On("Load", ctx).Return("", repository.ErrNotFound)
	repo.On("Save", ctx, mock.AnythingOfType("string")).Return(nil)
	svc.Load(ctx)
	_, err = svc.AddProject(ctx)
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "Save", 1)
}

func TestService_PersistFailureIsNotReturned(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.BlobRepository{}
	repo.On("Load", ctx).Return("", repository.ErrNotFound)
	repo.On("Save", ctx, mock.Anything).Return(errors.New("quota exceeded"))

	rec := &mocks.Recorder{}
	rec.On("Observe", "add_project", nil, mock.Anything).Return()
	rec.On("PersistResult", mock.MatchedBy(func(err error) bool { return err != nil })).Return()

	svc := journal.NewService(repo, migration.New(), clock.NewManual(march10), nil, journal.WithRecorder(rec))
	svc.Load(ctx)

	proj, err := svc.AddProject(ctx)
	require.NoError(t, err)
	require.Len(t, svc.Snapshot().Projects, 1)
	require.Equal(t, proj.ID, svc.Snapshot().Projects[0].ID)
	rec.AssertExpectations(t)
}

func TestService_AddProjectCap(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newLoadedService(t)

	for i := 0; i < journal.MaxActiveProjects; i++ {
		proj, err := svc.AddProject(ctx)
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("Project %d", i+1), proj.Name)
		require.Equal(t, journal.Palette[i], proj.Color)
		require.False(t, proj.Archived)
	}
	require.Equal(t, 9, repo.Saves())

	_, err := svc.AddProject(ctx)
	require.ErrorIs(t, err, journal.ErrProjectLimit)
	require.Len(t, svc.Snapshot().Projects, 9)
	require.Equal(t, 9, repo.Saves())
}

func TestService_ArchivedProjectsDoNotCountTowardCap(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newLoadedService(t)

	var first journal.Project
	for i := 0; i < journal.MaxActiveProjects; i++ {
		proj, err := svc.AddProject(ctx)
		require.NoError(t, err)
		if i == 0 {
			first = proj
		}
	}
	archived := true
	_, found, err := svc.UpdateProject(ctx, first.ID, journal.ProjectPatch{Archived: &archived})
	require.NoError(t, err)
	require.True(t, found)

	tenth, err := svc.AddProject(ctx)
	require.NoError(t, err)
	require.Equal(t, "Project 10", tenth.Name)
	require.Equal(t, journal.Palette[0], tenth.Color)
}

func TestService_ProjectIDsAreUniqueWithinOneMillisecond(t *testing.T) {
	ctx := context.Background()
	svc := journal.NewService(persist.NewMemory(), migration.New(), clock.NewManual(march10), nil)
	svc.Load(ctx)

	a, err := svc.AddProject(ctx)
	require.NoError(t, err)
	b, err := svc.AddProject(ctx)
	require.NoError(t, err)
	require.Equal(t, march10.UnixMilli(), a.ID)
	require.Equal(t, a.ID+1, b.ID)
}

func TestService_ArchiveStamping(t *testing.T) {
	ctx := context.Background()
	svc, _, clk := newLoadedService(t)
	proj, err := svc.AddProject(ctx)
	require.NoError(t, err)

	archiveAt := time.Date(2024, time.April, 2, 12, 0, 0, 0, time.UTC)
	clk.Set(archiveAt)
	yes, no := true, false

	archived, found, err := svc.UpdateProject(ctx, proj.ID, journal.ProjectPatch{Archived: &yes})
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, archived.Archived)
	require.NotNil(t, archived.ArchivedAt)
	require.Equal(t, archiveAt.UnixMilli(), *archived.ArchivedAt)

	clk.Advance(time.Hour)
	again, _, err := svc.UpdateProject(ctx, proj.ID, journal.ProjectPatch{Archived: &yes})
	require.NoError(t, err)
	require.Equal(t, archiveAt.UnixMilli(), *again.ArchivedAt)

	name := "Renamed"
	renamed, _, err := svc.UpdateProject(ctx, proj.ID, journal.ProjectPatch{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Renamed", renamed.Name)
	require.Equal(t, archiveAt.UnixMilli(), *renamed.ArchivedAt)

	restored, _, err := svc.UpdateProject(ctx, proj.ID, journal.ProjectPatch{Archived: &no})
	require.NoError(t, err)
	require.False(t, restored.Archived)
	require.Nil(t, restored.ArchivedAt)
}

func TestService_UpdateUnknownProjectIsNoop(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newLoadedService(t)
	name := "x"

	_, found, err := svc.UpdateProject(ctx, 42, journal.ProjectPatch{Name: &name})
	require.NoError(t, err)
	require.False(t, found)
	require.False(t, svc.DeleteProject(ctx, 42))
	require.Equal(t, 0, repo.Saves())
}

func TestService_DeleteProjectLeavesReferences(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newLoadedService(t, journal.WithIDGenerator(sequentialIDs()))
	proj, err := svc.AddProject(ctx)
	require.NoError(t, err)
	_, err = svc.UpdateMatrixCell(ctx, 3, proj.ID, "did it")
	require.NoError(t, err)
	_, err = svc.AddIdea(ctx, "linked", []int64{proj.ID})
	require.NoError(t, err)

	require.True(t, svc.DeleteProject(ctx, proj.ID))
	st := svc.Snapshot()
	require.Empty(t, st.Projects)
	require.Equal(t, "did it", st.Matrix[journal.CellKey("2024-03", 3, proj.ID)])
	require.Equal(t, []int64{proj.ID}, st.Ideas[0].ProjectIDs)
}

func TestService_ReorderProjects(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newLoadedService(t)
	var ids []int64
	for i := 0; i < 4; i++ {
		proj, err := svc.AddProject(ctx)
		require.NoError(t, err)
		ids = append(ids, proj.ID)
	}
	order := func() []int64 {
		var out []int64
		for _, p := range svc.Snapshot().Projects {
			out = append(out, p.ID)
		}
		return out
	}

	require.True(t, svc.ReorderProjects(ctx, ids[3], ids[1]))
	require.Equal(t, []int64{ids[0], ids[3], ids[1], ids[2]}, order())

	require.True(t, svc.ReorderProjects(ctx, ids[0], ids[2]))
	require.Equal(t, []int64{ids[3], ids[1], ids[2], ids[0]}, order())

	require.False(t, svc.ReorderProjects(ctx, ids[0], 999))
	require.False(t, svc.ReorderProjects(ctx, 999, ids[0]))
	require.Equal(t, []int64{ids[3], ids[1], ids[2], ids[0]}, order())

	require.ElementsMatch(t, ids, order())
}

func TestService_UpdateMatrixCellUsesSelectedMonth(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newLoadedService(t)
	require.Equal(t, "2024-03", svc.SelectedMonth())

	key, err := svc.UpdateMatrixCell(ctx, 7, 5, "wrote intro")
	require.NoError(t, err)
	require.Equal(t, "2024-03-07-5", key)

	require.NoError(t, svc.SelectMonth("2023-12"))
	key, err = svc.UpdateMatrixCell(ctx, 31, 5, "")
	require.NoError(t, err)
	require.Equal(t, "2023-12-31-5", key)

	st := svc.Snapshot()
	require.Equal(t, "wrote intro", st.Matrix["2024-03-07-5"])
	val, ok := st.Matrix["2023-12-31-5"]
	require.True(t, ok)
	require.Equal(t, "", val)

	_, err = svc.UpdateMatrixCell(ctx, 0, 5, "x")
	require.ErrorIs(t, err, journal.ErrInvalidDay)
	_, err = svc.UpdateMatrixCell(ctx, 32, 5, "x")
	require.ErrorIs(t, err, journal.ErrInvalidDay)
	require.ErrorIs(t, svc.SelectMonth("2024-13"), journal.ErrInvalidMonth)
	require.ErrorIs(t, svc.SelectMonth("March"), journal.ErrInvalidMonth)
}

func TestService_UpdateMatrixCellInExplicitMonth(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newLoadedService(t)
	require.NoError(t, svc.SelectMonth("2024-01"))

	key, err := svc.UpdateMatrixCellIn(ctx, "2024-02", 3, 5, "ran")
	require.NoError(t, err)
	require.Equal(t, "2024-02-03-5", key)
	require.Equal(t, "2024-01", svc.SelectedMonth())

	key, err = svc.UpdateMatrixCellIn(ctx, "", 3, 5, "walked")
	require.NoError(t, err)
	require.Equal(t, "2024-01-03-5", key)

	_, err = svc.UpdateMatrixCellIn(ctx, "2024-1", 3, 5, "x")
	require.ErrorIs(t, err, journal.ErrInvalidMonth)
}

func TestService_Ideas(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newLoadedService(t, journal.WithIDGenerator(sequentialIDs()))

	_, err := svc.AddIdea(ctx, "   ", nil)
	require.ErrorIs(t, err, journal.ErrBlankIdea)
	require.Equal(t, 0, repo.Saves())

	first, err := svc.AddIdea(ctx, "first", nil)
	require.NoError(t, err)
	require.Equal(t, "idea-1", first.ID)
	require.Empty(t, first.ProjectIDs)
	require.False(t, first.Hidden)

	second, err := svc.AddIdea(ctx, "second", []int64{3, 3, 4})
	require.NoError(t, err)
	require.Equal(t, []int64{3, 4}, second.ProjectIDs)

	st := svc.Snapshot()
	require.Equal(t, "idea-2", st.Ideas[0].ID)
	require.Equal(t, "idea-1", st.Ideas[1].ID)

	hidden := true
	text := "first, edited"
	updated, found, err := svc.UpdateIdea(ctx, "idea-1", journal.IdeaPatch{Text: &text, Hidden: &hidden})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "first, edited", updated.Text)
	require.True(t, updated.Hidden)
	require.Equal(t, first.Timestamp, updated.Timestamp)

	_, found, err = svc.UpdateIdea(ctx, "missing", journal.IdeaPatch{Text: &text})
	require.NoError(t, err)
	require.False(t, found)

	require.True(t, svc.DeleteIdea(ctx, "idea-2"))
	require.False(t, svc.DeleteIdea(ctx, "idea-2"))
	require.Len(t, svc.Snapshot().Ideas, 1)
}

func TestService_ImportInvalidLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newLoadedService(t)
	_, err := svc.AddProject(ctx)
	require.NoError(t, err)
	before := svc.Snapshot()
	saves := repo.Saves()

	for _, raw := range []string{"", "not json", "null", `{"projects": "nope"}`} {
		_, err = svc.Import(ctx, raw)
		require.ErrorIs(t, err, journal.ErrInvalidImport, raw)
	}
	require.Equal(t, before, svc.Snapshot())
	require.Equal(t, saves, repo.Saves())
}

func TestService_ImportDefaultsMissingFields(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newLoadedService(t)
	_, err := svc.AddProject(ctx)
	require.NoError(t, err)

	_, err = svc.Import(ctx, `{}`)
	require.NoError(t, err)
	st := svc.Snapshot()
	require.NotNil(t, st.Projects)
	require.Empty(t, st.Projects)
	require.NotNil(t, st.Matrix)
	require.NotNil(t, st.Ideas)
}

func TestService_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newLoadedService(t, journal.WithIDGenerator(sequentialIDs()))
	proj, err := svc.AddProject(ctx)
	require.NoError(t, err)
	yes := true
	_, _, err = svc.UpdateProject(ctx, proj.ID, journal.ProjectPatch{Archived: &yes})
	require.NoError(t, err)
	_, err = svc.AddProject(ctx)
	require.NoError(t, err)
	_, err = svc.UpdateMatrixCell(ctx, 1, proj.ID, "wrote intro")
	require.NoError(t, err)
	_, err = svc.UpdateMatrixCell(ctx, 2, proj.ID, "")
	require.NoError(t, err)
	_, err = svc.AddIdea(ctx, "global idea", nil)
	require.NoError(t, err)
	_, err = svc.AddIdea(ctx, "linked idea", []int64{proj.ID})
	require.NoError(t, err)

	exported, err := svc.Export()
	require.NoError(t, err)
	require.Contains(t, exported, "\n  \"projects\": [")
	require.Contains(t, exported, `"projectIds": []`)

	other, _, _ := newLoadedService(t)
	_, err = other.Import(ctx, exported)
	require.NoError(t, err)
	require.Equal(t, svc.Snapshot(), other.Snapshot())

	reexported, err := other.Export()
	require.NoError(t, err)
	require.Equal(t, exported, reexported)
}

func TestService_ImportLegacyShapes(t *testing.T) {
	ctx := context.Background()
	legacy := `{"projects": [], "matrix": {"07-5": "note"}, "ideas": [
		{"id": "a", "text": "t", "projectId": null, "timestamp": 1},
		{"id": "b", "text": "linked", "projectId": 42, "timestamp": 2}
	]}`

	t.Run("matrix kept as is by default", func(t *testing.T) {
		svc, _, _ := newLoadedService(t)
		report, err := svc.Import(ctx, legacy)
		require.NoError(t, err)
		require.True(t, report.Legacy())
		require.Equal(t, 2, report.Ideas)
		st := svc.Snapshot()
		require.Equal(t, "note", st.Matrix["07-5"])
		require.Empty(t, st.Ideas[0].ProjectIDs)
		require.Equal(t, []int64{42}, st.Ideas[1].ProjectIDs)
	})

	t.Run("idea links survive reload", func(t *testing.T) {
		svc, repo, clk := newLoadedService(t)
		_, err := svc.Import(ctx, legacy)
		require.NoError(t, err)

		blob, err := repo.Load(ctx)
		require.NoError(t, err)
		require.NotContains(t, blob, `"projectId"`)

		reloaded := journal.NewService(repo, migration.New(), clk, nil)
		_, err = reloaded.Load(ctx)
		require.NoError(t, err)
		ideas := reloaded.Snapshot().Ideas
		require.Len(t, ideas, 2)
		require.Equal(t, []int64{42}, ideas[1].ProjectIDs)
		require.False(t, ideas[1].Hidden)
	})

	t.Run("upgraded when enabled", func(t *testing.T) {
		svc, _, _ := newLoadedService(t, journal.WithImportUpgrade(true))
		report, err := svc.Import(ctx, legacy)
		require.NoError(t, err)
		require.Equal(t, 1, report.MatrixKeys)
		st := svc.Snapshot()
		require.Equal(t, "note", st.Matrix["2024-03-07-5"])
		_, stale := st.Matrix["07-5"]
		require.False(t, stale)
	})
}

func TestService_PersistedDocumentShape(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newLoadedService(t, journal.WithIDGenerator(sequentialIDs()))
	_, err := svc.AddIdea(ctx, "hello", nil)
	require.NoError(t, err)

	blob, err := repo.Load(ctx)
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(blob), &doc))
	require.JSONEq(t, `[]`, string(doc["projects"]))
	require.JSONEq(t, `{}`, string(doc["matrix"]))
	want := fmt.Sprintf(`[{"id":"idea-1","text":"hello","projectIds":[],"timestamp":%d,"hidden":false}]`,
		march10.Add(time.Millisecond).UnixMilli())
	require.JSONEq(t, want, string(doc["ideas"]))
}

func TestService_Views(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newLoadedService(t, journal.WithIDGenerator(sequentialIDs()))
	proj, err := svc.AddProject(ctx)
	require.NoError(t, err)
	_, err = svc.UpdateMatrixCell(ctx, 1, proj.ID, "start")
	require.NoError(t, err)
	require.NoError(t, svc.SelectMonth("2024-01"))
	_, err = svc.UpdateMatrixCell(ctx, 1, proj.ID, "before creation")
	require.NoError(t, err)

	require.Equal(t, []string{"2024-03", "2024-01"}, svc.Months())

	march, err := svc.Month("2024-03")
	require.NoError(t, err)
	require.Len(t, march.Projects, 1)
	require.Equal(t, "start", march.Days[0].Cells[proj.ID])

	january, err := svc.Month("")
	require.NoError(t, err)
	require.Equal(t, "2024-01", january.Month)
	require.Empty(t, january.Projects)

	_, err = svc.Month("bad")
	require.ErrorIs(t, err, journal.ErrInvalidMonth)

	card, ok := svc.Card(proj.ID)
	require.True(t, ok)
	require.Equal(t, "2024-01-01", card.StartDate)
	require.Len(t, card.Milestones, 2)
	_, ok = svc.Card(12345)
	require.False(t, ok)
}
