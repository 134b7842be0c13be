package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"

	"branchline/internal/domain"
	"branchline/internal/repository"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertErrorIs fails the test if err does not wrap target
func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected error wrapping %v, got %v", target, err)
	}
}

// assertEqual fails the test if expected != actual
func assertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}

// testGraph builds a graph that uses every stored column
func testGraph(name string) *domain.Container {
	c := domain.NewContainer(name)
	c.Nodes = append(c.Nodes,
		domain.Node{ID: "greet", Kind: domain.NodeKindDialogue, Text: "Hello [name]", DebugLabel: "hi", Position: domain.NewPosition(1.5, -2)},
		domain.Node{ID: "check", Kind: domain.NodeKindBranch, Condition: "[gold] >= 10"},
		domain.Node{ID: "bye", Kind: domain.NodeKindEnd, Text: "Farewell"},
	)
	c.Links = append(c.Links,
		domain.Link{SourceID: domain.EntryNodeID, TargetID: "greet", PortID: domain.PortStart, Label: "Next"},
		domain.Link{SourceID: "greet", TargetID: "check", PortID: "buy", Label: "Buy", Condition: "[gold] > 0"},
		domain.Link{SourceID: "greet", TargetID: "", PortID: "todo", Label: "Unwritten"},
		domain.Link{SourceID: "greet", TargetID: "bye", PortID: "leave", Label: "Leave"},
		domain.Link{SourceID: "check", TargetID: "bye", PortID: domain.PortTrue},
	)
	c.Properties = append(c.Properties,
		domain.Property{Name: "name", Value: "Ada"},
		domain.Property{Name: "gold", Value: "15"},
	)
	c.Comments = append(c.Comments, domain.CommentBlock{
		Title:    "Shop",
		Position: domain.NewPosition(0, 100),
		NodeIDs:  []string{"greet", "check"},
	})
	return c
}

func countRows(t *testing.T, db *sql.DB, table, graph string) int {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE graph = ?`, graph).Scan(&n)
	assertNoError(t, err)
	return n
}

// ============================================================================
// Helper Function Tests
// ============================================================================

func TestNullToString(t *testing.T) {
	tests := []struct {
		name     string
		input    sql.NullString
		expected string
	}{
		{"valid", sql.NullString{String: "x", Valid: true}, "x"},
		{"null", sql.NullString{}, ""},
		{"valid empty", sql.NullString{String: "", Valid: true}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertEqual(t, tt.expected, nullToString(tt.input))
		})
	}
}

func TestStringToNull(t *testing.T) {
	assertEqual(t, sql.NullString{}, stringToNull(""))
	assertEqual(t, sql.NullString{String: "a", Valid: true}, stringToNull("a"))
}

func TestTimeRoundTrip(t *testing.T) {
	in := time.Date(2026, 3, 4, 5, 6, 7, 890, time.FixedZone("x", 3600))
	out, err := parseTime(formatTime(in))
	assertNoError(t, err)
	if !out.Equal(in) {
		t.Fatalf("expected %v, got %v", in, out)
	}

	if _, err := parseTime("yesterday"); err == nil {
		t.Fatal("expected error for malformed timestamp")
	}
}

func TestChecksum(t *testing.T) {
	a, err := checksum(testGraph("a"))
	assertNoError(t, err)
	b, err := checksum(testGraph("b"))
	assertNoError(t, err)
	assertEqual(t, a, b)

	changed := testGraph("a")
	changed.Properties[1].Value = "16"
	c, err := checksum(changed)
	assertNoError(t, err)
	if c == a {
		t.Fatal("checksum should change with content")
	}

	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

// ============================================================================
// Repository Tests
// ============================================================================

func TestSaveAndGetGraph(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	original := testGraph("tavern")
	changed, err := repo.SaveGraph(ctx, original)
	assertNoError(t, err)
	assertEqual(t, true, changed)

	loaded, err := repo.GetGraph(ctx, "tavern")
	assertNoError(t, err)
	assertEqual(t, original, loaded)
}

func TestSaveGraphUnchangedIsNoop(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return first }

	_, err := repo.SaveGraph(ctx, testGraph("tavern"))
	assertNoError(t, err)

	repo.now = func() time.Time { return first.Add(time.Hour) }
	changed, err := repo.SaveGraph(ctx, testGraph("tavern"))
	assertNoError(t, err)
	assertEqual(t, false, changed)

	list, err := repo.ListGraphs(ctx)
	assertNoError(t, err)
	assertEqual(t, 1, len(list))
	if !list[0].UpdatedAt.Equal(first) {
		t.Fatalf("unchanged save touched updated_at: %v", list[0].UpdatedAt)
	}

	edited := testGraph("tavern")
	edited.Nodes = edited.Nodes[:2]
	changed, err = repo.SaveGraph(ctx, edited)
	assertNoError(t, err)
	assertEqual(t, true, changed)

	list, err = repo.ListGraphs(ctx)
	assertNoError(t, err)
	if !list[0].UpdatedAt.Equal(first.Add(time.Hour)) {
		t.Fatalf("expected updated_at to move, got %v", list[0].UpdatedAt)
	}
	assertEqual(t, 2, list[0].Nodes)
	assertEqual(t, 2, countRows(t, repo.db, "nodes", "tavern"))
}

func TestSaveGraphRequiresName(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.SaveGraph(context.Background(), testGraph("")); err == nil {
		t.Fatal("expected error for unnamed graph")
	}
}

func TestListGraphs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	list, err := repo.ListGraphs(ctx)
	assertNoError(t, err)
	assertEqual(t, 0, len(list))

	for _, name := range []string{"zeta", "alpha"} {
		_, err := repo.SaveGraph(ctx, testGraph(name))
		assertNoError(t, err)
	}
	_, err = repo.SaveGraph(ctx, domain.NewContainer("empty"))
	assertNoError(t, err)

	list, err = repo.ListGraphs(ctx)
	assertNoError(t, err)
	assertEqual(t, 3, len(list))
	assertEqual(t, "alpha", list[0].Name)
	assertEqual(t, "empty", list[1].Name)
	assertEqual(t, "zeta", list[2].Name)

	assertEqual(t, 3, list[0].Nodes)
	assertEqual(t, 5, list[0].Links)
	assertEqual(t, 2, list[0].Properties)
	assertEqual(t, 0, list[1].Nodes)
	assertEqual(t, list[0].Checksum, list[2].Checksum)
}

func TestGetGraphNotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetGraph(context.Background(), "missing")
	assertErrorIs(t, err, repository.ErrGraphNotFound)
}

func TestDeleteGraph(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.SaveGraph(ctx, testGraph("tavern"))
	assertNoError(t, err)

	assertNoError(t, repo.DeleteGraph(ctx, "tavern"))

	for _, table := range []string{"nodes", "links", "properties", "comments"} {
		assertEqual(t, 0, countRows(t, repo.db, table, "tavern"))
	}

	_, err = repo.GetGraph(ctx, "tavern")
	assertErrorIs(t, err, repository.ErrGraphNotFound)

	assertErrorIs(t, repo.DeleteGraph(ctx, "tavern"), repository.ErrGraphNotFound)
}

func TestSetPropertyValue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.SaveGraph(ctx, testGraph("tavern"))
	assertNoError(t, err)
	before, err := repo.ListGraphs(ctx)
	assertNoError(t, err)

	assertNoError(t, repo.SetPropertyValue(ctx, "tavern", "gold", "99"))

	loaded, err := repo.GetGraph(ctx, "tavern")
	assertNoError(t, err)
	value, ok := loaded.PropertyValue("gold")
	assertEqual(t, true, ok)
	assertEqual(t, "99", value)
	assertEqual(t, "name", loaded.Properties[0].Name)

	after, err := repo.ListGraphs(ctx)
	assertNoError(t, err)
	if before[0].Checksum == after[0].Checksum {
		t.Fatal("checksum should follow the property change")
	}

	assertErrorIs(t, repo.SetPropertyValue(ctx, "tavern", "silver", "1"), domain.ErrPropertyNotFound)
	assertErrorIs(t, repo.SetPropertyValue(ctx, "missing", "gold", "1"), repository.ErrGraphNotFound)
}
