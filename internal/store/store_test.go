package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/litescript/ls-synodic/internal/ephem"
)

func memStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRows(start time.Time, n int) []ephem.TableRow {
	rows := make([]ephem.TableRow, n)
	for i := range rows {
		rows[i] = ephem.TableRow{
			Time:   start.Add(time.Duration(i) * time.Hour),
			LonDeg: 10 + float64(i)*0.5,
			LatDeg: -1.25,
			DistAU: 1.5 + float64(i)*0.001,
		}
	}
	return rows
}

func TestSaveAndLoad(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	key := ephem.TableKey{Body: ephem.Mars, Start: start, Step: time.Hour}

	if _, ok, err := s.LoadTable(ctx, key); err != nil || ok {
		t.Fatalf("LoadTable before save = ok %v, err %v", ok, err)
	}

	want := sampleRows(start, 5)
	if err := s.SaveTable(ctx, key, want); err != nil {
		t.Fatalf("SaveTable: %v", err)
	}

	got, ok, err := s.LoadTable(ctx, key)
	if err != nil || !ok {
		t.Fatalf("LoadTable = ok %v, err %v", ok, err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Time.Equal(want[i].Time) || got[i].LonDeg != want[i].LonDeg ||
			got[i].LatDeg != want[i].LatDeg || got[i].DistAU != want[i].DistAU {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	other := key
	other.Body = ephem.Venus
	if _, ok, _ := s.LoadTable(ctx, other); ok {
		t.Error("rows leaked across bodies")
	}
}

func TestSaveReplaces(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()
	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	key := ephem.TableKey{Body: ephem.Jupiter, Start: start, Step: time.Hour}

	if err := s.SaveTable(ctx, key, sampleRows(start, 10)); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveTable(ctx, key, sampleRows(start, 3)); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.LoadTable(ctx, key)
	if err != nil || !ok || len(got) != 3 {
		t.Fatalf("LoadTable = %d rows, ok %v, err %v; want 3", len(got), ok, err)
	}
	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Chunks != 1 || st.Rows != 3 {
		t.Errorf("Stats = %+v, want 1 chunk, 3 rows", st)
	}
}

func TestEmptyTableIsPresent(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()
	key := ephem.TableKey{Body: ephem.Pluto, Start: time.Unix(0, 0), Step: time.Hour}

	if err := s.SaveTable(ctx, key, nil); err != nil {
		t.Fatal(err)
	}
	rows, ok, err := s.LoadTable(ctx, key)
	if err != nil || !ok || len(rows) != 0 {
		t.Errorf("LoadTable = %v, ok %v, err %v; want empty and present", rows, ok, err)
	}
}

func TestPrune(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	old := ephem.TableKey{Body: ephem.Mars, Start: now.Add(-720 * time.Hour), Step: time.Hour}
	fresh := ephem.TableKey{Body: ephem.Mars, Start: now, Step: time.Hour}

	s.now = func() time.Time { return now.Add(-48 * time.Hour) }
	if err := s.SaveTable(ctx, old, sampleRows(old.Start, 4)); err != nil {
		t.Fatal(err)
	}
	s.now = func() time.Time { return now }
	if err := s.SaveTable(ctx, fresh, sampleRows(fresh.Start, 4)); err != nil {
		t.Fatal(err)
	}

	n, err := s.Prune(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Prune removed %d chunks, want 1", n)
	}
	if _, ok, _ := s.LoadTable(ctx, old); ok {
		t.Error("old chunk still present")
	}
	if _, ok, _ := s.LoadTable(ctx, fresh); !ok {
		t.Error("fresh chunk pruned")
	}
	st, _ := s.Stats(ctx)
	if st.Rows != 4 {
		t.Errorf("rows after prune = %d, want 4", st.Rows)
	}
}

func TestReopenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.db")
	ctx := context.Background()
	key := ephem.TableKey{Body: ephem.Saturn, Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Step: time.Hour}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.SaveTable(ctx, key, sampleRows(key.Start, 6)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	rows, ok, err := s.LoadTable(ctx, key)
	if err != nil || !ok || len(rows) != 6 {
		t.Errorf("after reopen: %d rows, ok %v, err %v", len(rows), ok, err)
	}
}
