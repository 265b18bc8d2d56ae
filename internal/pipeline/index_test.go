package pipeline

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func testEntry(sys1, sys2 string) IndexEntry {
	return IndexEntry{
		Sys1:      sys1,
		Sys2:      sys2,
		Compounds: 12,
		CILevel:   0.95,
		BuiltAt:   "2026-03-01T12:00:00Z",
		RunID:     "run-1",
	}
}

func TestIndex_PutGetRemove(t *testing.T) {
	idx := &Index{}

	idx.Put(testEntry("a", "b"))
	idx.Put(testEntry("b", "a"))

	if e := idx.Get("a", "b"); e == nil || e.Sys2 != "b" {
		t.Fatalf("Get(a, b) = %+v", e)
	}
	if e := idx.Get("a", "c"); e != nil {
		t.Errorf("Get(a, c) = %+v, want nil", e)
	}

	// Put replaces in place.
	updated := testEntry("a", "b")
	updated.Compounds = 99
	idx.Put(updated)
	if len(idx.Entries) != 2 {
		t.Fatalf("got %d entries after replace, want 2", len(idx.Entries))
	}
	if idx.Get("a", "b").Compounds != 99 {
		t.Error("Put did not replace the existing entry")
	}

	if !idx.Remove("a", "b") {
		t.Error("Remove(a, b) = false, want true")
	}
	if idx.Remove("a", "b") {
		t.Error("second Remove(a, b) = true, want false")
	}
	if len(idx.Entries) != 1 {
		t.Errorf("got %d entries after remove, want 1", len(idx.Entries))
	}
}

func TestIndex_RemoveSystem(t *testing.T) {
	idx := &Index{}
	idx.Put(testEntry("a", "b"))
	idx.Put(testEntry("b", "a"))
	idx.Put(testEntry("b", "c"))
	idx.Put(testEntry("c", "b"))

	evicted := idx.RemoveSystem("a")
	if len(evicted) != 2 {
		t.Fatalf("evicted %d entries, want 2", len(evicted))
	}
	for _, e := range evicted {
		if e.Sys1 != "a" && e.Sys2 != "a" {
			t.Errorf("evicted entry %s->%s does not touch a", e.Sys1, e.Sys2)
		}
	}
	if len(idx.Entries) != 2 {
		t.Errorf("got %d remaining entries, want 2", len(idx.Entries))
	}
	if idx.Get("b", "c") == nil || idx.Get("c", "b") == nil {
		t.Error("entries not touching a were dropped")
	}
}

func TestIndex_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")

	idx := &Index{RunID: "run-1"}
	idx.Put(testEntry("b", "a"))
	idx.Put(testEntry("a", "b"))
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadIndex(path)
	if err != nil {
		t.Fatalf("LoadIndex() error = %v", err)
	}
	if loaded.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", loaded.RunID)
	}
	// Save sorts by pair.
	want := []string{"a", "b"}
	got := []string{loaded.Entries[0].Sys1, loaded.Entries[1].Sys1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("entry order = %v, want %v", got, want)
	}
}

func TestLoadIndex_Missing(t *testing.T) {
	idx, err := LoadIndex(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadIndex() error = %v", err)
	}
	if len(idx.Entries) != 0 {
		t.Errorf("got %d entries, want empty index", len(idx.Entries))
	}
}

func TestIndex_WriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.csv")

	idx := &Index{}
	idx.Put(testEntry("a", "b"))
	if err := idx.WriteCSV(path); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header plus one row", len(lines))
	}
	if !strings.HasPrefix(lines[0], "sys1,sys2,compounds") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "a,b,12") {
		t.Errorf("unexpected row: %s", lines[1])
	}
}
