package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stanstrup/rePredRet/internal/dataset"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "predret.db"))
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// sourceFixture writes datasets.jsonl plus the matching CSV tables and
// returns the two paths RebuildFromSource expects.
func sourceFixture(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}

	jsonlPath := filepath.Join(dir, "datasets.jsonl")
	for _, id := range []string{"a", "b"} {
		if err := AppendDataset(jsonlPath, testDataset(id)); err != nil {
			t.Fatal(err)
		}
	}

	writeCSV := func(id string, ms []dataset.Measurement) {
		if err := dataset.WriteMeasurements(filepath.Join(dataDir, id+".csv"), ms); err != nil {
			t.Fatal(err)
		}
	}
	writeCSV("a", []dataset.Measurement{
		{Compound: "Caffeine", InChI: "InChI=1S/caf", RT: 3.2},
		{Compound: "Glucose", RT: 1.1},
	})
	writeCSV("b", []dataset.Measurement{
		{Compound: "Caffeine", InChI: "InChI=1S/caf", RT: 4.5},
	})

	return jsonlPath, dataDir
}

func TestRebuildFromSource(t *testing.T) {
	db := openTestDB(t)
	jsonlPath, dataDir := sourceFixture(t)

	dsCount, mCount, err := db.RebuildFromSource(jsonlPath, dataDir, dataset.KeyInChI)
	if err != nil {
		t.Fatalf("RebuildFromSource() error = %v", err)
	}
	if dsCount != 2 || mCount != 3 {
		t.Errorf("counts = (%d, %d), want (2, 3)", dsCount, mCount)
	}

	t.Run("rebuild is idempotent", func(t *testing.T) {
		dsCount, mCount, err := db.RebuildFromSource(jsonlPath, dataDir, dataset.KeyInChI)
		if err != nil {
			t.Fatalf("second RebuildFromSource() error = %v", err)
		}
		if dsCount != 2 || mCount != 3 {
			t.Errorf("counts after rebuild = (%d, %d), want (2, 3)", dsCount, mCount)
		}
	})

	t.Run("list and count", func(t *testing.T) {
		datasets, err := db.ListDatasets(0)
		if err != nil {
			t.Fatalf("ListDatasets() error = %v", err)
		}
		if len(datasets) != 2 || datasets[0].ID != "a" {
			t.Errorf("datasets = %+v", datasets)
		}

		limited, err := db.ListDatasets(1)
		if err != nil {
			t.Fatal(err)
		}
		if len(limited) != 1 {
			t.Errorf("got %d datasets with limit 1", len(limited))
		}

		n, err := db.CountDatasets()
		if err != nil {
			t.Fatal(err)
		}
		if n != 2 {
			t.Errorf("CountDatasets() = %d, want 2", n)
		}
	})

	t.Run("get dataset", func(t *testing.T) {
		ds, err := db.GetDataset("a")
		if err != nil {
			t.Fatalf("GetDataset() error = %v", err)
		}
		if ds == nil {
			t.Fatal("GetDataset(a) = nil")
		}
		if ds.Name != "System a" || ds.Fingerprint != "fp-a" {
			t.Errorf("dataset = %+v", ds)
		}
		if !ds.AddedAt.Equal(testDataset("a").AddedAt) {
			t.Errorf("AddedAt = %v", ds.AddedAt)
		}

		missing, err := db.GetDataset("nope")
		if err != nil {
			t.Fatal(err)
		}
		if missing != nil {
			t.Errorf("GetDataset(nope) = %+v, want nil", missing)
		}
	})

	t.Run("measurements ordered by rt", func(t *testing.T) {
		ms, err := db.GetMeasurements("a")
		if err != nil {
			t.Fatalf("GetMeasurements() error = %v", err)
		}
		if len(ms) != 2 {
			t.Fatalf("got %d measurements, want 2", len(ms))
		}
		if ms[0].Compound != "Glucose" || ms[1].Compound != "Caffeine" {
			t.Errorf("order = [%s, %s], want [Glucose, Caffeine]", ms[0].Compound, ms[1].Compound)
		}
		if ms[1].InChI != "InChI=1S/caf" {
			t.Errorf("InChI = %q", ms[1].InChI)
		}
	})
}

func TestRebuildFromSource_MissingCSV(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()
	jsonlPath := filepath.Join(dir, "datasets.jsonl")
	if err := AppendDataset(jsonlPath, testDataset("a")); err != nil {
		t.Fatal(err)
	}

	if _, _, err := db.RebuildFromSource(jsonlPath, dir, dataset.KeyInChI); err == nil {
		t.Fatal("expected error when a dataset's CSV is missing")
	}
}

func TestModelsRoundtrip(t *testing.T) {
	db := openTestDB(t)
	rows := []ModelRow{
		{Sys1: "b", Sys2: "a", Compounds: 12, MedianCIWidth: 1.5, MedianAbsError: 0.3, CILevel: 0.95, BuiltAt: "2026-03-01T12:00:00Z", RunID: "run-1"},
		{Sys1: "a", Sys2: "b", Compounds: 12, MedianCIWidth: 1.2, MedianAbsError: 0.2, CILevel: 0.95, BuiltAt: "2026-03-01T12:00:00Z", RunID: "run-1"},
	}

	if err := db.ReplaceModels(rows); err != nil {
		t.Fatalf("ReplaceModels() error = %v", err)
	}

	got, err := db.ListModels()
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d models, want 2", len(got))
	}
	if got[0].Sys1 != "a" || got[1].Sys1 != "b" {
		t.Errorf("order = [%s, %s], want sorted by pair", got[0].Sys1, got[1].Sys1)
	}

	n, err := db.CountModels()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("CountModels() = %d, want 2", n)
	}

	// Replace clears previous rows.
	if err := db.ReplaceModels(nil); err != nil {
		t.Fatal(err)
	}
	if n, _ := db.CountModels(); n != 0 {
		t.Errorf("CountModels() after clear = %d, want 0", n)
	}
}

func TestFailuresRoundtrip(t *testing.T) {
	db := openTestDB(t)
	failures := []FailureRow{
		{Sys1: "a", Sys2: "c", Message: "too few shared compounds: 4 < 10", RunID: "run-1"},
	}

	if err := db.ReplaceFailures(failures); err != nil {
		t.Fatalf("ReplaceFailures() error = %v", err)
	}

	got, err := db.ListFailures()
	if err != nil {
		t.Fatalf("ListFailures() error = %v", err)
	}
	if len(got) != 1 || got[0].Message != failures[0].Message {
		t.Errorf("failures = %+v", got)
	}

	if err := db.ReplaceFailures(nil); err != nil {
		t.Fatal(err)
	}
	if got, _ := db.ListFailures(); len(got) != 0 {
		t.Errorf("failures after clear = %+v", got)
	}
}
